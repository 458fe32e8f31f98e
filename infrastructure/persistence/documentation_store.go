package persistence

import (
	"context"
	"fmt"

	"github.com/sourcelore/sourcelore/domain/documentation"
	"github.com/sourcelore/sourcelore/internal/database"
)

// DocumentationStore implements documentation.Store using GORM.
type DocumentationStore struct {
	database.Repository[documentation.Documentation, DocumentationModel]
}

// NewDocumentationStore creates a new DocumentationStore.
func NewDocumentationStore(db database.Database) DocumentationStore {
	return DocumentationStore{
		Repository: database.NewRepository[documentation.Documentation, DocumentationModel](db, DocumentationMapper{}, "documentation"),
	}
}

// Save creates or updates a repository's documentation. A zero ID inserts
// a new row; the uniqueIndex on repository_id enforces the one-aggregate-
// per-repository invariant at the database level.
func (s DocumentationStore) Save(ctx context.Context, d documentation.Documentation) (documentation.Documentation, error) {
	model := s.Mapper().ToModel(d)
	if result := s.DB(ctx).Save(&model); result.Error != nil {
		return documentation.Documentation{}, fmt.Errorf("save documentation: %w", result.Error)
	}
	return s.Mapper().ToDomain(model), nil
}
