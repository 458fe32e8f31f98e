package persistence

import (
	"context"

	"github.com/sourcelore/sourcelore/domain/entity"
	"github.com/sourcelore/sourcelore/internal/database"
)

// RelationshipStore implements entity.RelationshipStore using GORM.
type RelationshipStore struct {
	database.Repository[entity.CodeRelationship, RelationshipModel]
}

// NewRelationshipStore creates a new RelationshipStore.
func NewRelationshipStore(db database.Database) RelationshipStore {
	return RelationshipStore{
		Repository: database.NewRepository[entity.CodeRelationship, RelationshipModel](db, RelationshipMapper{}, "code relationship"),
	}
}

// SaveAll persists a batch of relationships.
func (s RelationshipStore) SaveAll(ctx context.Context, relationships []entity.CodeRelationship) ([]entity.CodeRelationship, error) {
	saved := make([]entity.CodeRelationship, 0, len(relationships))
	for _, rel := range relationships {
		model := s.Mapper().ToModel(rel)
		if result := s.DB(ctx).Create(&model); result.Error != nil {
			return nil, result.Error
		}
		saved = append(saved, s.Mapper().ToDomain(model))
	}
	return saved, nil
}

// DeleteByRepositoryID removes every relationship whose source entity
// belongs to the given repository.
func (s RelationshipStore) DeleteByRepositoryID(ctx context.Context, repositoryID int64) error {
	subquery := s.DB(ctx).Model(&EntityModel{}).Select("entity_id").Where("repository_id = ?", repositoryID)
	return s.DB(ctx).Where("source_entity_id IN (?)", subquery).Delete(&RelationshipModel{}).Error
}
