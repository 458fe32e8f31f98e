package graphstore

import (
	"context"

	"github.com/sourcelore/sourcelore/domain/graph"
	"github.com/sourcelore/sourcelore/domain/repository"
	"github.com/sourcelore/sourcelore/internal/database"
)

// AutoMigrate creates or updates the graph/pattern tables.
func AutoMigrate(db database.Database) error {
	return db.GORM().AutoMigrate(&GraphModel{}, &PatternModel{})
}

// Store implements graph.Store using GORM.
type Store struct {
	database.Repository[graph.KnowledgeGraph, GraphModel]
}

// NewStore creates a new graph Store.
func NewStore(db database.Database) Store {
	return Store{
		Repository: database.NewRepository[graph.KnowledgeGraph, GraphModel](db, graphMapper{}, "knowledge graph"),
	}
}

// Save creates or updates a KnowledgeGraph. A zero ID inserts a new row;
// GORM assigns the autoincrement ID that Save then returns on the result.
func (s Store) Save(ctx context.Context, g graph.KnowledgeGraph) (graph.KnowledgeGraph, error) {
	model := s.Mapper().ToModel(g)
	if result := s.DB(ctx).Save(&model); result.Error != nil {
		return graph.KnowledgeGraph{}, result.Error
	}
	return s.Mapper().ToDomain(model), nil
}

// PatternStore implements graph.PatternStore using GORM.
type PatternStore struct {
	database.Repository[graph.ArchitecturalPattern, PatternModel]
}

// NewPatternStore creates a new PatternStore.
func NewPatternStore(db database.Database) PatternStore {
	return PatternStore{
		Repository: database.NewRepository[graph.ArchitecturalPattern, PatternModel](db, patternMapper{}, "architectural pattern"),
	}
}

// SaveAll replaces every pattern recorded for a repository with the given
// set, implementing the idempotent-rebuild guarantee: a rebuild with
// unchanged inputs persists the same patterns, since stale rows for that
// repository are cleared first.
func (s PatternStore) SaveAll(ctx context.Context, repositoryID int64, patterns []graph.ArchitecturalPattern) ([]graph.ArchitecturalPattern, error) {
	if err := s.DeleteByRepositoryID(ctx, repositoryID); err != nil {
		return nil, err
	}
	saved := make([]graph.ArchitecturalPattern, 0, len(patterns))
	for _, p := range patterns {
		model := s.Mapper().ToModel(p)
		if result := s.DB(ctx).Create(&model); result.Error != nil {
			return nil, result.Error
		}
		saved = append(saved, s.Mapper().ToDomain(model))
	}
	return saved, nil
}

// DeleteByRepositoryID removes every pattern recorded for a repository.
func (s PatternStore) DeleteByRepositoryID(ctx context.Context, repositoryID int64) error {
	return s.DeleteBy(ctx, repository.WithCondition("repository_id", repositoryID))
}
