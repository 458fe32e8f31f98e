package persistence

import (
	"context"

	"github.com/sourcelore/sourcelore/domain/entity"
	"github.com/sourcelore/sourcelore/internal/database"
)

// EntityStore implements entity.EntityStore using GORM.
type EntityStore struct {
	database.Repository[entity.CodeEntity, EntityModel]
}

// NewEntityStore creates a new EntityStore.
func NewEntityStore(db database.Database) EntityStore {
	return EntityStore{
		Repository: database.NewRepository[entity.CodeEntity, EntityModel](db, EntityMapper{}, "code entity"),
	}
}

// Save creates or updates a code entity, keyed by its deterministic entity ID.
func (s EntityStore) Save(ctx context.Context, ce entity.CodeEntity) (entity.CodeEntity, error) {
	model := s.Mapper().ToModel(ce)
	if result := s.DB(ctx).Save(&model); result.Error != nil {
		return entity.CodeEntity{}, result.Error
	}
	return s.Mapper().ToDomain(model), nil
}

// SaveAll persists a batch of code entities.
func (s EntityStore) SaveAll(ctx context.Context, entities []entity.CodeEntity) ([]entity.CodeEntity, error) {
	saved := make([]entity.CodeEntity, 0, len(entities))
	for _, ce := range entities {
		result, err := s.Save(ctx, ce)
		if err != nil {
			return nil, err
		}
		saved = append(saved, result)
	}
	return saved, nil
}

// Delete removes a code entity.
func (s EntityStore) Delete(ctx context.Context, ce entity.CodeEntity) error {
	model := s.Mapper().ToModel(ce)
	return s.DB(ctx).Delete(&model).Error
}

// DeleteByRepositoryID removes every code entity belonging to a repository.
func (s EntityStore) DeleteByRepositoryID(ctx context.Context, repositoryID int64) error {
	return s.DeleteBy(ctx, entity.WithRepositoryID(repositoryID))
}
