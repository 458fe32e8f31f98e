package service

import (
	"context"

	"github.com/sourcelore/sourcelore/domain/entity"
	"github.com/sourcelore/sourcelore/domain/repository"
)

// EntityListParams configures code entity listing.
type EntityListParams struct {
	RepositoryID int64
	FilePath     string
	Kind         entity.Kind
	Limit        int
	Offset       int
}

// Entity provides code entity and relationship query operations.
// Embeds Collection for Find/Get; bespoke methods handle repository-scoped
// listing and relationship lookups.
type Entity struct {
	entity.Collection
	entityStore       entity.EntityStore
	relationshipStore entity.RelationshipStore
}

// NewEntity creates a new Entity service.
func NewEntity(entityStore entity.EntityStore, relationshipStore entity.RelationshipStore) *Entity {
	return &Entity{
		Collection:        entity.NewCollection(entityStore),
		entityStore:       entityStore,
		relationshipStore: relationshipStore,
	}
}

// List returns code entities matching the given filters.
func (e *Entity) List(ctx context.Context, params *EntityListParams) ([]entity.CodeEntity, error) {
	var options []repository.Option
	if params.RepositoryID != 0 {
		options = append(options, entity.WithRepositoryID(params.RepositoryID))
	}
	if params.FilePath != "" {
		options = append(options, entity.WithFilePath(params.FilePath))
	}
	if params.Kind != "" {
		options = append(options, entity.WithKind(params.Kind))
	}
	if params.Limit > 0 {
		options = append(options, repository.WithPagination(params.Limit, params.Offset)...)
	}
	return e.entityStore.Find(ctx, options...)
}

// Count returns the total number of code entities matching the repository filter.
func (e *Entity) Count(ctx context.Context, repositoryID int64) (int64, error) {
	return e.entityStore.Count(ctx, entity.WithRepositoryID(repositoryID))
}

// ByID retrieves a single code entity by its deterministic entity ID.
func (e *Entity) ByID(ctx context.Context, entityID string) (entity.CodeEntity, error) {
	return e.entityStore.FindOne(ctx, entity.WithEntityID(entityID))
}

// RelationshipsFrom returns every relationship originating at the given entity.
func (e *Entity) RelationshipsFrom(ctx context.Context, entityID string) ([]entity.CodeRelationship, error) {
	return e.relationshipStore.Find(ctx, entity.WithSourceEntityID(entityID))
}

// RelationshipsTo returns every relationship targeting the given entity.
func (e *Entity) RelationshipsTo(ctx context.Context, entityID string) ([]entity.CodeRelationship, error) {
	return e.relationshipStore.Find(ctx, entity.WithTargetEntityID(entityID))
}

// DeleteForRepository removes every code entity and relationship belonging
// to a repository, e.g. before a full re-index.
func (e *Entity) DeleteForRepository(ctx context.Context, repositoryID int64) error {
	if err := e.relationshipStore.DeleteByRepositoryID(ctx, repositoryID); err != nil {
		return err
	}
	return e.entityStore.DeleteByRepositoryID(ctx, repositoryID)
}
