package entity

import (
	"context"

	"github.com/sourcelore/sourcelore/domain/repository"
)

// EntityStore persists and queries CodeEntity records.
type EntityStore interface {
	Find(ctx context.Context, options ...repository.Option) ([]CodeEntity, error)
	FindOne(ctx context.Context, options ...repository.Option) (CodeEntity, error)
	Count(ctx context.Context, options ...repository.Option) (int64, error)
	Save(ctx context.Context, entity CodeEntity) (CodeEntity, error)
	SaveAll(ctx context.Context, entities []CodeEntity) ([]CodeEntity, error)
	Delete(ctx context.Context, entity CodeEntity) error
	DeleteByRepositoryID(ctx context.Context, repositoryID int64) error
}

// RelationshipStore persists and queries CodeRelationship records.
type RelationshipStore interface {
	Find(ctx context.Context, options ...repository.Option) ([]CodeRelationship, error)
	SaveAll(ctx context.Context, relationships []CodeRelationship) ([]CodeRelationship, error)
	DeleteByRepositoryID(ctx context.Context, repositoryID int64) error
}

// Collection is a read-only view over an EntityStore, matching the
// generic Collection[T] pattern used by domain/repository.
type Collection struct {
	store EntityStore
}

// NewCollection wraps an EntityStore as a read-only Collection.
func NewCollection(store EntityStore) Collection {
	return Collection{store: store}
}

func (c Collection) Find(ctx context.Context, options ...repository.Option) ([]CodeEntity, error) {
	return c.store.Find(ctx, options...)
}

func (c Collection) Get(ctx context.Context, options ...repository.Option) (CodeEntity, error) {
	return c.store.FindOne(ctx, options...)
}

func (c Collection) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	return c.store.Count(ctx, options...)
}
