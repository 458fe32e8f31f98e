package documentation

import (
	"context"

	"github.com/sourcelore/sourcelore/domain/repository"
)

// Store persists and queries Documentation aggregates.
type Store interface {
	Find(ctx context.Context, options ...repository.Option) ([]Documentation, error)
	FindOne(ctx context.Context, options ...repository.Option) (Documentation, error)
	Save(ctx context.Context, d Documentation) (Documentation, error)
}

// Collection is a read-only view over a Store, matching the Collection
// pattern used across the other domain packages.
type Collection struct {
	store Store
}

// NewCollection wraps a Store as a read-only Collection.
func NewCollection(store Store) Collection {
	return Collection{store: store}
}

func (c Collection) Find(ctx context.Context, options ...repository.Option) ([]Documentation, error) {
	return c.store.Find(ctx, options...)
}

func (c Collection) Get(ctx context.Context, options ...repository.Option) (Documentation, error) {
	return c.store.FindOne(ctx, options...)
}
