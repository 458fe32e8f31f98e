package graph

import (
	"context"

	"github.com/sourcelore/sourcelore/domain/repository"
)

// Store persists and queries KnowledgeGraph aggregates.
type Store interface {
	Find(ctx context.Context, options ...repository.Option) ([]KnowledgeGraph, error)
	FindOne(ctx context.Context, options ...repository.Option) (KnowledgeGraph, error)
	Save(ctx context.Context, g KnowledgeGraph) (KnowledgeGraph, error)
}

// PatternStore persists and queries ArchitecturalPattern records.
type PatternStore interface {
	Find(ctx context.Context, options ...repository.Option) ([]ArchitecturalPattern, error)
	SaveAll(ctx context.Context, repositoryID int64, patterns []ArchitecturalPattern) ([]ArchitecturalPattern, error)
	DeleteByRepositoryID(ctx context.Context, repositoryID int64) error
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

func (c Collection) Find(ctx context.Context, options ...repository.Option) ([]KnowledgeGraph, error) {
	return c.store.Find(ctx, options...)
}

func (c Collection) Get(ctx context.Context, options ...repository.Option) (KnowledgeGraph, error) {
	return c.store.FindOne(ctx, options...)
}
