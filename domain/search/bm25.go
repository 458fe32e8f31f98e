package search

import (
	"context"

	"github.com/sourcelore/sourcelore/domain/repository"
)

// BM25Store defines operations for BM25 full-text search indexing.
type BM25Store interface {
	// Index adds documents to the BM25 index.
	Index(ctx context.Context, request IndexRequest) error

	// Find performs BM25 keyword search filtered by options. The query
	// text is carried as a condition via WithQuery.
	Find(ctx context.Context, options ...repository.Option) ([]Result, error)

	// DeleteBy removes documents matching the given options.
	DeleteBy(ctx context.Context, options ...repository.Option) error
}
