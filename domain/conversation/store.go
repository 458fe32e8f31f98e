package conversation

import (
	"context"
	"time"

	"github.com/sourcelore/sourcelore/domain/repository"
)

// Statistics summarizes a user's (or the whole store's) conversation
// activity over a time range.
type Statistics struct {
	TotalConversations  int64
	ActiveConversations int64
	ArchivedConversations int64
	TotalMessages       int64
}

// Store persists and queries Conversation aggregates. Every operation is
// idempotent by natural key where applicable, per spec.
type Store interface {
	Save(ctx context.Context, c Conversation) (Conversation, error)
	FindOne(ctx context.Context, options ...repository.Option) (Conversation, error)
	Find(ctx context.Context, options ...repository.Option) ([]Conversation, error)
	Delete(ctx context.Context, id int64) error

	// GetForCleanup returns Archived or Deleted conversations whose
	// lastActivityAt is older than retentionDays, up to limit rows.
	GetForCleanup(ctx context.Context, retentionDays int, limit int) ([]Conversation, error)

	// BulkArchive archives every Active conversation for userID (or every
	// user's, if userID is empty) untouched for more than olderThanDays.
	BulkArchive(ctx context.Context, userID string, olderThanDays int) (int64, error)

	Statistics(ctx context.Context, userID string, from, to time.Time) (Statistics, error)
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

func (c Collection) Find(ctx context.Context, options ...repository.Option) ([]Conversation, error) {
	return c.store.Find(ctx, options...)
}

func (c Collection) Get(ctx context.Context, options ...repository.Option) (Conversation, error) {
	return c.store.FindOne(ctx, options...)
}
