package task

import (
	"context"

	"github.com/sourcelore/sourcelore/domain/repository"
)

// TaskStore persists queued Task items. Existence of a row implies the
// task is pending; there is no separate status for "pending" — Delete
// removes it once a worker has dequeued and processed it.
type TaskStore interface {
	Get(ctx context.Context, id int64) (Task, error)
	FindAll(ctx context.Context) ([]Task, error)
	FindPending(ctx context.Context, options ...repository.Option) ([]Task, error)
	Save(ctx context.Context, t Task) (Task, error)
	SaveBulk(ctx context.Context, tasks []Task) ([]Task, error)
	Delete(ctx context.Context, t Task) error
	DeleteAll(ctx context.Context) error
	CountPending(ctx context.Context, options ...repository.Option) (int64, error)
	Exists(ctx context.Context, id int64) (bool, error)

	// Dequeue atomically claims and removes the highest-priority pending
	// task (ties broken by oldest created_at first).
	Dequeue(ctx context.Context) (Task, bool, error)
	// DequeueByOperation is Dequeue scoped to a single operation, used by
	// callers that want to drive one pipeline stage at a time.
	DequeueByOperation(ctx context.Context, operation Operation) (Task, bool, error)
}
