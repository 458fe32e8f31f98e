package conversation

import (
	"time"

	"github.com/sourcelore/sourcelore/domain/repository"
)

// WithUserID filters conversations by owner.
func WithUserID(userID string) repository.Option {
	return repository.WithCondition("user_id", userID)
}

// WithStatus filters conversations by lifecycle status.
func WithStatus(status Status) repository.Option {
	return repository.WithCondition("status", string(status))
}

// WithRepositoryIDs filters conversations whose context spans any of the
// given repository IDs.
func WithRepositoryIDs(ids []int64) repository.Option {
	return repository.WithConditionIn("repository_ids", ids)
}

// WithSearchTerm filters conversations whose title or message content
// matches the given term.
func WithSearchTerm(term string) repository.Option {
	return repository.WithCondition("search_term", term)
}

// WithOlderThan filters conversations whose lastActivityAt is before the
// given cutoff, used by getForCleanup and bulkArchive.
func WithOlderThan(cutoff time.Time) repository.Option {
	return repository.WithCondition("last_activity_before", cutoff)
}
