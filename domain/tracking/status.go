package tracking

import (
	"time"

	"github.com/sourcelore/sourcelore/domain/task"
)

// IndexStatus represents the overall indexing status of a tracked repository,
// derived from the states of its constituent tasks.
type IndexStatus string

// IndexStatus values.
const (
	IndexStatusPending             IndexStatus = "pending"
	IndexStatusInProgress          IndexStatus = "in_progress"
	IndexStatusCompleted           IndexStatus = "completed"
	IndexStatusCompletedWithErrors IndexStatus = "completed_with_errors"
	IndexStatusFailed              IndexStatus = "failed"
)

// RepositoryStatusSummary provides a summary of repository indexing status.
// It aggregates task status information into a high-level view.
type RepositoryStatusSummary struct {
	status    IndexStatus
	message   string
	updatedAt time.Time
}

// NewRepositoryStatusSummary creates a new RepositoryStatusSummary.
func NewRepositoryStatusSummary(status IndexStatus, message string, updatedAt time.Time) RepositoryStatusSummary {
	return RepositoryStatusSummary{
		status:    status,
		message:   message,
		updatedAt: updatedAt,
	}
}

// Status returns the overall indexing status.
func (s RepositoryStatusSummary) Status() IndexStatus {
	return s.status
}

// Message returns the status message (typically error message if failed).
func (s RepositoryStatusSummary) Message() string {
	return s.message
}

// UpdatedAt returns the timestamp of the most recent activity.
func (s RepositoryStatusSummary) UpdatedAt() time.Time {
	return s.updatedAt
}

// StatusSummaryFromTasks derives a RepositoryStatusSummary from task statuses.
//
// If there are pending queue tasks, the status is IN_PROGRESS even if all
// current task.Status records are terminal. Otherwise, a single in-progress
// (or started) task puts the whole summary IN_PROGRESS. Once every task has
// reached a terminal state, the outcome depends on how many failed: none
// failed is COMPLETED, a minority failed is COMPLETED_WITH_ERRORS, and a
// majority (including a tie) failed is FAILED. Skipped tasks count as
// completed for this tally. The reported message is always the error of the
// most recently updated failed task, if any.
func StatusSummaryFromTasks(tasks []task.Status, pendingTaskCount int) RepositoryStatusSummary {
	now := time.Now()

	if len(tasks) == 0 {
		if pendingTaskCount > 0 {
			return NewRepositoryStatusSummary(IndexStatusInProgress, "", now)
		}
		return NewRepositoryStatusSummary(IndexStatusPending, "", now)
	}

	var mostRecentInProgress *task.Status
	for i := range tasks {
		t := &tasks[i]
		state := t.State()
		if state == task.ReportingStateInProgress || state == task.ReportingStateStarted {
			if mostRecentInProgress == nil || t.UpdatedAt().After(mostRecentInProgress.UpdatedAt()) {
				mostRecentInProgress = t
			}
		}
	}
	if mostRecentInProgress != nil {
		return NewRepositoryStatusSummary(IndexStatusInProgress, "", mostRecentInProgress.UpdatedAt())
	}

	if pendingTaskCount > 0 {
		return NewRepositoryStatusSummary(IndexStatusInProgress, "", now)
	}

	var failedCount, completedCount int
	var mostRecentFailed *task.Status
	var mostRecentUpdate time.Time

	for i := range tasks {
		t := &tasks[i]
		switch t.State() {
		case task.ReportingStateFailed:
			failedCount++
			if mostRecentFailed == nil || t.UpdatedAt().After(mostRecentFailed.UpdatedAt()) {
				mostRecentFailed = t
			}
		case task.ReportingStateCompleted, task.ReportingStateSkipped:
			completedCount++
		}
		if t.UpdatedAt().After(mostRecentUpdate) {
			mostRecentUpdate = t.UpdatedAt()
		}
	}

	if failedCount == 0 {
		return NewRepositoryStatusSummary(IndexStatusCompleted, "", mostRecentUpdate)
	}

	message := ""
	if mostRecentFailed != nil {
		message = mostRecentFailed.Error()
	}

	// A tie goes to failed.
	if failedCount >= completedCount {
		return NewRepositoryStatusSummary(IndexStatusFailed, message, mostRecentUpdate)
	}

	return NewRepositoryStatusSummary(IndexStatusCompletedWithErrors, message, mostRecentUpdate)
}
