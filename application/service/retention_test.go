package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sourcelore/sourcelore/domain/conversation"
	"github.com/sourcelore/sourcelore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRetentionStore implements conversation.Store, recording the
// arguments passed to BulkArchive/GetForCleanup/Delete so tests can assert
// on the sweep's behavior without a real database.
type recordingRetentionStore struct {
	*fakeConversationStore

	bulkArchiveUserID string
	bulkArchiveDays   int
	bulkArchiveCalls  int

	cleanupRetentionDays int
	cleanupLimit         int
	cleanupResult        []conversation.Conversation
	cleanupErr           error

	mu       sync.Mutex
	deleted  []int64
	deleteErr error
}

func (s *recordingRetentionStore) BulkArchive(_ context.Context, userID string, olderThanDays int) (int64, error) {
	s.bulkArchiveUserID = userID
	s.bulkArchiveDays = olderThanDays
	s.bulkArchiveCalls++
	return int64(len(s.cleanupResult)), nil
}

func (s *recordingRetentionStore) GetForCleanup(_ context.Context, retentionDays, limit int) ([]conversation.Conversation, error) {
	s.cleanupRetentionDays = retentionDays
	s.cleanupLimit = limit
	if s.cleanupErr != nil {
		return nil, s.cleanupErr
	}
	return s.cleanupResult, nil
}

func (s *recordingRetentionStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRetentionConfig() config.RetentionConfig {
	return config.NewRetentionConfig().
		WithInactivityDays(14).
		WithRetentionDays(60).
		WithSweepLimit(10)
}

func TestRetention_ArchiveInactive(t *testing.T) {
	store := &recordingRetentionStore{fakeConversationStore: newFakeConversationStore()}
	r := NewRetention(testRetentionConfig(), store, silentLogger())

	n, err := r.ArchiveInactive(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, "user-1", store.bulkArchiveUserID)
	assert.Equal(t, 14, store.bulkArchiveDays)
	assert.Equal(t, 1, store.bulkArchiveCalls)
}

func TestRetention_Cleanup_DeletesEachStaleConversation(t *testing.T) {
	ctx := conversation.NewContext(nil, "", "", nil)
	c1, err := conversation.NewConversation("user-1", "first", ctx)
	require.NoError(t, err)
	c1 = c1.WithID(1)
	c2, err := conversation.NewConversation("user-2", "second", ctx)
	require.NoError(t, err)
	c2 = c2.WithID(2)

	store := &recordingRetentionStore{
		fakeConversationStore: newFakeConversationStore(),
		cleanupResult:         []conversation.Conversation{c1, c2},
	}
	r := NewRetention(testRetentionConfig(), store, silentLogger())

	purged, err := r.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, purged)
	assert.Equal(t, 60, store.cleanupRetentionDays)
	assert.Equal(t, 10, store.cleanupLimit)
	assert.Equal(t, []int64{1, 2}, store.deleted)
}

func TestRetention_Cleanup_PropagatesFindError(t *testing.T) {
	lookupErr := errors.New("store unavailable")
	store := &recordingRetentionStore{
		fakeConversationStore: newFakeConversationStore(),
		cleanupErr:            lookupErr,
	}
	r := NewRetention(testRetentionConfig(), store, silentLogger())

	_, err := r.Cleanup(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, lookupErr)
}

func TestRetention_ArchiveHandler(t *testing.T) {
	store := &recordingRetentionStore{fakeConversationStore: newFakeConversationStore()}
	r := NewRetention(testRetentionConfig(), store, silentLogger())

	err := r.ArchiveHandler().Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, store.bulkArchiveCalls)
}

func TestRetention_CleanupHandler(t *testing.T) {
	store := &recordingRetentionStore{fakeConversationStore: newFakeConversationStore()}
	r := NewRetention(testRetentionConfig(), store, silentLogger())

	err := r.CleanupHandler().Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 60, store.cleanupRetentionDays)
}

func TestRetentionConfig_Defaults(t *testing.T) {
	cfg := config.NewRetentionConfig()
	assert.True(t, cfg.Enabled())
	assert.Equal(t, 90, cfg.RetentionDays())
	assert.Equal(t, 30, cfg.InactivityDays())
	assert.Equal(t, 500, cfg.SweepLimit())
	assert.Equal(t, time.Hour, cfg.Interval())
}
