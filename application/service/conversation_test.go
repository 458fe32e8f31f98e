package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sourcelore/sourcelore/domain/conversation"
	"github.com/sourcelore/sourcelore/domain/repository"
	"github.com/sourcelore/sourcelore/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConversationStore struct {
	mu    sync.Mutex
	convs map[int64]conversation.Conversation
	next  int64
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{convs: map[int64]conversation.Conversation{}}
}

func (f *fakeConversationStore) Save(_ context.Context, c conversation.Conversation) (conversation.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID() == 0 {
		f.next++
		c = c.WithID(f.next)
	}
	f.convs[c.ID()] = c
	return c, nil
}

func (f *fakeConversationStore) FindOne(_ context.Context, _ ...repository.Option) (conversation.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		return c, nil
	}
	return conversation.Conversation{}, database.ErrNotFound
}

func (f *fakeConversationStore) Find(_ context.Context, _ ...repository.Option) ([]conversation.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]conversation.Conversation, 0, len(f.convs))
	for _, c := range f.convs {
		result = append(result, c)
	}
	return result, nil
}

func (f *fakeConversationStore) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.convs, id)
	return nil
}

func (f *fakeConversationStore) GetForCleanup(_ context.Context, _ int, _ int) ([]conversation.Conversation, error) {
	return nil, nil
}

func (f *fakeConversationStore) BulkArchive(_ context.Context, _ string, _ int) (int64, error) {
	return 0, nil
}

func (f *fakeConversationStore) Statistics(_ context.Context, _ string, _, _ time.Time) (conversation.Statistics, error) {
	return conversation.Statistics{}, nil
}

func TestConversation_Start(t *testing.T) {
	store := newFakeConversationStore()
	svc := NewConversation(store)

	ctxValue := conversation.NewContext([]int64{1, 2}, "backend", "debugging", nil)
	conv, err := svc.Start(context.Background(), "user-1", "Why is this failing?", ctxValue)
	require.NoError(t, err)

	assert.NotZero(t, conv.ID())
	assert.Equal(t, conversation.StatusActive, conv.Status())
	assert.Equal(t, []int64{1, 2}, conv.Context().RepositoryIDs())
}

func TestConversation_Start_EmptyUserID(t *testing.T) {
	store := newFakeConversationStore()
	svc := NewConversation(store)

	_, err := svc.Start(context.Background(), "", "title", conversation.Context{})
	require.Error(t, err)
	assert.ErrorIs(t, err, conversation.ErrEmptyUserID)
}

func TestConversation_AppendMessage(t *testing.T) {
	store := newFakeConversationStore()
	svc := NewConversation(store)

	conv, err := svc.Start(context.Background(), "user-1", "title", conversation.Context{})
	require.NoError(t, err)

	updated, msg, err := svc.AppendMessage(context.Background(), conv, conversation.MessageTypeUserQuery, "how does X work?", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, msg.Sequence())
	assert.Len(t, updated.Messages(), 1)
}

func TestConversation_AppendMessage_RejectsWhenNotActive(t *testing.T) {
	store := newFakeConversationStore()
	svc := NewConversation(store)

	conv, err := svc.Start(context.Background(), "user-1", "title", conversation.Context{})
	require.NoError(t, err)

	conv, err = svc.Archive(context.Background(), conv)
	require.NoError(t, err)

	_, _, err = svc.AppendMessage(context.Background(), conv, conversation.MessageTypeUserQuery, "hello", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, conversation.ErrNotActive)
}

func TestConversation_ArchiveThenDelete(t *testing.T) {
	store := newFakeConversationStore()
	svc := NewConversation(store)

	conv, err := svc.Start(context.Background(), "user-1", "title", conversation.Context{})
	require.NoError(t, err)

	conv, err = svc.Archive(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusArchived, conv.Status())

	conv, err = svc.Delete(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusDeleted, conv.Status())
}

func TestConversation_Delete_AlreadyDeletedFails(t *testing.T) {
	store := newFakeConversationStore()
	svc := NewConversation(store)

	conv, err := svc.Start(context.Background(), "user-1", "title", conversation.Context{})
	require.NoError(t, err)

	conv, err = svc.Delete(context.Background(), conv)
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), conv)
	require.Error(t, err)
	assert.ErrorIs(t, err, conversation.ErrAlreadyTerminal)
}

func TestConversation_UpdateContext(t *testing.T) {
	store := newFakeConversationStore()
	svc := NewConversation(store)

	conv, err := svc.Start(context.Background(), "user-1", "title", conversation.Context{})
	require.NoError(t, err)

	newCtx := conversation.NewContext([]int64{7}, "frontend", "", nil)
	conv, err = svc.UpdateContext(context.Background(), conv, newCtx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, conv.Context().RepositoryIDs())
}
