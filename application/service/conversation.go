package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcelore/sourcelore/domain/conversation"
)

// Conversation orchestrates the Conversation Store (C7): starting new
// conversations, appending messages through the aggregate's own invariants,
// and driving the Active -> Archived -> Deleted lifecycle. The aggregate
// itself (conversation.Conversation) enforces every transition rule; this
// service's job is to load, mutate, and persist.
type Conversation struct {
	conversation.Collection
	store conversation.Store
}

// NewConversation creates a new Conversation service.
func NewConversation(store conversation.Store) *Conversation {
	return &Conversation{
		Collection: conversation.NewCollection(store),
		store:      store,
	}
}

// Start begins a new conversation for the given user.
func (c *Conversation) Start(ctx context.Context, userID, title string, ctxValue conversation.Context) (conversation.Conversation, error) {
	conv, err := conversation.NewConversation(userID, title, ctxValue)
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("start conversation: %w", err)
	}
	return c.save(ctx, conv)
}

// AppendMessage adds a message to an existing conversation, returning the
// updated conversation and the appended message.
func (c *Conversation) AppendMessage(
	ctx context.Context,
	conv conversation.Conversation,
	messageType conversation.MessageType,
	content string,
	parentMessageID *int64,
	attachments []string,
) (conversation.Conversation, conversation.Message, error) {
	updated, msg, err := conv.AddMessage(messageType, content, parentMessageID, attachments)
	if err != nil {
		return conv, conversation.Message{}, fmt.Errorf("append message: %w", err)
	}
	saved, err := c.save(ctx, updated)
	if err != nil {
		return saved, conversation.Message{}, err
	}
	return saved, msg, nil
}

// Archive transitions an Active conversation to Archived.
func (c *Conversation) Archive(ctx context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	archived, err := conv.Archive()
	if err != nil {
		return conv, fmt.Errorf("archive conversation: %w", err)
	}
	return c.save(ctx, archived)
}

// Delete transitions a conversation to Deleted.
func (c *Conversation) Delete(ctx context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	deleted, err := conv.Delete()
	if err != nil {
		return conv, fmt.Errorf("delete conversation: %w", err)
	}
	return c.save(ctx, deleted)
}

// UpdateContext replaces a conversation's retrieval context, e.g. when a
// user narrows the conversation to a different set of repositories.
func (c *Conversation) UpdateContext(ctx context.Context, conv conversation.Conversation, ctxValue conversation.Context) (conversation.Conversation, error) {
	return c.save(ctx, conv.WithContext(ctxValue))
}

// Statistics returns conversation/message counts for a user over a time
// range, used by usage dashboards.
func (c *Conversation) Statistics(ctx context.Context, userID string, from, to time.Time) (conversation.Statistics, error) {
	return c.store.Statistics(ctx, userID, from, to)
}

func (c *Conversation) save(ctx context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	saved, err := c.store.Save(ctx, conv)
	if err != nil {
		return conv, fmt.Errorf("save conversation: %w", err)
	}
	return saved, nil
}
