// Package conversation models chat conversations grounded in a repository's
// knowledge graph and documentation: an ordered, append-only message history
// behind a consistency-boundary aggregate, with an archive/delete lifecycle.
package conversation

import (
	"errors"
	"time"
)

// Status represents the lifecycle state of a Conversation.
type Status string

// Status values.
const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)

// Sentinel errors for Conversation construction and mutation.
var (
	ErrEmptyUserID       = errors.New("conversation: user id cannot be empty")
	ErrNotActive         = errors.New("conversation: messages may only be appended while active")
	ErrAlreadyTerminal   = errors.New("conversation: already archived or deleted")
)

// Context carries the cross-repository scope and steering hints for a
// conversation's retrieval: which repositories ground it, any domain hint,
// and free-form preferences (e.g. preferred answer length).
type Context struct {
	repositoryIDs []int64
	domain        string
	intentHint    string
	preferences   map[string]string
}

// NewContext creates a Context.
func NewContext(repositoryIDs []int64, domain, intentHint string, preferences map[string]string) Context {
	ids := append([]int64{}, repositoryIDs...)
	prefs := make(map[string]string, len(preferences))
	for k, v := range preferences {
		prefs[k] = v
	}
	return Context{repositoryIDs: ids, domain: domain, intentHint: intentHint, preferences: prefs}
}

func (c Context) RepositoryIDs() []int64 { return append([]int64{}, c.repositoryIDs...) }
func (c Context) Domain() string         { return c.domain }
func (c Context) IntentHint() string     { return c.intentHint }
func (c Context) Preferences() map[string]string {
	result := make(map[string]string, len(c.preferences))
	for k, v := range c.preferences {
		result[k] = v
	}
	return result
}

// Conversation is the aggregate root and consistency boundary for a chat
// session: message appends are only valid while Active, and
// lastActivityAt is monotonically non-decreasing with the latest message
// timestamp.
type Conversation struct {
	id             int64
	userID         string
	title          string
	status         Status
	context        Context
	messages       []Message
	metadata       map[string]string
	createdAt      time.Time
	lastActivityAt time.Time
}

// NewConversation creates a Conversation in the Active state.
func NewConversation(userID, title string, ctx Context) (Conversation, error) {
	if userID == "" {
		return Conversation{}, ErrEmptyUserID
	}
	now := time.Now().UTC()
	return Conversation{
		userID:         userID,
		title:          title,
		status:         StatusActive,
		context:        ctx,
		createdAt:      now,
		lastActivityAt: now,
		metadata:       map[string]string{},
	}, nil
}

// ReconstructConversation rebuilds a Conversation from persistence.
func ReconstructConversation(
	id int64,
	userID, title string,
	status Status,
	ctx Context,
	messages []Message,
	metadata map[string]string,
	createdAt, lastActivityAt time.Time,
) Conversation {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return Conversation{
		id:             id,
		userID:         userID,
		title:          title,
		status:         status,
		context:        ctx,
		messages:       messages,
		metadata:       metadata,
		createdAt:      createdAt,
		lastActivityAt: lastActivityAt,
	}
}

func (c Conversation) ID() int64             { return c.id }
func (c Conversation) UserID() string        { return c.userID }
func (c Conversation) Title() string         { return c.title }
func (c Conversation) Status() Status        { return c.status }
func (c Conversation) Context() Context      { return c.context }
func (c Conversation) CreatedAt() time.Time  { return c.createdAt }
func (c Conversation) LastActivityAt() time.Time { return c.lastActivityAt }

func (c Conversation) Messages() []Message {
	result := make([]Message, len(c.messages))
	copy(result, c.messages)
	return result
}

func (c Conversation) Metadata() map[string]string {
	result := make(map[string]string, len(c.metadata))
	for k, v := range c.metadata {
		result[k] = v
	}
	return result
}

// WithID attaches a persistence-assigned ID; used by the store mapper.
func (c Conversation) WithID(id int64) Conversation {
	c.id = id
	return c
}

// WithContext returns a copy with an updated retrieval context, e.g. when
// the user adds a repository to the conversation's scope.
func (c Conversation) WithContext(ctx Context) Conversation {
	c.context = ctx
	return c
}

// AddMessage appends a message, enforcing the Active invariant and the
// "messages are totally ordered by timestamp, lastActivityAt never
// decreases" rule. The returned message has its sequence number set to its
// position in the conversation (0-indexed).
func (c Conversation) AddMessage(messageType MessageType, content string, parentMessageID *int64, attachments []string) (Conversation, Message, error) {
	if c.status != StatusActive {
		return c, Message{}, ErrNotActive
	}
	msg, err := newMessage(c.id, len(c.messages), messageType, content, parentMessageID, attachments)
	if err != nil {
		return c, Message{}, err
	}
	c.messages = append(c.messages, msg)
	if msg.Timestamp().After(c.lastActivityAt) {
		c.lastActivityAt = msg.Timestamp()
	}
	return c, msg, nil
}

// Archive transitions Active -> Archived.
func (c Conversation) Archive() (Conversation, error) {
	if c.status != StatusActive {
		return c, ErrAlreadyTerminal
	}
	c.status = StatusArchived
	return c, nil
}

// Delete transitions Active|Archived -> Deleted.
func (c Conversation) Delete() (Conversation, error) {
	if c.status == StatusDeleted {
		return c, ErrAlreadyTerminal
	}
	c.status = StatusDeleted
	return c, nil
}

// InactiveFor reports whether the conversation has had no activity for at
// least d, relative to now. Used by the auto-archive sweep.
func (c Conversation) InactiveFor(now time.Time, d time.Duration) bool {
	return now.Sub(c.lastActivityAt) >= d
}
