package conversation

import (
	"errors"
	"time"
)

// MessageType enumerates the kinds of message that can appear in a
// conversation's history.
type MessageType string

// MessageType values.
const (
	MessageTypeUserQuery    MessageType = "user_query"
	MessageTypeAIResponse   MessageType = "ai_response"
	MessageTypeSystemMessage MessageType = "system_message"
	MessageTypeCodeReference MessageType = "code_reference"
	MessageTypeSearchResult  MessageType = "search_result"
)

// ErrEmptyContent indicates a message was constructed with no content.
var ErrEmptyContent = errors.New("conversation: message content cannot be empty")

// Message is a single entry in a conversation's totally-ordered history.
// Sequence is the message's 0-indexed position within its conversation,
// matching the monotonically increasing per-conversation number carried by
// streamed MessageDelta events.
type Message struct {
	conversationID  int64
	sequence        int
	messageType     MessageType
	content         string
	timestamp       time.Time
	attachments     []string
	parentMessageID *int64
	edited          bool
}

func newMessage(conversationID int64, sequence int, messageType MessageType, content string, parentMessageID *int64, attachments []string) (Message, error) {
	if content == "" {
		return Message{}, ErrEmptyContent
	}
	return Message{
		conversationID:  conversationID,
		sequence:        sequence,
		messageType:     messageType,
		content:         content,
		timestamp:       time.Now().UTC(),
		attachments:     append([]string{}, attachments...),
		parentMessageID: parentMessageID,
	}, nil
}

// ReconstructMessage rebuilds a Message from persistence.
func ReconstructMessage(
	conversationID int64,
	sequence int,
	messageType MessageType,
	content string,
	timestamp time.Time,
	attachments []string,
	parentMessageID *int64,
	edited bool,
) Message {
	return Message{
		conversationID:  conversationID,
		sequence:        sequence,
		messageType:     messageType,
		content:         content,
		timestamp:       timestamp,
		attachments:     append([]string{}, attachments...),
		parentMessageID: parentMessageID,
		edited:          edited,
	}
}

func (m Message) ConversationID() int64     { return m.conversationID }
func (m Message) Sequence() int             { return m.sequence }
func (m Message) Type() MessageType         { return m.messageType }
func (m Message) Content() string           { return m.content }
func (m Message) Timestamp() time.Time      { return m.timestamp }
func (m Message) ParentMessageID() *int64   { return m.parentMessageID }
func (m Message) Edited() bool              { return m.edited }
func (m Message) Attachments() []string {
	return append([]string{}, m.attachments...)
}

// WithContent returns a copy of the message with edited content, marked
// edited.
func (m Message) WithContent(content string) Message {
	m.content = content
	m.edited = true
	return m
}
