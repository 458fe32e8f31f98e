package conversation

import "testing"

func TestNewConversation(t *testing.T) {
	c, err := NewConversation("u1", "my repo questions", Context{})
	if err != nil {
		t.Fatalf("NewConversation() error = %v", err)
	}
	if c.Status() != StatusActive {
		t.Errorf("Status() = %v, want %v", c.Status(), StatusActive)
	}
}

func TestNewConversation_EmptyUserID(t *testing.T) {
	if _, err := NewConversation("", "t", Context{}); err != ErrEmptyUserID {
		t.Errorf("error = %v, want %v", err, ErrEmptyUserID)
	}
}

func TestConversation_AddMessage(t *testing.T) {
	c, _ := NewConversation("u1", "t", Context{})
	before := c.LastActivityAt()

	c, msg, err := c.AddMessage(MessageTypeUserQuery, "how does auth work?", nil, nil)
	if err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if msg.Sequence() != 0 {
		t.Errorf("Sequence() = %d, want 0", msg.Sequence())
	}
	if !c.LastActivityAt().After(before) && !c.LastActivityAt().Equal(before) {
		t.Errorf("LastActivityAt() did not advance")
	}

	c, msg2, err := c.AddMessage(MessageTypeAIResponse, "it validates a bearer token", nil, nil)
	if err != nil {
		t.Fatalf("AddMessage() second error = %v", err)
	}
	if msg2.Sequence() != 1 {
		t.Errorf("Sequence() = %d, want 1", msg2.Sequence())
	}
	if len(c.Messages()) != 2 {
		t.Errorf("Messages() len = %d, want 2", len(c.Messages()))
	}
}

func TestConversation_AddMessage_EmptyContent(t *testing.T) {
	c, _ := NewConversation("u1", "t", Context{})
	if _, _, err := c.AddMessage(MessageTypeUserQuery, "", nil, nil); err != ErrEmptyContent {
		t.Errorf("error = %v, want %v", err, ErrEmptyContent)
	}
}

func TestConversation_AddMessage_NotActive(t *testing.T) {
	c, _ := NewConversation("u1", "t", Context{})
	c, err := c.Archive()
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if _, _, err := c.AddMessage(MessageTypeUserQuery, "hi", nil, nil); err != ErrNotActive {
		t.Errorf("AddMessage() on archived error = %v, want %v", err, ErrNotActive)
	}
}

func TestConversation_ArchiveThenDelete(t *testing.T) {
	c, _ := NewConversation("u1", "t", Context{})
	c, err := c.Archive()
	if err != nil || c.Status() != StatusArchived {
		t.Fatalf("Archive() = %v, %v; want Archived, nil", c.Status(), err)
	}
	c, err = c.Delete()
	if err != nil || c.Status() != StatusDeleted {
		t.Fatalf("Delete() = %v, %v; want Deleted, nil", c.Status(), err)
	}
	if _, err := c.Archive(); err != ErrAlreadyTerminal {
		t.Errorf("Archive() on deleted error = %v, want %v", err, ErrAlreadyTerminal)
	}
}
