package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sourcelore/sourcelore/domain/conversation"
	"github.com/sourcelore/sourcelore/domain/repository"
	"github.com/sourcelore/sourcelore/internal/database"
	"gorm.io/gorm"
)

// ConversationStore implements conversation.Store using GORM.
//
// Two of conversation's options — WithRepositoryIDs and WithSearchTerm —
// address data held inside the messages/repository_ids JSON blobs rather
// than a literal column, so Find below special-cases them instead of
// delegating to the generic database.ApplyOptions used by every other
// store in this package.
type ConversationStore struct {
	database.Repository[conversation.Conversation, ConversationModel]
}

// NewConversationStore creates a new ConversationStore.
func NewConversationStore(db database.Database) ConversationStore {
	return ConversationStore{
		Repository: database.NewRepository[conversation.Conversation, ConversationModel](db, ConversationMapper{}, "conversation"),
	}
}

// Save creates or updates a conversation.
func (s ConversationStore) Save(ctx context.Context, c conversation.Conversation) (conversation.Conversation, error) {
	model := s.Mapper().ToModel(c)
	if result := s.DB(ctx).Save(&model); result.Error != nil {
		return conversation.Conversation{}, fmt.Errorf("save conversation: %w", result.Error)
	}
	return s.Mapper().ToDomain(model), nil
}

// Find retrieves conversations matching the given options.
func (s ConversationStore) Find(ctx context.Context, options ...repository.Option) ([]conversation.Conversation, error) {
	q := repository.Build(options...)
	db := s.DB(ctx).Model(&ConversationModel{})

	var repoIDFilter []int64
	for _, cond := range q.Conditions() {
		switch cond.Field() {
		case "repository_ids":
			if ids, ok := cond.Value().([]int64); ok {
				repoIDFilter = ids
			}
		case "search_term":
			if term, ok := cond.Value().(string); ok && term != "" {
				like := "%" + term + "%"
				db = db.Where("title LIKE ? OR messages LIKE ?", like, like)
			}
		case "last_activity_before":
			if t, ok := cond.Value().(time.Time); ok {
				db = db.Where("last_activity_at < ?", t)
			}
		default:
			if cond.In() {
				db = db.Where(fmt.Sprintf("%s IN ?", cond.Field()), cond.Value())
			} else {
				db = db.Where(fmt.Sprintf("%s = ?", cond.Field()), cond.Value())
			}
		}
	}

	for _, ord := range q.Orders() {
		dir := "ASC"
		if !ord.Ascending() {
			dir = "DESC"
		}
		db = db.Order(fmt.Sprintf("%s %s", ord.Field(), dir))
	}
	if q.LimitValue() > 0 {
		db = db.Limit(q.LimitValue())
	}
	if q.OffsetValue() > 0 {
		db = db.Offset(q.OffsetValue())
	}

	var models []ConversationModel
	if result := db.Find(&models); result.Error != nil {
		return nil, fmt.Errorf("find conversation: %w", result.Error)
	}

	conversations := make([]conversation.Conversation, 0, len(models))
	for _, model := range models {
		c := s.Mapper().ToDomain(model)
		if len(repoIDFilter) > 0 && !sharesRepositoryID(c.Context().RepositoryIDs(), repoIDFilter) {
			continue
		}
		conversations = append(conversations, c)
	}
	return conversations, nil
}

// FindOne retrieves a single conversation matching the given options.
func (s ConversationStore) FindOne(ctx context.Context, options ...repository.Option) (conversation.Conversation, error) {
	results, err := s.Find(ctx, append(options, repository.WithLimit(1))...)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if len(results) == 0 {
		return conversation.Conversation{}, fmt.Errorf("%w: conversation", database.ErrNotFound)
	}
	return results[0], nil
}

// Delete removes a conversation by id.
func (s ConversationStore) Delete(ctx context.Context, id int64) error {
	return s.DeleteBy(ctx, repository.WithID(id))
}

// GetForCleanup returns Archived or Deleted conversations whose
// lastActivityAt is older than retentionDays, up to limit rows — the set
// the retention sweep permanently purges.
func (s ConversationStore) GetForCleanup(ctx context.Context, retentionDays int, limit int) ([]conversation.Conversation, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	var models []ConversationModel
	db := s.DB(ctx).Model(&ConversationModel{}).
		Where("status IN ?", []string{string(conversation.StatusArchived), string(conversation.StatusDeleted)}).
		Where("last_activity_at < ?", cutoff).
		Limit(limit)
	if result := db.Find(&models); result.Error != nil {
		return nil, fmt.Errorf("get conversations for cleanup: %w", result.Error)
	}
	conversations := make([]conversation.Conversation, 0, len(models))
	for _, model := range models {
		conversations = append(conversations, s.Mapper().ToDomain(model))
	}
	return conversations, nil
}

// BulkArchive archives every Active conversation for userID (every user's,
// if userID is empty) untouched for more than olderThanDays, returning the
// number of rows affected.
func (s ConversationStore) BulkArchive(ctx context.Context, userID string, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	db := s.DB(ctx).Model(&ConversationModel{}).
		Where("status = ?", string(conversation.StatusActive)).
		Where("last_activity_at < ?", cutoff)
	if userID != "" {
		db = db.Where("user_id = ?", userID)
	}
	result := db.Update("status", string(conversation.StatusArchived))
	if result.Error != nil {
		return 0, fmt.Errorf("bulk archive conversations: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Statistics summarizes a user's (or, if userID is empty, every user's)
// conversation activity created within [from, to]. Message totals are
// computed by decoding each matching row's message blob rather than a SQL
// aggregate, since the message count isn't stored as a column — acceptable
// at the scale a single user's or tenant's history reaches.
func (s ConversationStore) Statistics(ctx context.Context, userID string, from, to time.Time) (conversation.Statistics, error) {
	base := s.DB(ctx).Model(&ConversationModel{}).Where("created_at BETWEEN ? AND ?", from, to)
	if userID != "" {
		base = base.Where("user_id = ?", userID)
	}

	var stats conversation.Statistics
	if err := countByStatus(base, conversation.StatusActive, &stats.ActiveConversations); err != nil {
		return conversation.Statistics{}, err
	}
	if err := countByStatus(base, conversation.StatusArchived, &stats.ArchivedConversations); err != nil {
		return conversation.Statistics{}, err
	}
	if result := base.Session(&gorm.Session{}).Count(&stats.TotalConversations); result.Error != nil {
		return conversation.Statistics{}, fmt.Errorf("count conversations: %w", result.Error)
	}

	var models []ConversationModel
	if result := base.Session(&gorm.Session{}).Find(&models); result.Error != nil {
		return conversation.Statistics{}, fmt.Errorf("load conversations for statistics: %w", result.Error)
	}
	for _, model := range models {
		var messages []messageJSON
		if len(model.Messages) > 0 {
			_ = json.Unmarshal(model.Messages, &messages)
		}
		stats.TotalMessages += int64(len(messages))
	}

	return stats, nil
}

func countByStatus(base *gorm.DB, status conversation.Status, out *int64) error {
	result := base.Session(&gorm.Session{}).Where("status = ?", string(status)).Count(out)
	if result.Error != nil {
		return fmt.Errorf("count conversations by status: %w", result.Error)
	}
	return nil
}

func sharesRepositoryID(have, want []int64) bool {
	set := make(map[int64]struct{}, len(want))
	for _, id := range want {
		set[id] = struct{}{}
	}
	for _, id := range have {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
