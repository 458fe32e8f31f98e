package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sourcelore/sourcelore/domain/conversation"
	"github.com/sourcelore/sourcelore/domain/documentation"
	"github.com/sourcelore/sourcelore/domain/entity"
	"github.com/sourcelore/sourcelore/domain/repository"
	"github.com/sourcelore/sourcelore/domain/task"
)

// Tracking type constants.
const (
	TrackingTypeBranch = "branch"
	TrackingTypeTag    = "tag"
	TrackingTypeCommit = "commit"
)

// branchJSON is the wire shape for a repository.Branch within
// RepositoryModel.Branches.
type branchJSON struct {
	Name       string    `json:"name"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	LastCommit string    `json:"last_commit"`
}

// languageStatJSON is the wire shape for a repository.LanguageStat within
// statisticsJSON.Languages.
type languageStatJSON struct {
	FileCount  int     `json:"file_count"`
	LineCount  int     `json:"line_count"`
	Percentage float64 `json:"percentage"`
}

// statisticsJSON is the wire shape for repository.Statistics within
// RepositoryModel.Statistics.
type statisticsJSON struct {
	FileCount int                         `json:"file_count"`
	LineCount int                         `json:"line_count"`
	Languages map[string]languageStatJSON `json:"languages"`
}

// RepositoryMapper maps between domain Repository and persistence RepositoryModel.
type RepositoryMapper struct{}

// ToDomain converts a RepositoryModel to a domain Repository.
func (m RepositoryMapper) ToDomain(e RepositoryModel) repository.Repository {
	tc := trackingConfigFromDB(e.TrackingType, e.TrackingName)

	var rawBranches []branchJSON
	if len(e.Branches) > 0 {
		_ = json.Unmarshal(e.Branches, &rawBranches)
	}
	branches := make([]repository.Branch, 0, len(rawBranches))
	for _, b := range rawBranches {
		branches = append(branches, repository.ReconstructBranch(b.Name, b.IsDefault, e.ID, b.CreatedAt, b.LastCommit))
	}

	var rawStats statisticsJSON
	if len(e.Statistics) > 0 {
		_ = json.Unmarshal(e.Statistics, &rawStats)
	}
	breakdown := make(map[string]repository.LanguageStat, len(rawStats.Languages))
	for lang, s := range rawStats.Languages {
		breakdown[lang] = repository.NewLanguageStat(s.FileCount, s.LineCount, s.Percentage)
	}
	stats, _ := repository.NewStatistics(rawStats.FileCount, rawStats.LineCount, breakdown)

	var lastPushedAt time.Time
	if e.LastPushedAt != nil {
		lastPushedAt = *e.LastPushedAt
	}

	return repository.ReconstructRepository(
		e.ID,
		e.Name, e.Owner, e.URL, e.CloneURL, e.PrimaryLanguage, e.Description, e.DefaultBranch,
		e.IsPrivate, e.IsFork, e.IsArchived,
		e.CreatedAt, e.UpdatedAt, lastPushedAt,
		repository.Status(e.Status),
		branches,
		stats,
		tc,
	)
}

// ToModel converts a domain Repository to a RepositoryModel.
func (m RepositoryMapper) ToModel(r repository.Repository) RepositoryModel {
	trackingType, trackingName := trackingConfigToDB(r.TrackingConfig())

	rawBranches := make([]branchJSON, 0, len(r.Branches()))
	for _, b := range r.Branches() {
		rawBranches = append(rawBranches, branchJSON{
			Name: b.Name(), IsDefault: b.IsDefault(), CreatedAt: b.CreatedAt(), LastCommit: b.LastCommit(),
		})
	}
	branchesJSON, _ := json.Marshal(rawBranches)

	languages := make(map[string]languageStatJSON, len(r.Statistics().LanguageBreakdown()))
	for lang, s := range r.Statistics().LanguageBreakdown() {
		languages[lang] = languageStatJSON{FileCount: s.FileCount(), LineCount: s.LineCount(), Percentage: s.Percentage()}
	}
	statisticsJSONBytes, _ := json.Marshal(statisticsJSON{
		FileCount: r.Statistics().FileCount(), LineCount: r.Statistics().LineCount(), Languages: languages,
	})

	var lastPushedAt *time.Time
	if !r.LastPushedAt().IsZero() {
		t := r.LastPushedAt()
		lastPushedAt = &t
	}

	return RepositoryModel{
		ID:              r.ID(),
		Name:            r.Name(),
		Owner:           r.Owner(),
		URL:             r.URL(),
		CloneURL:        r.CloneURL(),
		PrimaryLanguage: r.PrimaryLanguage(),
		Description:     r.Description(),
		DefaultBranch:   r.DefaultBranch(),
		IsPrivate:       r.IsPrivate(),
		IsFork:          r.IsFork(),
		IsArchived:      r.IsArchived(),
		Status:          string(r.Status()),
		Branches:        branchesJSON,
		Statistics:      statisticsJSONBytes,
		TrackingType:    trackingType,
		TrackingName:    trackingName,
		CreatedAt:       r.CreatedAt(),
		UpdatedAt:       r.UpdatedAt(),
		LastPushedAt:    lastPushedAt,
	}
}

func trackingConfigFromDB(trackingType, trackingName string) repository.TrackingConfig {
	switch trackingType {
	case TrackingTypeBranch:
		return repository.NewTrackingConfigForBranch(trackingName)
	case TrackingTypeTag:
		return repository.NewTrackingConfigForTag(trackingName)
	case TrackingTypeCommit:
		return repository.NewTrackingConfigForCommit(trackingName)
	default:
		return repository.TrackingConfig{}
	}
}

func trackingConfigToDB(tc repository.TrackingConfig) (trackingType, trackingName string) {
	if tc.IsBranch() {
		return TrackingTypeBranch, tc.Branch()
	}
	if tc.IsTag() {
		return TrackingTypeTag, tc.Tag()
	}
	if tc.IsCommit() {
		return TrackingTypeCommit, tc.Commit()
	}
	return "", ""
}

// EntityMapper maps between domain CodeEntity and persistence EntityModel.
type EntityMapper struct{}

// ToDomain converts an EntityModel to a domain CodeEntity.
func (m EntityMapper) ToDomain(e EntityModel) entity.CodeEntity {
	var attrs []string
	if len(e.Attributes) > 0 {
		_ = json.Unmarshal(e.Attributes, &attrs)
	}

	var props map[string]string
	if len(e.Properties) > 0 {
		_ = json.Unmarshal(e.Properties, &props)
	}

	loc := entity.NewLocation(e.StartLine, e.EndLine, e.StartCol, e.EndCol)
	metadata := entity.NewMetadata(e.Complexity, props)

	return entity.ReconstructCodeEntity(
		e.EntityID,
		e.RepositoryID,
		e.Name,
		e.FullName,
		entity.Kind(e.Kind),
		e.FilePath,
		e.Language,
		loc,
		e.Content,
		e.ContentVector,
		metadata,
		attrs,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain CodeEntity to an EntityModel.
func (m EntityMapper) ToModel(ce entity.CodeEntity) EntityModel {
	attrsJSON, _ := json.Marshal(ce.Attributes())
	propsJSON, _ := json.Marshal(ce.Metadata().Attributes())
	loc := ce.Location()

	return EntityModel{
		EntityID:      ce.EntityID(),
		RepositoryID:  ce.RepositoryID(),
		Name:          ce.Name(),
		FullName:      ce.FullName(),
		Kind:          string(ce.Kind()),
		FilePath:      ce.FilePath(),
		Language:      ce.Language(),
		StartLine:     loc.StartLine(),
		EndLine:       loc.EndLine(),
		StartCol:      loc.StartCol(),
		EndCol:        loc.EndCol(),
		Content:       ce.Content(),
		ContentVector: ce.ContentVector(),
		Complexity:    ce.Metadata().ComplexityScore(),
		Attributes:    attrsJSON,
		Properties:    propsJSON,
		CreatedAt:     ce.CreatedAt(),
		UpdatedAt:     ce.UpdatedAt(),
	}
}

// RelationshipMapper maps between domain CodeRelationship and persistence RelationshipModel.
type RelationshipMapper struct{}

// ToDomain converts a RelationshipModel to a domain CodeRelationship.
func (m RelationshipMapper) ToDomain(e RelationshipModel) entity.CodeRelationship {
	var refs []string
	if len(e.SourceReferences) > 0 {
		_ = json.Unmarshal(e.SourceReferences, &refs)
	}

	var props map[string]string
	if len(e.Properties) > 0 {
		_ = json.Unmarshal(e.Properties, &props)
	}

	metadata := entity.NewRelationshipMetadata(e.Confidence, refs, props)

	return entity.ReconstructCodeRelationship(
		e.SourceEntityID,
		e.TargetEntityID,
		entity.RelationshipType(e.Type),
		e.Weight,
		metadata,
		e.DetectedAt,
	)
}

// ToModel converts a domain CodeRelationship to a RelationshipModel.
func (m RelationshipMapper) ToModel(r entity.CodeRelationship) RelationshipModel {
	refsJSON, _ := json.Marshal(r.Metadata().SourceReferences())
	propsJSON, _ := json.Marshal(r.Metadata().Properties())

	return RelationshipModel{
		SourceEntityID:   r.SourceEntityID(),
		TargetEntityID:   r.TargetEntityID(),
		Type:             string(r.Type()),
		Weight:           r.Weight(),
		Confidence:       r.Metadata().Confidence(),
		SourceReferences: refsJSON,
		Properties:       propsJSON,
		DetectedAt:       r.DetectedAt(),
	}
}

// TaskMapper maps between domain Task and persistence TaskModel.
type TaskMapper struct{}

// ToDomain converts a TaskModel to a domain Task.
func (m TaskMapper) ToDomain(e TaskModel) (task.Task, error) {
	var payload map[string]any
	if len(e.Payload) > 0 {
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return task.Task{}, fmt.Errorf("failed to unmarshal task payload: %w", err)
		}
	}
	if payload == nil {
		payload = make(map[string]any)
	}

	return task.NewTaskWithID(
		e.ID,
		e.DedupKey,
		task.Operation(e.Type),
		e.Priority,
		payload,
		e.CreatedAt,
		e.UpdatedAt,
	), nil
}

// ToModel converts a domain Task to a TaskModel.
func (m TaskMapper) ToModel(t task.Task) (TaskModel, error) {
	payloadJSON, err := json.Marshal(t.Payload())
	if err != nil {
		return TaskModel{}, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	return TaskModel{
		ID:        t.ID(),
		DedupKey:  t.DedupKey(),
		Type:      string(t.Operation()),
		Payload:   payloadJSON,
		Priority:  t.Priority(),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}, nil
}

// TaskStatusMapper maps between domain Status and persistence TaskStatusModel.
type TaskStatusMapper struct{}

// ToDomain converts a TaskStatusModel to a domain Status.
func (m TaskStatusMapper) ToDomain(e TaskStatusModel) task.Status {
	var trackableID int64
	var trackableType task.TrackableType

	if e.TrackableID != nil {
		trackableID = *e.TrackableID
	}
	if e.TrackableType != nil {
		trackableType = task.TrackableType(*e.TrackableType)
	}

	return task.NewStatusFull(
		e.ID,
		task.ReportingState(e.State),
		task.Operation(e.Operation),
		e.Message,
		e.CreatedAt,
		e.UpdatedAt,
		e.Total,
		e.Current,
		e.Error,
		nil,
		trackableID,
		trackableType,
	)
}

// ToModel converts a domain Status to a TaskStatusModel.
func (m TaskStatusMapper) ToModel(s task.Status) TaskStatusModel {
	model := TaskStatusModel{
		ID:        s.ID(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
		Operation: string(s.Operation()),
		Message:   s.Message(),
		State:     string(s.State()),
		Error:     s.Error(),
		Total:     s.Total(),
		Current:   s.Current(),
	}

	if s.TrackableID() != 0 {
		id := s.TrackableID()
		model.TrackableID = &id
	}

	if s.TrackableType() != "" {
		t := string(s.TrackableType())
		model.TrackableType = &t
	}

	if s.Parent() != nil {
		parentID := s.Parent().ID()
		model.ParentID = &parentID
	}

	return model
}

// sectionJSON is the wire shape for a documentation.Section within the
// DocumentationModel.Sections blob.
type sectionJSON struct {
	Type       string              `json:"type"`
	Title      string              `json:"title"`
	Content    string              `json:"content"`
	References []codeReferenceJSON `json:"references"`
}

type codeReferenceJSON struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	EntityID  string `json:"entity_id"`
}

// DocumentationMapper maps between domain Documentation and DocumentationModel.
type DocumentationMapper struct{}

// ToDomain converts a DocumentationModel to a domain Documentation.
func (m DocumentationMapper) ToDomain(e DocumentationModel) documentation.Documentation {
	var raw []sectionJSON
	if len(e.Sections) > 0 {
		_ = json.Unmarshal(e.Sections, &raw)
	}
	sections := make([]documentation.Section, 0, len(raw))
	for _, s := range raw {
		refs := make([]documentation.CodeReference, 0, len(s.References))
		for _, r := range s.References {
			refs = append(refs, documentation.NewCodeReference(r.FilePath, r.StartLine, r.EndLine, r.EntityID))
		}
		sections = append(sections, documentation.NewSection(documentation.SectionType(s.Type), s.Title, s.Content, refs))
	}

	return documentation.ReconstructDocumentation(
		e.ID, e.RepositoryID, documentation.Status(e.Status), e.Version, sections,
		e.QualityScore, e.ErrorMessage, e.CreatedAt, e.UpdatedAt,
	)
}

// ToModel converts a domain Documentation to a DocumentationModel.
func (m DocumentationMapper) ToModel(d documentation.Documentation) DocumentationModel {
	sections := d.Sections()
	raw := make([]sectionJSON, 0, len(sections))
	for _, s := range sections {
		refs := make([]codeReferenceJSON, 0, len(s.References()))
		for _, r := range s.References() {
			refs = append(refs, codeReferenceJSON{
				FilePath: r.FilePath(), StartLine: r.StartLine(), EndLine: r.EndLine(), EntityID: r.EntityID(),
			})
		}
		raw = append(raw, sectionJSON{Type: string(s.Type()), Title: s.Title(), Content: s.Content(), References: refs})
	}
	sectionsJSON, _ := json.Marshal(raw)

	return DocumentationModel{
		ID:           d.ID(),
		RepositoryID: d.RepositoryID(),
		Status:       string(d.Status()),
		Version:      d.Version(),
		Sections:     sectionsJSON,
		QualityScore: d.QualityScore(),
		ErrorMessage: d.ErrorMessage(),
		CreatedAt:    d.CreatedAt(),
		UpdatedAt:    d.UpdatedAt(),
	}
}

// messageJSON is the wire shape for a conversation.Message within the
// ConversationModel.Messages blob.
type messageJSON struct {
	Sequence        int       `json:"sequence"`
	Type            string    `json:"type"`
	Content         string    `json:"content"`
	Timestamp       time.Time `json:"timestamp"`
	Attachments     []string  `json:"attachments"`
	ParentMessageID *int64    `json:"parent_message_id,omitempty"`
	Edited          bool      `json:"edited"`
}

// ConversationMapper maps between domain Conversation and ConversationModel.
type ConversationMapper struct{}

// ToDomain converts a ConversationModel to a domain Conversation.
func (m ConversationMapper) ToDomain(e ConversationModel) conversation.Conversation {
	var repoIDs []int64
	if len(e.RepositoryIDs) > 0 {
		_ = json.Unmarshal(e.RepositoryIDs, &repoIDs)
	}
	var preferences map[string]string
	if len(e.Preferences) > 0 {
		_ = json.Unmarshal(e.Preferences, &preferences)
	}
	ctx := conversation.NewContext(repoIDs, e.Domain, e.IntentHint, preferences)

	var rawMessages []messageJSON
	if len(e.Messages) > 0 {
		_ = json.Unmarshal(e.Messages, &rawMessages)
	}
	messages := make([]conversation.Message, 0, len(rawMessages))
	for _, rm := range rawMessages {
		messages = append(messages, conversation.ReconstructMessage(
			e.ID, rm.Sequence, conversation.MessageType(rm.Type), rm.Content, rm.Timestamp, rm.Attachments, rm.ParentMessageID, rm.Edited,
		))
	}

	var metadata map[string]string
	if len(e.Metadata) > 0 {
		_ = json.Unmarshal(e.Metadata, &metadata)
	}

	return conversation.ReconstructConversation(
		e.ID, e.UserID, e.Title, conversation.Status(e.Status), ctx, messages, metadata,
		e.CreatedAt, e.LastActivityAt,
	)
}

// ToModel converts a domain Conversation to a ConversationModel.
func (m ConversationMapper) ToModel(c conversation.Conversation) ConversationModel {
	repoIDsJSON, _ := json.Marshal(c.Context().RepositoryIDs())
	preferencesJSON, _ := json.Marshal(c.Context().Preferences())
	metadataJSON, _ := json.Marshal(c.Metadata())

	rawMessages := make([]messageJSON, 0, len(c.Messages()))
	for _, msg := range c.Messages() {
		rawMessages = append(rawMessages, messageJSON{
			Sequence:        msg.Sequence(),
			Type:            string(msg.Type()),
			Content:         msg.Content(),
			Timestamp:       msg.Timestamp(),
			Attachments:     msg.Attachments(),
			ParentMessageID: msg.ParentMessageID(),
			Edited:          msg.Edited(),
		})
	}
	messagesJSON, _ := json.Marshal(rawMessages)

	return ConversationModel{
		ID:             c.ID(),
		UserID:         c.UserID(),
		Title:          c.Title(),
		Status:         string(c.Status()),
		RepositoryIDs:  repoIDsJSON,
		Domain:         c.Context().Domain(),
		IntentHint:     c.Context().IntentHint(),
		Preferences:    preferencesJSON,
		Messages:       messagesJSON,
		Metadata:       metadataJSON,
		CreatedAt:      c.CreatedAt(),
		LastActivityAt: c.LastActivityAt(),
	}
}
