package persistence

import (
	"encoding/json"
	"time"
)

// RepositoryModel represents a tracked source Repository aggregate in the
// database. Branches and Statistics are stored as JSON blobs — like
// DocumentationModel.Sections and ConversationModel.Messages below, they are
// always loaded and rewritten together with their parent aggregate rather
// than queried independently row-by-row.
type RepositoryModel struct {
	ID              int64      `gorm:"primaryKey;autoIncrement"`
	Name            string     `gorm:"column:name;index;size:255"`
	Owner           string     `gorm:"column:owner;index;size:255"`
	URL             string     `gorm:"column:url;uniqueIndex;size:1024"`
	CloneURL        string     `gorm:"column:clone_url;size:1024"`
	PrimaryLanguage string     `gorm:"column:primary_language;size:64"`
	Description     string     `gorm:"column:description;type:text"`
	DefaultBranch   string     `gorm:"column:default_branch;size:255"`
	IsPrivate       bool       `gorm:"column:is_private;default:false"`
	IsFork          bool       `gorm:"column:is_fork;default:false"`
	IsArchived      bool       `gorm:"column:is_archived;default:false"`
	Status          string     `gorm:"column:status;index;size:32"`
	Branches        []byte     `gorm:"column:branches;type:jsonb"`
	Statistics      []byte     `gorm:"column:statistics;type:jsonb"`
	TrackingType    string     `gorm:"column:tracking_type;index;size:255"`
	TrackingName    string     `gorm:"column:tracking_name;index;size:255"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
	LastPushedAt    *time.Time `gorm:"column:last_pushed_at"`
}

// TableName returns the table name.
func (RepositoryModel) TableName() string {
	return "git_repos"
}

// EntityModel represents a parsed code entity (C3's CodeEntity) in the
// database.
type EntityModel struct {
	EntityID      string    `gorm:"column:entity_id;primaryKey;size:64"`
	RepositoryID  int64     `gorm:"column:repository_id;index"`
	Name          string    `gorm:"column:name;index;size:255"`
	FullName      string    `gorm:"column:full_name;type:text"`
	Kind          string    `gorm:"column:kind;index;size:32"`
	FilePath      string    `gorm:"column:file_path;index;size:1024"`
	Language      string    `gorm:"column:language;index;size:32"`
	StartLine     int       `gorm:"column:start_line"`
	EndLine       int       `gorm:"column:end_line"`
	StartCol      int       `gorm:"column:start_col"`
	EndCol        int       `gorm:"column:end_col"`
	Content       string    `gorm:"column:content;type:text"`
	ContentVector []float64 `gorm:"column:content_vector;type:json"`
	Complexity    float64   `gorm:"column:complexity_score;default:0"`
	Attributes    []byte    `gorm:"column:attributes;type:jsonb"`
	Properties    []byte    `gorm:"column:properties;type:jsonb"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (EntityModel) TableName() string {
	return "code_entities"
}

// RelationshipModel represents a discovered relationship (C4's
// CodeRelationship) between two code entities.
type RelationshipModel struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SourceEntityID   string    `gorm:"column:source_entity_id;index;size:64"`
	TargetEntityID   string    `gorm:"column:target_entity_id;index;size:64"`
	Type             string    `gorm:"column:type;index;size:32"`
	Weight           float64   `gorm:"column:weight;default:0"`
	Confidence       int       `gorm:"column:confidence;default:0"`
	SourceReferences []byte    `gorm:"column:source_references;type:jsonb"`
	Properties       []byte    `gorm:"column:properties;type:jsonb"`
	DetectedAt       time.Time `gorm:"column:detected_at"`
}

// TableName returns the table name.
func (RelationshipModel) TableName() string {
	return "code_relationships"
}

// TaskModel represents a task in the database.
type TaskModel struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	DedupKey  string          `gorm:"column:dedup_key;type:varchar(255);index;not null"`
	Type      string          `gorm:"column:type;type:varchar(255);index;not null"`
	Payload   json.RawMessage `gorm:"column:payload;type:jsonb"`
	Priority  int             `gorm:"column:priority;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (TaskModel) TableName() string {
	return "tasks"
}

// TaskStatusModel represents task status in the database.
type TaskStatusModel struct {
	ID            string    `gorm:"column:id;type:varchar(255);primaryKey;index;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
	Operation     string    `gorm:"column:operation;type:varchar(255);index;not null"`
	TrackableID   *int64    `gorm:"column:trackable_id;index"`
	TrackableType *string   `gorm:"column:trackable_type;type:varchar(255);index"`
	ParentID      *string   `gorm:"column:parent;type:varchar(255);index"`
	Message       string    `gorm:"column:message;type:text;default:''"`
	State         string    `gorm:"column:state;type:varchar(255);default:''"`
	Error         string    `gorm:"column:error;type:text;default:''"`
	Total         int       `gorm:"column:total;default:0"`
	Current       int       `gorm:"column:current;default:0"`
}

// TableName returns the table name.
func (TaskStatusModel) TableName() string {
	return "task_status"
}

// DocumentationModel represents a repository's generated documentation
// (C6's Documentation aggregate) in the database. Sections are stored as a
// single JSON blob: they are always read and rewritten together as part of
// one generation pass, so there is no query that needs to address a single
// section independently of its parent.
type DocumentationModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RepositoryID int64     `gorm:"column:repository_id;index;uniqueIndex"`
	Status       string    `gorm:"column:status;index;size:32"`
	Version      string    `gorm:"column:version;size:32"`
	Sections     []byte    `gorm:"column:sections;type:jsonb"`
	QualityScore float64   `gorm:"column:quality_score;default:0"`
	ErrorMessage string    `gorm:"column:error_message;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (DocumentationModel) TableName() string {
	return "documentation"
}

// ConversationModel represents a chat conversation (C7's Conversation
// aggregate) in the database. Messages are stored as a single JSON blob for
// the same reason Sections is on DocumentationModel: a conversation's
// messages are always loaded and appended to as a whole, never paged
// independently of their parent.
type ConversationModel struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID         string    `gorm:"column:user_id;index;size:255"`
	Title          string    `gorm:"column:title;size:512"`
	Status         string    `gorm:"column:status;index;size:32"`
	RepositoryIDs  []byte    `gorm:"column:repository_ids;type:jsonb"`
	Domain         string    `gorm:"column:domain;size:255"`
	IntentHint     string    `gorm:"column:intent_hint;size:255"`
	Preferences    []byte    `gorm:"column:preferences;type:jsonb"`
	Messages       []byte    `gorm:"column:messages;type:jsonb"`
	Metadata       []byte    `gorm:"column:metadata;type:jsonb"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	LastActivityAt time.Time `gorm:"column:last_activity_at;index"`
}

// TableName returns the table name.
func (ConversationModel) TableName() string {
	return "conversations"
}
