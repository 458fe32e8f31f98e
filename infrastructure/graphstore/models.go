// Package graphstore provides GORM persistence for knowledge graphs and
// the architectural patterns detected over them.
package graphstore

import "time"

// GraphModel is the GORM model for a domain/graph.KnowledgeGraph.
type GraphModel struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RepositoryIDs []byte    `gorm:"column:repository_ids;type:jsonb"`
	Status        string    `gorm:"column:status;index;size:32"`
	EntityCount   int       `gorm:"column:entity_count"`
	RelCount      int       `gorm:"column:relationship_count"`
	PatternCount  int       `gorm:"column:pattern_count"`
	BuiltAt       time.Time `gorm:"column:built_at"`
	ErrorMessage  string    `gorm:"column:error_message;type:text"`
	Metadata      []byte    `gorm:"column:metadata;type:jsonb"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

// TableName sets the GraphModel table name.
func (GraphModel) TableName() string { return "knowledge_graphs" }

// PatternModel is the GORM model for a domain/graph.ArchitecturalPattern.
type PatternModel struct {
	ID               int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name             string `gorm:"column:name;size:256"`
	Type             string `gorm:"column:type;index;size:32"`
	RepositoryID     int64  `gorm:"column:repository_id;index"`
	Confidence       float64 `gorm:"column:confidence"`
	ParticipantRoles []byte `gorm:"column:participant_roles;type:jsonb"`
	Characteristics  []byte `gorm:"column:characteristics;type:jsonb"`
	Violations       []byte `gorm:"column:violations;type:jsonb"`
}

// TableName sets the PatternModel table name.
func (PatternModel) TableName() string { return "architectural_patterns" }
