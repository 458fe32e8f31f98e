// Package entity provides the code-entity domain types produced by the
// Code Entity Extractor (C3): the parsed types, functions, and other
// symbols found in source files, plus the relationships discovered
// between them.
package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Kind enumerates the kinds of code entity recognized across languages.
type Kind string

// Kind values.
const (
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindMethod    Kind = "method"
	KindFunction  Kind = "function"
	KindProperty  Kind = "property"
	KindField     Kind = "field"
	KindEnum      Kind = "enum"
	KindStruct    Kind = "struct"
	KindModule    Kind = "module"
	KindTest      Kind = "test"
)

// Location identifies a span of source code within a file.
type Location struct {
	startLine int
	endLine   int
	startCol  int
	endCol    int
}

// NewLocation creates a Location.
func NewLocation(startLine, endLine, startCol, endCol int) Location {
	return Location{startLine: startLine, endLine: endLine, startCol: startCol, endCol: endCol}
}

func (l Location) StartLine() int { return l.startLine }
func (l Location) EndLine() int   { return l.endLine }
func (l Location) StartCol() int  { return l.startCol }
func (l Location) EndCol() int    { return l.endCol }

// Metadata carries extractor-derived measurements about an entity.
type Metadata struct {
	complexityScore float64
	attributes      map[string]string
}

// NewMetadata creates Metadata.
func NewMetadata(complexityScore float64, attributes map[string]string) Metadata {
	attrs := make(map[string]string, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}
	return Metadata{complexityScore: complexityScore, attributes: attrs}
}

func (m Metadata) ComplexityScore() float64 { return m.complexityScore }
func (m Metadata) Attributes() map[string]string {
	result := make(map[string]string, len(m.attributes))
	for k, v := range m.attributes {
		result[k] = v
	}
	return result
}

// Sentinel errors for CodeEntity construction.
var (
	ErrEmptyRepositoryID = errors.New("entity: repository id is empty")
	ErrEmptyName         = errors.New("entity: name is empty")
	ErrEmptyFilePath     = errors.New("entity: file path is empty")
)

// CodeEntity represents a single parsed code symbol — a class, function,
// interface, or other construct recognized by the extractor — uniquely
// identified within its repository.
type CodeEntity struct {
	entityID      string
	repositoryID  int64
	name          string
	fullName      string
	kind          Kind
	filePath      string
	language      string
	location      Location
	content       string
	contentVector []float64
	metadata      Metadata
	attributes    []string
	createdAt     time.Time
	updatedAt     time.Time
}

// NewCodeEntity creates a CodeEntity, deriving its entityID deterministically
// from (repositoryID, filePath, language, fullName, kind) per spec — the
// same inputs always produce the same ID, making extraction idempotent.
func NewCodeEntity(
	repositoryID int64,
	name, fullName string,
	kind Kind,
	filePath, language string,
	location Location,
	content string,
) (CodeEntity, error) {
	if repositoryID == 0 {
		return CodeEntity{}, ErrEmptyRepositoryID
	}
	if name == "" {
		return CodeEntity{}, ErrEmptyName
	}
	if filePath == "" {
		return CodeEntity{}, ErrEmptyFilePath
	}
	now := time.Now().UTC()
	return CodeEntity{
		entityID:     DeriveEntityID(repositoryID, filePath, language, fullName, kind),
		repositoryID: repositoryID,
		name:         name,
		fullName:     fullName,
		kind:         kind,
		filePath:     filePath,
		language:     language,
		location:     location,
		content:      content,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructCodeEntity reconstructs a CodeEntity from persistence.
func ReconstructCodeEntity(
	entityID string,
	repositoryID int64,
	name, fullName string,
	kind Kind,
	filePath, language string,
	location Location,
	content string,
	contentVector []float64,
	metadata Metadata,
	attributes []string,
	createdAt, updatedAt time.Time,
) CodeEntity {
	vec := make([]float64, len(contentVector))
	copy(vec, contentVector)
	attrs := make([]string, len(attributes))
	copy(attrs, attributes)
	return CodeEntity{
		entityID:      entityID,
		repositoryID:  repositoryID,
		name:          name,
		fullName:      fullName,
		kind:          kind,
		filePath:      filePath,
		language:      language,
		location:      location,
		content:       content,
		contentVector: vec,
		metadata:      metadata,
		attributes:    attrs,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// DeriveEntityID computes the deterministic entity ID for a would-be
// CodeEntity. Exposed so cross-file linkage (linkCrossFile) and
// idempotency checks can compute the same ID without constructing the
// full entity.
func DeriveEntityID(repositoryID int64, filePath, language, fullName string, kind Kind) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s", repositoryID, filePath, language, fullName, kind)
	return hex.EncodeToString(h.Sum(nil))
}

func (e CodeEntity) EntityID() string          { return e.entityID }
func (e CodeEntity) RepositoryID() int64        { return e.repositoryID }
func (e CodeEntity) Name() string               { return e.name }
func (e CodeEntity) FullName() string           { return e.fullName }
func (e CodeEntity) Kind() Kind                  { return e.kind }
func (e CodeEntity) FilePath() string           { return e.filePath }
func (e CodeEntity) Language() string           { return e.language }
func (e CodeEntity) Location() Location         { return e.location }
func (e CodeEntity) Content() string            { return e.content }
func (e CodeEntity) Metadata() Metadata         { return e.metadata }
func (e CodeEntity) CreatedAt() time.Time       { return e.createdAt }
func (e CodeEntity) UpdatedAt() time.Time       { return e.updatedAt }

func (e CodeEntity) ContentVector() []float64 {
	result := make([]float64, len(e.contentVector))
	copy(result, e.contentVector)
	return result
}

func (e CodeEntity) Attributes() []string {
	result := make([]string, len(e.attributes))
	copy(result, e.attributes)
	return result
}

// HasVector reports whether an embedding has been computed for this entity.
func (e CodeEntity) HasVector() bool { return len(e.contentVector) > 0 }

// WithContentVector returns a copy with the embedding populated.
func (e CodeEntity) WithContentVector(vector []float64) CodeEntity {
	e.contentVector = make([]float64, len(vector))
	copy(e.contentVector, vector)
	e.updatedAt = time.Now().UTC()
	return e
}

// WithMetadata returns a copy with extractor-derived metadata populated.
func (e CodeEntity) WithMetadata(metadata Metadata) CodeEntity {
	e.metadata = metadata
	e.updatedAt = time.Now().UTC()
	return e
}

// WithAttributes returns a copy with the given attribute tags.
func (e CodeEntity) WithAttributes(attributes []string) CodeEntity {
	e.attributes = make([]string, len(attributes))
	copy(e.attributes, attributes)
	e.updatedAt = time.Now().UTC()
	return e
}
