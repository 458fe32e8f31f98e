package graph

import (
	"errors"

	"github.com/sourcelore/sourcelore/domain/entity"
)

// PatternType enumerates the families of architectural pattern detectors
// recognize. Each family groups related concrete pattern names (e.g.
// PatternTypeCreational covers Factory, Builder, Singleton, ...).
type PatternType string

// PatternType values.
const (
	PatternTypeCreational    PatternType = "creational"
	PatternTypeStructural    PatternType = "structural"
	PatternTypeBehavioral    PatternType = "behavioral"
	PatternTypeArchitectural PatternType = "architectural"
	PatternTypeDDD           PatternType = "ddd"
	PatternTypeMicroservices PatternType = "microservices"
)

// Sentinel errors for ArchitecturalPattern construction.
var (
	ErrEmptyPatternName      = errors.New("graph: pattern name is empty")
	ErrNoParticipants        = errors.New("graph: pattern must have at least one participant")
	ErrConfidenceOutOfRange  = errors.New("graph: confidence must be in [0,1]")
)

// ArchitecturalPattern is a detected design or architectural pattern:
// a named role assignment over a set of code entities, with supporting
// characteristics and any violations the detector noticed.
type ArchitecturalPattern struct {
	name             string
	patternType      PatternType
	repositoryID     int64
	confidence       float64
	participantRoles map[string]string
	characteristics  []string
	violations       []string
}

// NewArchitecturalPattern creates an ArchitecturalPattern. confidence must
// be in [0,1] and participantRoles must name at least one entity.
func NewArchitecturalPattern(
	name string,
	patternType PatternType,
	repositoryID int64,
	confidence float64,
	participantRoles map[string]string,
	characteristics, violations []string,
) (ArchitecturalPattern, error) {
	if name == "" {
		return ArchitecturalPattern{}, ErrEmptyPatternName
	}
	if len(participantRoles) == 0 {
		return ArchitecturalPattern{}, ErrNoParticipants
	}
	if confidence < 0 || confidence > 1 {
		return ArchitecturalPattern{}, ErrConfidenceOutOfRange
	}
	roles := make(map[string]string, len(participantRoles))
	for k, v := range participantRoles {
		roles[k] = v
	}
	return ArchitecturalPattern{
		name:             name,
		patternType:      patternType,
		repositoryID:     repositoryID,
		confidence:       confidence,
		participantRoles: roles,
		characteristics:  append([]string{}, characteristics...),
		violations:       append([]string{}, violations...),
	}, nil
}

func (p ArchitecturalPattern) Name() string         { return p.name }
func (p ArchitecturalPattern) Type() PatternType     { return p.patternType }
func (p ArchitecturalPattern) RepositoryID() int64   { return p.repositoryID }
func (p ArchitecturalPattern) Confidence() float64   { return p.confidence }
func (p ArchitecturalPattern) Characteristics() []string {
	return append([]string{}, p.characteristics...)
}
func (p ArchitecturalPattern) Violations() []string { return append([]string{}, p.violations...) }
func (p ArchitecturalPattern) ParticipantRoles() map[string]string {
	result := make(map[string]string, len(p.participantRoles))
	for k, v := range p.participantRoles {
		result[k] = v
	}
	return result
}

// ParticipantIDs returns the entity IDs playing a role in this pattern.
func (p ArchitecturalPattern) ParticipantIDs() []string {
	ids := make([]string, 0, len(p.participantRoles))
	for id := range p.participantRoles {
		ids = append(ids, id)
	}
	return ids
}

// ValidateParticipants checks the invariant that every participant id is
// present in the graph's entity set, given the entities that were
// actually merged into the graph.
func (p ArchitecturalPattern) ValidateParticipants(entities []entity.CodeEntity) error {
	known := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		known[e.EntityID()] = struct{}{}
	}
	for id := range p.participantRoles {
		if _, ok := known[id]; !ok {
			return errors.New("graph: pattern participant " + id + " is not present in the graph's entity set")
		}
	}
	return nil
}

// Detector is a pure function over a graph's merged entities and
// relationships that yields candidate patterns. Detectors never mutate
// their inputs and never perform I/O; each pattern family (creational,
// structural, behavioral, architectural, DDD, microservices) is one
// Detector.
type Detector func(entities []entity.CodeEntity, relationships []entity.CodeRelationship) []ArchitecturalPattern

// DetectPatterns runs every detector and drops candidates whose
// confidence is below minimumConfidence, implementing C4's
// detectPatterns step.
func DetectPatterns(
	entities []entity.CodeEntity,
	relationships []entity.CodeRelationship,
	detectors []Detector,
	minimumConfidence float64,
) []ArchitecturalPattern {
	var result []ArchitecturalPattern
	for _, detect := range detectors {
		for _, pattern := range detect(entities, relationships) {
			if pattern.confidence < minimumConfidence {
				continue
			}
			result = append(result, pattern)
		}
	}
	return result
}
