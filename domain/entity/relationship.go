package entity

import (
	"errors"
	"time"
)

// RelationshipType enumerates the kinds of relationship the Graph Builder
// (C4) can detect between two code entities.
type RelationshipType string

// RelationshipType values.
const (
	RelationshipInheritance      RelationshipType = "inheritance"
	RelationshipImplementation   RelationshipType = "implementation"
	RelationshipComposition      RelationshipType = "composition"
	RelationshipAggregation      RelationshipType = "aggregation"
	RelationshipAssociation      RelationshipType = "association"
	RelationshipCalls            RelationshipType = "calls"
	RelationshipUses             RelationshipType = "uses"
	RelationshipDepends          RelationshipType = "depends"
	RelationshipCreates          RelationshipType = "creates"
	RelationshipReturns          RelationshipType = "returns"
	RelationshipAccepts          RelationshipType = "accepts"
	RelationshipLayerDependency  RelationshipType = "layer_dependency"
	RelationshipServiceConsumption RelationshipType = "service_consumption"
	RelationshipEventPublishing  RelationshipType = "event_publishing"
	RelationshipEventSubscription RelationshipType = "event_subscription"
	RelationshipSharedInterface  RelationshipType = "shared_interface"
	RelationshipSimilarConcept   RelationshipType = "similar_concept"
	RelationshipSharedDependency RelationshipType = "shared_dependency"
	RelationshipPatternInstance  RelationshipType = "pattern_instance"
	RelationshipPatternComponent RelationshipType = "pattern_component"
)

// unresolvedWeightCap and unresolvedConfidenceCap bound relationships
// emitted for references linkCrossFile could not fully resolve.
const (
	unresolvedWeightCap     = 0.3
	unresolvedConfidenceCap = 40
)

// RelationshipMetadata carries confidence scoring and evidence for a
// detected relationship.
type RelationshipMetadata struct {
	confidence      int
	sourceReferences []string
	properties      map[string]string
}

// NewRelationshipMetadata creates RelationshipMetadata.
func NewRelationshipMetadata(confidence int, sourceReferences []string, properties map[string]string) RelationshipMetadata {
	refs := make([]string, len(sourceReferences))
	copy(refs, sourceReferences)
	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[k] = v
	}
	return RelationshipMetadata{confidence: confidence, sourceReferences: refs, properties: props}
}

func (m RelationshipMetadata) Confidence() int { return m.confidence }
func (m RelationshipMetadata) SourceReferences() []string {
	result := make([]string, len(m.sourceReferences))
	copy(result, m.sourceReferences)
	return result
}
func (m RelationshipMetadata) Properties() map[string]string {
	result := make(map[string]string, len(m.properties))
	for k, v := range m.properties {
		result[k] = v
	}
	return result
}

// ErrSelfRelationship indicates an attempt to relate an entity to itself.
var ErrSelfRelationship = errors.New("entity: source and target entity ids must differ")

// CodeRelationship is a directed, typed, weighted edge between two
// CodeEntity instances, as discovered by intra-file parsing or
// cross-file linkage.
type CodeRelationship struct {
	sourceEntityID string
	targetEntityID string
	relType        RelationshipType
	weight         float64
	metadata       RelationshipMetadata
	detectedAt     time.Time
}

// NewCodeRelationship creates a CodeRelationship. weight is clamped to
// [0,1].
func NewCodeRelationship(
	sourceEntityID, targetEntityID string,
	relType RelationshipType,
	weight float64,
	metadata RelationshipMetadata,
) (CodeRelationship, error) {
	if sourceEntityID == targetEntityID {
		return CodeRelationship{}, ErrSelfRelationship
	}
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}
	return CodeRelationship{
		sourceEntityID: sourceEntityID,
		targetEntityID: targetEntityID,
		relType:        relType,
		weight:         weight,
		metadata:       metadata,
		detectedAt:     time.Now().UTC(),
	}, nil
}

// NewUnresolvedRelationship creates a relationship for a cross-file
// reference linkCrossFile could not fully resolve: weight and confidence
// are capped low per spec so these edges don't dominate graph analysis.
func NewUnresolvedRelationship(sourceEntityID, targetEntityID string, relType RelationshipType, sourceReferences []string) (CodeRelationship, error) {
	confidence := unresolvedConfidenceCap
	metadata := NewRelationshipMetadata(confidence, sourceReferences, nil)
	return NewCodeRelationship(sourceEntityID, targetEntityID, relType, unresolvedWeightCap, metadata)
}

// ReconstructCodeRelationship reconstructs a CodeRelationship from persistence.
func ReconstructCodeRelationship(
	sourceEntityID, targetEntityID string,
	relType RelationshipType,
	weight float64,
	metadata RelationshipMetadata,
	detectedAt time.Time,
) CodeRelationship {
	return CodeRelationship{
		sourceEntityID: sourceEntityID,
		targetEntityID: targetEntityID,
		relType:        relType,
		weight:         weight,
		metadata:       metadata,
		detectedAt:     detectedAt,
	}
}

func (r CodeRelationship) SourceEntityID() string        { return r.sourceEntityID }
func (r CodeRelationship) TargetEntityID() string        { return r.targetEntityID }
func (r CodeRelationship) Type() RelationshipType         { return r.relType }
func (r CodeRelationship) Weight() float64                { return r.weight }
func (r CodeRelationship) Metadata() RelationshipMetadata { return r.metadata }
func (r CodeRelationship) DetectedAt() time.Time          { return r.detectedAt }

// Key identifies a relationship for merge/dedup purposes: (source, target,
// type). Merging keeps the max weight and the union of source references
// per C4's analyzeRelationships algorithm.
func (r CodeRelationship) Key() RelationshipKey {
	return RelationshipKey{Source: r.sourceEntityID, Target: r.targetEntityID, Type: r.relType}
}

// RelationshipKey is the dedup/merge identity for a CodeRelationship.
type RelationshipKey struct {
	Source string
	Target string
	Type   RelationshipType
}

// MergeRelationships deduplicates relationships by (source, target, type),
// keeping the max weight and the union of source references for each key,
// and drops relationships below minimumConfidence. Implements C4's
// analyzeRelationships merge step.
func MergeRelationships(relationships []CodeRelationship, minimumConfidence int) []CodeRelationship {
	byKey := make(map[RelationshipKey]CodeRelationship)
	order := make([]RelationshipKey, 0, len(relationships))

	for _, rel := range relationships {
		key := rel.Key()
		existing, ok := byKey[key]
		if !ok {
			byKey[key] = rel
			order = append(order, key)
			continue
		}

		merged := existing
		if rel.weight > merged.weight {
			merged.weight = rel.weight
		}
		merged.metadata = NewRelationshipMetadata(
			max(existing.metadata.confidence, rel.metadata.confidence),
			unionStrings(existing.metadata.sourceReferences, rel.metadata.sourceReferences),
			existing.metadata.properties,
		)
		byKey[key] = merged
	}

	result := make([]CodeRelationship, 0, len(order))
	for _, key := range order {
		rel := byKey[key]
		if rel.metadata.confidence < minimumConfidence {
			continue
		}
		result = append(result, rel)
	}
	return result
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var result []string
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			result = append(result, s)
		}
	}
	return result
}
