package graph

import (
	"errors"
	"time"
)

// Sentinel errors for KnowledgeGraph construction.
var (
	ErrNoRepositories     = errors.New("graph: repositoryIDs must be non-empty")
	ErrDuplicateRepoID    = errors.New("graph: repositoryIDs must be distinct")
)

// Statistics summarizes the merged result of a graph build.
type Statistics struct {
	EntityCount       int
	RelationshipCount int
	PatternCount      int
	BuiltAt           time.Time
}

// KnowledgeGraph is the aggregate spanning one or more repositories: the
// merged entity/relationship set plus the detected architectural
// patterns over it. The aggregate itself holds only the lifecycle and
// summary data; entities, relationships and patterns live in their own
// stores, keyed by the repository IDs this graph spans.
type KnowledgeGraph struct {
	id            int64
	repositoryIDs []int64
	status        Status
	statistics    Statistics
	errorMessage  string
	metadata      map[string]string
	createdAt     time.Time
	updatedAt     time.Time
}

// NewKnowledgeGraph creates a KnowledgeGraph in the NotBuilt state spanning
// the given, distinct, non-empty repository IDs.
func NewKnowledgeGraph(repositoryIDs []int64, metadata map[string]string) (KnowledgeGraph, error) {
	if len(repositoryIDs) == 0 {
		return KnowledgeGraph{}, ErrNoRepositories
	}
	seen := make(map[int64]struct{}, len(repositoryIDs))
	ids := make([]int64, 0, len(repositoryIDs))
	for _, id := range repositoryIDs {
		if _, ok := seen[id]; ok {
			return KnowledgeGraph{}, ErrDuplicateRepoID
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	now := time.Now().UTC()
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return KnowledgeGraph{
		repositoryIDs: ids,
		status:        StatusNotBuilt,
		metadata:      md,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructKnowledgeGraph rebuilds a KnowledgeGraph from persistence
// without re-running construction invariants (they already held when the
// row was first written).
func ReconstructKnowledgeGraph(
	id int64,
	repositoryIDs []int64,
	status Status,
	statistics Statistics,
	errorMessage string,
	metadata map[string]string,
	createdAt, updatedAt time.Time,
) KnowledgeGraph {
	return KnowledgeGraph{
		id:            id,
		repositoryIDs: repositoryIDs,
		status:        status,
		statistics:    statistics,
		errorMessage:  errorMessage,
		metadata:      metadata,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (g KnowledgeGraph) ID() int64              { return g.id }
func (g KnowledgeGraph) RepositoryIDs() []int64 {
	ids := make([]int64, len(g.repositoryIDs))
	copy(ids, g.repositoryIDs)
	return ids
}
func (g KnowledgeGraph) Status() Status           { return g.status }
func (g KnowledgeGraph) Statistics() Statistics   { return g.statistics }
func (g KnowledgeGraph) ErrorMessage() string     { return g.errorMessage }
func (g KnowledgeGraph) CreatedAt() time.Time     { return g.createdAt }
func (g KnowledgeGraph) UpdatedAt() time.Time     { return g.updatedAt }
func (g KnowledgeGraph) Metadata() map[string]string {
	result := make(map[string]string, len(g.metadata))
	for k, v := range g.metadata {
		result[k] = v
	}
	return result
}

// WithID attaches a persistence-assigned ID; used by the store mapper.
func (g KnowledgeGraph) WithID(id int64) KnowledgeGraph {
	g.id = id
	return g
}

// Build transitions NotBuilt|Error|UpdateRequired -> Building.
func (g KnowledgeGraph) Build() (KnowledgeGraph, error) {
	next, err := g.status.apply(eventBuild)
	if err != nil {
		return g, err
	}
	g.status = next
	g.errorMessage = ""
	g.updatedAt = time.Now().UTC()
	return g, nil
}

// Extract transitions Building -> Analyzing, recording the
// extractEntities/analyzeRelationships counts gathered so far.
func (g KnowledgeGraph) Extract(entityCount, relationshipCount int) (KnowledgeGraph, error) {
	next, err := g.status.apply(eventExtract)
	if err != nil {
		return g, err
	}
	g.status = next
	g.statistics.EntityCount = entityCount
	g.statistics.RelationshipCount = relationshipCount
	g.updatedAt = time.Now().UTC()
	return g, nil
}

// Finalize transitions Analyzing -> Complete, recording the final
// detectPatterns count and build timestamp.
func (g KnowledgeGraph) Finalize(patternCount int) (KnowledgeGraph, error) {
	next, err := g.status.apply(eventFinalize)
	if err != nil {
		return g, err
	}
	now := time.Now().UTC()
	g.status = next
	g.statistics.PatternCount = patternCount
	g.statistics.BuiltAt = now
	g.updatedAt = now
	return g, nil
}

// Fail transitions Building|Analyzing -> Error with the given message.
func (g KnowledgeGraph) Fail(message string) (KnowledgeGraph, error) {
	next, err := g.status.apply(eventError)
	if err != nil {
		return g, err
	}
	g.status = next
	g.errorMessage = message
	g.updatedAt = time.Now().UTC()
	return g, nil
}

// MarkUpdateRequired transitions Complete -> UpdateRequired, e.g. when C2
// reports that one of this graph's repositories changed.
func (g KnowledgeGraph) MarkUpdateRequired() (KnowledgeGraph, error) {
	next, err := g.status.apply(eventRepoChange)
	if err != nil {
		return g, err
	}
	g.status = next
	g.updatedAt = time.Now().UTC()
	return g, nil
}
