package graphstore

import (
	"encoding/json"

	"github.com/sourcelore/sourcelore/domain/graph"
)

// graphMapper maps between graph.KnowledgeGraph and GraphModel.
type graphMapper struct{}

func (graphMapper) ToDomain(m GraphModel) graph.KnowledgeGraph {
	var repoIDs []int64
	if len(m.RepositoryIDs) > 0 {
		_ = json.Unmarshal(m.RepositoryIDs, &repoIDs)
	}
	var metadata map[string]string
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &metadata)
	}
	stats := graph.Statistics{
		EntityCount:       m.EntityCount,
		RelationshipCount: m.RelCount,
		PatternCount:      m.PatternCount,
		BuiltAt:           m.BuiltAt,
	}
	return graph.ReconstructKnowledgeGraph(
		m.ID, repoIDs, graph.Status(m.Status), stats, m.ErrorMessage, metadata, m.CreatedAt, m.UpdatedAt,
	)
}

func (graphMapper) ToModel(g graph.KnowledgeGraph) GraphModel {
	repoIDsJSON, _ := json.Marshal(g.RepositoryIDs())
	metadataJSON, _ := json.Marshal(g.Metadata())
	stats := g.Statistics()
	return GraphModel{
		ID:            g.ID(),
		RepositoryIDs: repoIDsJSON,
		Status:        string(g.Status()),
		EntityCount:   stats.EntityCount,
		RelCount:      stats.RelationshipCount,
		PatternCount:  stats.PatternCount,
		BuiltAt:       stats.BuiltAt,
		ErrorMessage:  g.ErrorMessage(),
		Metadata:      metadataJSON,
		CreatedAt:     g.CreatedAt(),
		UpdatedAt:     g.UpdatedAt(),
	}
}

// patternMapper maps between graph.ArchitecturalPattern and PatternModel.
type patternMapper struct{}

func (patternMapper) ToDomain(m PatternModel) graph.ArchitecturalPattern {
	var roles map[string]string
	if len(m.ParticipantRoles) > 0 {
		_ = json.Unmarshal(m.ParticipantRoles, &roles)
	}
	var characteristics, violations []string
	if len(m.Characteristics) > 0 {
		_ = json.Unmarshal(m.Characteristics, &characteristics)
	}
	if len(m.Violations) > 0 {
		_ = json.Unmarshal(m.Violations, &violations)
	}
	pattern, _ := graph.NewArchitecturalPattern(
		m.Name, graph.PatternType(m.Type), m.RepositoryID, m.Confidence, roles, characteristics, violations,
	)
	return pattern
}

func (patternMapper) ToModel(p graph.ArchitecturalPattern) PatternModel {
	rolesJSON, _ := json.Marshal(p.ParticipantRoles())
	characteristicsJSON, _ := json.Marshal(p.Characteristics())
	violationsJSON, _ := json.Marshal(p.Violations())
	return PatternModel{
		Name:             p.Name(),
		Type:             string(p.Type()),
		RepositoryID:     p.RepositoryID(),
		Confidence:       p.Confidence(),
		ParticipantRoles: rolesJSON,
		Characteristics:  characteristicsJSON,
		Violations:       violationsJSON,
	}
}
