package service

import (
	"context"
	"fmt"

	"github.com/sourcelore/sourcelore/domain/entity"
	"github.com/sourcelore/sourcelore/domain/graph"
	"github.com/sourcelore/sourcelore/domain/repository"
)

// Graph orchestrates the Graph Builder (C4): driving a KnowledgeGraph
// through its build/extract/finalize state machine and persisting the
// merged entities, relationships, and detected patterns.
type Graph struct {
	graphStore         graph.Store
	patternStore       graph.PatternStore
	entityStore        entity.EntityStore
	relationshipStore  entity.RelationshipStore
	cfg                graph.Config
}

// NewGraph creates a new Graph service.
func NewGraph(
	graphStore graph.Store,
	patternStore graph.PatternStore,
	entityStore entity.EntityStore,
	relationshipStore entity.RelationshipStore,
	cfg graph.Config,
) *Graph {
	return &Graph{
		graphStore:       graphStore,
		patternStore:     patternStore,
		entityStore:      entityStore,
		relationshipStore: relationshipStore,
		cfg:              cfg,
	}
}

// Build runs C4's full algorithm for the given repositories: extract (via
// the supplied Extractor, typically backed by C3), merge relationships,
// detect patterns, and persist everything. It drives the existing
// KnowledgeGraph through Build -> Extract -> Finalize on success, or
// Build -> Fail on any error, and always persists the resulting status.
func (g *Graph) Build(ctx context.Context, kg graph.KnowledgeGraph, extract graph.Extractor) (graph.KnowledgeGraph, error) {
	kg, err := kg.Build()
	if err != nil {
		return kg, fmt.Errorf("start graph build: %w", err)
	}
	kg, err = g.save(ctx, kg)
	if err != nil {
		return kg, err
	}

	result, err := graph.Build(ctx, kg.RepositoryIDs(), extract, g.cfg)
	if err != nil {
		return g.fail(ctx, kg, err)
	}

	for _, repositoryID := range kg.RepositoryIDs() {
		if err := g.entityStore.DeleteByRepositoryID(ctx, repositoryID); err != nil {
			return g.fail(ctx, kg, fmt.Errorf("clear stale entities: %w", err))
		}
		if err := g.relationshipStore.DeleteByRepositoryID(ctx, repositoryID); err != nil {
			return g.fail(ctx, kg, fmt.Errorf("clear stale relationships: %w", err))
		}
	}
	if _, err := g.entityStore.SaveAll(ctx, result.Entities); err != nil {
		return g.fail(ctx, kg, fmt.Errorf("save entities: %w", err))
	}
	if _, err := g.relationshipStore.SaveAll(ctx, result.Relationships); err != nil {
		return g.fail(ctx, kg, fmt.Errorf("save relationships: %w", err))
	}

	kg, err = kg.Extract(len(result.Entities), len(result.Relationships))
	if err != nil {
		return g.fail(ctx, kg, err)
	}
	kg, err = g.save(ctx, kg)
	if err != nil {
		return kg, err
	}

	for _, repositoryID := range kg.RepositoryIDs() {
		patternsForRepo := patternsByRepository(result.Patterns, repositoryID)
		if _, err := g.patternStore.SaveAll(ctx, repositoryID, patternsForRepo); err != nil {
			return g.fail(ctx, kg, fmt.Errorf("save patterns: %w", err))
		}
	}

	kg, err = kg.Finalize(len(result.Patterns))
	if err != nil {
		return g.fail(ctx, kg, err)
	}
	return g.save(ctx, kg)
}

// MarkUpdateRequired transitions a Complete graph to UpdateRequired, e.g.
// when the Source Adapter (C1) reports one of its repositories changed.
func (g *Graph) MarkUpdateRequired(ctx context.Context, kg graph.KnowledgeGraph) (graph.KnowledgeGraph, error) {
	kg, err := kg.MarkUpdateRequired()
	if err != nil {
		return kg, err
	}
	return g.save(ctx, kg)
}

// ByRepositoryID finds the graph spanning the given repository, if any.
func (g *Graph) ByRepositoryID(ctx context.Context, repositoryID int64) (graph.KnowledgeGraph, error) {
	return g.graphStore.FindOne(ctx, graph.WithRepositoryID(repositoryID))
}

// Patterns returns the architectural patterns detected for a repository.
func (g *Graph) Patterns(ctx context.Context, repositoryID int64) ([]graph.ArchitecturalPattern, error) {
	return g.patternStore.Find(ctx, repository.WithCondition("repository_id", repositoryID))
}

func (g *Graph) fail(ctx context.Context, kg graph.KnowledgeGraph, cause error) (graph.KnowledgeGraph, error) {
	failed, failErr := kg.Fail(cause.Error())
	if failErr != nil {
		return kg, fmt.Errorf("%w (and failed to record failure: %v)", cause, failErr)
	}
	saved, saveErr := g.save(ctx, failed)
	if saveErr != nil {
		return failed, fmt.Errorf("%w (and failed to persist failure: %v)", cause, saveErr)
	}
	return saved, cause
}

func (g *Graph) save(ctx context.Context, kg graph.KnowledgeGraph) (graph.KnowledgeGraph, error) {
	saved, err := g.graphStore.Save(ctx, kg)
	if err != nil {
		return kg, fmt.Errorf("save knowledge graph: %w", err)
	}
	return saved, nil
}

func patternsByRepository(patterns []graph.ArchitecturalPattern, repositoryID int64) []graph.ArchitecturalPattern {
	var result []graph.ArchitecturalPattern
	for _, p := range patterns {
		if p.RepositoryID() == repositoryID {
			result = append(result, p)
		}
	}
	return result
}
