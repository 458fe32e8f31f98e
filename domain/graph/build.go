package graph

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/sourcelore/sourcelore/domain/entity"
)

// Extraction is one repository's extracted entities and intra-file
// relationships, the input to Build.
type Extraction struct {
	RepositoryID  int64
	Entities      []entity.CodeEntity
	Relationships []entity.CodeRelationship
}

// Extractor produces an Extraction for one repository. Implemented by the
// Code Entity Extractor (C3); kept as a function type here so Build stays
// independent of C3's concrete wiring.
type Extractor func(ctx context.Context, repositoryID int64) (Extraction, error)

// Config bounds the graph build algorithm.
type Config struct {
	MaxConcurrentAnalysis     int64
	MinimumRelationshipConf   int
	MinimumPatternConfidence  float64
	Detectors                 []Detector
}

// Result is the merged output of a graph build, ready to persist.
type Result struct {
	Entities      []entity.CodeEntity
	Relationships []entity.CodeRelationship
	Patterns      []ArchitecturalPattern
}

// Build runs C4's algorithm: extractEntities across repositoryIDs with
// bounded parallelism, analyzeRelationships (merge + confidence filter),
// then detectPatterns. It does not itself mutate graph status; callers
// drive the KnowledgeGraph state machine around this call
// (Build -> Extract -> Finalize, or Fail on error).
func Build(ctx context.Context, repositoryIDs []int64, extract Extractor, cfg Config) (Result, error) {
	maxConcurrent := cfg.MaxConcurrentAnalysis
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	sem := semaphore.NewWeighted(maxConcurrent)

	extractions := make([]Extraction, len(repositoryIDs))
	errs := make([]error, len(repositoryIDs))

	group := make(chan struct{}, len(repositoryIDs))
	for i, repoID := range repositoryIDs {
		i, repoID := i, repoID
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			group <- struct{}{}
			continue
		}
		go func() {
			defer sem.Release(1)
			defer func() { group <- struct{}{} }()
			ext, err := extract(ctx, repoID)
			if err != nil {
				errs[i] = err
				return
			}
			extractions[i] = ext
		}()
	}
	for range repositoryIDs {
		<-group
	}

	for _, err := range errs {
		if err != nil {
			return Result{}, err
		}
	}

	var allEntities []entity.CodeEntity
	var allRelationships []entity.CodeRelationship
	for _, ext := range extractions {
		allEntities = append(allEntities, ext.Entities...)
		allRelationships = append(allRelationships, ext.Relationships...)
	}

	merged := entity.MergeRelationships(allRelationships, cfg.MinimumRelationshipConf)

	detectors := cfg.Detectors
	if detectors == nil {
		detectors = DefaultDetectors()
	}
	patterns := DetectPatterns(allEntities, merged, detectors, cfg.MinimumPatternConfidence)

	return Result{
		Entities:      allEntities,
		Relationships: merged,
		Patterns:      patterns,
	}, nil
}
