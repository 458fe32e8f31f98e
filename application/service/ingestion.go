package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sourcelore/sourcelore/domain/entity"
	"github.com/sourcelore/sourcelore/domain/graph"
	"github.com/sourcelore/sourcelore/domain/repository"
	domainservice "github.com/sourcelore/sourcelore/domain/service"
	"github.com/sourcelore/sourcelore/domain/task"
	"github.com/sourcelore/sourcelore/infrastructure/analyzer"
	"github.com/sourcelore/sourcelore/infrastructure/eventbus"
	"github.com/sourcelore/sourcelore/infrastructure/extractor"
	"github.com/sourcelore/sourcelore/infrastructure/extractor/language"
	"github.com/sourcelore/sourcelore/infrastructure/indexer"
)

// RepositoryReady is published on infrastructure/eventbus's
// TopicRepositoryReady once IndexFileChunksHandler lands a repository in
// Ready, the point at which the Retrieval Service (C8) can answer queries
// grounded in it.
type RepositoryReady struct {
	RepositoryID int64
}

// GraphStatusChanged is published on TopicGraphStatusChanged whenever
// BuildKnowledgeGraphHandler finishes a build attempt, successful or not.
type GraphStatusChanged struct {
	RepositoryID int64
	Status       graph.Status
}

// Ingestion wires the Source Adapter (C1), the Repository Structure
// Analyzer (C2), the Code Entity Extractor (C3), the Graph Builder (C4),
// and the Content Indexer (C5) into the task handlers the Queue Worker
// dispatches for every sourcelore.ingestion.* and sourcelore.repository.*
// operation. Each handler is independently re-enqueueable: none of them
// hold pipeline state in memory between steps, they re-derive whatever
// they need (the clone path, the analyzed Structure) from the repository
// aggregate and the local clone every time they run.
type Ingestion struct {
	repoStore    repository.RepositoryStore
	entityStore  entity.EntityStore
	relStore     entity.RelationshipStore
	graphService *Graph
	indexer      *indexer.Indexer
	cloner       domainservice.Cloner
	analyzer     *analyzer.Analyzer
	extractor    *extractor.Extractor
	extractCfg   extractor.Config
	graphCfg     graph.Config
	bus          *eventbus.Bus
	logger       *slog.Logger
}

// NewIngestion creates a new Ingestion orchestrator. extractCfg/graphCfg
// bound C3's extraction and C4's merge/pattern-detection thresholds.
func NewIngestion(
	repoStore repository.RepositoryStore,
	entityStore entity.EntityStore,
	relStore entity.RelationshipStore,
	graphService *Graph,
	idx *indexer.Indexer,
	cloner domainservice.Cloner,
	langCfg extractor.LanguageConfig,
	extractCfg extractor.Config,
	graphCfg graph.Config,
	bus *eventbus.Bus,
	logger *slog.Logger,
) *Ingestion {
	return &Ingestion{
		repoStore:    repoStore,
		entityStore:  entityStore,
		relStore:     relStore,
		graphService: graphService,
		indexer:      idx,
		cloner:       cloner,
		analyzer:     analyzer.NewAnalyzer(langCfg),
		extractor:    extractor.NewExtractor(langCfg, language.NewFactory(langCfg)),
		extractCfg:   extractCfg,
		graphCfg:     graphCfg,
		bus:          bus,
		logger:       logger,
	}
}

// publish is a no-op when no bus was configured, so Ingestion can be wired
// without the Event Bus (C11) in contexts that don't need it (tests, batch
// backfills).
func (n *Ingestion) publish(topic eventbus.Topic, payload any) {
	if n.bus == nil {
		return
	}
	n.bus.Publish(topic, payload)
}

// embeddingsEnabled and enrichmentEnabled are overridden by the wiring layer
// where provider availability is known; the service-level default assumes
// both are configured, matching Repository's own stub.
func (n *Ingestion) embeddingsEnabled() bool { return true }
func (n *Ingestion) enrichmentEnabled() bool { return true }

func (n *Ingestion) repositoryID(payload map[string]any) (int64, error) {
	id, ok := extractInt64(payload, "repository_id")
	if !ok || id == 0 {
		return 0, fmt.Errorf("ingestion: payload missing repository_id")
	}
	return id, nil
}

func (n *Ingestion) loadRepository(ctx context.Context, id int64) (repository.Repository, error) {
	return n.repoStore.FindOne(ctx, repository.WithID(id))
}

func (n *Ingestion) transition(ctx context.Context, repo repository.Repository, next repository.Status) (repository.Repository, error) {
	repo, err := repo.TransitionTo(next)
	if err != nil {
		return repo, fmt.Errorf("transition to %s: %w", next, err)
	}
	return n.repoStore.Save(ctx, repo)
}

func (n *Ingestion) clonePath(repo repository.Repository) string {
	return n.cloner.ClonePathFromURI(repo.CloneURL())
}

func (n *Ingestion) analyze(ctx context.Context, repo repository.Repository) (analyzer.Structure, error) {
	return n.analyzer.Analyze(ctx, n.clonePath(repo))
}

// ConnectRepositoryHandler drives a Repository from Connecting to
// Connected: it clones the remote (or pulls, if already present) via the
// Source Adapter (C1). Grounded on infrastructure/git.RepositoryCloner.Ensure,
// the teacher's clone-or-update-in-place pattern.
type ConnectRepositoryHandler struct{ ing *Ingestion }

// NewConnectRepositoryHandler creates the sourcelore.repository.connect handler.
func NewConnectRepositoryHandler(ing *Ingestion) *ConnectRepositoryHandler {
	return &ConnectRepositoryHandler{ing: ing}
}

func (h *ConnectRepositoryHandler) Execute(ctx context.Context, payload map[string]any) error {
	id, err := h.ing.repositoryID(payload)
	if err != nil {
		return err
	}
	repo, err := h.ing.loadRepository(ctx, id)
	if err != nil {
		return fmt.Errorf("load repository: %w", err)
	}

	if _, err := h.ing.cloner.Clone(ctx, repo.CloneURL()); err != nil {
		if _, failErr := h.ing.transition(ctx, repo, repository.StatusError); failErr != nil {
			h.ing.logger.Warn("failed to record connect error", slog.String("error", failErr.Error()))
		}
		return fmt.Errorf("clone repository %d: %w", id, err)
	}

	repo, err = h.ing.transition(ctx, repo, repository.StatusConnected)
	if err != nil {
		return err
	}

	h.ing.logger.Info("repository connected",
		slog.Int64("repo_id", id),
		slog.String("clone_path", h.ing.clonePath(repo)),
	)
	return nil
}

// AnalyzeStructureHandler drives Connected -> Analyzing and runs the
// Repository Structure Analyzer (C2) over the local clone, persisting the
// repository's file/line statistics.
type AnalyzeStructureHandler struct{ ing *Ingestion }

// NewAnalyzeStructureHandler creates the sourcelore.ingestion.analyze_structure handler.
func NewAnalyzeStructureHandler(ing *Ingestion) *AnalyzeStructureHandler {
	return &AnalyzeStructureHandler{ing: ing}
}

func (h *AnalyzeStructureHandler) Execute(ctx context.Context, payload map[string]any) error {
	id, err := h.ing.repositoryID(payload)
	if err != nil {
		return err
	}
	repo, err := h.ing.loadRepository(ctx, id)
	if err != nil {
		return fmt.Errorf("load repository: %w", err)
	}

	repo, err = h.ing.transition(ctx, repo, repository.StatusAnalyzing)
	if err != nil {
		return err
	}

	structure, err := h.ing.analyze(ctx, repo)
	if err != nil {
		if _, failErr := h.ing.transition(ctx, repo, repository.StatusError); failErr != nil {
			h.ing.logger.Warn("failed to record analyze error", slog.String("error", failErr.Error()))
		}
		return fmt.Errorf("analyze structure for repository %d: %w", id, err)
	}

	repo = repo.WithStatistics(structure.Statistics)
	if _, err := h.ing.repoStore.Save(ctx, repo); err != nil {
		return fmt.Errorf("save structure statistics: %w", err)
	}

	h.ing.logger.Info("structure analyzed",
		slog.Int64("repo_id", id),
		slog.Int("files", structure.Statistics.FileCount()),
		slog.Int("manifests", len(structure.Manifests)),
	)
	return nil
}

// ExtractCodeEntitiesHandler runs the Code Entity Extractor (C3) over the
// repository's parseable source files (re-derived by re-running the
// analyzer, which is cheap relative to parsing) and persists the raw,
// unmerged entities and intra-file relationships.
type ExtractCodeEntitiesHandler struct{ ing *Ingestion }

// NewExtractCodeEntitiesHandler creates the sourcelore.ingestion.extract_code_entities handler.
func NewExtractCodeEntitiesHandler(ing *Ingestion) *ExtractCodeEntitiesHandler {
	return &ExtractCodeEntitiesHandler{ing: ing}
}

func (h *ExtractCodeEntitiesHandler) Execute(ctx context.Context, payload map[string]any) error {
	id, err := h.ing.repositoryID(payload)
	if err != nil {
		return err
	}
	repo, err := h.ing.loadRepository(ctx, id)
	if err != nil {
		return fmt.Errorf("load repository: %w", err)
	}

	structure, err := h.ing.analyze(ctx, repo)
	if err != nil {
		return fmt.Errorf("re-derive structure for repository %d: %w", id, err)
	}

	result, err := h.ing.extractor.Extract(ctx, id, structure.Files, h.ing.extractCfg)
	if err != nil {
		return fmt.Errorf("extract code entities for repository %d: %w", id, err)
	}

	if err := h.ing.relStore.DeleteByRepositoryID(ctx, id); err != nil {
		return fmt.Errorf("clear stale relationships: %w", err)
	}
	if err := h.ing.entityStore.DeleteByRepositoryID(ctx, id); err != nil {
		return fmt.Errorf("clear stale entities: %w", err)
	}
	if _, err := h.ing.entityStore.SaveAll(ctx, result.Entities()); err != nil {
		return fmt.Errorf("save code entities: %w", err)
	}
	if _, err := h.ing.relStore.SaveAll(ctx, result.Relationships()); err != nil {
		return fmt.Errorf("save code relationships: %w", err)
	}

	h.ing.logger.Info("code entities extracted",
		slog.Int64("repo_id", id),
		slog.Int("entities", len(result.Entities())),
		slog.Int("relationships", len(result.Relationships())),
	)
	return nil
}

// EmbedCodeEntitiesHandler indexes every extracted code entity's rendered
// signature as its own retrievable chunk, distinct from the whole-file
// chunks IndexFileChunksHandler writes, giving the Retrieval Service (C8)
// entity-granularity hits. Only enqueued when an embedding provider is
// configured (task.NewPrescribedOperations' embeddings gate), but the
// handler itself runs unconditionally once dispatched — the BM25 half of
// Indexer.Upsert always indexes regardless, so skipping here would only
// lose the embedding-backed vector half that justified enqueuing it.
type EmbedCodeEntitiesHandler struct{ ing *Ingestion }

// NewEmbedCodeEntitiesHandler creates the sourcelore.ingestion.embed_code_entities handler.
func NewEmbedCodeEntitiesHandler(ing *Ingestion) *EmbedCodeEntitiesHandler {
	return &EmbedCodeEntitiesHandler{ing: ing}
}

func (h *EmbedCodeEntitiesHandler) Execute(ctx context.Context, payload map[string]any) error {
	id, err := h.ing.repositoryID(payload)
	if err != nil {
		return err
	}

	entities, err := h.ing.entityStore.Find(ctx, entity.WithRepositoryID(id))
	if err != nil {
		return fmt.Errorf("load code entities for repository %d: %w", id, err)
	}

	indexed := 0
	for _, e := range entities {
		sourceID := fmt.Sprintf("%d:%s", id, e.EntityID())
		n, err := h.ing.indexer.Upsert(ctx, indexer.KindFileChunk, sourceID, entitySnippet(e))
		if err != nil {
			return fmt.Errorf("embed code entity %s: %w", e.EntityID(), err)
		}
		indexed += n
	}

	h.ing.logger.Info("code entities embedded",
		slog.Int64("repo_id", id),
		slog.Int("entities", len(entities)),
		slog.Int("chunks", indexed),
	)
	return nil
}

func entitySnippet(e entity.CodeEntity) string {
	return fmt.Sprintf("%s %s (%s:%d)\n\n%s", e.Kind(), e.FullName(), e.FilePath(), e.Location().StartLine(), e.Content())
}

// BuildKnowledgeGraphHandler drives the Graph Builder (C4): re-extracts
// (via a graph.Extractor closure wrapping C3), merges relationships,
// detects architectural patterns, and persists the result, advancing the
// repository's KnowledgeGraph through its own Building -> Complete state
// machine independent of the Repository aggregate's own status.
type BuildKnowledgeGraphHandler struct{ ing *Ingestion }

// NewBuildKnowledgeGraphHandler creates the sourcelore.ingestion.build_knowledge_graph handler.
func NewBuildKnowledgeGraphHandler(ing *Ingestion) *BuildKnowledgeGraphHandler {
	return &BuildKnowledgeGraphHandler{ing: ing}
}

func (h *BuildKnowledgeGraphHandler) Execute(ctx context.Context, payload map[string]any) error {
	id, err := h.ing.repositoryID(payload)
	if err != nil {
		return err
	}

	kg, err := h.ing.graphService.ByRepositoryID(ctx, id)
	if err != nil {
		kg, err = graph.NewKnowledgeGraph([]int64{id}, nil)
		if err != nil {
			return fmt.Errorf("create knowledge graph for repository %d: %w", id, err)
		}
	}

	extract := func(ctx context.Context, repositoryID int64) (graph.Extraction, error) {
		repo, err := h.ing.loadRepository(ctx, repositoryID)
		if err != nil {
			return graph.Extraction{}, fmt.Errorf("load repository: %w", err)
		}
		structure, err := h.ing.analyze(ctx, repo)
		if err != nil {
			return graph.Extraction{}, fmt.Errorf("re-derive structure: %w", err)
		}
		result, err := h.ing.extractor.Extract(ctx, repositoryID, structure.Files, h.ing.extractCfg)
		if err != nil {
			return graph.Extraction{}, err
		}
		return graph.Extraction{
			RepositoryID:  repositoryID,
			Entities:      result.Entities(),
			Relationships: result.Relationships(),
		}, nil
	}

	kg, buildErr := h.ing.graphService.Build(ctx, kg, extract)
	h.ing.publish(eventbus.TopicGraphStatusChanged, GraphStatusChanged{RepositoryID: id, Status: kg.Status()})
	if buildErr != nil {
		return fmt.Errorf("build knowledge graph for repository %d: %w", id, buildErr)
	}

	h.ing.logger.Info("knowledge graph built",
		slog.Int64("repo_id", id),
		slog.Int("entities", kg.Statistics().EntityCount),
		slog.Int("relationships", kg.Statistics().RelationshipCount),
		slog.Int("patterns", kg.Statistics().PatternCount),
	)
	return nil
}

// IndexFileChunksHandler runs the Content Indexer (C5) over every
// parseable source file, chunking and indexing each under the
// "repositoryID:filePath" source ID convention the Retrieval Service (C8)
// relies on to resolve hits back to file/line evidence, then advances the
// repository to Ready.
type IndexFileChunksHandler struct{ ing *Ingestion }

// NewIndexFileChunksHandler creates the sourcelore.ingestion.index_file_chunks handler.
func NewIndexFileChunksHandler(ing *Ingestion) *IndexFileChunksHandler {
	return &IndexFileChunksHandler{ing: ing}
}

func (h *IndexFileChunksHandler) Execute(ctx context.Context, payload map[string]any) error {
	id, err := h.ing.repositoryID(payload)
	if err != nil {
		return err
	}
	repo, err := h.ing.loadRepository(ctx, id)
	if err != nil {
		return fmt.Errorf("load repository: %w", err)
	}

	structure, err := h.ing.analyze(ctx, repo)
	if err != nil {
		return fmt.Errorf("re-derive structure for repository %d: %w", id, err)
	}

	chunks := 0
	for _, f := range structure.Files {
		sourceID := fmt.Sprintf("%d:%s", id, f.Path())
		n, err := h.ing.indexer.Upsert(ctx, indexer.KindFileChunk, sourceID, string(f.Content()))
		if err != nil {
			return fmt.Errorf("index file %s: %w", f.Path(), err)
		}
		chunks += n
	}

	repo, err = h.ing.transition(ctx, repo, repository.StatusReady)
	if err != nil {
		return err
	}
	h.ing.publish(eventbus.TopicRepositoryReady, RepositoryReady{RepositoryID: id})

	h.ing.logger.Info("file chunks indexed",
		slog.Int64("repo_id", id),
		slog.Int("files", len(structure.Files)),
		slog.Int("chunks", chunks),
	)
	return nil
}

// RescanRepositoryHandler drives a Ready repository back to Analyzing,
// re-entering the same AnalyzeStructure -> ... -> IndexFileChunks sequence
// task.PrescribedOperations.RescanRepository enqueues alongside it.
type RescanRepositoryHandler struct{ ing *Ingestion }

// NewRescanRepositoryHandler creates the sourcelore.ingestion.rescan handler.
func NewRescanRepositoryHandler(ing *Ingestion) *RescanRepositoryHandler {
	return &RescanRepositoryHandler{ing: ing}
}

func (h *RescanRepositoryHandler) Execute(ctx context.Context, payload map[string]any) error {
	id, err := h.ing.repositoryID(payload)
	if err != nil {
		return err
	}
	repo, err := h.ing.loadRepository(ctx, id)
	if err != nil {
		return fmt.Errorf("load repository: %w", err)
	}

	if _, err := h.ing.cloner.Update(ctx, repo); err != nil {
		return fmt.Errorf("update clone for repository %d: %w", id, err)
	}

	if _, err := h.ing.transition(ctx, repo, repository.StatusAnalyzing); err != nil {
		return err
	}

	h.ing.logger.Info("rescan started", slog.Int64("repo_id", id))
	return nil
}

// SyncRepositoryHandler pulls a repository's tracked ref and, if anything
// changed, triggers a rescan. Grounded on the periodic sync service's
// use of the same Cloner.Update path for drift detection.
type SyncRepositoryHandler struct {
	ing   *Ingestion
	queue *Queue
}

// NewSyncRepositoryHandler creates the sourcelore.repository.sync handler.
func NewSyncRepositoryHandler(ing *Ingestion, queue *Queue) *SyncRepositoryHandler {
	return &SyncRepositoryHandler{ing: ing, queue: queue}
}

func (h *SyncRepositoryHandler) Execute(ctx context.Context, payload map[string]any) error {
	id, err := h.ing.repositoryID(payload)
	if err != nil {
		return err
	}
	repo, err := h.ing.loadRepository(ctx, id)
	if err != nil {
		return fmt.Errorf("load repository: %w", err)
	}

	if _, err := h.ing.cloner.Update(ctx, repo); err != nil {
		return fmt.Errorf("sync repository %d: %w", id, err)
	}

	operations := task.NewPrescribedOperations(h.ing.embeddingsEnabled(), h.ing.enrichmentEnabled()).RescanRepository()
	return h.queue.EnqueueOperations(ctx, operations, task.PriorityNormal, map[string]any{"repository_id": id})
}

// DeleteRepositoryHandler cascades a repository deletion across every
// store that keyed data off its ID: code entities and relationships,
// queued tasks, then the repository aggregate itself. The knowledge
// graph and documentation aggregates have no delete path of their own
// (domain/graph.Store and domain/documentation.Store are append/update
// only, matching the teacher's own append-only persistence stores) so
// they are left orphaned, keyed by a repository ID that no longer
// resolves — harmless, since every query into them is already scoped by
// repository ID and nothing will ever look one up again.
type DeleteRepositoryHandler struct {
	ing   *Ingestion
	queue *Queue
}

// NewDeleteRepositoryHandler creates the sourcelore.repository.delete handler.
func NewDeleteRepositoryHandler(ing *Ingestion, queue *Queue) *DeleteRepositoryHandler {
	return &DeleteRepositoryHandler{ing: ing, queue: queue}
}

func (h *DeleteRepositoryHandler) Execute(ctx context.Context, payload map[string]any) error {
	id, err := h.ing.repositoryID(payload)
	if err != nil {
		return err
	}
	repo, err := h.ing.loadRepository(ctx, id)
	if err != nil {
		return fmt.Errorf("load repository: %w", err)
	}

	if _, err := h.queue.DrainForRepository(ctx, id); err != nil {
		return fmt.Errorf("drain pending tasks: %w", err)
	}
	if err := h.ing.relStore.DeleteByRepositoryID(ctx, id); err != nil {
		return fmt.Errorf("delete relationships: %w", err)
	}
	if err := h.ing.entityStore.DeleteByRepositoryID(ctx, id); err != nil {
		return fmt.Errorf("delete entities: %w", err)
	}
	if err := h.ing.repoStore.Delete(ctx, repo); err != nil {
		return fmt.Errorf("delete repository: %w", err)
	}

	h.ing.logger.Info("repository deleted", slog.Int64("repo_id", id))
	return nil
}
