// Package sourcelore provides a library for repository ingestion, knowledge
// graph construction, documentation generation, and conversational querying
// over Git repositories.
//
// Sourcelore connects Git repositories, extracts code entities via AST
// parsing, builds a knowledge graph of their relationships, generates living
// documentation, and grounds a conversational AI service in the result via
// hybrid keyword/vector retrieval.
//
// Basic usage:
//
//	client, err := sourcelore.New(
//	    sourcelore.WithSQLite(".sourcelore/data.db"),
//	    sourcelore.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Connect a repository
//	repo, _, err := client.Repositories.Add(ctx, &service.RepositoryAddParams{
//	    Owner: "kubernetes",
//	    Name:  "kubernetes",
//	    URL:   "https://github.com/kubernetes/kubernetes",
//	})
//
//	// Ask a question grounded in the ingested repository
//	conv, _ := client.Conversations.Start(ctx, "user-1", repo.ID())
//	resp, err := client.ConversationalAI.ProcessQuery(ctx, conv, "how is a deployment reconciled")
package sourcelore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcelore/sourcelore/application/service"
	"github.com/sourcelore/sourcelore/domain/graph"
	"github.com/sourcelore/sourcelore/domain/search"
	domainservice "github.com/sourcelore/sourcelore/domain/service"
	"github.com/sourcelore/sourcelore/infrastructure/chunking"
	"github.com/sourcelore/sourcelore/infrastructure/enricher"
	"github.com/sourcelore/sourcelore/infrastructure/eventbus"
	"github.com/sourcelore/sourcelore/infrastructure/extractor"
	"github.com/sourcelore/sourcelore/infrastructure/git"
	"github.com/sourcelore/sourcelore/infrastructure/graphstore"
	"github.com/sourcelore/sourcelore/infrastructure/indexer"
	"github.com/sourcelore/sourcelore/infrastructure/persistence"
	"github.com/sourcelore/sourcelore/infrastructure/provider"
	"github.com/sourcelore/sourcelore/infrastructure/tracking"
	"github.com/sourcelore/sourcelore/internal/config"
	"github.com/sourcelore/sourcelore/internal/database"
)

// Client is the main entry point for the sourcelore library.
// The background worker, periodic sync, and retention sweep all start
// automatically on creation.
//
// Access resources via struct fields:
//
//	client.Repositories.Add(ctx, params)
//	client.Entities.Find(ctx, repository.WithRepoID(id))
//	client.ConversationalAI.ProcessQuery(ctx, conv, "query")
type Client struct {
	// Public resource fields (direct service access)
	Repositories     *service.Repository
	Entities         *service.Entity
	Graphs           *service.Graph
	Documentation    *service.Documentation
	Conversations    *service.Conversation
	ConversationalAI *service.ConversationalAI
	Retrieval        *service.Retrieval
	Tasks            *service.Queue
	Events           *eventbus.Bus

	db database.Database

	// Application services (internal only)
	ingestion    *service.Ingestion
	worker       *service.Worker
	registry     *service.Registry
	periodicSync *service.PeriodicSync
	retention    *service.Retention

	hugotEmbedding *provider.HugotEmbedding
	closers        []io.Closer

	logger   *slog.Logger
	dataDir  string
	cloneDir string
	apiKeys  []string
	closed   atomic.Bool
	mu       sync.Mutex
}

// New creates a new Client with the given options.
// The background worker, periodic sync, and retention sweep are started
// automatically.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.database == databaseUnset {
		return nil, ErrNoDatabase
	}

	// Set up logger
	logger := cfg.logger
	if logger == nil {
		logger = config.DefaultLogger()
	}

	// Set up data directory
	dataDir, err := config.PrepareDataDir(cfg.dataDir)
	if err != nil {
		return nil, err
	}

	// Set up clone directory
	cloneDir, err := config.PrepareCloneDir(cfg.cloneDir, dataDir)
	if err != nil {
		return nil, err
	}

	// Create built-in embedding provider if no external provider is configured
	var hugotEmbedding *provider.HugotEmbedding
	if cfg.embeddingProvider == nil {
		modelDir := cfg.modelDir
		if modelDir == "" {
			modelDir = filepath.Join(dataDir, "models")
		}
		hugotEmbedding = provider.NewHugotEmbedding(modelDir)
		if hugotEmbedding.Available() {
			cfg.embeddingProvider = hugotEmbedding
			logger.Info("built-in embedding provider enabled", slog.String("model_dir", modelDir))
		} else {
			logger.Warn("no embedding model found, vector search disabled", slog.String("model_dir", modelDir))
			hugotEmbedding = nil
		}
	}

	// Build database URL
	ctx := context.Background()
	dbURL, err := buildDatabaseURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("build database url: %w", err)
	}

	// Open database
	db, err := database.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One-time schema conversions from earlier schema revisions
	if err := persistence.PreMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("pre migrate: %w", err), errClose)
	}

	// Run auto migration
	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	// Migrate the knowledge graph tables (entities, relationships, patterns)
	if err := graphstore.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("graph store migrate: %w", err), errClose)
	}

	// Validate schema matches GORM models
	if err := persistence.ValidateSchema(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), errClose)
	}

	// Create stores
	repoStore := persistence.NewRepositoryStore(db)
	entityStore := persistence.NewEntityStore(db)
	relationshipStore := persistence.NewRelationshipStore(db)
	documentationStore := persistence.NewDocumentationStore(db)
	conversationStore := persistence.NewConversationStore(db)
	taskStore := persistence.NewTaskStore(db)
	graphStore := graphstore.NewStore(db)
	patternStore := graphstore.NewPatternStore(db)

	// Probe embedding dimension once (only needed for PostgreSQL vector stores
	// that require VECTOR(N) column declarations).
	var dimension int
	if cfg.embeddingProvider != nil && cfg.database == databasePostgresVectorchord {
		resp, err := cfg.embeddingProvider.Embed(ctx, provider.NewEmbeddingRequest([]string{"dimension probe"}))
		if err != nil {
			errClose := db.Close()
			return nil, errors.Join(fmt.Errorf("probe embedding dimension: %w", err), errClose)
		}
		probeEmbeddings := resp.Embeddings()
		if len(probeEmbeddings) == 0 || len(probeEmbeddings[0]) == 0 {
			errClose := db.Close()
			return nil, errors.Join(fmt.Errorf("failed to obtain embedding dimension from provider"), errClose)
		}
		dimension = len(probeEmbeddings[0])
	}

	// Create search stores. Unlike the teacher, which split code and text
	// embeddings into two separate indexes, every chunk the indexer handles —
	// source file, documentation section, conversation message — shares one
	// BM25 store and one embedding store, distinguished by indexer.Kind.
	bm25Store, embeddingStore, err := buildSearchStores(ctx, cfg, db, dimension, logger)
	if err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("search stores: %w", err), errClose)
	}

	// Create domain embedder from infrastructure provider
	var domainEmbedder search.Embedder
	if cfg.embeddingProvider != nil {
		domainEmbedder = &embeddingAdapter{inner: cfg.embeddingProvider}
	}

	bm25Svc, err := domainservice.NewBM25(bm25Store)
	if err != nil {
		return nil, fmt.Errorf("create bm25 service: %w", err)
	}

	var embeddingSvc domainservice.Embedding
	if embeddingStore != nil {
		embeddingSvc, err = domainservice.NewEmbedding(embeddingStore, domainEmbedder, cfg.embeddingBudget, cfg.embeddingParallelism)
		if err != nil {
			return nil, fmt.Errorf("create embedding service: %w", err)
		}
	}

	idx := indexer.New(bm25Svc, embeddingSvc, embeddingStore, chunking.DefaultChunkParams())

	// Create enricher infrastructure (only if text provider is configured)
	var enricherImpl domainservice.Enricher
	if cfg.textProvider != nil {
		enricherImpl = enricher.NewProviderEnricher(cfg.textProvider).
			WithParallelism(cfg.enricherParallelism)
	}

	// Create git infrastructure. The dependency-free go-git adapter is the
	// default; the Gitea-backed adapter assumes a running Gitea server and
	// is opt-in via WithGitProvider(config.GitProviderGitea).
	var gitAdapter git.Adapter
	switch cfg.gitProvider {
	case config.GitProviderGitea:
		giteaAdapter, err := git.NewGiteaAdapter(logger)
		if err != nil {
			return nil, fmt.Errorf("create gitea adapter: %w", err)
		}
		gitAdapter = giteaAdapter
	default:
		gitAdapter = git.NewGoGitAdapter(logger)
	}
	cloner := git.NewRepositoryCloner(gitAdapter, cloneDir, logger)

	langCfg := extractor.NewLanguageConfig()
	extractCfg := extractor.DefaultConfig()
	graphCfg := graph.Config{
		MaxConcurrentAnalysis:    4,
		MinimumRelationshipConf:  0,
		MinimumPatternConfidence: 0.6,
		Detectors: []graph.Detector{
			graph.DetectCreational,
			graph.DetectStructural,
			graph.DetectBehavioral,
			graph.DetectArchitectural,
			graph.DetectDDD,
			graph.DetectMicroservices,
		},
	}

	bus := eventbus.NewBus(logger)

	graphSvc := service.NewGraph(graphStore, patternStore, entityStore, relationshipStore, graphCfg)
	ingestionSvc := service.NewIngestion(
		repoStore, entityStore, relationshipStore, graphSvc, idx, cloner,
		langCfg, extractCfg, graphCfg, bus, logger,
	)

	queue := service.NewQueue(taskStore, logger)
	registry := service.NewRegistry()

	docSvc := service.NewDocumentation(documentationStore, entityStore, enricherImpl, idx)
	convSvc := service.NewConversation(conversationStore)
	retrievalSvc := service.NewRetrieval(idx, documentationStore, entityStore, graphSvc, enricherImpl, 0)
	conversationalAI := service.NewConversationalAI(cfg.textProvider, retrievalSvc, convSvc, bus, cfg.conversationalAI, logger)

	entitySvc := service.NewEntity(entityStore, relationshipStore)
	repositorySvc := service.NewRepository(repoStore, nil, queue, logger)
	retentionSvc := service.NewRetention(cfg.retention, conversationStore, logger)

	// Wrap reporters in cooldowns to limit log output to at most once per
	// second per status ID during high-frequency task updates.
	logCooldown := tracking.NewCooldown(tracking.NewLoggingReporter(logger), time.Second)
	trackerFactory := &trackerFactoryImpl{
		reporters: []tracking.Reporter{logCooldown},
		logger:    logger,
	}

	worker := service.NewWorker(taskStore, registry, trackerFactory, logger)
	if cfg.workerPollPeriod > 0 {
		worker.WithPollPeriod(cfg.workerPollPeriod)
	}

	periodicSync := service.NewPeriodicSync(cfg.periodicSync, repoStore, queue, logger)

	cfg.closers = append(cfg.closers, logCooldown)

	client := &Client{
		Repositories:     repositorySvc,
		Entities:         entitySvc,
		Graphs:           graphSvc,
		Documentation:    docSvc,
		Conversations:    convSvc,
		ConversationalAI: conversationalAI,
		Retrieval:        retrievalSvc,
		Tasks:            queue,
		Events:           bus,
		db:               db,
		ingestion:        ingestionSvc,
		worker:           worker,
		registry:         registry,
		periodicSync:     periodicSync,
		retention:        retentionSvc,
		hugotEmbedding:   hugotEmbedding,
		closers:          cfg.closers,
		logger:           logger,
		dataDir:          dataDir,
		cloneDir:         cloneDir,
		apiKeys:          cfg.apiKeys,
	}

	// Register task handlers
	if err := client.registerHandlers(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register handlers: %w", err)
	}

	// Validate all prescribed operations have handlers
	if !cfg.skipProviderValidation {
		if err := client.validateHandlers(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	// Start the background worker, periodic sync, and retention sweep
	worker.Start(ctx)
	periodicSync.Start(ctx)
	retentionSvc.Start(ctx)

	return client, nil
}

// Close releases all resources and stops the background worker, periodic
// sync, and retention sweep.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.retention.Stop()
	c.periodicSync.Stop()
	c.worker.Stop()

	if c.hugotEmbedding != nil {
		if err := c.hugotEmbedding.Close(); err != nil {
			c.logger.Error("failed to close hugot embedding", slog.Any("error", err))
		}
	}

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("sourcelore client closed")
	return nil
}

// WorkerIdle reports whether the background worker has no pending tasks.
func (c *Client) WorkerIdle() bool {
	count, err := c.Tasks.Count(context.Background())
	return err == nil && count == 0
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// APIKeys returns the configured API keys for HTTP API write-protection.
// An empty slice means authentication is disabled.
func (c *Client) APIKeys() []string {
	return append([]string{}, c.apiKeys...)
}

// embeddingAdapter adapts provider.Embedder to the domain search.Embedder interface.
type embeddingAdapter struct {
	inner provider.Embedder
}

func (a *embeddingAdapter) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := a.inner.Embed(ctx, provider.NewEmbeddingRequest(texts))
	if err != nil {
		return nil, err
	}
	return resp.Embeddings(), nil
}

// Capacity returns the inner provider's per-call limit when it declares one,
// and 0 otherwise.
func (a *embeddingAdapter) Capacity() int {
	if c, ok := a.inner.(interface{ Capacity() int }); ok {
		return c.Capacity()
	}
	return 0
}

// buildSearchStores creates a single BM25 store and, if an embedding
// provider is configured, a single embedding store sized for the
// configured database backend.
func buildSearchStores(ctx context.Context, cfg *clientConfig, db database.Database, dimension int, logger *slog.Logger) (bm25Store search.BM25Store, embeddingStore search.EmbeddingStore, err error) {
	switch cfg.database {
	case databaseSQLite:
		bm25Store, err = persistence.NewSQLiteBM25Store(db, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("bm25 store: %w", err)
		}
		if cfg.embeddingProvider != nil {
			embeddingStore, err = persistence.NewSQLiteEmbeddingStore(db, persistence.TaskNameText, logger)
			if err != nil {
				return nil, nil, fmt.Errorf("embedding store: %w", err)
			}
		}
	case databasePostgresVectorchord:
		bm25Store, err = persistence.NewVectorChordBM25Store(db, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("bm25 store: %w", err)
		}
		if cfg.embeddingProvider != nil {
			var store *persistence.VectorChordEmbeddingStore
			store, _, err = persistence.NewVectorChordEmbeddingStore(ctx, db, persistence.TaskNameText, dimension, logger)
			if err != nil {
				return nil, nil, fmt.Errorf("embedding store: %w", err)
			}
			embeddingStore = store
		}
	}
	return bm25Store, embeddingStore, nil
}
