package sourcelore

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sourcelore/sourcelore/application/service"
	"github.com/sourcelore/sourcelore/domain/task"
	"github.com/sourcelore/sourcelore/infrastructure/tracking"
)

// registerHandlers registers every task handler with the worker registry.
func (c *Client) registerHandlers() error {
	ing := c.ingestion

	c.registry.Register(task.OperationConnectRepository, service.NewConnectRepositoryHandler(ing))
	c.registry.Register(task.OperationAnalyzeStructure, service.NewAnalyzeStructureHandler(ing))
	c.registry.Register(task.OperationExtractCodeEntities, service.NewExtractCodeEntitiesHandler(ing))
	c.registry.Register(task.OperationEmbedCodeEntities, service.NewEmbedCodeEntitiesHandler(ing))
	c.registry.Register(task.OperationBuildKnowledgeGraph, service.NewBuildKnowledgeGraphHandler(ing))
	c.registry.Register(task.OperationIndexFileChunks, service.NewIndexFileChunksHandler(ing))
	c.registry.Register(task.OperationRescanRepository, service.NewRescanRepositoryHandler(ing))
	c.registry.Register(task.OperationSyncRepository, service.NewSyncRepositoryHandler(ing, c.Tasks))
	c.registry.Register(task.OperationDeleteRepository, service.NewDeleteRepositoryHandler(ing, c.Tasks))

	// Documentation pipeline. GenerateDocumentationHandler runs the full
	// Analyze/Generate/[Enrich]/Index/Complete sequence in a single pass,
	// registered against OperationAnalyzeForDocumentation;
	// RegenerateDocumentationHandler wraps it for OperationRegenerateDocumentation.
	// The RegenerateDocumentation sequence also contains
	// OperationAnalyzeForDocumentation, so a regeneration runs the pass twice.
	// The generate, enrich and index operations resolve to a no-op so
	// validateHandlers sees every prescribed operation covered.
	noop := service.NewDocumentationNoopHandler()
	c.registry.Register(task.OperationAnalyzeForDocumentation, service.NewGenerateDocumentationHandler(ing, c.Documentation, c.Events))
	c.registry.Register(task.OperationGenerateDocumentationSections, noop)
	c.registry.Register(task.OperationEnrichDocumentationSections, noop)
	c.registry.Register(task.OperationIndexDocumentationSections, noop)
	c.registry.Register(task.OperationRegenerateDocumentation, service.NewRegenerateDocumentationHandler(ing, c.Documentation, c.Events))

	// Conversation retention sweep, queueable independently of the timer.
	c.registry.Register(task.OperationArchiveConversations, c.retention.ArchiveHandler())
	c.registry.Register(task.OperationCleanupConversations, c.retention.CleanupHandler())

	c.logger.Info("registered task handlers", slog.Int("count", len(c.registry.Operations())))
	return nil
}

// validateHandlers checks that every prescribed operation has a registered handler.
// Returns an error listing missing operations and which provider to configure.
func (c *Client) validateHandlers() error {
	var missing []string
	for _, op := range (task.PrescribedOperations{}).All() {
		if !c.registry.HasHandler(op) {
			missing = append(missing, op.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf(
		"missing handlers for operations: [%s] — configure a text provider (WithOpenAI, WithAnthropic) and an embedding provider (WithOpenAI, WithEmbeddingProvider) or call WithSkipProviderValidation to start without them",
		strings.Join(missing, ", "),
	)
}

// buildDatabaseURL constructs the database URL from configuration.
func buildDatabaseURL(cfg *clientConfig) (string, error) {
	switch cfg.database {
	case databaseSQLite:
		return "sqlite:///" + cfg.dbPath, nil
	case databasePostgresVectorchord:
		return vectorchordDSN(cfg.dbDSN)
	default:
		return "", ErrNoDatabase
	}
}

// vectorchordDSN ensures the connection string's search_path includes the
// bm25_catalog and tokenizer_catalog schemas VectorChord's BM25 and
// tokenizer types live in, alongside the caller's public schema. It leaves
// the DSN untouched if a search_path is already configured, whether as its
// own query parameter or embedded in a libpq options string.
func vectorchordDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}

	q := u.Query()
	if q.Get("search_path") != "" {
		return dsn, nil
	}
	if strings.Contains(q.Get("options"), "search_path") {
		return dsn, nil
	}

	q.Set("search_path", "public,bm25_catalog,tokenizer_catalog")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// trackerFactoryImpl implements service.WorkerTrackerFactory for progress reporting.
type trackerFactoryImpl struct {
	reporters []tracking.Reporter
	logger    *slog.Logger
}

// ForOperation creates a Tracker for the given operation.
func (f *trackerFactoryImpl) ForOperation(operation task.Operation, trackableType task.TrackableType, trackableID int64) service.WorkerTracker {
	tracker := tracking.TrackerForOperation(operation, f.logger, trackableType, trackableID)
	for _, reporter := range f.reporters {
		tracker.Subscribe(reporter)
	}
	return tracker
}
