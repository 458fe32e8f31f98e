package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sourcelore/sourcelore/domain/repository"
	"github.com/sourcelore/sourcelore/domain/task"
)

// RepositoryAddParams configures adding a new repository.
type RepositoryAddParams struct {
	Owner  string
	Name   string
	URL    string
	Branch string
	Tag    string
	Commit string
}

// RescanParams configures a repository rescan operation.
type RescanParams struct {
	RepositoryID int64
}

// TrackingConfigParams configures a tracking config update.
type TrackingConfigParams struct {
	Branch string
	Tag    string
	Commit string
}

// Repository provides repository management and query operations.
// Embeds Collection for Find/Get; bespoke methods handle writes and lifecycle.
type Repository struct {
	repository.Collection[repository.Repository]
	repoStore   repository.RepositoryStore
	commitStore repository.CommitStore
	queue       *Queue
	logger      *slog.Logger
}

// NewRepository creates a new Repository service.
func NewRepository(
	repoStore repository.RepositoryStore,
	commitStore repository.CommitStore,
	queue *Queue,
	logger *slog.Logger,
) *Repository {
	return &Repository{
		Collection:  repository.NewCollection[repository.Repository](repoStore),
		repoStore:   repoStore,
		commitStore: commitStore,
		queue:       queue,
		logger:      logger,
	}
}

// Add creates a new repository and queues it for ingestion (C10).
// Returns the repository, whether it was newly created, and any error.
// If the repository already exists, it returns the existing one with created=false.
func (s *Repository) Add(ctx context.Context, params *RepositoryAddParams) (repository.Repository, bool, error) {
	existing, err := s.repoStore.Exists(ctx, repository.WithURL(params.URL))
	if err != nil {
		return repository.Repository{}, false, fmt.Errorf("check existing: %w", err)
	}
	if existing {
		repo, err := s.repoStore.FindOne(ctx, repository.WithURL(params.URL))
		if err != nil {
			return repository.Repository{}, false, fmt.Errorf("find existing repository: %w", err)
		}
		return repo, false, nil
	}

	repo, err := repository.NewRepository(params.Owner, params.Name, params.URL)
	if err != nil {
		return repository.Repository{}, false, fmt.Errorf("create repository: %w", err)
	}
	if params.Branch != "" || params.Tag != "" || params.Commit != "" {
		repo = repo.WithTrackingConfig(
			repository.NewTrackingConfig(params.Branch, params.Tag, params.Commit),
		)
	}

	savedRepo, err := s.repoStore.Save(ctx, repo)
	if err != nil {
		return repository.Repository{}, false, fmt.Errorf("save repository: %w", err)
	}

	payload := map[string]any{"repository_id": savedRepo.ID()}
	operations := task.NewPrescribedOperations(s.embeddingsEnabled(), s.enrichmentEnabled()).IngestRepository()

	if err := s.queue.EnqueueOperations(ctx, operations, task.PriorityUserInitiated, payload); err != nil {
		s.logger.Warn("failed to enqueue ingestion",
			slog.Int64("repo_id", savedRepo.ID()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("repository added",
		slog.Int64("repo_id", savedRepo.ID()),
		slog.String("full_name", savedRepo.FullName()),
		slog.String("url", savedRepo.URL()),
		slog.String("tracking", savedRepo.TrackingConfig().Reference()),
	)

	return savedRepo, true, nil
}

// embeddingsEnabled and enrichmentEnabled are overridden by the wiring layer
// (handlers.go) where provider availability is known; the service-level
// default assumes both are configured.
func (s *Repository) embeddingsEnabled() bool { return true }
func (s *Repository) enrichmentEnabled() bool { return true }

// Delete enqueues a critical-priority delete task for a repository. Its
// handler (DeleteRepositoryHandler) drains the repository's pending tasks
// and removes its code entities, relationships, and the repository itself;
// its knowledge graph, documentation, and indexed search content are not
// removed.
func (s *Repository) Delete(ctx context.Context, id int64) error {
	_, err := s.repoStore.FindOne(ctx, repository.WithID(id))
	if err != nil {
		return fmt.Errorf("get repository: %w", err)
	}

	payload := map[string]any{"repository_id": id}
	t := task.NewTask(task.OperationDeleteRepository, int(task.PriorityCritical), payload)

	if err := s.queue.Enqueue(ctx, t); err != nil {
		return fmt.Errorf("enqueue delete: %w", err)
	}

	s.logger.Info("delete requested",
		slog.Int64("repo_id", id),
	)

	return nil
}

// Rescan triggers a reindex of a repository (C10's "Ready → Analyzing
// (reindex)" edge).
func (s *Repository) Rescan(ctx context.Context, params *RescanParams) error {
	_, err := s.repoStore.FindOne(ctx, repository.WithID(params.RepositoryID))
	if err != nil {
		return fmt.Errorf("get repository: %w", err)
	}
	return s.enqueueRescan(ctx, params)
}

// RescanAll enqueues a reindex for every tracked repository.
func (s *Repository) RescanAll(ctx context.Context) error {
	repos, err := s.repoStore.Find(ctx)
	if err != nil {
		return fmt.Errorf("find repositories: %w", err)
	}
	for _, repo := range repos {
		if err := s.enqueueRescan(ctx, &RescanParams{RepositoryID: repo.ID()}); err != nil {
			return fmt.Errorf("enqueue rescan: %w", err)
		}
	}
	return nil
}

// UpdateTrackingConfig updates a repository's tracking configuration.
func (s *Repository) UpdateTrackingConfig(ctx context.Context, id int64, params *TrackingConfigParams) (repository.Repository, error) {
	trackingConfig := repository.NewTrackingConfig(params.Branch, params.Tag, params.Commit)
	repo, err := s.repoStore.FindOne(ctx, repository.WithID(id))
	if err != nil {
		return repository.Repository{}, fmt.Errorf("get repository: %w", err)
	}

	updatedRepo := repo.WithTrackingConfig(trackingConfig)

	savedRepo, err := s.repoStore.Save(ctx, updatedRepo)
	if err != nil {
		return repository.Repository{}, fmt.Errorf("save repository: %w", err)
	}

	s.logger.Info("tracking config updated",
		slog.Int64("repo_id", id),
		slog.String("tracking", trackingConfig.Reference()),
	)

	return savedRepo, nil
}

// Summary is a read-model combining a Repository with its branch/commit
// counts, for display purposes. Unlike the domain aggregates it carries no
// invariants of its own.
type Summary struct {
	Repository    repository.Repository
	BranchCount   int
	CommitCount   int
	DefaultBranch string
}

// SummaryByID returns a detailed summary for a repository. Branches are
// read directly off the Repository aggregate — they are embedded with it,
// not stored as a separately queryable row set.
func (s *Repository) SummaryByID(ctx context.Context, id int64) (Summary, error) {
	repo, err := s.repoStore.FindOne(ctx, repository.WithID(id))
	if err != nil {
		return Summary{}, fmt.Errorf("get repository: %w", err)
	}

	commits, err := s.commitStore.Find(ctx, repository.WithRepoID(id))
	if err != nil {
		return Summary{}, fmt.Errorf("find commits: %w", err)
	}

	branches := repo.Branches()
	var defaultBranch string
	for _, branch := range branches {
		if branch.IsDefault() {
			defaultBranch = branch.Name()
			break
		}
	}

	return Summary{
		Repository:    repo,
		BranchCount:   len(branches),
		CommitCount:   len(commits),
		DefaultBranch: defaultBranch,
	}, nil
}

// BranchesForRepository returns all branches for a repository, read off its
// embedded Branches slice.
func (s *Repository) BranchesForRepository(ctx context.Context, repoID int64) ([]repository.Branch, error) {
	repo, err := s.repoStore.FindOne(ctx, repository.WithID(repoID))
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}
	return repo.Branches(), nil
}

// --- internal write operations ---

func (s *Repository) enqueueRescan(ctx context.Context, params *RescanParams) error {
	payload := map[string]any{"repository_id": params.RepositoryID}
	operations := task.NewPrescribedOperations(s.embeddingsEnabled(), s.enrichmentEnabled()).RescanRepository()

	if err := s.queue.EnqueueOperations(ctx, operations, task.PriorityUserInitiated, payload); err != nil {
		return fmt.Errorf("enqueue rescan: %w", err)
	}

	s.logger.Info("rescan requested",
		slog.Int64("repo_id", params.RepositoryID),
	)

	return nil
}
