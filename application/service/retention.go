package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcelore/sourcelore/domain/conversation"
	"github.com/sourcelore/sourcelore/internal/config"
)

// Retention runs the conversation retention sweep on a timer: it archives
// conversations that have gone quiet past the configured inactivity window,
// then purges archived/deleted conversations past the configured retention
// window. It also exposes its two steps as Handler.Execute methods so the
// Ingestion Orchestrator (C10) can drive them as queued tasks
// (task.OperationArchiveConversations, task.OperationCleanupConversations)
// instead of, or in addition to, the timer.
type Retention struct {
	store  conversation.Store
	logger *slog.Logger

	interval       time.Duration
	inactivityDays int
	retentionDays  int
	sweepLimit     int
	enabled        bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRetention creates a new Retention sweep from config and dependencies.
func NewRetention(cfg config.RetentionConfig, store conversation.Store, logger *slog.Logger) *Retention {
	return &Retention{
		store:          store,
		logger:         logger,
		interval:       cfg.Interval(),
		inactivityDays: cfg.InactivityDays(),
		retentionDays:  cfg.RetentionDays(),
		sweepLimit:     cfg.SweepLimit(),
		enabled:        cfg.Enabled(),
	}
}

// Start begins the retention sweep in a background goroutine.
// If disabled, this is a no-op.
func (r *Retention) Start(ctx context.Context) {
	if !r.enabled {
		r.logger.Info("retention sweep disabled")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Go(func() {
		r.run(ctx)
	})

	r.logger.Info("retention sweep started", slog.Duration("interval", r.interval))
}

// Stop cancels the background goroutine and waits for it to finish.
func (r *Retention) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	r.logger.Info("retention sweep stopped")
}

func (r *Retention) run(ctx context.Context) {
	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Retention) sweep(ctx context.Context) {
	archived, err := r.ArchiveInactive(ctx, "")
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Error("retention sweep failed to archive", slog.String("error", err.Error()))
	} else {
		r.logger.Debug("retention sweep archived conversations", slog.Int64("count", archived))
	}

	purged, err := r.Cleanup(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Error("retention sweep failed to clean up", slog.String("error", err.Error()))
		return
	}
	r.logger.Debug("retention sweep purged conversations", slog.Int("count", purged))
}

// ArchiveInactive archives every Active conversation whose last activity is
// older than the configured inactivity window. userID restricts the sweep
// to a single user's conversations; an empty string sweeps every user.
func (r *Retention) ArchiveInactive(ctx context.Context, userID string) (int64, error) {
	n, err := r.store.BulkArchive(ctx, userID, r.inactivityDays)
	if err != nil {
		return 0, fmt.Errorf("archive inactive conversations: %w", err)
	}
	return n, nil
}

// Cleanup permanently deletes conversations that have sat Archived or
// Deleted past the configured retention window, capped at the sweep limit
// per call so a backlog is drained gradually rather than in one pass.
func (r *Retention) Cleanup(ctx context.Context) (int, error) {
	stale, err := r.store.GetForCleanup(ctx, r.retentionDays, r.sweepLimit)
	if err != nil {
		return 0, fmt.Errorf("find conversations due for cleanup: %w", err)
	}

	purged := 0
	for _, conv := range stale {
		if err := r.store.Delete(ctx, conv.ID()); err != nil {
			return purged, fmt.Errorf("delete conversation %d: %w", conv.ID(), err)
		}
		purged++
	}
	return purged, nil
}

// ArchiveHandler returns a Handler for task.OperationArchiveConversations,
// for registration with a Worker's Registry.
func (r *Retention) ArchiveHandler() Handler {
	return retentionArchiveHandler{r}
}

// CleanupHandler returns a Handler for task.OperationCleanupConversations,
// for registration with a Worker's Registry.
func (r *Retention) CleanupHandler() Handler {
	return retentionCleanupHandler{r}
}

type retentionArchiveHandler struct{ retention *Retention }

func (h retentionArchiveHandler) Execute(ctx context.Context, _ map[string]any) error {
	_, err := h.retention.ArchiveInactive(ctx, "")
	return err
}

type retentionCleanupHandler struct{ retention *Retention }

func (h retentionCleanupHandler) Execute(ctx context.Context, _ map[string]any) error {
	_, err := h.retention.Cleanup(ctx)
	return err
}
