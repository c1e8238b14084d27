package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/ennish0079/fpl-dashboard/internal/domain/history"
	"github.com/ennish0079/fpl-dashboard/internal/domain/player"
	"github.com/ennish0079/fpl-dashboard/internal/platform/logging"
)

// SchemaManager describes the schema lifecycle operations the refresh
// orchestrator drives.
type SchemaManager interface {
	TablesExist(ctx context.Context) (bool, error)
	IsCurrent(ctx context.Context) (bool, error)
	EnsureTables(ctx context.Context) error
	Rebuild(ctx context.Context) error
}

// StoreMetadata exposes the on-disk freshness signal.
type StoreMetadata interface {
	LastWriteTime() (time.Time, error)
}

// RefreshProgress is a point-in-time snapshot of a running refresh.
type RefreshProgress struct {
	InProgress bool      `json:"in_progress"`
	Total      int       `json:"total"`
	Completed  int       `json:"completed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	LastError  string    `json:"last_error,omitempty"`
}

type RefreshService struct {
	provider   StatsProvider
	players    player.Repository
	histories  history.Repository
	schema     SchemaManager
	store      StoreMetadata
	logger     *logging.Logger
	workers    int
	staleness  time.Duration
	now        func() time.Time
	onComplete func()

	mu        sync.Mutex
	running   bool
	progress  RefreshProgress
	completed atomic.Int64
}

type RefreshOption func(*RefreshService)

// WithRefreshClock injects the time source used for staleness checks.
func WithRefreshClock(now func() time.Time) RefreshOption {
	return func(s *RefreshService) { s.now = now }
}

// WithRefreshCompleted registers a hook that runs after every successful
// refresh, e.g. to drop the query layer's load cache.
func WithRefreshCompleted(fn func()) RefreshOption {
	return func(s *RefreshService) { s.onComplete = fn }
}

func NewRefreshService(
	provider StatsProvider,
	players player.Repository,
	histories history.Repository,
	schema SchemaManager,
	store StoreMetadata,
	staleness time.Duration,
	workers int,
	logger *logging.Logger,
	opts ...RefreshOption,
) *RefreshService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers < 1 {
		workers = 1
	}
	if staleness <= 0 {
		staleness = 12 * time.Hour
	}

	s := &RefreshService{
		provider:  provider,
		players:   players,
		histories: histories,
		schema:    schema,
		store:     store,
		logger:    logger,
		workers:   workers,
		staleness: staleness,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CheckAndRefresh refreshes when the store is absent, the schema is stale,
// or the last write is older than the staleness threshold. It reports
// whether a refresh ran.
func (s *RefreshService) CheckAndRefresh(ctx context.Context) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "RefreshService.CheckAndRefresh")
	defer span.End()

	reason, needed, err := s.refreshReason(ctx)
	if err != nil {
		return false, err
	}
	if !needed {
		s.logger.DebugContext(ctx, "stats store is fresh, skipping refresh")
		return false, nil
	}

	s.logger.InfoContext(ctx, "stats refresh required", "reason", reason)
	if err := s.Refresh(ctx); err != nil {
		return false, err
	}

	return true, nil
}

func (s *RefreshService) refreshReason(ctx context.Context) (string, bool, error) {
	exists, err := s.schema.TablesExist(ctx)
	if err != nil {
		return "", false, fmt.Errorf("check tables exist: %w", err)
	}
	if !exists {
		return "store absent", true, nil
	}

	current, err := s.schema.IsCurrent(ctx)
	if err != nil {
		return "", false, fmt.Errorf("check schema version: %w", err)
	}
	if !current {
		return "schema stale", true, nil
	}

	count, err := s.players.Count(ctx)
	if err != nil {
		return "", false, fmt.Errorf("count players: %w", err)
	}
	if count == 0 {
		return "store empty", true, nil
	}

	lastWrite, err := s.store.LastWriteTime()
	if err != nil {
		return "", false, fmt.Errorf("read store mtime: %w", err)
	}
	if age := s.now().Sub(lastWrite); age > s.staleness {
		return fmt.Sprintf("data age %s exceeds threshold %s", age.Truncate(time.Minute), s.staleness), true, nil
	}

	return "", false, nil
}

// Refresh performs a full refresh: snapshot fetch, schema rebuild, player
// replace, then a bounded fan-out of per-player history fetches. The
// snapshot is fetched before any destructive write, so a fetch failure
// leaves existing data untouched.
func (s *RefreshService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRefreshInProgress
	}
	s.running = true
	s.progress = RefreshProgress{InProgress: true, StartedAt: s.now()}
	s.completed.Store(0)
	s.mu.Unlock()

	err := s.refresh(ctx)

	s.mu.Lock()
	s.running = false
	s.progress.InProgress = false
	s.progress.Completed = int(s.completed.Load())
	s.progress.FinishedAt = s.now()
	if err != nil {
		s.progress.LastError = err.Error()
	}
	s.mu.Unlock()

	if err == nil && s.onComplete != nil {
		s.onComplete()
	}

	return err
}

func (s *RefreshService) refresh(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "RefreshService.Refresh")
	defer span.End()

	start := s.now()

	snapshot, err := s.provider.FetchBootstrap(ctx)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	if len(snapshot.Players) == 0 {
		return fmt.Errorf("%w: snapshot contains no players", ErrDependencyUnavailable)
	}

	players := NormalizePlayers(snapshot)

	s.mu.Lock()
	s.progress.Total = len(players)
	s.mu.Unlock()

	current, err := s.schema.IsCurrent(ctx)
	if err != nil {
		return fmt.Errorf("check schema version: %w", err)
	}
	if !current {
		if err := s.schema.Rebuild(ctx); err != nil {
			return fmt.Errorf("rebuild schema: %w", err)
		}
	} else if err := s.schema.EnsureTables(ctx); err != nil {
		return fmt.Errorf("ensure tables: %w", err)
	}

	if err := s.players.ReplaceAll(ctx, players); err != nil {
		return fmt.Errorf("replace players: %w", err)
	}

	if err := s.fetchHistories(ctx, players); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "stats refresh complete",
		"players", len(players),
		"duration", s.now().Sub(start).String(),
	)

	return nil
}

// fetchHistories fans out element-summary fetches over a bounded worker
// pool. The provider's shared rate limiter keeps the aggregate request
// rate bounded regardless of worker count. A failed fetch for one player
// is logged and skipped, never aborting the batch.
func (s *RefreshService) fetchHistories(ctx context.Context, players []player.Player) error {
	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return fmt.Errorf("create history worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, p := range players {
		p := p
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			defer s.completed.Add(1)

			if ctx.Err() != nil {
				return
			}

			raw, err := s.provider.FetchPlayerHistory(ctx, p.ID)
			if err != nil {
				s.logger.WarnContext(ctx, "skip player history", "player_id", p.ID, "error", err)
				return
			}

			entries := NormalizeHistory(p.ID, raw)
			if len(entries) == 0 {
				return
			}
			if err := s.histories.UpsertEntries(ctx, entries); err != nil {
				s.logger.WarnContext(ctx, "store player history failed", "player_id", p.ID, "error", err)
			}
		}); err != nil {
			wg.Done()
			s.logger.WarnContext(ctx, "submit history task failed", "player_id", p.ID, "error", err)
		}
	}
	wg.Wait()

	return ctx.Err()
}

// Progress reports the state of the current or most recent refresh.
func (s *RefreshService) Progress() RefreshProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.progress
	if out.InProgress {
		out.Completed = int(s.completed.Load())
	}

	return out
}
