package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/metrics"
	"github.com/riskibarqy/football-sync/internal/platform/resilience"
)

type BackfillConfig struct {
	StartYear  int
	EndYear    int
	MaxWorkers int
	RetrySleep time.Duration
	// MaxSweeps bounds Run; zero keeps sweeping until nothing is pending.
	MaxSweeps  int
	ClaimLease time.Duration
}

type SweepResult struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Retried   int `json:"retried"`
	Skipped   int `json:"skipped"`
}

type BackfillResult struct {
	Registered int           `json:"registered"`
	Sweeps     int           `json:"sweeps"`
	Completed  int           `json:"completed"`
	Failed     int           `json:"failed"`
	Last       SweepResult   `json:"last"`
	Duration   time.Duration `json:"duration"`
}

type taskOutcome int

const (
	taskCompleted taskOutcome = iota
	taskFailed
	taskRetry
	taskSkipped
)

// BackfillService walks every (competition, season, provider) task to a
// terminal state.
type BackfillService struct {
	store     SyncStore
	sync      *SyncService
	providers []CatalogProvider
	bySource  map[progress.TaskType]CatalogProvider
	cfg       BackfillConfig
	logger    *logging.Logger
	runID     string
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewBackfillService(
	store SyncStore,
	syncSvc *SyncService,
	providers []CatalogProvider,
	cfg BackfillConfig,
	logger *logging.Logger,
) *BackfillService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 15
	}
	if cfg.RetrySleep <= 0 {
		cfg.RetrySleep = time.Minute
	}
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = 30 * time.Minute
	}

	bySource := make(map[progress.TaskType]CatalogProvider, len(providers))
	for _, p := range providers {
		if p != nil {
			bySource[p.Source()] = p
		}
	}

	return &BackfillService{
		store:     store,
		sync:      syncSvc,
		providers: providers,
		bySource:  bySource,
		cfg:       cfg,
		logger:    logger.Component("backfill"),
		runID:     uuid.NewString(),
		now:       time.Now,
		sleep:     resilience.SleepContext,
	}
}

func (s *BackfillService) RunID() string {
	return s.runID
}

// Run discovers tasks and sweeps until the pending set is empty.
func (s *BackfillService) Run(ctx context.Context) (BackfillResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BackfillService.Run", attribute.String("run_id", s.runID))
	var err error
	defer func() { endSpan(span, err) }()

	started := s.now()
	result := BackfillResult{}
	result.Registered, err = s.Discover(ctx)
	if err != nil {
		return result, err
	}

	for {
		var sweep SweepResult
		sweep, err = s.Sweep(ctx)
		if err != nil {
			return result, err
		}
		result.Sweeps++
		result.Completed += sweep.Completed
		result.Failed += sweep.Failed
		result.Last = sweep

		remaining := sweep.Retried + sweep.Skipped
		if sweep.Pending == 0 || remaining == 0 {
			break
		}
		if s.cfg.MaxSweeps > 0 && result.Sweeps >= s.cfg.MaxSweeps {
			s.logger.WarnContext(ctx, "backfill stopped at sweep limit", "sweeps", result.Sweeps, "remaining", remaining)
			break
		}

		s.logger.InfoContext(ctx, "backfill sweep left pending tasks", "sweep", result.Sweeps, "remaining", remaining, "sleep", s.cfg.RetrySleep.String())
		if err = s.sleep(ctx, s.cfg.RetrySleep); err != nil {
			return result, err
		}
	}

	result.Duration = s.now().Sub(started)
	s.logger.InfoContext(ctx, "backfill finished",
		"sweeps", result.Sweeps,
		"completed", result.Completed,
		"failed", result.Failed,
		"duration", result.Duration.String(),
	)
	return result, nil
}

// Discover persists every provider's competitions and registers the task
// universe. Existing tasks keep their status.
func (s *BackfillService) Discover(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BackfillService.Discover")
	var err error
	defer func() { endSpan(span, err) }()

	registered := 0
	var errs []error
	for _, p := range s.providers {
		n, discoverErr := s.discoverProvider(ctx, p)
		if discoverErr != nil {
			s.logger.ErrorContext(ctx, "discovery failed", "source", p.Source(), "error", discoverErr)
			errs = append(errs, discoverErr)
			continue
		}
		registered += n
	}
	if len(errs) > 0 && len(errs) == len(s.providers) {
		err = errs[0]
		return 0, err
	}
	return registered, nil
}

func (s *BackfillService) discoverProvider(ctx context.Context, p CatalogProvider) (int, error) {
	comps, raws, err := p.Discover(ctx)
	if err != nil {
		return 0, fmt.Errorf("discover %s: %w", p.Source(), err)
	}

	registered := 0
	err = s.store.InTx(ctx, func(w SyncWriter) error {
		discovered, err := s.sync.ApplyCompetitions(ctx, w, p.Source(), comps)
		if err != nil {
			return err
		}
		if len(raws) > 0 {
			if err := w.UpsertRawPayloads(ctx, raws); err != nil {
				return err
			}
		}

		tasks := s.tasksFor(p.Source(), discovered)
		if len(tasks) == 0 {
			return nil
		}
		registered, err = w.RegisterTasks(ctx, tasks)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("register %s tasks: %w", p.Source(), err)
	}

	s.logger.InfoContext(ctx, "discovery registered tasks", "source", p.Source(), "competitions", len(comps), "new_tasks", registered)
	return registered, nil
}

func (s *BackfillService) tasksFor(source progress.TaskType, discovered []DiscoveredCompetition) []progress.Task {
	var tasks []progress.Task
	for _, d := range discovered {
		years := d.Seasons
		if len(years) == 0 && d.CurrentSeasonYear != nil {
			years = []int{*d.CurrentSeasonYear}
		}
		for _, year := range season.Dedupe(years) {
			if year < s.cfg.StartYear || (s.cfg.EndYear > 0 && year > s.cfg.EndYear) {
				continue
			}
			tasks = append(tasks, progress.Task{
				Key:               progress.Key{CompetitionID: d.ID, SeasonYear: year, TaskType: source},
				ProviderRef:       d.Ref,
				Status:            progress.StatusPending,
				CurrentSeasonYear: d.CurrentSeasonYear,
			})
		}
	}
	return tasks
}

// Sweep runs every pending task once through the worker pool.
func (s *BackfillService) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BackfillService.Sweep")
	var err error
	defer func() { endSpan(span, err) }()

	metrics.BackfillSweepsTotal.Inc()

	now := s.now().UTC()
	var tasks []progress.Task
	for _, p := range s.providers {
		pending, listErr := s.store.PendingTasks(ctx, p.Source(), now, s.cfg.ClaimLease)
		if listErr != nil {
			err = fmt.Errorf("list pending %s tasks: %w", p.Source(), listErr)
			return SweepResult{}, err
		}
		tasks = append(tasks, pending...)
	}

	result := SweepResult{Pending: len(tasks)}
	if len(tasks) == 0 {
		return result, nil
	}

	halted := make(map[progress.TaskType]*atomic.Bool, len(s.bySource))
	for source := range s.bySource {
		halted[source] = &atomic.Bool{}
	}

	pool, err := ants.NewPool(s.cfg.MaxWorkers)
	if err != nil {
		err = fmt.Errorf("create worker pool: %w", err)
		return SweepResult{}, err
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		workers sync.WaitGroup
	)
	for _, task := range tasks {
		workers.Add(1)
		if submitErr := pool.Submit(func() {
			defer workers.Done()

			outcome := s.runTask(ctx, task, halted[task.TaskType])
			metrics.BackfillTasksTotal.WithLabelValues(string(task.TaskType), outcome.String()).Inc()

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case taskCompleted:
				result.Completed++
			case taskFailed:
				result.Failed++
			case taskRetry:
				result.Retried++
			default:
				result.Skipped++
			}
		}); submitErr != nil {
			workers.Done()
			err = fmt.Errorf("submit task to worker pool: %w", submitErr)
			return SweepResult{}, err
		}
	}
	workers.Wait()

	s.logger.InfoContext(ctx, "backfill sweep done",
		"pending", result.Pending,
		"completed", result.Completed,
		"failed", result.Failed,
		"retried", result.Retried,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (s *BackfillService) runTask(ctx context.Context, task progress.Task, halted *atomic.Bool) taskOutcome {
	logger := s.logger.With(
		"competition_id", task.CompetitionID,
		"season_year", task.SeasonYear,
		"task_type", task.TaskType,
	)
	if halted != nil && halted.Load() {
		return taskSkipped
	}
	provider, ok := s.bySource[task.TaskType]
	if !ok {
		logger.WarnContext(ctx, "no provider configured for task")
		return taskSkipped
	}

	claimed, err := s.store.ClaimTask(ctx, task.Key, s.runID, s.now().UTC(), s.cfg.ClaimLease)
	if err != nil {
		logger.ErrorContext(ctx, "claim task failed", "error", err)
		return taskRetry
	}
	if !claimed {
		return taskSkipped
	}

	// Fetch outside the transaction so no connection is held across HTTP.
	bundle, err := provider.FetchSeason(ctx, task.ProviderRef, task.SeasonYear, task.IsCurrentSeason())
	if err != nil {
		switch {
		case IsTerminal(err):
			logger.WarnContext(ctx, "task rejected by provider", "error", err)
			return s.release(ctx, logger, task, progress.StatusFailed, err)
		case crerr.Is(err, ErrQuotaExhausted):
			if halted != nil {
				halted.Store(true)
			}
			logger.WarnContext(ctx, "provider quota exhausted, halting provider for this sweep", "error", err)
		default:
			logger.WarnContext(ctx, "task fetch failed, will retry", "error", err)
		}
		return s.release(ctx, logger, task, progress.StatusPending, err)
	}

	var applied ApplyResult
	err = s.store.InTx(ctx, func(w SyncWriter) error {
		var applyErr error
		applied, applyErr = s.sync.Apply(ctx, w, bundle)
		if applyErr != nil {
			return applyErr
		}
		stored, markErr := w.MarkTask(ctx, task.Key, progress.StatusCompleted, "", s.now().UTC())
		if markErr != nil {
			return markErr
		}
		if stored != progress.StatusCompleted {
			return crerr.Newf("task ended as %s instead of COMPLETED", stored)
		}
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "task write failed, will retry", "error", err)
		return s.release(ctx, logger, task, progress.StatusPending, err)
	}

	logger.InfoContext(ctx, "task completed",
		"fixtures", applied.Fixtures,
		"teams", applied.Teams,
		"standing_rows", applied.StandingRows,
		"skipped_rows", applied.Skipped,
	)
	return taskCompleted
}

func (s *BackfillService) release(ctx context.Context, logger *logging.Logger, task progress.Task, status progress.Status, cause error) taskOutcome {
	stored, err := s.store.MarkTask(ctx, task.Key, status, cause.Error(), s.now().UTC())
	if err != nil {
		logger.ErrorContext(ctx, "release task failed", "status", status, "error", err)
		return taskRetry
	}
	switch stored {
	case progress.StatusFailed:
		return taskFailed
	case progress.StatusCompleted:
		return taskCompleted
	default:
		return taskRetry
	}
}

func (o taskOutcome) String() string {
	switch o {
	case taskCompleted:
		return "completed"
	case taskFailed:
		return "failed"
	case taskRetry:
		return "retry"
	default:
		return "skipped"
	}
}
