package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/football-sync/external/apifootball"
	"github.com/riskibarqy/football-sync/external/footballdata"
	"github.com/riskibarqy/football-sync/external/jobqueue"
	"github.com/riskibarqy/football-sync/internal/config"
	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/identity"
	"github.com/riskibarqy/football-sync/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/football-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/football-sync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/football-sync/internal/interfaces/httpapi"
	"github.com/riskibarqy/football-sync/internal/observability"
	basecache "github.com/riskibarqy/football-sync/internal/platform/cache"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/ratelimit"
	"github.com/riskibarqy/football-sync/internal/platform/resilience"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Runtime holds what every process shares: config, logger, store and the
// identity mapper. Close releases it in reverse start order.
type Runtime struct {
	Config  config.Config
	Logger  *logging.Logger
	Store   usecase.SyncStore
	Mapper  *identity.Mapper
	Process string

	db       *sqlx.DB
	closers  []func(context.Context) error
	status   *http.Server
	progress *cache.ProgressRepository
}

// Bootstrap loads config and starts telemetry and the store for process.
func Bootstrap(ctx context.Context, process string) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName, "process", process)
	rt := &Runtime{Config: cfg, Process: process}

	logger, shutdownUptrace, err := observability.InitUptrace(cfg, process, logger)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	logging.SetDefault(logger)
	rt.Logger = logger
	rt.closers = append(rt.closers, func(context.Context) error { return logger.Sync() }, shutdownUptrace)

	stopPyroscope, err := observability.InitPyroscope(cfg, process, logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	rt.closers = append(rt.closers, stopPyroscope)

	if stopPprof := observability.StartPprofServer(cfg.PprofAddr, process, logger); stopPprof != nil {
		rt.closers = append(rt.closers, stopPprof)
	}

	if rt.Mapper, err = newMapper(cfg.Identity); err != nil {
		rt.Close()
		return nil, err
	}

	if cfg.SyncDryRun {
		logger.Warn("dry run: writes go to an in-memory store and are discarded on exit")
		rt.Store = memory.NewStore()
		return rt, nil
	}

	rt.db, err = OpenDB(ctx, cfg, process, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, func(context.Context) error { return rt.db.Close() })
	rt.Store = postgres.NewStore(rt.db, cfg.UpsertBatchSize, logger)
	return rt, nil
}

func newMapper(cfg config.IdentityConfig) (*identity.Mapper, error) {
	aliases := identity.DefaultAliases()
	if cfg.AliasFile != "" {
		loaded, err := identity.LoadAliasFile(cfg.AliasFile)
		if err != nil {
			return nil, err
		}
		aliases = loaded
	}
	mapper, err := identity.NewMapper(cfg.Offset, aliases)
	if err != nil {
		return nil, fmt.Errorf("build identity mapper: %w", err)
	}
	return mapper, nil
}

// Close stops the status server and every started component. Errors are
// logged, not returned.
func (r *Runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if r.status != nil {
		if err := r.status.Shutdown(ctx); err != nil && r.Logger != nil {
			r.Logger.Error("status server shutdown failed", "error", err)
		}
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil && r.Logger != nil {
			r.Logger.Warn("shutdown step failed", "step", i, "error", err)
		}
	}
	r.closers = nil
}

// FootballData builds the primary provider client.
func (r *Runtime) FootballData() (*footballdata.Client, error) {
	cfg := r.Config.FootballData
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("FOOTBALL_DATA_API_KEYS must contain at least one key")
	}
	return footballdata.NewClient(footballdata.ClientConfig{
		BaseURL: cfg.BaseURL,
		APIKeys: cfg.APIKeys,
		Timeout: cfg.Timeout,
		Rotator: ratelimit.RotatorConfig{
			Limit:    cfg.RequestsPerMinute,
			Window:   time.Minute,
			Cooldown: cfg.Cooldown,
			Penalty:  cfg.Penalty,
		},
		Retry: resilience.RetryPolicy{
			MaxAttempts: cfg.MaxRetries + 1,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		Competitions:   cfg.Competitions,
		Logger:         r.Logger,
		CircuitBreaker: cfg.Circuit,
	})
}

// APIFootball builds the secondary provider client, or nil when disabled.
func (r *Runtime) APIFootball() (*apifootball.Client, error) {
	cfg := r.Config.APIFootball
	if !cfg.Enabled {
		return nil, nil
	}
	return apifootball.NewClient(apifootball.ClientConfig{
		BaseURL:           cfg.BaseURL,
		Key:               cfg.Key,
		Timeout:           cfg.Timeout,
		DailyQuota:        cfg.DailyQuota,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Retry: resilience.RetryPolicy{
			MaxAttempts: cfg.MaxRetries + 1,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		Leagues:        r.secondaryLeagues(),
		Logger:         r.Logger,
		CircuitBreaker: cfg.Circuit,
	})
}

// secondaryLeagues is the aliased league set plus any configured extras.
func (r *Runtime) secondaryLeagues() []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, a := range r.Mapper.Aliases() {
		if !seen[a.SecondaryID] {
			seen[a.SecondaryID] = true
			out = append(out, a.SecondaryID)
		}
	}
	for _, id := range r.Config.APIFootball.Leagues {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (r *Runtime) NewSyncService() *usecase.SyncService {
	return usecase.NewSyncService(r.Mapper, r.Logger)
}

func (r *Runtime) NewBackfill() (*usecase.BackfillService, error) {
	primary, err := r.FootballData()
	if err != nil {
		return nil, err
	}
	providers := []usecase.CatalogProvider{primary}

	secondary, err := r.APIFootball()
	if err != nil {
		return nil, err
	}
	if secondary != nil {
		providers = append(providers, secondary)
	}

	cfg := r.Config.Backfill
	return usecase.NewBackfillService(r.Store, r.NewSyncService(), providers, usecase.BackfillConfig{
		StartYear:  cfg.StartYear,
		EndYear:    cfg.EndYear,
		MaxWorkers: cfg.MaxWorkers,
		RetrySleep: cfg.RetrySleep,
		MaxSweeps:  cfg.MaxSweeps,
		ClaimLease: cfg.ClaimLease,
	}, r.Logger), nil
}

func (r *Runtime) NewPrediction() *usecase.PredictionService {
	return usecase.NewPredictionService(r.Store, usecase.PredictionConfig{}, r.Logger)
}

// PredictionTrigger picks the webhook when one is configured and the
// in-process pass otherwise. It returns nil when predictions are off.
func (r *Runtime) PredictionTrigger() (usecase.PredictionTrigger, error) {
	cfg := r.Config.Prediction
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.WebhookURL == "" {
		return r.NewPrediction(), nil
	}
	webhook, err := jobqueue.NewWebhookTrigger(jobqueue.WebhookConfig{
		URL:            cfg.WebhookURL,
		Token:          cfg.WebhookToken,
		Timeout:        cfg.Timeout,
		Retries:        cfg.Retries,
		CircuitBreaker: cfg.Circuit,
	}, r.Logger)
	if err != nil {
		return nil, err
	}
	return webhook, nil
}

func (r *Runtime) NewPoller() (*usecase.PollerService, error) {
	primary, err := r.FootballData()
	if err != nil {
		return nil, err
	}
	secondary, err := r.APIFootball()
	if err != nil {
		return nil, err
	}
	trigger, err := r.PredictionTrigger()
	if err != nil {
		return nil, err
	}

	// A nil client must reach the poller as a nil interface.
	var dateProvider usecase.DateProvider
	if secondary != nil {
		dateProvider = secondary
	}

	cfg := r.Config.Poller
	return usecase.NewPollerService(r.Store, r.NewSyncService(), primary, dateProvider, trigger, r.Mapper, usecase.PollerConfig{
		Interval:            cfg.Interval,
		SecondaryInterval:   cfg.SecondaryInterval,
		DaysBehind:          cfg.DaysBehind,
		DaysAhead:           cfg.DaysAhead,
		SecondaryDaysBehind: cfg.SecondaryDaysBehind,
		SecondaryDaysAhead:  cfg.SecondaryDaysAhead,
		MaxWorkers:          cfg.MaxWorkers,
		Competitions:        r.Config.FootballData.Competitions,
		SecondaryLeagues:    r.Config.APIFootball.Leagues,
	}, r.Logger), nil
}

// StartStatusServer serves the read-only status surface in the background.
// An empty STATUS_HTTP_ADDR disables it.
func (r *Runtime) StartStatusServer() {
	addr := r.Config.StatusHTTPAddr
	if addr == "" {
		r.Logger.Info("status server disabled", "reason", "STATUS_HTTP_ADDR empty")
		return
	}

	r.progress = cache.NewProgressRepository(r.Store,
		basecache.NewStore[[]progress.Count](r.Config.StatusCacheTTL),
		basecache.NewStore[[]progress.Task](r.Config.StatusCacheTTL),
	)
	handler := httpapi.NewHandler(r.progress, r.Store, r.Logger)
	r.status = &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(handler, r.Logger),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		r.Logger.Info("status server starting", "addr", addr)
		if err := r.status.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.Logger.Error("status server failed", "error", err)
		}
	}()
}

// InvalidateStatus drops cached ledger reads after a sweep changed them.
func (r *Runtime) InvalidateStatus(ctx context.Context) {
	if r.progress != nil {
		r.progress.Invalidate(ctx)
	}
}
