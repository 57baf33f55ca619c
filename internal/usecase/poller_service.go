package usecase

import (
	"context"
	"slices"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/football-sync/internal/domain/rawdata"
	"github.com/riskibarqy/football-sync/internal/identity"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/metrics"
)

type PollerConfig struct {
	Interval          time.Duration
	SecondaryInterval time.Duration
	DaysBehind        int
	DaysAhead         int
	// SecondaryDaysBehind and SecondaryDaysAhead bound the date poll. Every
	// day in that window costs one call against the daily quota.
	SecondaryDaysBehind int
	SecondaryDaysAhead  int
	MaxWorkers          int
	// Competitions are the primary provider codes polled every cycle.
	Competitions []string
	// SecondaryLeagues extends the aliased leagues the date poll keeps.
	SecondaryLeagues []int64
}

type PollResult struct {
	Source      string  `json:"source"`
	Units       int     `json:"units"`
	Failed      int     `json:"failed"`
	Fixtures    int     `json:"fixtures"`
	Changed     []int64 `json:"changed"`
	Triggered   bool    `json:"triggered"`
	QuotaHalted bool    `json:"quota_halted,omitempty"`
	WindowFrom  string  `json:"window_from"`
	WindowTo    string  `json:"window_to"`
}

// PollerService keeps a rolling window of fixtures fresh and hands changed
// fixture IDs to the prediction trigger.
type PollerService struct {
	store     SyncStore
	sync      *SyncService
	primary   WindowProvider
	secondary DateProvider
	trigger   PredictionTrigger
	mapper    *identity.Mapper
	cfg       PollerConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewPollerService(
	store SyncStore,
	syncSvc *SyncService,
	primary WindowProvider,
	secondary DateProvider,
	trigger PredictionTrigger,
	mapper *identity.Mapper,
	cfg PollerConfig,
	logger *logging.Logger,
) *PollerService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.SecondaryInterval <= 0 {
		cfg.SecondaryInterval = time.Hour
	}
	if cfg.DaysBehind < 0 {
		cfg.DaysBehind = 0
	}
	if cfg.DaysAhead < 0 {
		cfg.DaysAhead = 0
	}
	cfg.SecondaryDaysBehind = max(cfg.SecondaryDaysBehind, 0)
	cfg.SecondaryDaysAhead = max(cfg.SecondaryDaysAhead, 0)
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 5
	}

	return &PollerService{
		store:     store,
		sync:      syncSvc,
		primary:   primary,
		secondary: secondary,
		trigger:   trigger,
		mapper:    mapper,
		cfg:       cfg,
		logger:    logger.Component("poller"),
		now:       time.Now,
	}
}

// Run polls both providers on their own interval until ctx is done.
func (s *PollerService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "poller started",
		"interval", s.cfg.Interval.String(),
		"secondary_interval", s.cfg.SecondaryInterval.String(),
		"competitions", len(s.cfg.Competitions),
	)

	s.cycle(ctx, s.PollPrimary)
	s.cycle(ctx, s.PollSecondary)

	primaryTicker := time.NewTicker(s.cfg.Interval)
	defer primaryTicker.Stop()
	secondaryTicker := time.NewTicker(s.cfg.SecondaryInterval)
	defer secondaryTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "poller stopped")
			return nil
		case <-primaryTicker.C:
			s.cycle(ctx, s.PollPrimary)
		case <-secondaryTicker.C:
			s.cycle(ctx, s.PollSecondary)
		}
	}
}

func (s *PollerService) cycle(ctx context.Context, poll func(context.Context) (PollResult, error)) {
	result, err := poll(ctx)
	label := "ok"
	switch {
	case err != nil:
		label = "error"
		s.logger.ErrorContext(ctx, "poll cycle failed", "source", result.Source, "error", err)
	case result.Failed > 0:
		label = "partial"
	}
	if result.Source != "" {
		metrics.PollCyclesTotal.WithLabelValues(result.Source, label).Inc()
	}
}

// PollPrimary refetches the window for every configured competition in
// parallel. Each competition commits in its own transaction.
func (s *PollerService) PollPrimary(ctx context.Context) (PollResult, error) {
	result := PollResult{Source: "football_data"}
	if s.primary == nil || len(s.cfg.Competitions) == 0 {
		return result, nil
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.PollerService.PollPrimary", attribute.Int("competitions", len(s.cfg.Competitions)))
	var err error
	defer func() { endSpan(span, err) }()

	today := dayStart(s.now())
	from := today.AddDate(0, 0, -s.cfg.DaysBehind)
	to := today.AddDate(0, 0, s.cfg.DaysAhead)
	result.WindowFrom, result.WindowTo = from.Format(time.DateOnly), to.Format(time.DateOnly)

	p := pool.NewWithResults[ApplyResult]().WithContext(ctx).WithMaxGoroutines(s.cfg.MaxWorkers)
	for _, code := range s.cfg.Competitions {
		p.Go(func(ctx context.Context) (ApplyResult, error) {
			bundle, err := s.primary.FetchWindow(ctx, code, from, to)
			if err != nil {
				s.logger.WarnContext(ctx, "poll competition failed", "code", code, "error", err)
				return ApplyResult{}, crerr.Wrapf(err, "poll %s", code)
			}
			return s.applyOwnTx(ctx, bundle)
		})
	}
	applied, waitErr := p.Wait()

	result.Units = len(s.cfg.Competitions)
	result.Failed = result.Units - len(applied)
	for _, a := range applied {
		result.Fixtures += a.Fixtures
		result.Changed = append(result.Changed, a.ChangedLiveIDs...)
	}
	if waitErr != nil && len(applied) == 0 {
		err = waitErr
		return result, err
	}

	result.Triggered = s.notify(ctx, &result)
	return result, nil
}

// PollSecondary walks the window day by day, oldest first, keeping only
// tracked leagues. It stops as soon as the daily quota runs out.
func (s *PollerService) PollSecondary(ctx context.Context) (PollResult, error) {
	result := PollResult{Source: "api_football"}
	if s.secondary == nil {
		return result, nil
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.PollerService.PollSecondary")
	var err error
	defer func() { endSpan(span, err) }()

	today := dayStart(s.now())
	from := today.AddDate(0, 0, -s.cfg.SecondaryDaysBehind)
	to := today.AddDate(0, 0, s.cfg.SecondaryDaysAhead)
	result.WindowFrom, result.WindowTo = from.Format(time.DateOnly), to.Format(time.DateOnly)

	tracked := s.trackedLeagues()
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		result.Units++
		bundles, fetchErr := s.secondary.FetchDate(ctx, day)
		if fetchErr != nil {
			result.Failed++
			if crerr.Is(fetchErr, ErrQuotaExhausted) {
				result.QuotaHalted = true
				s.logger.WarnContext(ctx, "secondary quota exhausted, stopping date poll", "day", day.Format(time.DateOnly))
				break
			}
			s.logger.WarnContext(ctx, "poll date failed", "day", day.Format(time.DateOnly), "error", fetchErr)
			continue
		}

		// Snapshots are kept even when their league is not tracked.
		var snapshots []rawdata.Payload
		for i := range bundles {
			snapshots = append(snapshots, bundles[i].RawPayloads...)
			bundles[i].RawPayloads = nil
		}
		if snapErr := s.storeSnapshots(ctx, snapshots); snapErr != nil {
			s.logger.WarnContext(ctx, "store day snapshot failed", "day", day.Format(time.DateOnly), "error", snapErr)
		}

		for _, bundle := range bundles {
			if len(tracked) > 0 && !tracked[bundle.Competition.NativeID] {
				continue
			}
			applied, applyErr := s.applyOwnTx(ctx, bundle)
			if applyErr != nil {
				result.Failed++
				s.logger.WarnContext(ctx, "apply league day failed", "league", bundle.Competition.NativeID, "day", day.Format(time.DateOnly), "error", applyErr)
				continue
			}
			result.Fixtures += applied.Fixtures
			result.Changed = append(result.Changed, applied.ChangedLiveIDs...)
		}
	}

	result.Triggered = s.notify(ctx, &result)
	return result, nil
}

func (s *PollerService) storeSnapshots(ctx context.Context, snapshots []rawdata.Payload) error {
	if len(snapshots) == 0 {
		return nil
	}
	return s.store.InTx(ctx, func(w SyncWriter) error {
		return w.UpsertRawPayloads(ctx, snapshots)
	})
}

func (s *PollerService) applyOwnTx(ctx context.Context, bundle SeasonBundle) (ApplyResult, error) {
	var applied ApplyResult
	err := s.store.InTx(ctx, func(w SyncWriter) error {
		var err error
		applied, err = s.sync.Apply(ctx, w, bundle)
		return err
	})
	return applied, err
}

func (s *PollerService) notify(ctx context.Context, result *PollResult) bool {
	slices.Sort(result.Changed)
	result.Changed = slices.Compact(result.Changed)
	if len(result.Changed) == 0 {
		s.logger.DebugContext(ctx, "poll cycle produced no changes", "source", result.Source)
		return false
	}

	metrics.ChangedFixturesTotal.Add(float64(len(result.Changed)))
	if s.trigger == nil {
		return false
	}
	if err := s.trigger.TriggerPredictions(ctx, result.Changed); err != nil {
		metrics.PredictionsTriggeredTotal.WithLabelValues("error").Inc()
		s.logger.ErrorContext(ctx, "trigger predictions failed", "fixtures", len(result.Changed), "error", err)
		return false
	}
	metrics.PredictionsTriggeredTotal.WithLabelValues("ok").Inc()
	s.logger.InfoContext(ctx, "predictions triggered", "source", result.Source, "fixtures", len(result.Changed))
	return true
}

func (s *PollerService) trackedLeagues() map[int64]bool {
	tracked := make(map[int64]bool)
	if s.mapper != nil {
		for _, alias := range s.mapper.Aliases() {
			tracked[alias.SecondaryID] = true
		}
	}
	for _, id := range s.cfg.SecondaryLeagues {
		tracked[id] = true
	}
	return tracked
}
