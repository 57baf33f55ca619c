package usecase_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/domain/rawdata"
	"github.com/riskibarqy/football-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

type stubCatalog struct {
	source      progress.TaskType
	competition usecase.ExternalCompetition
	fetchErr    map[int]error

	mu        sync.Mutex
	fetched   map[int]int
	standings map[int]bool
}

func (s *stubCatalog) Source() progress.TaskType {
	return s.source
}

func (s *stubCatalog) Discover(context.Context) ([]usecase.ExternalCompetition, []rawdata.Payload, error) {
	raw := rawdata.NewPayload(string(s.source), "competition", strconv.FormatInt(s.competition.NativeID, 10), []byte(`{}`), time.Now())
	return []usecase.ExternalCompetition{s.competition}, []rawdata.Payload{raw}, nil
}

func (s *stubCatalog) FetchSeason(_ context.Context, ref string, seasonYear int, withStandings bool) (usecase.SeasonBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetched == nil {
		s.fetched = make(map[int]int)
		s.standings = make(map[int]bool)
	}
	s.fetched[seasonYear]++
	s.standings[seasonYear] = withStandings

	if err := s.fetchErr[seasonYear]; err != nil {
		return usecase.SeasonBundle{}, err
	}
	if ref != s.competition.Code && ref != strconv.FormatInt(s.competition.NativeID, 10) {
		return usecase.SeasonBundle{}, errors.New("unexpected ref " + ref)
	}

	base := int64(seasonYear) * 10
	start := time.Date(seasonYear, time.August, 20, 15, 0, 0, 0, time.UTC)
	b := bundleA(seasonYear, played(base+1, 57, 61, 2, 1, start), played(base+2, 61, 57, 0, 0, start.AddDate(0, 0, 7)))
	b.Source = s.source
	b.Competition = s.competition
	return b, nil
}

func (s *stubCatalog) fetchCount(seasonYear int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetched[seasonYear]
}

func newBackfill(t *testing.T, store *memory.Store, cfg usecase.BackfillConfig, providers ...usecase.CatalogProvider) *usecase.BackfillService {
	t.Helper()

	svc := usecase.NewBackfillService(store, newTestSync(t), providers, cfg, logging.NewNop())
	svc.SetClock(func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }, func(context.Context, time.Duration) error { return nil })
	return svc
}

func TestBackfillService_EndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	forbidden := crerr.Mark(errors.New("football-data: 403 restricted resource"), usecase.ErrProviderForbidden)
	provider := &stubCatalog{
		source:      progress.TaskFootballData,
		competition: premierLeagueA(2020, 2021, 2022, 2023, 2024),
		fetchErr:    map[int]error{2021: forbidden},
	}
	svc := newBackfill(t, store, usecase.BackfillConfig{StartYear: 2015, EndYear: 2025, MaxWorkers: 3}, provider)

	registered, err := svc.Discover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, registered)

	first, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, usecase.SweepResult{Pending: 5, Completed: 4, Failed: 1}, first)

	summary, err := store.ProgressSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []progress.Count{
		{TaskType: progress.TaskFootballData, Status: progress.StatusCompleted, Total: 4},
		{TaskType: progress.TaskFootballData, Status: progress.StatusFailed, Total: 1},
	}, summary)

	second, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Pending)

	registered, err = svc.Discover(ctx)
	require.NoError(t, err)
	assert.Zero(t, registered)

	failed, ok := store.Task(progress.Key{CompetitionID: 2021, SeasonYear: 2021, TaskType: progress.TaskFootballData})
	require.True(t, ok)
	assert.Equal(t, progress.StatusFailed, failed.Status)
	assert.Contains(t, failed.LastError, "403")

	for _, year := range []int{2020, 2021, 2022, 2023, 2024} {
		assert.Equal(t, 1, provider.fetchCount(year), "season %d fetched once", year)
	}
	assert.True(t, provider.standings[2024], "current season fetches standings")
	assert.False(t, provider.standings[2023])
}

func TestBackfillService_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	flaky := &flakyCatalog{stubCatalog: stubCatalog{
		source:      progress.TaskFootballData,
		competition: premierLeagueA(2023, 2024),
	}, failures: 1}

	sleeps := 0
	svc := usecase.NewBackfillService(store, newTestSync(t), []usecase.CatalogProvider{flaky}, usecase.BackfillConfig{StartYear: 2015, EndYear: 2025, MaxWorkers: 1}, logging.NewNop())
	svc.SetClock(nil, func(context.Context, time.Duration) error {
		sleeps++
		return nil
	})

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Registered)
	assert.Equal(t, 2, result.Sweeps)
	assert.Equal(t, 2, result.Completed)
	assert.Equal(t, 1, sleeps)

	task, ok := store.Task(progress.Key{CompetitionID: 2021, SeasonYear: 2023, TaskType: progress.TaskFootballData})
	require.True(t, ok)
	assert.Equal(t, progress.StatusCompleted, task.Status)
	assert.Equal(t, 2, task.Attempts)
}

// flakyCatalog fails the first fetches with a retryable error.
type flakyCatalog struct {
	stubCatalog
	failures int
	calls    int
}

func (f *flakyCatalog) FetchSeason(ctx context.Context, ref string, seasonYear int, withStandings bool) (usecase.SeasonBundle, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return usecase.SeasonBundle{}, crerr.Mark(errors.New("503 upstream"), usecase.ErrProviderTransient)
	}
	return f.stubCatalog.FetchSeason(ctx, ref, seasonYear, withStandings)
}

func TestBackfillService_QuotaHaltsProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	exhausted := crerr.Mark(errors.New("daily quota reached"), usecase.ErrQuotaExhausted)
	provider := &stubCatalog{
		source:      progress.TaskAPIFootball,
		competition: usecase.ExternalCompetition{NativeID: 253, Name: "Major League Soccer", Area: usecase.ExternalArea{Name: "USA"}, Seasons: []int{2022, 2023, 2024}},
		fetchErr:    map[int]error{2022: exhausted, 2023: exhausted, 2024: exhausted},
	}
	svc := newBackfill(t, store, usecase.BackfillConfig{StartYear: 2015, EndYear: 2025, MaxWorkers: 1, MaxSweeps: 2}, provider)

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sweeps)
	assert.Equal(t, usecase.SweepResult{Pending: 3, Retried: 1, Skipped: 2}, result.Last)

	pending, err := store.ListTasks(ctx, progress.Filter{Status: progress.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 3, "quota errors never fail a task")
	assert.Equal(t, identityOffset+253, pending[0].CompetitionID)
}

func TestBackfillService_SeasonWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	provider := &stubCatalog{
		source:      progress.TaskFootballData,
		competition: premierLeagueA(2012, 2016, 2024, 2026),
	}
	svc := newBackfill(t, store, usecase.BackfillConfig{StartYear: 2015, EndYear: 2025}, provider)

	registered, err := svc.Discover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, registered)
}
