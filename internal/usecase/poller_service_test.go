package usecase_test

import (
	"context"
	"errors"
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

var pollNow = time.Date(2024, time.August, 18, 12, 0, 0, 0, time.UTC)

type stubWindow struct {
	mu      sync.Mutex
	bundles map[string]usecase.SeasonBundle
	windows []string
}

func (s *stubWindow) FetchWindow(_ context.Context, ref string, from, to time.Time) (usecase.SeasonBundle, error) {
	s.mu.Lock()
	s.windows = append(s.windows, ref+":"+from.Format(time.DateOnly)+".."+to.Format(time.DateOnly))
	s.mu.Unlock()

	b, ok := s.bundles[ref]
	if !ok {
		return usecase.SeasonBundle{}, crerr.Mark(errors.New("competition "+ref+" not in plan"), usecase.ErrProviderForbidden)
	}
	return b, nil
}

type stubDates struct {
	byDay map[string][]usecase.SeasonBundle
	calls []string
}

func (s *stubDates) FetchDate(_ context.Context, day time.Time) ([]usecase.SeasonBundle, error) {
	key := day.Format(time.DateOnly)
	s.calls = append(s.calls, key)
	bundles, ok := s.byDay[key]
	if !ok {
		return nil, crerr.Mark(errors.New("requests limit reached"), usecase.ErrQuotaExhausted)
	}
	return bundles, nil
}

type recordingTrigger struct {
	calls [][]int64
}

func (r *recordingTrigger) TriggerPredictions(_ context.Context, ids []int64) error {
	r.calls = append(r.calls, append([]int64(nil), ids...))
	return nil
}

func newPoller(t *testing.T, store *memory.Store, primary usecase.WindowProvider, secondary usecase.DateProvider, trigger usecase.PredictionTrigger, cfg usecase.PollerConfig) *usecase.PollerService {
	t.Helper()

	svc := usecase.NewPollerService(store, newTestSync(t), primary, secondary, trigger, newTestMapper(t), cfg, logging.NewNop())
	svc.SetClock(func() time.Time { return pollNow })
	return svc
}

func TestPollerService_PrimaryTriggersOnlyOnChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	postponed := upcoming(1003, 57, 61, pollNow.AddDate(0, 0, 3))
	postponed.StatusShort = "PST"
	window := &stubWindow{bundles: map[string]usecase.SeasonBundle{
		"PL": bundleA(2024, played(1001, 57, 61, 2, 1, pollNow.AddDate(0, 0, -1)), upcoming(1002, 61, 57, pollNow.AddDate(0, 0, 2)), postponed),
	}}
	trigger := &recordingTrigger{}
	svc := newPoller(t, store, window, nil, trigger, usecase.PollerConfig{Competitions: []string{"PL", "CL"}, DaysBehind: 2, DaysAhead: 7})

	first, err := svc.PollPrimary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Units)
	assert.Equal(t, 1, first.Failed, "forbidden competition does not abort the cycle")
	assert.Equal(t, []int64{1001, 1002}, first.Changed)
	assert.True(t, first.Triggered)
	assert.Equal(t, "2024-08-16", first.WindowFrom)
	assert.Equal(t, "2024-08-25", first.WindowTo)

	second, err := svc.PollPrimary(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Changed)
	assert.False(t, second.Triggered)

	require.Len(t, trigger.calls, 1)
	assert.Equal(t, []int64{1001, 1002}, trigger.calls[0])
}

func TestPollerService_AllCompetitionsFailing(t *testing.T) {
	t.Parallel()

	svc := newPoller(t, memory.NewStore(), &stubWindow{}, nil, nil, usecase.PollerConfig{Competitions: []string{"CL"}})

	_, err := svc.PollPrimary(context.Background())
	require.Error(t, err)
	assert.True(t, crerr.Is(err, usecase.ErrProviderForbidden))
}

func TestPollerService_SecondaryFiltersAndStopsOnQuota(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()

	pl := usecase.SeasonBundle{
		Source:      progress.TaskAPIFootball,
		Competition: premierLeagueB(),
		SeasonYear:  2024,
		Fixtures:    []usecase.ExternalFixture{played(5001, 42, 49, 1, 0, pollNow.AddDate(0, 0, -1))},
	}
	untracked := usecase.SeasonBundle{
		Source:      progress.TaskAPIFootball,
		Competition: usecase.ExternalCompetition{NativeID: 999, Name: "Friendlies"},
		SeasonYear:  2024,
		Fixtures:    []usecase.ExternalFixture{played(7001, 1, 2, 3, 3, pollNow.AddDate(0, 0, -1))},
	}
	dates := &stubDates{byDay: map[string][]usecase.SeasonBundle{
		"2024-08-17": {pl, untracked},
	}}
	trigger := &recordingTrigger{}
	svc := newPoller(t, store, nil, dates, trigger, usecase.PollerConfig{DaysBehind: 2, DaysAhead: 7, SecondaryDaysBehind: 1, SecondaryDaysAhead: 1})

	result, err := svc.PollSecondary(ctx)
	require.NoError(t, err)
	assert.True(t, result.QuotaHalted)
	assert.Equal(t, []string{"2024-08-17", "2024-08-18"}, dates.calls)
	assert.Equal(t, []int64{identityOffset + 5001}, result.Changed)

	got, ok := store.Fixture(identityOffset + 5001)
	require.True(t, ok)
	assert.Equal(t, int64(2021), got.CompetitionID)
	_, ok = store.Fixture(identityOffset + 7001)
	assert.False(t, ok, "untracked league is ignored")

	require.Len(t, trigger.calls, 1)
}

func TestPollerService_SecondaryStoresSnapshotOfUntrackedLeague(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()

	// The provider attaches the day snapshot to the lowest league ID.
	untracked := usecase.SeasonBundle{
		Source:      progress.TaskAPIFootball,
		Competition: usecase.ExternalCompetition{NativeID: 3, Name: "UEFA Europa League"},
		SeasonYear:  2024,
		Fixtures:    []usecase.ExternalFixture{played(7002, 1, 2, 0, 0, pollNow)},
		RawPayloads: []rawdata.Payload{rawdata.NewPayload("api_football", "fixtures_by_date", "2024-08-18", []byte(`{"response":[]}`), pollNow)},
	}
	pl := usecase.SeasonBundle{
		Source:      progress.TaskAPIFootball,
		Competition: premierLeagueB(),
		SeasonYear:  2024,
		Fixtures:    []usecase.ExternalFixture{played(5002, 42, 49, 2, 2, pollNow)},
	}
	dates := &stubDates{byDay: map[string][]usecase.SeasonBundle{
		"2024-08-18": {untracked, pl},
	}}
	svc := newPoller(t, store, nil, dates, nil, usecase.PollerConfig{})

	result, err := svc.PollSecondary(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 1, store.RawPayloadCount(), "day snapshot is stored once")

	_, ok := store.Fixture(identityOffset + 5002)
	assert.True(t, ok)
	_, ok = store.Fixture(identityOffset + 7002)
	assert.False(t, ok, "untracked league is ignored")
}

func TestPollerService_SecondaryUsesConfiguredWindow(t *testing.T) {
	t.Parallel()

	dates := &stubDates{byDay: map[string][]usecase.SeasonBundle{}}
	for d := -3; d <= 2; d++ {
		dates.byDay[pollNow.AddDate(0, 0, d).Format(time.DateOnly)] = nil
	}
	svc := newPoller(t, memory.NewStore(), nil, dates, nil, usecase.PollerConfig{DaysBehind: 2, DaysAhead: 7, SecondaryDaysBehind: 3, SecondaryDaysAhead: 2})

	result, err := svc.PollSecondary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-08-15", result.WindowFrom)
	assert.Equal(t, "2024-08-20", result.WindowTo)
	assert.Equal(t, 6, result.Units)
	assert.Equal(t, []string{"2024-08-15", "2024-08-16", "2024-08-17", "2024-08-18", "2024-08-19", "2024-08-20"}, dates.calls)
}
