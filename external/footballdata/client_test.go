package footballdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/ratelimit"
	"github.com/riskibarqy/football-sync/internal/platform/resilience"
	"github.com/riskibarqy/football-sync/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const competitionPL = `{
	"id": 2021,
	"area": {"id": 2072, "name": "England", "code": "ENG", "flag": "https://crests.football-data.org/770.svg"},
	"name": "Premier League",
	"code": "PL",
	"type": "LEAGUE",
	"emblem": "https://crests.football-data.org/PL.png",
	"currentSeason": {"id": 2287, "startDate": "2024-08-16", "endDate": "2025-05-25", "currentMatchday": 3},
	"seasons": [
		{"id": 2287, "startDate": "2024-08-16", "endDate": "2025-05-25"},
		{"id": 1564, "startDate": "2023-08-11", "endDate": "2024-05-19"}
	]
}`

const teamsPL = `{
	"season": {"id": 2287, "startDate": "2024-08-16"},
	"teams": [
		{"id": 57, "area": {"name": "England"}, "name": "Arsenal FC", "shortName": "Arsenal", "tla": "ARS", "crest": "https://crests.football-data.org/57.png", "founded": 1886, "venue": "Emirates Stadium"},
		{"id": 0, "name": "broken"}
	]
}`

const matchesPL = `{
	"matches": [
		{
			"id": 497410,
			"competition": {"id": 2021, "code": "PL"},
			"season": {"id": 2287, "startDate": "2024-08-16"},
			"utcDate": "2024-08-17T14:00:00Z",
			"status": "FINISHED",
			"matchday": 1,
			"stage": "REGULAR_SEASON",
			"group": null,
			"homeTeam": {"id": 57, "name": "Arsenal FC"},
			"awayTeam": {"id": 76, "name": "Wolverhampton Wanderers FC"},
			"score": {
				"winner": "HOME_TEAM",
				"duration": "EXTRA_TIME",
				"fullTime": {"home": 3, "away": 1},
				"halfTime": {"home": 1, "away": 0},
				"regularTime": {"home": 1, "away": 1},
				"extraTime": {"home": 2, "away": 0}
			}
		},
		{
			"id": 497411,
			"season": {"id": 2287, "startDate": "2024-08-16"},
			"utcDate": "2024-08-24T11:30:00Z",
			"status": "TIMED",
			"matchday": 2,
			"stage": "REGULAR_SEASON",
			"homeTeam": {"id": 76, "name": "Wolverhampton Wanderers FC"},
			"awayTeam": {"id": 57, "name": "Arsenal FC"},
			"score": {"duration": "REGULAR", "fullTime": {"home": null, "away": null}, "halfTime": {"home": null, "away": null}}
		},
		{"id": 497412, "utcDate": "not-a-date", "status": "TIMED"}
	]
}`

const standingsPL = `{
	"season": {"id": 2287, "startDate": "2024-08-16"},
	"standings": [
		{"stage": "REGULAR_SEASON", "type": "TOTAL", "group": null, "table": [
			{"position": 1, "team": {"id": 57, "name": "Arsenal FC"}, "playedGames": 1, "form": "W", "won": 1, "draw": 0, "lost": 0, "points": 3, "goalsFor": 3, "goalsAgainst": 1, "goalDifference": 2},
			{"position": 2, "team": {"id": 76, "name": "Wolverhampton Wanderers FC"}, "playedGames": 1, "form": "L,D", "won": 0, "draw": 0, "lost": 1, "points": 0, "goalsFor": 1, "goalsAgainst": 3, "goalDifference": -2}
		]}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, keys ...string) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if len(keys) == 0 {
		keys = []string{"test-key-0001"}
	}
	client, err := NewClient(ClientConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		APIKeys:    keys,
		Rotator: ratelimit.RotatorConfig{
			Limit:    100,
			Window:   time.Minute,
			Cooldown: 0,
			Penalty:  time.Hour,
		},
		Retry: resilience.RetryPolicy{
			MaxAttempts: 3,
			Sleep:       func(context.Context, time.Duration) error { return nil },
		},
		Competitions: []string{"PL"},
		Logger:       logging.NewNop(),
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresKeys(t *testing.T) {
	t.Parallel()

	_, err := NewClient(ClientConfig{})
	if !crerr.Is(err, ratelimit.ErrNoKeys) {
		t.Fatalf("expected ErrNoKeys, got %v", err)
	}
}

func TestStatusCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status, duration, want string
	}{
		{"SCHEDULED", "REGULAR", "NS"},
		{"TIMED", "REGULAR", "NS"},
		{"IN_PLAY", "REGULAR", "LIVE"},
		{"PAUSED", "REGULAR", "HT"},
		{"EXTRA_TIME", "EXTRA_TIME", "ET"},
		{"PENALTY_SHOOTOUT", "PENALTY_SHOOTOUT", "P"},
		{"FINISHED", "REGULAR", "FT"},
		{"FINISHED", "EXTRA_TIME", "AET"},
		{"FINISHED", "PENALTY_SHOOTOUT", "PEN"},
		{"SUSPENDED", "", "SUSP"},
		{"POSTPONED", "", "PST"},
		{"CANCELLED", "", "CANC"},
		{"AWARDED", "", "AWD"},
		{"SOMETHING_NEW", "", "NS"},
	}
	for _, tc := range cases {
		if got := statusCode(tc.status, tc.duration); got != tc.want {
			t.Fatalf("statusCode(%q, %q)=%q want %q", tc.status, tc.duration, got, tc.want)
		}
	}
}

func TestFetchSeason_MapsTeamsMatchesAndStandings(t *testing.T) {
	t.Parallel()

	var seenKey atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seenKey.Store(r.Header.Get(authHeader))
		switch r.URL.Path {
		case "/competitions/PL":
			_, _ = w.Write([]byte(competitionPL))
		case "/competitions/PL/teams":
			assert.Equal(t, "2024", r.URL.Query().Get("season"))
			_, _ = w.Write([]byte(teamsPL))
		case "/competitions/PL/matches":
			assert.Equal(t, "2024", r.URL.Query().Get("season"))
			_, _ = w.Write([]byte(matchesPL))
		case "/competitions/PL/standings":
			_, _ = w.Write([]byte(standingsPL))
		default:
			http.NotFound(w, r)
		}
	})

	bundle, err := client.FetchSeason(context.Background(), "pl", 2024, true)
	require.NoError(t, err)

	assert.Equal(t, "test-key-0001", seenKey.Load())
	assert.Equal(t, progress.TaskFootballData, bundle.Source)
	assert.Equal(t, int64(2021), bundle.Competition.NativeID)
	assert.Equal(t, "England", bundle.Competition.Area.Name)
	require.NotNil(t, bundle.Competition.CurrentSeasonYear)
	assert.Equal(t, 2024, *bundle.Competition.CurrentSeasonYear)

	require.Len(t, bundle.Teams, 1)
	assert.Equal(t, "Emirates Stadium", bundle.Teams[0].VenueName)

	require.Len(t, bundle.Fixtures, 2)
	finished := bundle.Fixtures[0]
	if finished.StatusShort != "AET" {
		t.Fatalf("expected AET, got %q", finished.StatusShort)
	}
	assert.Equal(t, 1, *finished.FullTime.Home)
	assert.Equal(t, 1, *finished.FullTime.Away)
	assert.Equal(t, 2, *finished.ExtraTime.Home)
	assert.Equal(t, 2024, finished.SeasonYear)
	assert.Equal(t, int64(2021), finished.CompetitionNativeID)
	assert.Contains(t, string(finished.Raw), `"id": 497410`)
	assert.Equal(t, "NS", bundle.Fixtures[1].StatusShort)
	assert.Nil(t, bundle.Fixtures[1].FullTime.Home)

	require.Len(t, bundle.Standings, 1)
	require.Len(t, bundle.Standings[0].Rows, 2)
	assert.Equal(t, "LD", bundle.Standings[0].Rows[1].Form)
	assert.Len(t, bundle.RawPayloads, 4)
}

func TestFetchSeason_MissingStandingsIsNotAnError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/competitions/PL":
			_, _ = w.Write([]byte(competitionPL))
		case "/competitions/PL/teams":
			_, _ = w.Write([]byte(`{"teams": []}`))
		case "/competitions/PL/matches":
			_, _ = w.Write([]byte(`{"matches": []}`))
		default:
			http.NotFound(w, r)
		}
	})

	bundle, err := client.FetchSeason(context.Background(), "PL", 2023, true)
	require.NoError(t, err)
	assert.Empty(t, bundle.Standings)
}

func TestDiscover_KeepsConfiguredCompetitions(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/competitions":
			_, _ = w.Write([]byte(`{"count": 2, "competitions": [` + competitionPL + `, {"id": 9999, "code": "XYZ", "name": "Other"}]}`))
		case "/competitions/PL":
			_, _ = w.Write([]byte(competitionPL))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	comps, raws, err := client.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, "PL", comps[0].Code)
	assert.Contains(t, comps[0].Seasons, 2023)
	assert.Contains(t, comps[0].Seasons, 2024)
	assert.Len(t, raws, 2)
}

func TestFetchWindow_SendsDateRange(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/competitions/PL":
			_, _ = w.Write([]byte(competitionPL))
		case "/competitions/PL/matches":
			assert.Equal(t, "2024-08-16", r.URL.Query().Get("dateFrom"))
			assert.Equal(t, "2024-08-25", r.URL.Query().Get("dateTo"))
			_, _ = w.Write([]byte(matchesPL))
		default:
			http.NotFound(w, r)
		}
	})

	from := time.Date(2024, 8, 16, 0, 0, 0, 0, time.UTC)
	bundle, err := client.FetchWindow(context.Background(), "PL", from, from.AddDate(0, 0, 9))
	require.NoError(t, err)
	assert.Equal(t, 2024, bundle.SeasonYear)
	assert.Len(t, bundle.Fixtures, 2)
	assert.Empty(t, bundle.Teams)

	_, err = client.FetchWindow(context.Background(), "PL", from, from.AddDate(0, 0, -1))
	if !crerr.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected invalid input for inverted window, got %v", err)
	}
}

func TestGet_ForbiddenIsTerminal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "The resource you are looking for is restricted."}`))
	})

	_, err := client.get(context.Background(), "/competitions/CL/matches", nil)
	if !crerr.Is(err, usecase.ErrProviderForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if !usecase.IsTerminal(err) {
		t.Fatalf("expected forbidden to be terminal")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one call, got %d", got)
	}
}

func TestGet_RateLimitedMovesToAnotherKey(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		used []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		used = append(used, r.Header.Get(authHeader))
		first := len(used) == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}, "key-one-0000", "key-two-0000")

	_, err := client.get(context.Background(), "/competitions", nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, used, 2)
	assert.NotEqual(t, used[0], used[1])
}

func TestGet_ServerErrorsRetryThenFail(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.get(context.Background(), "/competitions", nil)
	if !crerr.Is(err, usecase.ErrProviderTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected three attempts, got %d", got)
	}
}

func TestSanitize_RemovesKeys(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {}, "secret-key-123")
	assert.Equal(t, "bad REDACTED here", client.sanitize("bad secret-key-123 here"))
}
