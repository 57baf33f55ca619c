package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/football-sync/internal/domain/area"
	"github.com/riskibarqy/football-sync/internal/domain/competition"
	"github.com/riskibarqy/football-sync/internal/domain/fixture"
	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

func TestStore_InTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	err := store.InTx(ctx, func(w usecase.SyncWriter) error {
		if _, err := w.ResolveArea(ctx, area.Area{Name: "England"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	id, err := store.ResolveArea(ctx, area.Area{Name: "England"})
	require.NoError(t, err)
	assert.Equal(t, FirstLocalAreaID, id, "rolled back allocation must be reused")
}

func TestStore_ResolveAreaMatchesNameKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()

	first, err := store.ResolveArea(ctx, area.Area{Name: "United  Kingdom"})
	require.NoError(t, err)
	second, err := store.ResolveArea(ctx, area.Area{Name: " united kingdom", Code: "GBR"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = store.ResolveArea(ctx, area.Area{Name: "  "})
	assert.ErrorIs(t, err, usecase.ErrInvalidInput)
}

func TestStore_UpsertFixturesReportsOnlyChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	_, err := store.UpsertCompetitions(ctx, []competition.Competition{{ID: 2021, Name: "Premier League", Source: "football_data"}})
	require.NoError(t, err)

	item := fixture.Fixture{
		ID:            1,
		CompetitionID: 2021,
		SeasonYear:    2024,
		UTCDate:       time.Date(2024, 8, 16, 19, 0, 0, 0, time.UTC),
		StatusShort:   "NS",
		HomeTeamID:    66,
		AwayTeamID:    63,
		HomeTeamName:  "Manchester United FC",
		Source:        "football_data",
	}

	changed, err := store.UpsertFixtures(ctx, []fixture.Fixture{item})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, changed)

	home, ok := store.Team(66)
	require.True(t, ok, "home stub must be created")
	assert.Equal(t, "Manchester United FC", home.Name)
	away, ok := store.Team(63)
	require.True(t, ok, "away stub must be created")
	assert.Equal(t, "Unknown team", away.Name)

	changed, err = store.UpsertFixtures(ctx, []fixture.Fixture{item})
	require.NoError(t, err)
	assert.Empty(t, changed)

	item.StatusShort = "1H"
	changed, err = store.UpsertFixtures(ctx, []fixture.Fixture{item})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, changed)
}

func TestStore_TaskLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lease := 30 * time.Minute
	key := progress.Key{CompetitionID: 2021, SeasonYear: 2020, TaskType: progress.TaskFootballData}

	n, err := store.RegisterTasks(ctx, []progress.Task{{Key: key, ProviderRef: "PL"}})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	claimed, err := store.ClaimTask(ctx, key, "run-a", now, lease)
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = store.ClaimTask(ctx, key, "run-b", now.Add(time.Minute), lease)
	require.NoError(t, err)
	assert.False(t, claimed, "live claim must block other owners")

	pending, err := store.PendingTasks(ctx, progress.TaskFootballData, now.Add(time.Minute), lease)
	require.NoError(t, err)
	assert.Empty(t, pending)

	pending, err = store.PendingTasks(ctx, progress.TaskFootballData, now.Add(lease), lease)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "expired claim is pending again")

	stored, err := store.MarkTask(ctx, key, progress.StatusFailed, "403", now)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusFailed, stored)

	stored, err = store.MarkTask(ctx, key, progress.StatusPending, "retry", now)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusFailed, stored, "terminal task must not go back to pending")

	n, err = store.RegisterTasks(ctx, []progress.Task{{Key: key, ProviderRef: "PL"}})
	require.NoError(t, err)
	assert.Zero(t, n)

	task, ok := store.Task(key)
	require.True(t, ok)
	assert.Equal(t, progress.StatusFailed, task.Status)
	assert.Equal(t, 1, task.Attempts)

	summary, err := store.ProgressSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []progress.Count{{TaskType: progress.TaskFootballData, Status: progress.StatusFailed, Total: 1}}, summary)
}
