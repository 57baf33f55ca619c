package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/football-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

func seedPredictionHistory(t *testing.T, store *memory.Store) {
	t.Helper()

	day := func(n int) time.Time { return pollNow.AddDate(0, 0, -n) }
	b := bundleA(2024,
		played(3001, 57, 70, 3, 0, day(30)),
		played(3002, 70, 57, 0, 3, day(25)),
		played(3003, 57, 70, 3, 0, day(20)),
		played(3004, 70, 57, 0, 3, day(15)),
		played(3005, 70, 61, 2, 1, day(10)),
		played(3006, 61, 70, 1, 2, day(5)),
		upcoming(2001, 57, 61, pollNow.AddDate(0, 0, 2)),
		upcoming(2002, 80, 81, pollNow.AddDate(0, 0, 3)),
	)
	b.Standings = []usecase.ExternalStandingList{{Rows: []usecase.ExternalStandingRow{
		{Team: usecase.ExternalTeamRef{NativeID: 57}, Rank: 1, Points: 65},
		{Team: usecase.ExternalTeamRef{NativeID: 61}, Rank: 2, Points: 30},
		{Team: usecase.ExternalTeamRef{NativeID: 70}, Rank: 3, Points: 10},
	}}}
	apply(t, store, newTestSync(t), b)
}

func TestPredictionService_TagsFromFormAndStanding(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedPredictionHistory(t, store)
	svc := usecase.NewPredictionService(store, usecase.PredictionConfig{}, logging.NewNop())
	svc.SetClock(func() time.Time { return pollNow })

	result, err := svc.Predict(context.Background(), []int64{2001, 2002})
	require.NoError(t, err)
	assert.Equal(t, usecase.PredictResult{Requested: 2, Predicted: 2}, result)

	got, ok := store.Prediction(2001)
	require.True(t, ok)
	assert.Equal(t, []string{"W", "S1+", "S2+", "S3+", "CS", "T/B"}, got.Data.HomeTags)
	assert.Equal(t, []string{"L", "S1+", "C1+", "C2+", "T/B"}, got.Data.AwayTags)
	assert.Equal(t, "high", got.Data.HomeTier)
	assert.Equal(t, "low", got.Data.AwayTier)
	assert.True(t, got.Data.HomeWin)
	assert.False(t, got.Data.AwayWin)
	assert.False(t, got.Data.Draw)
	assert.True(t, got.Data.TotalOver2)
	assert.False(t, got.Data.Rival)
	assert.Equal(t, "home_win", got.Data.Summary)
	assert.Equal(t, pollNow, got.GeneratedAt)

	unknown, ok := store.Prediction(2002)
	require.True(t, ok)
	assert.Equal(t, []string{"CS", "Rival"}, unknown.Data.HomeTags, "no history and level on points")
	assert.Equal(t, "Let's learn", unknown.Data.Summary)
}

func TestPredictionService_FullScanAndTrigger(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedPredictionHistory(t, store)
	svc := usecase.NewPredictionService(store, usecase.PredictionConfig{BatchSize: 1}, logging.NewNop())
	svc.SetClock(func() time.Time { return pollNow })

	result, err := svc.Predict(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Predicted)

	require.NoError(t, svc.TriggerPredictions(context.Background(), []int64{2001}))
	_, ok := store.Prediction(3001)
	assert.False(t, ok, "finished fixtures are never predicted by the scan")
}
