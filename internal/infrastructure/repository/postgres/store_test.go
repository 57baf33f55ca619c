package postgres

import (
	"context"
	"errors"
	"slices"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/riskibarqy/football-sync/internal/domain/standing"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// rejectingWriter fails any batch that contains one of the bad IDs, the way
// Postgres rejects a whole multi-row insert for one malformed row.
func rejectingWriter(bad ...int64) (func([]int64) ([]int64, error), *[][]int64) {
	var calls [][]int64
	return func(batch []int64) ([]int64, error) {
		calls = append(calls, slices.Clone(batch))
		for _, id := range batch {
			if slices.Contains(bad, id) {
				return nil, wrapDBError("upsert fixtures", &pq.Error{Code: "22P05", Message: "unsupported Unicode escape sequence"})
			}
		}
		return slices.Clone(batch), nil
	}, &calls
}

func TestUpsertBatches_SkipsRejectedRowAndKeepsTheRest(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	w := &writer{batchSize: 2, logger: logging.FromZap(zap.New(core))}
	write, calls := rejectingWriter(3)

	ids, err := upsertBatches(context.Background(), w, "fixture", []int64{1, 2, 3, 4, 5}, identityKey, write)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 4, 5}, ids)

	// [1 2] ok, [3 4] rejected and replayed row by row, then [5].
	assert.Equal(t, [][]int64{{1, 2}, {3, 4}, {3}, {4}, {5}}, *calls)

	entries := logs.FilterMessage("row rejected, skipping").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].ContextMap()["id"])
	assert.Equal(t, "fixture", entries[0].ContextMap()["entity"])
}

func TestUpsertBatches_SingleRowBatchIsNotReplayed(t *testing.T) {
	t.Parallel()

	w := &writer{batchSize: 1, logger: logging.NewNop()}
	write, calls := rejectingWriter(2)

	ids, err := upsertBatches(context.Background(), w, "team", []int64{1, 2, 3}, identityKey, write)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
	assert.Len(t, *calls, 3)
}

func TestUpsertBatches_OtherErrorsAbort(t *testing.T) {
	t.Parallel()

	w := &writer{batchSize: 2, logger: logging.NewNop()}
	boom := wrapDBError("upsert teams", &pq.Error{Code: "08006"})
	calls := 0
	_, err := upsertBatches(context.Background(), w, "team", []int64{1, 2, 3}, identityKey, func(batch []int64) ([]int64, error) {
		calls++
		return nil, boom
	})
	if !crerr.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	assert.Equal(t, 1, calls)
}

func TestUpsertBatches_ReplayStopsOnNonDataError(t *testing.T) {
	t.Parallel()

	w := &writer{batchSize: 3, logger: logging.NewNop()}
	dropped := errors.New("connection reset")
	_, err := upsertBatches(context.Background(), w, "venue", []int64{1, 2, 3}, identityKey, func(batch []int64) ([]int64, error) {
		if len(batch) > 1 {
			return nil, wrapDBError("upsert venues", &pq.Error{Code: "23502"})
		}
		if batch[0] == 2 {
			return nil, dropped
		}
		return batch, nil
	})
	assert.ErrorIs(t, err, dropped)
}

func TestKeyOrdered_DedupesAndSortsByKey(t *testing.T) {
	t.Parallel()

	type row struct {
		id   int64
		name string
	}
	got := keyOrdered([]row{{9, "a"}, {2, "b"}, {9, "c"}, {5, "d"}}, func(r row) int64 { return r.id })
	assert.Equal(t, []row{{2, "b"}, {5, "d"}, {9, "c"}}, got)
}

func TestInsertStandingListQuery_LeavesExistingListUntouched(t *testing.T) {
	t.Parallel()

	query, args, err := insertStandingListQuery(standing.List{
		CompetitionID: 2021,
		SeasonYear:    2024,
		Stage:         standing.StageRegularSeason,
		Type:          standing.TypeTotal,
	})
	require.NoError(t, err)
	assert.Contains(t, query, "ON CONFLICT (competition_id, season_year, stage, type, group_name) DO NOTHING")
	assert.Contains(t, query, "RETURNING list_id")
	assert.NotContains(t, query, "updated_at")
	assert.Len(t, args, 5)
}

func TestCompareStandingLists(t *testing.T) {
	t.Parallel()

	lists := []standing.List{
		{CompetitionID: 2021, SeasonYear: 2024, Type: "HOME"},
		{CompetitionID: 2001, SeasonYear: 2024, Type: "TOTAL"},
		{CompetitionID: 2021, SeasonYear: 2023, Type: "TOTAL"},
		{CompetitionID: 2021, SeasonYear: 2024, Type: "AWAY"},
	}
	slices.SortStableFunc(lists, compareStandingLists)

	got := make([]string, 0, len(lists))
	for _, l := range lists {
		got = append(got, l.Type)
	}
	assert.Equal(t, []string{"TOTAL", "TOTAL", "AWAY", "HOME"}, got)
	assert.Equal(t, int64(2001), lists[0].CompetitionID)
}

func identityKey(id int64) int64 { return id }
