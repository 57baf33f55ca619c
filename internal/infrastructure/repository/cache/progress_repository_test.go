package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/football-sync/internal/domain/progress"
	basecache "github.com/riskibarqy/football-sync/internal/platform/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressReaderStub struct {
	summaryCalls int
	listCalls    int
	summary      []progress.Count
	tasks        []progress.Task
	err          error
	lastFilter   progress.Filter
}

func (s *progressReaderStub) ProgressSummary(context.Context) ([]progress.Count, error) {
	s.summaryCalls++
	return s.summary, s.err
}

func (s *progressReaderStub) ListTasks(_ context.Context, filter progress.Filter) ([]progress.Task, error) {
	s.listCalls++
	s.lastFilter = filter
	return s.tasks, s.err
}

func newTestRepository(next ProgressReader) *ProgressRepository {
	return NewProgressRepository(next,
		basecache.NewStore[[]progress.Count](time.Minute),
		basecache.NewStore[[]progress.Task](time.Minute),
	)
}

func TestProgressRepository_SummaryIsCached(t *testing.T) {
	t.Parallel()

	stub := &progressReaderStub{summary: []progress.Count{
		{TaskType: progress.TaskFootballData, Status: progress.StatusPending, Total: 3},
	}}
	repo := newTestRepository(stub)

	for range 3 {
		items, err := repo.ProgressSummary(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Total)
	}
	assert.Equal(t, 1, stub.summaryCalls)
}

func TestProgressRepository_ReturnedSliceIsACopy(t *testing.T) {
	t.Parallel()

	stub := &progressReaderStub{summary: []progress.Count{{Total: 1}}}
	repo := newTestRepository(stub)

	first, err := repo.ProgressSummary(context.Background())
	require.NoError(t, err)
	first[0].Total = 99

	second, err := repo.ProgressSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second[0].Total)
}

func TestProgressRepository_TasksKeyedByFilter(t *testing.T) {
	t.Parallel()

	stub := &progressReaderStub{tasks: []progress.Task{{Status: progress.StatusFailed}}}
	repo := newTestRepository(stub)
	ctx := context.Background()

	failed := progress.Filter{Status: progress.StatusFailed, Limit: 10}
	_, err := repo.ListTasks(ctx, failed)
	require.NoError(t, err)
	_, err = repo.ListTasks(ctx, failed)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.listCalls)

	_, err = repo.ListTasks(ctx, progress.Filter{Status: progress.StatusPending, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, stub.listCalls)
	assert.Equal(t, progress.StatusPending, stub.lastFilter.Status)
}

func TestProgressRepository_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	stub := &progressReaderStub{err: errors.New("db down")}
	repo := newTestRepository(stub)

	_, err := repo.ProgressSummary(context.Background())
	require.Error(t, err)

	stub.err = nil
	stub.summary = []progress.Count{{Total: 2}}
	items, err := repo.ProgressSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, items[0].Total)
	assert.Equal(t, 2, stub.summaryCalls)
}

func TestProgressRepository_Invalidate(t *testing.T) {
	t.Parallel()

	stub := &progressReaderStub{summary: []progress.Count{{Total: 1}}}
	repo := newTestRepository(stub)
	ctx := context.Background()

	_, err := repo.ProgressSummary(ctx)
	require.NoError(t, err)
	repo.Invalidate(ctx)
	_, err = repo.ProgressSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.summaryCalls)
}
