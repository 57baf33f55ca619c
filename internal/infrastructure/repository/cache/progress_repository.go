package cache

import (
	"context"
	"strconv"

	"github.com/riskibarqy/football-sync/internal/domain/progress"
	basecache "github.com/riskibarqy/football-sync/internal/platform/cache"
)

// ProgressReader is the read side of the ledger the status endpoints use.
type ProgressReader interface {
	ProgressSummary(ctx context.Context) ([]progress.Count, error)
	ListTasks(ctx context.Context, filter progress.Filter) ([]progress.Task, error)
}

// ProgressRepository serves ledger reads from short-lived caches so a busy
// dashboard does not hammer the database while a backfill is writing.
type ProgressRepository struct {
	next    ProgressReader
	summary *basecache.Store[[]progress.Count]
	tasks   *basecache.Store[[]progress.Task]
}

func NewProgressRepository(next ProgressReader, summary *basecache.Store[[]progress.Count], tasks *basecache.Store[[]progress.Task]) *ProgressRepository {
	return &ProgressRepository{next: next, summary: summary, tasks: tasks}
}

func (r *ProgressRepository) ProgressSummary(ctx context.Context) ([]progress.Count, error) {
	items, err := r.summary.GetOrLoad(ctx, "progress:summary", func(ctx context.Context) ([]progress.Count, error) {
		items, err := r.next.ProgressSummary(ctx)
		if err != nil {
			return nil, err
		}
		return append([]progress.Count(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]progress.Count(nil), items...), nil
}

func (r *ProgressRepository) ListTasks(ctx context.Context, filter progress.Filter) ([]progress.Task, error) {
	key := "progress:tasks:" + string(filter.TaskType) + ":" + string(filter.Status) + ":" + strconv.Itoa(filter.Limit)
	items, err := r.tasks.GetOrLoad(ctx, key, func(ctx context.Context) ([]progress.Task, error) {
		items, err := r.next.ListTasks(ctx, filter)
		if err != nil {
			return nil, err
		}
		return append([]progress.Task(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]progress.Task(nil), items...), nil
}

// Invalidate drops every cached ledger read.
func (r *ProgressRepository) Invalidate(ctx context.Context) {
	r.summary.DeletePrefix(ctx, "progress:")
	r.tasks.DeletePrefix(ctx, "progress:")
}
