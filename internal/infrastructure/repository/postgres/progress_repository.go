package postgres

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/football-sync/internal/domain/progress"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

type progressInsertModel struct {
	CompetitionID int64  `db:"competition_id"`
	SeasonYear    int    `db:"season_year"`
	TaskType      string `db:"task_type"`
	ProviderRef   string `db:"provider_ref"`
	Status        string `db:"status"`
}

type progressTableModel struct {
	CompetitionID     int64      `db:"competition_id"`
	SeasonYear        int        `db:"season_year"`
	TaskType          string     `db:"task_type"`
	ProviderRef       string     `db:"provider_ref"`
	Status            string     `db:"status"`
	Attempts          int        `db:"attempts"`
	LastError         string     `db:"last_error"`
	ClaimedBy         *string    `db:"claimed_by"`
	ClaimedAt         *time.Time `db:"claimed_at"`
	LastUpdated       time.Time  `db:"last_updated"`
	CurrentSeasonYear *int       `db:"current_season_year"`
}

func (m progressTableModel) toDomain() progress.Task {
	return progress.Task{
		Key: progress.Key{
			CompetitionID: m.CompetitionID,
			SeasonYear:    m.SeasonYear,
			TaskType:      progress.TaskType(m.TaskType),
		},
		ProviderRef:       m.ProviderRef,
		Status:            progress.Status(m.Status),
		Attempts:          m.Attempts,
		LastError:         m.LastError,
		ClaimedBy:         stringValue(m.ClaimedBy),
		ClaimedAt:         m.ClaimedAt,
		LastUpdated:       m.LastUpdated,
		CurrentSeasonYear: m.CurrentSeasonYear,
	}
}

type progressCountRow struct {
	TaskType string `db:"task_type"`
	Status   string `db:"status"`
	Total    int    `db:"total"`
}

var progressSelectColumns = []string{
	"p.competition_id",
	"p.season_year",
	"p.task_type",
	"p.provider_ref",
	"p.status",
	"p.attempts",
	"p.last_error",
	"p.claimed_by",
	"p.claimed_at",
	"p.last_updated",
	"c.current_season_year",
}

func progressBaseSelect() *qb.SelectBuilder {
	return qb.Select(progressSelectColumns...).From("backfill_progress p").
		Join("LEFT JOIN competitions c ON c.competition_id = p.competition_id")
}

func keyConditions(key progress.Key) []qb.Condition {
	return []qb.Condition{
		qb.Eq("competition_id", key.CompetitionID),
		qb.Eq("season_year", key.SeasonYear),
		qb.Eq("task_type", string(key.TaskType)),
	}
}

func (w *writer) RegisterTasks(ctx context.Context, tasks []progress.Task) (int, error) {
	tasks = dedupeBy(tasks, func(t progress.Task) progress.Key { return t.Key })
	slices.SortStableFunc(tasks, func(a, b progress.Task) int {
		return cmp.Or(
			cmp.Compare(a.CompetitionID, b.CompetitionID),
			cmp.Compare(a.SeasonYear, b.SeasonYear),
			cmp.Compare(a.TaskType, b.TaskType),
		)
	})
	created := 0
	for _, batch := range batches(tasks, w.batchSize) {
		rows := make([]progressInsertModel, 0, len(batch))
		for _, task := range batch {
			rows = append(rows, progressInsertModel{
				CompetitionID: task.CompetitionID,
				SeasonYear:    task.SeasonYear,
				TaskType:      string(task.TaskType),
				ProviderRef:   task.ProviderRef,
				Status:        string(progress.StatusPending),
			})
		}
		builder, err := qb.InsertRows("backfill_progress", rows)
		if err != nil {
			return 0, buildErr("register tasks", err)
		}
		query, args, err := builder.
			OnConflictDoNothing("competition_id", "season_year", "task_type").
			Returning("competition_id").
			ToSQL()
		if err != nil {
			return 0, buildErr("register tasks", err)
		}
		ids, err := w.insertReturningIDs(ctx, query, args)
		if err != nil {
			return 0, wrapDBError("register tasks", err)
		}
		created += len(ids)
	}
	return created, nil
}

func (w *writer) PendingTasks(ctx context.Context, taskType progress.TaskType, now time.Time, lease time.Duration) ([]progress.Task, error) {
	query, args, err := progressBaseSelect().
		Where(
			qb.Eq("p.task_type", string(taskType)),
			qb.Eq("p.status", string(progress.StatusPending)),
			qb.Expr("(p.claimed_at IS NULL OR p.claimed_at <= ?)", now.Add(-lease).UTC()),
		).
		OrderBy("p.competition_id", "p.season_year").
		ToSQL()
	if err != nil {
		return nil, buildErr("select pending tasks", err)
	}
	return w.selectTasks(ctx, "select pending tasks", query, args)
}

// ClaimTask takes the row only while it is pending and either unclaimed,
// already ours, or held by a claim older than the lease.
func (w *writer) ClaimTask(ctx context.Context, key progress.Key, owner string, now time.Time, lease time.Duration) (bool, error) {
	conditions := append(keyConditions(key),
		qb.Eq("status", string(progress.StatusPending)),
		qb.Expr("(claimed_at IS NULL OR claimed_by = ? OR claimed_at <= ?)", owner, now.Add(-lease).UTC()),
	)
	query, args, err := qb.Update("backfill_progress").
		Set("claimed_by", owner).
		Set("claimed_at", now.UTC()).
		SetExpr("attempts", "attempts + 1").
		Set("last_updated", now.UTC()).
		Where(conditions...).
		Returning("attempts").
		ToSQL()
	if err != nil {
		return false, buildErr("claim task", err)
	}

	var attempts []int
	if err := sqlx.SelectContext(ctx, w.q, &attempts, query, args...); err != nil {
		return false, wrapDBError(fmt.Sprintf("claim task %s", taskLabel(key)), err)
	}
	return len(attempts) == 1, nil
}

// MarkTask never moves a terminal row. When the guarded update touches
// nothing the stored status is read back so the caller learns what won.
func (w *writer) MarkTask(ctx context.Context, key progress.Key, status progress.Status, lastError string, now time.Time) (progress.Status, error) {
	conditions := append(keyConditions(key), qb.Eq("status", string(progress.StatusPending)))
	query, args, err := qb.Update("backfill_progress").
		Set("status", string(status)).
		Set("last_error", lastError).
		Set("claimed_by", nil).
		Set("claimed_at", nil).
		Set("last_updated", now.UTC()).
		Where(conditions...).
		Returning("status").
		ToSQL()
	if err != nil {
		return "", buildErr("mark task", err)
	}

	var stored []string
	if err := sqlx.SelectContext(ctx, w.q, &stored, query, args...); err != nil {
		return "", wrapDBError(fmt.Sprintf("mark task %s", taskLabel(key)), err)
	}
	if len(stored) == 1 {
		return progress.Status(stored[0]), nil
	}

	query, args, err = qb.Select("status").From("backfill_progress").Where(keyConditions(key)...).ToSQL()
	if err != nil {
		return "", buildErr("select task status", err)
	}
	var current string
	if err := sqlx.GetContext(ctx, w.q, &current, query, args...); err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("mark task %s: %w", taskLabel(key), usecase.ErrNotFound)
		}
		return "", wrapDBError(fmt.Sprintf("select task status %s", taskLabel(key)), err)
	}
	return progress.Status(current), nil
}

func (w *writer) ProgressSummary(ctx context.Context) ([]progress.Count, error) {
	query, args, err := qb.Select("task_type", "status", "COUNT(*) AS total").From("backfill_progress").
		GroupBy("task_type", "status").
		OrderBy("task_type", "status").
		ToSQL()
	if err != nil {
		return nil, buildErr("select progress summary", err)
	}

	var rows []progressCountRow
	if err := sqlx.SelectContext(ctx, w.q, &rows, query, args...); err != nil {
		return nil, wrapDBError("select progress summary", err)
	}
	out := make([]progress.Count, 0, len(rows))
	for _, row := range rows {
		out = append(out, progress.Count{
			TaskType: progress.TaskType(row.TaskType),
			Status:   progress.Status(row.Status),
			Total:    row.Total,
		})
	}
	return out, nil
}

func (w *writer) ListTasks(ctx context.Context, filter progress.Filter) ([]progress.Task, error) {
	builder := progressBaseSelect()
	if filter.Status != "" {
		builder.Where(qb.Eq("p.status", string(filter.Status)))
	}
	if filter.TaskType != "" {
		builder.Where(qb.Eq("p.task_type", string(filter.TaskType)))
	}
	builder.OrderBy("p.competition_id", "p.season_year", "p.task_type")
	if filter.Limit > 0 {
		builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, buildErr("select tasks", err)
	}
	return w.selectTasks(ctx, "select tasks", query, args)
}

func (w *writer) selectTasks(ctx context.Context, op, query string, args []any) ([]progress.Task, error) {
	var rows []progressTableModel
	if err := sqlx.SelectContext(ctx, w.q, &rows, query, args...); err != nil {
		return nil, wrapDBError(op, err)
	}
	out := make([]progress.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func taskLabel(key progress.Key) string {
	return fmt.Sprintf("%d/%d/%s", key.CompetitionID, key.SeasonYear, key.TaskType)
}
