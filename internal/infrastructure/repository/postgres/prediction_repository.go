package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/football-sync/internal/domain/prediction"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
)

type predictionInsertModel struct {
	FixtureID   int64     `db:"fixture_id"`
	Data        string    `db:"data"`
	GeneratedAt time.Time `db:"generated_at"`
}

func (w *writer) UpsertPredictions(ctx context.Context, items []prediction.Prediction) error {
	items = keyOrdered(items, func(p prediction.Prediction) int64 { return p.FixtureID })
	for _, batch := range batches(items, w.batchSize) {
		rows := make([]predictionInsertModel, 0, len(batch))
		for _, item := range batch {
			data, err := sonic.Marshal(item.Data)
			if err != nil {
				return fmt.Errorf("encode prediction fixture=%d: %w", item.FixtureID, err)
			}
			rows = append(rows, predictionInsertModel{
				FixtureID:   item.FixtureID,
				Data:        string(data),
				GeneratedAt: item.GeneratedAt.UTC(),
			})
		}
		builder, err := qb.InsertRows("predictions", rows)
		if err != nil {
			return buildErr("upsert predictions", err)
		}
		query, args, err := builder.
			OnConflictUpdate([]string{"fixture_id"}, []string{"data", "generated_at"}).
			ToSQL()
		if err != nil {
			return buildErr("upsert predictions", err)
		}
		if _, err := w.q.ExecContext(ctx, query, args...); err != nil {
			return wrapDBError("upsert predictions", err)
		}
	}
	return nil
}
