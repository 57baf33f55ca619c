package postgres

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/riskibarqy/football-sync/internal/domain/rawdata"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
)

type rawDataPayloadInsertModel struct {
	Source      string    `db:"source"`
	EntityType  string    `db:"entity_type"`
	EntityKey   string    `db:"entity_key"`
	Payload     string    `db:"payload"`
	PayloadHash string    `db:"payload_hash"`
	FetchedAt   time.Time `db:"fetched_at"`
}

// UpsertRawPayloads stores the latest snapshot per entity. An unchanged hash
// leaves the stored row alone.
func (w *writer) UpsertRawPayloads(ctx context.Context, items []rawdata.Payload) error {
	type key struct{ source, entityType, entityKey string }
	items = dedupeBy(items, func(p rawdata.Payload) key { return key{p.Source, p.EntityType, p.EntityKey} })
	slices.SortStableFunc(items, func(a, b rawdata.Payload) int {
		return cmp.Or(
			cmp.Compare(a.Source, b.Source),
			cmp.Compare(a.EntityType, b.EntityType),
			cmp.Compare(a.EntityKey, b.EntityKey),
		)
	})

	for _, batch := range batches(items, w.batchSize) {
		rows := make([]rawDataPayloadInsertModel, 0, len(batch))
		for _, item := range batch {
			fetchedAt := item.FetchedAt
			if fetchedAt.IsZero() {
				fetchedAt = time.Now()
			}
			rows = append(rows, rawDataPayloadInsertModel{
				Source:      item.Source,
				EntityType:  item.EntityType,
				EntityKey:   item.EntityKey,
				Payload:     string(item.PayloadJSON),
				PayloadHash: item.PayloadHash,
				FetchedAt:   fetchedAt.UTC(),
			})
		}
		builder, err := qb.InsertRows("raw_data_payloads", rows)
		if err != nil {
			return buildErr("upsert raw payloads", err)
		}
		query, args, err := builder.OnConflict(`ON CONFLICT (source, entity_type, entity_key)
DO UPDATE SET
    payload = EXCLUDED.payload,
    payload_hash = EXCLUDED.payload_hash,
    fetched_at = EXCLUDED.fetched_at,
    ingested_at = NOW()
WHERE raw_data_payloads.payload_hash IS DISTINCT FROM EXCLUDED.payload_hash`).ToSQL()
		if err != nil {
			return buildErr("upsert raw payloads", err)
		}
		if _, err := w.q.ExecContext(ctx, query, args...); err != nil {
			return wrapDBError("upsert raw payloads", err)
		}
	}
	return nil
}
