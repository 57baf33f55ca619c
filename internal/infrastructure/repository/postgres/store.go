package postgres

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/metrics"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

const defaultBatchSize = 500

var _ usecase.SyncStore = (*Store)(nil)

// Store is the Postgres usecase.SyncStore. Methods called on the store run
// against the pool; InTx hands out a writer bound to one transaction.
type Store struct {
	*writer
	db *sqlx.DB
}

func NewStore(db *sqlx.DB, batchSize int, logger *logging.Logger) *Store {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		writer: &writer{q: db, batchSize: batchSize, logger: logger.Component("postgres")},
		db:     db,
	}
}

func (s *Store) InTx(ctx context.Context, fn func(w usecase.SyncWriter) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapDBError("begin tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&writer{q: tx, batchSize: s.batchSize, logger: s.logger}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapDBError("commit tx", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return wrapDBError("ping database", err)
	}
	return nil
}

// writer implements every repository on top of either the pool or a
// transaction.
type writer struct {
	q         sqlx.ExtContext
	batchSize int
	logger    *logging.Logger
}

// atomic runs fn in a transaction unless the writer is already bound to one.
func (w *writer) atomic(ctx context.Context, fn func(w *writer) error) error {
	db, ok := w.q.(*sqlx.DB)
	if !ok {
		return fn(w)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapDBError("begin tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&writer{q: tx, batchSize: w.batchSize, logger: w.logger}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapDBError("commit tx", err)
	}
	return nil
}

// savepoint confines a failing statement so the surrounding transaction stays
// usable. On the pool it just runs fn.
func (w *writer) savepoint(ctx context.Context, name string, fn func() error) error {
	if _, ok := w.q.(*sqlx.Tx); !ok {
		return fn()
	}
	if _, err := w.q.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return wrapDBError("savepoint "+name, err)
	}
	if err := fn(); err != nil {
		if _, rbErr := w.q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return wrapDBError("rollback to savepoint "+name, rbErr)
		}
		return err
	}
	if _, err := w.q.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return wrapDBError("release savepoint "+name, err)
	}
	return nil
}

// insertReturningIDs runs a built insert and collects the single returned
// column of every written row.
func (w *writer) insertReturningIDs(ctx context.Context, query string, args []any) ([]int64, error) {
	var ids []int64
	if err := sqlx.SelectContext(ctx, w.q, &ids, query, args...); err != nil {
		return nil, err
	}
	return ids, nil
}

// upsertBatches writes items batch by batch, each batch under its own
// savepoint. When Postgres rejects a batch for its data, the batch is replayed
// one row at a time and the rows that still fail are logged and skipped. Any
// other failure aborts the call.
func upsertBatches[T any](
	ctx context.Context,
	w *writer,
	entity string,
	items []T,
	key func(T) int64,
	write func(batch []T) ([]int64, error),
) ([]int64, error) {
	var out []int64
	for _, batch := range batches(items, w.batchSize) {
		ids, err := writeUnder(ctx, w, "upsert_batch", batch, write)
		if err == nil {
			out = append(out, ids...)
			continue
		}
		if !crerr.Is(err, usecase.ErrInvalidInput) {
			return out, err
		}
		if len(batch) == 1 {
			w.skipRow(ctx, entity, key(batch[0]), err)
			continue
		}

		for _, item := range batch {
			ids, err := writeUnder(ctx, w, "upsert_row", []T{item}, write)
			switch {
			case err == nil:
				out = append(out, ids...)
			case crerr.Is(err, usecase.ErrInvalidInput):
				w.skipRow(ctx, entity, key(item), err)
			default:
				return out, err
			}
		}
	}
	return out, nil
}

func writeUnder[T any](ctx context.Context, w *writer, name string, batch []T, write func([]T) ([]int64, error)) ([]int64, error) {
	var ids []int64
	err := w.savepoint(ctx, name, func() error {
		var writeErr error
		ids, writeErr = write(batch)
		return writeErr
	})
	return ids, err
}

func (w *writer) skipRow(ctx context.Context, entity string, id int64, err error) {
	metrics.RowsSkippedTotal.WithLabelValues(entity).Inc()
	w.logger.WarnContext(ctx, "row rejected, skipping", "entity", entity, "id", id, "error", err)
}

func batches[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = defaultBatchSize
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

// dedupeBy keeps the last item per key, in first-seen order. Postgres rejects
// an ON CONFLICT DO UPDATE statement that touches the same row twice.
func dedupeBy[T any, K comparable](items []T, key func(T) K) []T {
	index := make(map[K]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			out[i] = item
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}

// keyOrdered dedupes items by key and sorts them by it, so concurrent writers
// take row locks on overlapping keys in the same order.
func keyOrdered[T any, K cmp.Ordered](items []T, key func(T) K) []T {
	out := dedupeBy(items, key)
	slices.SortStableFunc(out, func(a, b T) int { return cmp.Compare(key(a), key(b)) })
	return out
}

func buildErr(what string, err error) error {
	return fmt.Errorf("build %s query: %w", what, err)
}
