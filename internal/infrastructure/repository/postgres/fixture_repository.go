package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/football-sync/internal/domain/fixture"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
)

var fixtureColumns = qb.ModelColumns(fixtureTableModel{})

// UpsertFixtures creates missing seasons and stub teams first so the foreign
// keys hold, then writes the fixtures and returns the IDs Postgres actually
// inserted or changed.
func (w *writer) UpsertFixtures(ctx context.Context, items []fixture.Fixture) ([]int64, error) {
	fixtureID := func(f fixture.Fixture) int64 { return f.ID }
	items = keyOrdered(items, fixtureID)
	if len(items) == 0 {
		return nil, nil
	}

	var changed []int64
	err := w.atomic(ctx, func(w *writer) error {
		years := make([]season.Year, 0, len(items))
		refs := make([]team.Ref, 0, len(items)*2)
		for _, item := range items {
			years = append(years, item.SeasonYear)
			refs = append(refs,
				team.Ref{ID: item.HomeTeamID, Name: item.HomeTeamName, Source: item.Source},
				team.Ref{ID: item.AwayTeamID, Name: item.AwayTeamName, Source: item.Source},
			)
		}
		if err := w.UpsertSeasons(ctx, years); err != nil {
			return err
		}
		if err := w.EnsureTeamStubs(ctx, firstRefPerTeam(refs)); err != nil {
			return err
		}

		updateCols := qb.ModelColumns(fixtureTableModel{}, "fixture_id")
		ids, err := upsertBatches(ctx, w, "fixture", items, fixtureID, func(batch []fixture.Fixture) ([]int64, error) {
			rows := make([]fixtureTableModel, 0, len(batch))
			for _, item := range batch {
				rows = append(rows, fixtureModel(item))
			}
			builder, err := qb.InsertRows("fixtures", rows)
			if err != nil {
				return nil, buildErr("upsert fixtures", err)
			}
			query, args, err := builder.
				OnConflictUpdate([]string{"fixture_id"}, updateCols, "updated_at = NOW()").
				Returning("fixture_id").
				ToSQL()
			if err != nil {
				return nil, buildErr("upsert fixtures", err)
			}
			ids, err := w.insertReturningIDs(ctx, query, args)
			if err != nil {
				return nil, wrapDBError("upsert fixtures", err)
			}
			return ids, nil
		})
		changed = ids
		return err
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

func (w *writer) ListFixturesByIDs(ctx context.Context, ids []int64) ([]fixture.Fixture, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := qb.Select(fixtureColumns...).From("fixtures").
		Where(qb.InInt64("fixture_id", ids)).
		OrderBy("fixture_id").
		ToSQL()
	if err != nil {
		return nil, buildErr("select fixtures by ids", err)
	}
	return w.selectFixtures(ctx, "select fixtures by ids", query, args)
}

// ListUpcomingFixtures returns not-started fixtures in [from, to] that have no
// prediction generated since they were scheduled.
func (w *writer) ListUpcomingFixtures(ctx context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(prefixed("f", fixtureColumns)...).From("fixtures f").
		Join("LEFT JOIN predictions p ON p.fixture_id = f.fixture_id").
		Where(
			qb.Expr("f.utc_date >= ?", from.UTC()),
			qb.Expr("f.utc_date <= ?", to.UTC()),
			qb.In("f.status_short", stringsToAny(fixture.ShortCodes(fixture.CategoryScheduled))),
			qb.Expr("(p.fixture_id IS NULL OR p.generated_at < f.utc_date)"),
		).
		OrderBy("f.utc_date", "f.fixture_id").
		ToSQL()
	if err != nil {
		return nil, buildErr("select upcoming fixtures", err)
	}
	return w.selectFixtures(ctx, "select upcoming fixtures", query, args)
}

func (w *writer) ListTeamForm(ctx context.Context, teamID int64, before time.Time, limit int) ([]fixture.Fixture, error) {
	builder := qb.Select(fixtureColumns...).From("fixtures").
		Where(
			qb.Expr("(home_team_id = ? OR away_team_id = ?)", teamID, teamID),
			qb.In("status_short", stringsToAny(fixture.ShortCodes(fixture.CategoryFinished))),
			qb.Expr("utc_date < ?", before.UTC()),
		).
		OrderBy("utc_date DESC", "fixture_id DESC")
	if limit > 0 {
		builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, buildErr("select team form", err)
	}
	return w.selectFixtures(ctx, fmt.Sprintf("select team form %d", teamID), query, args)
}

func (w *writer) selectFixtures(ctx context.Context, op, query string, args []any) ([]fixture.Fixture, error) {
	var rows []fixtureTableModel
	if err := sqlx.SelectContext(ctx, w.q, &rows, query, args...); err != nil {
		return nil, wrapDBError(op, err)
	}
	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// firstRefPerTeam keeps the first named reference per team so a stub gets a
// real name when any fixture carries one.
func firstRefPerTeam(refs []team.Ref) []team.Ref {
	seen := make(map[int64]int, len(refs))
	out := make([]team.Ref, 0, len(refs))
	for _, ref := range refs {
		if i, ok := seen[ref.ID]; ok {
			if out[i].Name == "" {
				out[i] = ref
			}
			continue
		}
		seen[ref.ID] = len(out)
		out = append(out, ref)
	}
	return out
}

func prefixed(alias string, columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, col := range columns {
		out = append(out, alias+"."+col)
	}
	return out
}

func stringsToAny(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
