package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/football-sync/internal/domain/area"
	"github.com/riskibarqy/football-sync/internal/domain/competition"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	"github.com/riskibarqy/football-sync/internal/domain/venue"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

var (
	competitionColumns = qb.ModelColumns(competitionTableModel{})
	teamColumns        = qb.ModelColumns(teamTableModel{})
)

// ResolveArea looks the area up by name key and inserts it when missing. A
// concurrent insert of the same area is absorbed and its ID re-read.
func (w *writer) ResolveArea(ctx context.Context, item area.Area) (int64, error) {
	key := area.NameKey(item.Name)
	if key == "" {
		return 0, fmt.Errorf("resolve area: %w", usecase.ErrInvalidInput)
	}

	id, found, err := w.findAreaID(ctx, key)
	if err != nil {
		return 0, err
	}
	if found {
		return id, w.fillArea(ctx, id, item)
	}

	query, args, err := qb.InsertInto("areas").
		Columns("name", "name_key", "code", "flag_url").
		Values(item.Name, key, item.Code, item.FlagURL).
		OnConflictDoNothing("name_key").
		Returning("area_id").
		ToSQL()
	if err != nil {
		return 0, buildErr("insert area", err)
	}
	var ids []int64
	err = w.savepoint(ctx, "resolve_area", func() error {
		var insertErr error
		ids, insertErr = w.insertReturningIDs(ctx, query, args)
		return insertErr
	})
	if err != nil && !isUniqueViolation(err) {
		return 0, wrapDBError("insert area "+key, err)
	}
	if len(ids) == 1 {
		return ids[0], nil
	}

	id, found, err = w.findAreaID(ctx, key)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("resolve area %q: %w", key, usecase.ErrNotFound)
	}
	return id, nil
}

func (w *writer) findAreaID(ctx context.Context, key string) (int64, bool, error) {
	query, args, err := qb.Select("area_id").From("areas").Where(qb.Eq("name_key", key)).ToSQL()
	if err != nil {
		return 0, false, buildErr("select area", err)
	}

	var id int64
	if err := sqlx.GetContext(ctx, w.q, &id, query, args...); err != nil {
		if isNotFound(err) {
			return 0, false, nil
		}
		return 0, false, wrapDBError("select area "+key, err)
	}
	return id, true, nil
}

// fillArea backfills code and flag on an existing area without overwriting
// values another provider already set.
func (w *writer) fillArea(ctx context.Context, id int64, item area.Area) error {
	if item.Code == "" && item.FlagURL == "" {
		return nil
	}

	query, args, err := qb.Update("areas").
		SetExpr("code", "COALESCE(NULLIF(code, ''), ?)", item.Code).
		SetExpr("flag_url", "COALESCE(NULLIF(flag_url, ''), ?)", item.FlagURL).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("area_id", id),
			qb.Expr("((code = '' AND ? <> '') OR (flag_url = '' AND ? <> ''))", item.Code, item.FlagURL),
		).
		ToSQL()
	if err != nil {
		return buildErr("update area", err)
	}
	if _, err := w.q.ExecContext(ctx, query, args...); err != nil {
		return wrapDBError(fmt.Sprintf("update area %d", id), err)
	}
	return nil
}

func (w *writer) UpsertCompetitions(ctx context.Context, items []competition.Competition) (int, error) {
	competitionID := func(c competition.Competition) int64 { return c.ID }
	items = keyOrdered(items, competitionID)
	ids, err := upsertBatches(ctx, w, "competition", items, competitionID, func(batch []competition.Competition) ([]int64, error) {
		rows := make([]competitionTableModel, 0, len(batch))
		for _, item := range batch {
			rows = append(rows, competitionModel(item))
		}
		builder, err := qb.InsertRows("competitions", rows)
		if err != nil {
			return nil, buildErr("upsert competitions", err)
		}
		query, args, err := builder.
			OnConflictMerge(
				[]string{"competition_id"},
				qb.ModelColumns(competitionTableModel{}, "competition_id"),
				[]string{"secondary_id", "current_season_year"},
				"updated_at = NOW()",
			).
			Returning("competition_id").
			ToSQL()
		if err != nil {
			return nil, buildErr("upsert competitions", err)
		}
		ids, err := w.insertReturningIDs(ctx, query, args)
		if err != nil {
			return nil, wrapDBError("upsert competitions", err)
		}
		return ids, nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (w *writer) LinkCompetitionAliases(ctx context.Context, items []competition.Competition) error {
	items = keyOrdered(items, func(c competition.Competition) int64 { return c.ID })
	for _, batch := range batches(items, w.batchSize) {
		rows := make([]competitionTableModel, 0, len(batch))
		for _, item := range batch {
			rows = append(rows, competitionModel(item))
		}
		builder, err := qb.InsertRows("competitions", rows)
		if err != nil {
			return buildErr("link competitions", err)
		}
		query, args, err := builder.OnConflict(`ON CONFLICT (competition_id) DO UPDATE SET
    secondary_id = EXCLUDED.secondary_id,
    current_season_year = COALESCE(competitions.current_season_year, EXCLUDED.current_season_year),
    updated_at = NOW()
WHERE competitions.secondary_id IS DISTINCT FROM EXCLUDED.secondary_id
    OR competitions.current_season_year IS NULL`).ToSQL()
		if err != nil {
			return buildErr("link competitions", err)
		}
		if _, err := w.q.ExecContext(ctx, query, args...); err != nil {
			return wrapDBError("link competitions", err)
		}
	}
	return nil
}

func (w *writer) FindCompetition(ctx context.Context, id int64) (competition.Competition, bool, error) {
	query, args, err := qb.Select(competitionColumns...).From("competitions").
		Where(qb.Eq("competition_id", id)).
		ToSQL()
	if err != nil {
		return competition.Competition{}, false, buildErr("select competition", err)
	}

	var row competitionTableModel
	if err := sqlx.GetContext(ctx, w.q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Competition{}, false, nil
		}
		return competition.Competition{}, false, wrapDBError(fmt.Sprintf("select competition %d", id), err)
	}
	return row.toDomain(), true, nil
}

func (w *writer) UpsertVenues(ctx context.Context, items []venue.Venue) (int, error) {
	venueID := func(v venue.Venue) int64 { return v.ID }
	items = keyOrdered(items, venueID)
	ids, err := upsertBatches(ctx, w, "venue", items, venueID, func(batch []venue.Venue) ([]int64, error) {
		rows := make([]venueTableModel, 0, len(batch))
		for _, item := range batch {
			rows = append(rows, venueModel(item))
		}
		builder, err := qb.InsertRows("venues", rows)
		if err != nil {
			return nil, buildErr("upsert venues", err)
		}
		query, args, err := builder.
			OnConflictUpdate([]string{"venue_id"}, qb.ModelColumns(venueTableModel{}, "venue_id"), "updated_at = NOW()").
			Returning("venue_id").
			ToSQL()
		if err != nil {
			return nil, buildErr("upsert venues", err)
		}
		ids, err := w.insertReturningIDs(ctx, query, args)
		if err != nil {
			return nil, wrapDBError("upsert venues", err)
		}
		return ids, nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (w *writer) UpsertTeams(ctx context.Context, items []team.Team) (int, error) {
	teamID := func(t team.Team) int64 { return t.ID }
	items = keyOrdered(items, teamID)
	ids, err := upsertBatches(ctx, w, "team", items, teamID, func(batch []team.Team) ([]int64, error) {
		rows := make([]teamTableModel, 0, len(batch))
		for _, item := range batch {
			rows = append(rows, teamModel(item))
		}
		builder, err := qb.InsertRows("teams", rows)
		if err != nil {
			return nil, buildErr("upsert teams", err)
		}
		query, args, err := builder.
			OnConflictMerge(
				[]string{"team_id"},
				qb.ModelColumns(teamTableModel{}, "team_id"),
				[]string{"secondary_id"},
				"updated_at = NOW()",
			).
			Returning("team_id").
			ToSQL()
		if err != nil {
			return nil, buildErr("upsert teams", err)
		}
		ids, err := w.insertReturningIDs(ctx, query, args)
		if err != nil {
			return nil, wrapDBError("upsert teams", err)
		}
		return ids, nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (w *writer) LinkTeamAliases(ctx context.Context, items []team.Team) error {
	items = keyOrdered(items, func(t team.Team) int64 { return t.ID })
	for _, batch := range batches(items, w.batchSize) {
		rows := make([]teamAliasModel, 0, len(batch))
		for _, item := range batch {
			rows = append(rows, teamAliasModel{
				ID:          item.ID,
				Name:        item.Name,
				NameKey:     area.NameKey(item.Name),
				SecondaryID: item.SecondaryID,
				Source:      item.Source,
			})
		}
		builder, err := qb.InsertRows("teams", rows)
		if err != nil {
			return buildErr("link teams", err)
		}
		query, args, err := builder.OnConflict(`ON CONFLICT (team_id) DO UPDATE SET
    secondary_id = EXCLUDED.secondary_id,
    updated_at = NOW()
WHERE teams.secondary_id IS DISTINCT FROM EXCLUDED.secondary_id`).ToSQL()
		if err != nil {
			return buildErr("link teams", err)
		}
		if _, err := w.q.ExecContext(ctx, query, args...); err != nil {
			return wrapDBError("link teams", err)
		}
	}
	return nil
}

func (w *writer) EnsureTeamStubs(ctx context.Context, refs []team.Ref) error {
	rows := make([]teamStubModel, 0, len(refs))
	for _, ref := range refs {
		if ref.ID <= 0 {
			return fmt.Errorf("ensure team stub: %w", usecase.ErrInvalidInput)
		}
		name := ref.StubName()
		rows = append(rows, teamStubModel{ID: ref.ID, Name: name, NameKey: area.NameKey(name), Source: ref.Source})
	}
	stubID := func(m teamStubModel) int64 { return m.ID }
	rows = keyOrdered(rows, stubID)

	_, err := upsertBatches(ctx, w, "team_stub", rows, stubID, func(batch []teamStubModel) ([]int64, error) {
		builder, err := qb.InsertRows("teams", batch)
		if err != nil {
			return nil, buildErr("insert team stubs", err)
		}
		query, args, err := builder.OnConflictDoNothing("team_id").ToSQL()
		if err != nil {
			return nil, buildErr("insert team stubs", err)
		}
		if _, err := w.q.ExecContext(ctx, query, args...); err != nil {
			return nil, wrapDBError("insert team stubs", err)
		}
		return nil, nil
	})
	return err
}

func (w *writer) FindTeamByName(ctx context.Context, areaID int64, name string) (team.Team, bool, error) {
	query, args, err := qb.Select(teamColumns...).From("teams").
		Where(qb.Eq("area_id", areaID), qb.Eq("name_key", area.NameKey(name))).
		OrderBy("team_id").
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, buildErr("select team by name", err)
	}

	var row teamTableModel
	if err := sqlx.GetContext(ctx, w.q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, wrapDBError("select team by name", err)
	}
	return row.toDomain(), true, nil
}

func (w *writer) TeamIDsBySecondary(ctx context.Context, natives []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(natives))
	if len(natives) == 0 {
		return out, nil
	}

	query, args, err := qb.Select("team_id", "secondary_id").From("teams").
		Where(qb.Expr("secondary_id = ANY(?)", pq.Array(natives))).
		OrderBy("team_id").
		ToSQL()
	if err != nil {
		return nil, buildErr("select teams by secondary id", err)
	}

	var rows []teamSecondaryRow
	if err := sqlx.SelectContext(ctx, w.q, &rows, query, args...); err != nil {
		return nil, wrapDBError("select teams by secondary id", err)
	}
	for _, row := range rows {
		if _, ok := out[row.SecondaryID]; !ok {
			out[row.SecondaryID] = row.TeamID
		}
	}
	return out, nil
}

func (w *writer) UpsertSeasons(ctx context.Context, years []season.Year) error {
	years = season.Dedupe(years)
	if len(years) == 0 {
		return nil
	}

	builder := qb.InsertInto("seasons").Columns("year")
	for _, y := range years {
		builder.Values(y)
	}
	query, args, err := builder.OnConflictDoNothing("year").ToSQL()
	if err != nil {
		return buildErr("insert seasons", err)
	}
	if _, err := w.q.ExecContext(ctx, query, args...); err != nil {
		return wrapDBError("insert seasons", err)
	}
	return nil
}
