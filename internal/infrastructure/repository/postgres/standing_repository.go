package postgres

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/football-sync/internal/domain/standing"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
)

type standingListModel struct {
	CompetitionID int64  `db:"competition_id"`
	SeasonYear    int    `db:"season_year"`
	Stage         string `db:"stage"`
	Type          string `db:"type"`
	Group         string `db:"group_name"`
}

type standingRowModel struct {
	ListID         int64  `db:"list_id"`
	TeamID         int64  `db:"team_id"`
	TeamName       string `db:"team_name"`
	Rank           int    `db:"rank"`
	Points         int    `db:"points"`
	Played         int    `db:"played"`
	Won            int    `db:"won"`
	Draw           int    `db:"draw"`
	Lost           int    `db:"lost"`
	GoalsFor       int    `db:"goals_for"`
	GoalsAgainst   int    `db:"goals_against"`
	GoalDifference int    `db:"goal_difference"`
	Form           string `db:"form"`
}

type teamPointsRow struct {
	TeamID int64 `db:"team_id"`
	Points int   `db:"points"`
}

// UpsertStandings resolves each list to its surrogate ID, then upserts its
// rows keyed by (list, team).
func (w *writer) UpsertStandings(ctx context.Context, lists []standing.List) (int, error) {
	if len(lists) == 0 {
		return 0, nil
	}

	lists = slices.Clone(lists)
	slices.SortStableFunc(lists, compareStandingLists)

	changed := 0
	err := w.atomic(ctx, func(w *writer) error {
		for _, list := range lists {
			listID, err := w.upsertStandingList(ctx, list)
			if err != nil {
				return err
			}
			if len(list.Rows) == 0 {
				continue
			}

			rows := make([]standingRowModel, 0, len(list.Rows))
			for _, row := range list.Rows {
				rows = append(rows, standingRowModel{
					ListID:         listID,
					TeamID:         row.TeamID,
					TeamName:       row.TeamName,
					Rank:           row.Rank,
					Points:         row.Points,
					Played:         row.Played,
					Won:            row.Won,
					Draw:           row.Draw,
					Lost:           row.Lost,
					GoalsFor:       row.GoalsFor,
					GoalsAgainst:   row.GoalsAgainst,
					GoalDifference: row.GoalDifference,
					Form:           row.Form,
				})
			}
			rowTeamID := func(m standingRowModel) int64 { return m.TeamID }
			rows = keyOrdered(rows, rowTeamID)

			ids, err := upsertBatches(ctx, w, "standing_row", rows, rowTeamID, func(batch []standingRowModel) ([]int64, error) {
				builder, err := qb.InsertRows("standing_rows", batch)
				if err != nil {
					return nil, buildErr("upsert standing rows", err)
				}
				query, args, err := builder.
					OnConflictUpdate(
						[]string{"list_id", "team_id"},
						qb.ModelColumns(standingRowModel{}, "list_id", "team_id"),
						"updated_at = NOW()",
					).
					Returning("team_id").
					ToSQL()
				if err != nil {
					return nil, buildErr("upsert standing rows", err)
				}
				ids, err := w.insertReturningIDs(ctx, query, args)
				if err != nil {
					return nil, wrapDBError(fmt.Sprintf("upsert standing rows list=%d", listID), err)
				}
				return ids, nil
			})
			if err != nil {
				return err
			}
			changed += len(ids)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// upsertStandingList returns the surrogate ID of the list, inserting it when
// missing. An existing list row is left untouched.
func (w *writer) upsertStandingList(ctx context.Context, list standing.List) (int64, error) {
	op := fmt.Sprintf("upsert standings list competition=%d season=%d", list.CompetitionID, list.SeasonYear)
	query, args, err := insertStandingListQuery(list)
	if err != nil {
		return 0, err
	}

	var listID int64
	err = sqlx.GetContext(ctx, w.q, &listID, query, args...)
	if err == nil {
		return listID, nil
	}
	if !isNotFound(err) {
		return 0, wrapDBError(op, err)
	}

	query, args, err = qb.Select("list_id").From("standings_lists").
		Where(standingListKey(list)...).
		ToSQL()
	if err != nil {
		return 0, buildErr("select standings list", err)
	}
	if err := sqlx.GetContext(ctx, w.q, &listID, query, args...); err != nil {
		return 0, wrapDBError(op, err)
	}
	return listID, nil
}

func insertStandingListQuery(list standing.List) (string, []any, error) {
	builder, err := qb.InsertRows("standings_lists", []standingListModel{{
		CompetitionID: list.CompetitionID,
		SeasonYear:    list.SeasonYear,
		Stage:         list.Stage,
		Type:          list.Type,
		Group:         list.Group,
	}})
	if err != nil {
		return "", nil, buildErr("upsert standings list", err)
	}
	query, args, err := builder.
		OnConflictDoNothing("competition_id", "season_year", "stage", "type", "group_name").
		Returning("list_id").
		ToSQL()
	if err != nil {
		return "", nil, buildErr("upsert standings list", err)
	}
	return query, args, nil
}

func standingListKey(list standing.List) []qb.Condition {
	return []qb.Condition{
		qb.Eq("competition_id", list.CompetitionID),
		qb.Eq("season_year", list.SeasonYear),
		qb.Eq("stage", list.Stage),
		qb.Eq("type", list.Type),
		qb.Eq("group_name", list.Group),
	}
}

func compareStandingLists(a, b standing.List) int {
	return cmp.Or(
		cmp.Compare(a.CompetitionID, b.CompetitionID),
		cmp.Compare(a.SeasonYear, b.SeasonYear),
		cmp.Compare(a.Stage, b.Stage),
		cmp.Compare(a.Type, b.Type),
		cmp.Compare(a.Group, b.Group),
	)
}

func (w *writer) TeamPoints(ctx context.Context, competitionID int64, seasonYear int) (map[int64]int, error) {
	query, args, err := qb.Select("r.team_id", "r.points").From("standing_rows r").
		Join("JOIN standings_lists l ON l.list_id = r.list_id").
		Where(
			qb.Eq("l.competition_id", competitionID),
			qb.Eq("l.season_year", seasonYear),
			qb.Eq("l.type", standing.TypeTotal),
		).
		OrderBy("l.list_id", "r.team_id").
		ToSQL()
	if err != nil {
		return nil, buildErr("select team points", err)
	}

	var rows []teamPointsRow
	if err := sqlx.SelectContext(ctx, w.q, &rows, query, args...); err != nil {
		return nil, wrapDBError(fmt.Sprintf("select team points competition=%d season=%d", competitionID, seasonYear), err)
	}
	out := make(map[int64]int, len(rows))
	for _, row := range rows {
		out[row.TeamID] = row.Points
	}
	return out, nil
}
