package team

import "context"

type Repository interface {
	UpsertTeams(ctx context.Context, items []Team) (int, error)
	// LinkTeamAliases records the secondary native ID on existing teams
	// without touching their other columns.
	LinkTeamAliases(ctx context.Context, items []Team) error
	// EnsureTeamStubs inserts placeholder rows for unknown IDs and leaves
	// existing teams untouched.
	EnsureTeamStubs(ctx context.Context, refs []Ref) error
	// FindTeamByName matches on the normalized name within one area.
	FindTeamByName(ctx context.Context, areaID int64, name string) (Team, bool, error)
	// TeamIDsBySecondary maps secondary native IDs to linked local team IDs.
	TeamIDsBySecondary(ctx context.Context, natives []int64) (map[int64]int64, error)
}
