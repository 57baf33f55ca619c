package fixture

import (
	"context"
	"time"
)

type Repository interface {
	// UpsertFixtures writes fixtures, creating stub teams for unknown
	// references, and returns the IDs of rows that were inserted or changed.
	UpsertFixtures(ctx context.Context, items []Fixture) ([]int64, error)
	ListFixturesByIDs(ctx context.Context, ids []int64) ([]Fixture, error)
	ListUpcomingFixtures(ctx context.Context, from, to time.Time) ([]Fixture, error)
	// ListTeamForm returns the team's most recent finished fixtures before the
	// given instant, newest first.
	ListTeamForm(ctx context.Context, teamID int64, before time.Time, limit int) ([]Fixture, error)
}
