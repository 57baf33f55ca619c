package standing

import "context"

type Repository interface {
	// UpsertStandings writes lists and their rows and returns the number of
	// rows inserted or changed.
	UpsertStandings(ctx context.Context, lists []List) (int, error)
	// TeamPoints returns points per team from the TOTAL table of a season.
	TeamPoints(ctx context.Context, competitionID int64, seasonYear int) (map[int64]int, error)
}
