package venue

import "context"

type Repository interface {
	UpsertVenues(ctx context.Context, items []Venue) (int, error)
}
