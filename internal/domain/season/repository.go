package season

import "context"

type Repository interface {
	UpsertSeasons(ctx context.Context, years []Year) error
}
