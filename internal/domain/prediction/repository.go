package prediction

import "context"

type Repository interface {
	UpsertPredictions(ctx context.Context, items []Prediction) error
}
