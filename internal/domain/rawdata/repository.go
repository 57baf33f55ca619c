package rawdata

import "context"

type Repository interface {
	UpsertRawPayloads(ctx context.Context, items []Payload) error
}
