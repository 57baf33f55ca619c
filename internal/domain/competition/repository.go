package competition

import "context"

type Repository interface {
	UpsertCompetitions(ctx context.Context, items []Competition) (int, error)
	// LinkCompetitionAliases makes sure the aliased rows exist and carry the
	// secondary native ID, without overwriting primary-provider fields.
	LinkCompetitionAliases(ctx context.Context, items []Competition) error
	FindCompetition(ctx context.Context, id int64) (Competition, bool, error)
}
