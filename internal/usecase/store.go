package usecase

import (
	"context"

	"github.com/riskibarqy/football-sync/internal/domain/area"
	"github.com/riskibarqy/football-sync/internal/domain/competition"
	"github.com/riskibarqy/football-sync/internal/domain/fixture"
	"github.com/riskibarqy/football-sync/internal/domain/prediction"
	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/domain/rawdata"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/domain/standing"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	"github.com/riskibarqy/football-sync/internal/domain/venue"
)

// SyncWriter is the full set of repositories one unit of work writes through.
type SyncWriter interface {
	area.Repository
	competition.Repository
	venue.Repository
	team.Repository
	season.Repository
	fixture.Repository
	standing.Repository
	rawdata.Repository
	progress.Repository
	prediction.Repository
}

// SyncStore runs units of work. Calls made on the store directly use their
// own short transaction; InTx groups calls so they commit or roll back
// together.
type SyncStore interface {
	SyncWriter
	InTx(ctx context.Context, fn func(w SyncWriter) error) error
	Ping(ctx context.Context) error
}
