package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/football-sync/internal/domain/fixture"
	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/domain/rawdata"
)

// ExternalArea and the other External* types are the typed form of provider
// payloads. IDs are provider-native; the identity mapper translates them.
type ExternalArea struct {
	Name    string
	Code    string
	FlagURL string
}

type ExternalCompetition struct {
	NativeID          int64
	Code              string
	Name              string
	Type              string
	EmblemURL         string
	Area              ExternalArea
	CurrentSeasonYear *int
	Seasons           []int
}

type ExternalVenue struct {
	NativeID int64
	Name     string
	City     string
	Capacity *int
	Surface  string
}

type ExternalTeamRef struct {
	NativeID int64
	Name     string
}

type ExternalTeam struct {
	NativeID  int64
	Name      string
	ShortName string
	TLA       string
	CrestURL  string
	Founded   *int
	Area      ExternalArea
	Venue     *ExternalVenue
	VenueName string
}

type ExternalFixture struct {
	NativeID            int64
	CompetitionNativeID int64
	SeasonYear          int
	UTCDate             time.Time
	StatusShort         string
	Matchday            *int
	Stage               string
	Round               string
	Home                ExternalTeamRef
	Away                ExternalTeamRef
	Venue               *ExternalVenue
	HalfTime            fixture.Score
	FullTime            fixture.Score
	ExtraTime           fixture.Score
	Penalties           fixture.Score
	Raw                 []byte
}

type ExternalStandingRow struct {
	Team           ExternalTeamRef
	Rank           int
	Points         int
	Played         int
	Won            int
	Draw           int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Form           string
}

type ExternalStandingList struct {
	Stage string
	Type  string
	Group string
	Rows  []ExternalStandingRow
}

// SeasonBundle is everything one provider fetch produced for a competition.
type SeasonBundle struct {
	Source      progress.TaskType
	Competition ExternalCompetition
	SeasonYear  int
	Teams       []ExternalTeam
	Fixtures    []ExternalFixture
	Standings   []ExternalStandingList
	RawPayloads []rawdata.Payload
}

// CatalogProvider enumerates the competitions and seasons a provider serves
// and fetches one competition season.
type CatalogProvider interface {
	Source() progress.TaskType
	Discover(ctx context.Context) ([]ExternalCompetition, []rawdata.Payload, error)
	FetchSeason(ctx context.Context, ref string, season int, withStandings bool) (SeasonBundle, error)
}

// WindowProvider fetches a competition's fixtures in a date range.
type WindowProvider interface {
	FetchWindow(ctx context.Context, ref string, from, to time.Time) (SeasonBundle, error)
}

// DateProvider fetches every fixture on one day, grouped by competition.
type DateProvider interface {
	FetchDate(ctx context.Context, day time.Time) ([]SeasonBundle, error)
}

// PredictionTrigger starts the prediction pass for changed fixtures.
type PredictionTrigger interface {
	TriggerPredictions(ctx context.Context, fixtureIDs []int64) error
}
