package footballdata

import "encoding/json"

type areaDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Flag string `json:"flag"`
}

type seasonDTO struct {
	ID              int64  `json:"id"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	CurrentMatchday *int   `json:"currentMatchday"`
}

type competitionDTO struct {
	ID            int64       `json:"id"`
	Area          areaDTO     `json:"area"`
	Name          string      `json:"name"`
	Code          string      `json:"code"`
	Type          string      `json:"type"`
	Emblem        string      `json:"emblem"`
	CurrentSeason *seasonDTO  `json:"currentSeason"`
	Seasons       []seasonDTO `json:"seasons"`
}

type competitionsEnvelope struct {
	Count        int              `json:"count"`
	Competitions []competitionDTO `json:"competitions"`
}

type teamDTO struct {
	ID        int64   `json:"id"`
	Area      areaDTO `json:"area"`
	Name      string  `json:"name"`
	ShortName string  `json:"shortName"`
	TLA       string  `json:"tla"`
	Crest     string  `json:"crest"`
	Founded   *int    `json:"founded"`
	Venue     string  `json:"venue"`
}

type teamsEnvelope struct {
	Season seasonDTO `json:"season"`
	Teams  []teamDTO `json:"teams"`
}

type teamRefDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type scorePairDTO struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type scoreDTO struct {
	Winner      string        `json:"winner"`
	Duration    string        `json:"duration"`
	FullTime    scorePairDTO  `json:"fullTime"`
	HalfTime    scorePairDTO  `json:"halfTime"`
	RegularTime *scorePairDTO `json:"regularTime"`
	ExtraTime   *scorePairDTO `json:"extraTime"`
	Penalties   *scorePairDTO `json:"penalties"`
}

type matchDTO struct {
	ID          int64          `json:"id"`
	Competition competitionDTO `json:"competition"`
	Season      seasonDTO      `json:"season"`
	UTCDate     string         `json:"utcDate"`
	Status      string         `json:"status"`
	Matchday    *int           `json:"matchday"`
	Stage       string         `json:"stage"`
	Group       *string        `json:"group"`
	HomeTeam    teamRefDTO     `json:"homeTeam"`
	AwayTeam    teamRefDTO     `json:"awayTeam"`
	Score       scoreDTO       `json:"score"`
}

// matchesEnvelope keeps every match verbatim so the stored fixture carries
// the provider's own record.
type matchesEnvelope struct {
	Matches []json.RawMessage `json:"matches"`
}

type standingRowDTO struct {
	Position       int        `json:"position"`
	Team           teamRefDTO `json:"team"`
	PlayedGames    int        `json:"playedGames"`
	Form           *string    `json:"form"`
	Won            int        `json:"won"`
	Draw           int        `json:"draw"`
	Lost           int        `json:"lost"`
	Points         int        `json:"points"`
	GoalsFor       int        `json:"goalsFor"`
	GoalsAgainst   int        `json:"goalsAgainst"`
	GoalDifference int        `json:"goalDifference"`
}

type standingListDTO struct {
	Stage string           `json:"stage"`
	Type  string           `json:"type"`
	Group *string          `json:"group"`
	Table []standingRowDTO `json:"table"`
}

type standingsEnvelope struct {
	Season    seasonDTO         `json:"season"`
	Standings []standingListDTO `json:"standings"`
}
