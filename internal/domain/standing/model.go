package standing

// List is one table of a competition season, e.g. the regular season total
// or a single group of a cup.
type List struct {
	ID            int64
	CompetitionID int64 `validate:"gt=0"`
	SeasonYear    int   `validate:"gt=1800"`
	Stage         string
	Type          string
	Group         string
	Rows          []Row `validate:"dive"`
}

type Row struct {
	TeamID         int64 `validate:"gt=0"`
	TeamName       string
	Rank           int `validate:"gte=0"`
	Points         int
	Played         int `validate:"gte=0"`
	Won            int `validate:"gte=0"`
	Draw           int `validate:"gte=0"`
	Lost           int `validate:"gte=0"`
	GoalsFor       int `validate:"gte=0"`
	GoalsAgainst   int `validate:"gte=0"`
	GoalDifference int
	Form           string
}

const (
	StageRegularSeason = "REGULAR_SEASON"
	TypeTotal          = "TOTAL"
)

// Tier buckets a team by league points for the prediction pass.
type Tier string

const (
	TierHigh Tier = "high"
	TierMid  Tier = "mid"
	TierLow  Tier = "low"
)

func TierForPoints(points int) Tier {
	switch {
	case points >= 60:
		return TierHigh
	case points >= 40:
		return TierMid
	default:
		return TierLow
	}
}
