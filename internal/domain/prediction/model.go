package prediction

import "time"

// Prediction holds the rule tags computed for one fixture.
type Prediction struct {
	FixtureID   int64
	Data        Data
	GeneratedAt time.Time
}

type Data struct {
	HomeTags    []string `json:"home_tags"`
	AwayTags    []string `json:"away_tags"`
	HomeTier    string   `json:"home_tier,omitempty"`
	AwayTier    string   `json:"away_tier,omitempty"`
	HomeWin     bool     `json:"home_win"`
	AwayWin     bool     `json:"away_win"`
	Draw        bool     `json:"draw"`
	TotalOver2  bool     `json:"total_over_2"`
	TotalUnder2 bool     `json:"total_under_2"`
	Rival       bool     `json:"rival"`
	Summary     string   `json:"summary"`
}
