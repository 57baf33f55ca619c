package fixture

import (
	"strconv"
	"strings"
	"time"
)

type Winner string

const (
	WinnerHome    Winner = "HOME"
	WinnerAway    Winner = "AWAY"
	WinnerDraw    Winner = "DRAW"
	WinnerUnknown Winner = "UNKNOWN"
)

// Score is a home/away goal pair. Nil sides mean the provider had no value.
type Score struct {
	Home *int
	Away *int
}

func (s Score) Known() bool {
	return s.Home != nil && s.Away != nil
}

type Fixture struct {
	ID            int64     `validate:"gt=0"`
	CompetitionID int64     `validate:"gt=0"`
	SeasonYear    int       `validate:"gt=1800"`
	UTCDate       time.Time `validate:"required"`
	StatusShort   string    `validate:"required"`
	StatusLong    string
	Matchday      *int
	Stage         string
	Round         string
	HomeTeamID    int64 `validate:"gt=0"`
	AwayTeamID    int64 `validate:"gt=0,nefield=HomeTeamID"`
	HomeTeamName  string
	AwayTeamName  string
	VenueID       *int64
	HalfTime      Score
	FullTime      Score
	ExtraTime     Score
	Penalties     Score
	Winner        Winner
	HomeWinner    *bool
	AwayWinner    *bool
	RawData       []byte
	Source        string `validate:"required"`
}

// Status resolves the normalized status of the fixture.
func (f Fixture) Status() Status {
	return LookupStatus(f.StatusShort)
}

// Settle fills in the winner fields from the scores and status.
func (f *Fixture) Settle() {
	f.Winner = DeriveWinner(f.Status(), f.FullTime, f.ExtraTime, f.Penalties)
	f.HomeWinner, f.AwayWinner = f.Winner.Flags()
}

// DeriveWinner compares full time plus extra time goals and falls back to the
// shootout only on an aggregate tie. A finished tie without a shootout is a
// draw; anything not finished is unknown.
func DeriveWinner(status Status, fullTime, extraTime, penalties Score) Winner {
	if !status.Finished() || !fullTime.Known() {
		return WinnerUnknown
	}

	home := *fullTime.Home + deref(extraTime.Home)
	away := *fullTime.Away + deref(extraTime.Away)
	switch {
	case home > away:
		return WinnerHome
	case away > home:
		return WinnerAway
	}

	if penalties.Known() {
		switch {
		case *penalties.Home > *penalties.Away:
			return WinnerHome
		case *penalties.Away > *penalties.Home:
			return WinnerAway
		}
	}
	return WinnerDraw
}

// Flags maps the winner to the home_winner/away_winner columns. Draws and
// unknown results leave both unset.
func (w Winner) Flags() (*bool, *bool) {
	switch w {
	case WinnerHome:
		return boolPtr(true), boolPtr(false)
	case WinnerAway:
		return boolPtr(false), boolPtr(true)
	default:
		return nil, nil
	}
}

// ParseGoals reads a goal count. Blank or unparseable input yields fallback,
// which may be nil to keep "no data" distinct from zero.
func ParseGoals(raw string, fallback *int) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return fallback
		}
		n = int(f)
	}
	if n < 0 {
		return fallback
	}
	return &n
}

func IntPtr(v int) *int {
	return &v
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func boolPtr(v bool) *bool {
	return &v
}
