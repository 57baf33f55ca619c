package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func score(home, away int) Score {
	return Score{Home: IntPtr(home), Away: IntPtr(away)}
}

func TestDeriveWinner(t *testing.T) {
	t.Parallel()

	finished := LookupStatus("FT")
	cases := []struct {
		name      string
		status    Status
		fullTime  Score
		extraTime Score
		penalties Score
		want      Winner
		home      *bool
		away      *bool
	}{
		{name: "home win in regulation", status: finished, fullTime: score(2, 1), want: WinnerHome, home: boolPtr(true), away: boolPtr(false)},
		{name: "away win in regulation", status: finished, fullTime: score(0, 3), want: WinnerAway, home: boolPtr(false), away: boolPtr(true)},
		{name: "level then home shootout", status: LookupStatus("PEN"), fullTime: score(1, 1), penalties: score(5, 4), want: WinnerHome, home: boolPtr(true), away: boolPtr(false)},
		{name: "level without shootout", status: finished, fullTime: score(1, 1), want: WinnerDraw},
		{name: "extra time decides", status: LookupStatus("AET"), fullTime: score(1, 1), extraTime: score(0, 1), penalties: score(5, 3), want: WinnerAway, home: boolPtr(false), away: boolPtr(true)},
		{name: "not finished", status: LookupStatus("2H"), fullTime: score(2, 0), want: WinnerUnknown},
		{name: "finished without scores", status: finished, want: WinnerUnknown},
		{name: "level shootout", status: finished, fullTime: score(0, 0), penalties: score(3, 3), want: WinnerDraw},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveWinner(tc.status, tc.fullTime, tc.extraTime, tc.penalties)
			assert.Equal(t, tc.want, got)

			home, away := got.Flags()
			assert.Equal(t, tc.home, home)
			assert.Equal(t, tc.away, away)
		})
	}
}

func TestFixture_Settle(t *testing.T) {
	t.Parallel()

	f := Fixture{StatusShort: "ft", FullTime: score(2, 1)}
	f.Settle()
	assert.Equal(t, WinnerHome, f.Winner)
	assert.True(t, *f.HomeWinner)
	assert.False(t, *f.AwayWinner)
}

func TestParseGoals(t *testing.T) {
	t.Parallel()

	zero := IntPtr(0)
	assert.Equal(t, 3, *ParseGoals("3", nil))
	assert.Equal(t, 2, *ParseGoals(" 2.0 ", nil))
	assert.Same(t, zero, ParseGoals("", zero))
	assert.Nil(t, ParseGoals("n/a", nil))
	assert.Nil(t, ParseGoals("null", nil))
	assert.Nil(t, ParseGoals("-1", nil))
}

func TestLookupStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryFinished, LookupStatus("aet").Category)
	assert.Equal(t, CategoryVoid, LookupStatus("PST").Category)
	assert.False(t, LookupStatus("CANC").LiveIsh())
	assert.True(t, LookupStatus("1H").LiveIsh())
	assert.Equal(t, "NS", LookupStatus("whatever").Short)
}

func TestShortCodes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"NS", "TBD"}, ShortCodes(CategoryScheduled))
	assert.Equal(t, []string{"AET", "FT", "PEN"}, ShortCodes(CategoryFinished))
}
