package postgres

import (
	"time"

	"github.com/riskibarqy/football-sync/internal/domain/fixture"
)

type fixtureTableModel struct {
	ID            int64     `db:"fixture_id"`
	CompetitionID int64     `db:"competition_id"`
	SeasonYear    int       `db:"season_year"`
	UTCDate       time.Time `db:"utc_date"`
	StatusShort   string    `db:"status_short"`
	StatusLong    string    `db:"status_long"`
	Matchday      *int      `db:"matchday"`
	Stage         string    `db:"stage"`
	Round         string    `db:"round"`
	HomeTeamID    int64     `db:"home_team_id"`
	AwayTeamID    int64     `db:"away_team_id"`
	HomeTeamName  string    `db:"home_team_name"`
	AwayTeamName  string    `db:"away_team_name"`
	VenueID       *int64    `db:"venue_id"`
	HalfTimeHome  *int      `db:"half_time_home"`
	HalfTimeAway  *int      `db:"half_time_away"`
	FullTimeHome  *int      `db:"full_time_home"`
	FullTimeAway  *int      `db:"full_time_away"`
	ExtraTimeHome *int      `db:"extra_time_home"`
	ExtraTimeAway *int      `db:"extra_time_away"`
	PenaltiesHome *int      `db:"penalties_home"`
	PenaltiesAway *int      `db:"penalties_away"`
	Winner        string    `db:"winner"`
	HomeWinner    *bool     `db:"home_winner"`
	AwayWinner    *bool     `db:"away_winner"`
	RawData       *string   `db:"raw_data"`
	Source        string    `db:"source"`
}

func fixtureModel(item fixture.Fixture) fixtureTableModel {
	winner := item.Winner
	if winner == "" {
		winner = fixture.WinnerUnknown
	}
	var raw *string
	if len(item.RawData) > 0 {
		raw = nullableString(string(item.RawData))
	}
	return fixtureTableModel{
		ID:            item.ID,
		CompetitionID: item.CompetitionID,
		SeasonYear:    item.SeasonYear,
		UTCDate:       item.UTCDate.UTC(),
		StatusShort:   item.StatusShort,
		StatusLong:    item.StatusLong,
		Matchday:      item.Matchday,
		Stage:         item.Stage,
		Round:         item.Round,
		HomeTeamID:    item.HomeTeamID,
		AwayTeamID:    item.AwayTeamID,
		HomeTeamName:  item.HomeTeamName,
		AwayTeamName:  item.AwayTeamName,
		VenueID:       item.VenueID,
		HalfTimeHome:  item.HalfTime.Home,
		HalfTimeAway:  item.HalfTime.Away,
		FullTimeHome:  item.FullTime.Home,
		FullTimeAway:  item.FullTime.Away,
		ExtraTimeHome: item.ExtraTime.Home,
		ExtraTimeAway: item.ExtraTime.Away,
		PenaltiesHome: item.Penalties.Home,
		PenaltiesAway: item.Penalties.Away,
		Winner:        string(winner),
		HomeWinner:    item.HomeWinner,
		AwayWinner:    item.AwayWinner,
		RawData:       raw,
		Source:        item.Source,
	}
}

func (m fixtureTableModel) toDomain() fixture.Fixture {
	var raw []byte
	if m.RawData != nil {
		raw = []byte(*m.RawData)
	}
	return fixture.Fixture{
		ID:            m.ID,
		CompetitionID: m.CompetitionID,
		SeasonYear:    m.SeasonYear,
		UTCDate:       m.UTCDate.UTC(),
		StatusShort:   m.StatusShort,
		StatusLong:    m.StatusLong,
		Matchday:      m.Matchday,
		Stage:         m.Stage,
		Round:         m.Round,
		HomeTeamID:    m.HomeTeamID,
		AwayTeamID:    m.AwayTeamID,
		HomeTeamName:  m.HomeTeamName,
		AwayTeamName:  m.AwayTeamName,
		VenueID:       m.VenueID,
		HalfTime:      fixture.Score{Home: m.HalfTimeHome, Away: m.HalfTimeAway},
		FullTime:      fixture.Score{Home: m.FullTimeHome, Away: m.FullTimeAway},
		ExtraTime:     fixture.Score{Home: m.ExtraTimeHome, Away: m.ExtraTimeAway},
		Penalties:     fixture.Score{Home: m.PenaltiesHome, Away: m.PenaltiesAway},
		Winner:        fixture.Winner(m.Winner),
		HomeWinner:    m.HomeWinner,
		AwayWinner:    m.AwayWinner,
		RawData:       raw,
		Source:        m.Source,
	}
}
