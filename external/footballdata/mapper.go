package footballdata

import (
	"strings"
	"time"

	"github.com/riskibarqy/football-sync/internal/domain/fixture"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

// statusCode maps a football-data status onto the shared short codes. A
// finished match is split by how it was decided.
func statusCode(status, duration string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SCHEDULED", "TIMED":
		return "NS"
	case "IN_PLAY", "LIVE":
		return "LIVE"
	case "PAUSED":
		return "HT"
	case "EXTRA_TIME":
		return "ET"
	case "PENALTY_SHOOTOUT":
		return "P"
	case "FINISHED":
		switch strings.ToUpper(duration) {
		case "EXTRA_TIME":
			return "AET"
		case "PENALTY_SHOOTOUT":
			return "PEN"
		}
		return "FT"
	case "SUSPENDED":
		return "SUSP"
	case "POSTPONED":
		return "PST"
	case "CANCELLED", "CANCELED":
		return "CANC"
	case "AWARDED":
		return "AWD"
	default:
		return "NS"
	}
}

// seasonYear is the calendar year a season starts in, which is how the API
// addresses seasons.
func seasonYear(s seasonDTO) (int, bool) {
	start, err := time.Parse(time.DateOnly, strings.TrimSpace(s.StartDate))
	if err != nil {
		return 0, false
	}
	return start.Year(), true
}

func mapArea(a areaDTO) usecase.ExternalArea {
	return usecase.ExternalArea{
		Name:    strings.TrimSpace(a.Name),
		Code:    strings.TrimSpace(a.Code),
		FlagURL: strings.TrimSpace(a.Flag),
	}
}

func mapCompetition(c competitionDTO) usecase.ExternalCompetition {
	out := usecase.ExternalCompetition{
		NativeID:  c.ID,
		Code:      strings.ToUpper(strings.TrimSpace(c.Code)),
		Name:      strings.TrimSpace(c.Name),
		Type:      strings.TrimSpace(c.Type),
		EmblemURL: strings.TrimSpace(c.Emblem),
		Area:      mapArea(c.Area),
	}
	if c.CurrentSeason != nil {
		if year, ok := seasonYear(*c.CurrentSeason); ok {
			out.CurrentSeasonYear = &year
			out.Seasons = append(out.Seasons, year)
		}
	}
	for _, s := range c.Seasons {
		if year, ok := seasonYear(s); ok {
			out.Seasons = append(out.Seasons, year)
		}
	}
	return out
}

func mapTeam(t teamDTO) usecase.ExternalTeam {
	return usecase.ExternalTeam{
		NativeID:  t.ID,
		Name:      strings.TrimSpace(t.Name),
		ShortName: strings.TrimSpace(t.ShortName),
		TLA:       strings.TrimSpace(t.TLA),
		CrestURL:  strings.TrimSpace(t.Crest),
		Founded:   t.Founded,
		Area:      mapArea(t.Area),
		VenueName: strings.TrimSpace(t.Venue),
	}
}

func mapScore(s scorePairDTO) fixture.Score {
	return fixture.Score{Home: s.Home, Away: s.Away}
}

func mapOptionalScore(s *scorePairDTO) fixture.Score {
	if s == nil {
		return fixture.Score{}
	}
	return mapScore(*s)
}

// mapMatch converts one match. The API's full-time score already includes
// extra time and shootout goals when regular time is reported separately, so
// regular time wins when present.
func mapMatch(m matchDTO, competitionID int64, fallbackYear int, raw []byte) (usecase.ExternalFixture, bool) {
	kickoff, err := time.Parse(time.RFC3339, strings.TrimSpace(m.UTCDate))
	if err != nil || m.ID <= 0 {
		return usecase.ExternalFixture{}, false
	}

	year, ok := seasonYear(m.Season)
	if !ok {
		year = fallbackYear
	}
	if m.Competition.ID > 0 {
		competitionID = m.Competition.ID
	}

	fullTime := mapScore(m.Score.FullTime)
	if m.Score.RegularTime != nil {
		fullTime = mapScore(*m.Score.RegularTime)
	}

	out := usecase.ExternalFixture{
		NativeID:            m.ID,
		CompetitionNativeID: competitionID,
		SeasonYear:          year,
		UTCDate:             kickoff.UTC(),
		StatusShort:         statusCode(m.Status, m.Score.Duration),
		Matchday:            m.Matchday,
		Stage:               strings.TrimSpace(m.Stage),
		Home:                usecase.ExternalTeamRef{NativeID: m.HomeTeam.ID, Name: strings.TrimSpace(m.HomeTeam.Name)},
		Away:                usecase.ExternalTeamRef{NativeID: m.AwayTeam.ID, Name: strings.TrimSpace(m.AwayTeam.Name)},
		HalfTime:            mapScore(m.Score.HalfTime),
		FullTime:            fullTime,
		ExtraTime:           mapOptionalScore(m.Score.ExtraTime),
		Penalties:           mapOptionalScore(m.Score.Penalties),
		Raw:                 raw,
	}
	if m.Group != nil {
		out.Round = strings.TrimSpace(*m.Group)
	}
	return out, true
}

func mapStandings(lists []standingListDTO) []usecase.ExternalStandingList {
	out := make([]usecase.ExternalStandingList, 0, len(lists))
	for _, list := range lists {
		item := usecase.ExternalStandingList{
			Stage: strings.TrimSpace(list.Stage),
			Type:  strings.TrimSpace(list.Type),
			Rows:  make([]usecase.ExternalStandingRow, 0, len(list.Table)),
		}
		if list.Group != nil {
			item.Group = strings.TrimSpace(*list.Group)
		}
		for _, row := range list.Table {
			if row.Team.ID <= 0 || row.Position <= 0 {
				continue
			}
			form := ""
			if row.Form != nil {
				form = strings.ReplaceAll(*row.Form, ",", "")
			}
			item.Rows = append(item.Rows, usecase.ExternalStandingRow{
				Team:           usecase.ExternalTeamRef{NativeID: row.Team.ID, Name: strings.TrimSpace(row.Team.Name)},
				Rank:           row.Position,
				Points:         row.Points,
				Played:         row.PlayedGames,
				Won:            row.Won,
				Draw:           row.Draw,
				Lost:           row.Lost,
				GoalsFor:       row.GoalsFor,
				GoalsAgainst:   row.GoalsAgainst,
				GoalDifference: row.GoalDifference,
				Form:           form,
			})
		}
		out = append(out, item)
	}
	return out
}
