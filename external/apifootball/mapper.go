package apifootball

import (
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/football-sync/internal/domain/fixture"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

func mapLeague(item leagueItemDTO) usecase.ExternalCompetition {
	out := usecase.ExternalCompetition{
		NativeID:  item.League.ID,
		Name:      strings.TrimSpace(item.League.Name),
		Type:      strings.ToUpper(strings.TrimSpace(item.League.Type)),
		EmblemURL: strings.TrimSpace(item.League.Logo),
		Area: usecase.ExternalArea{
			Name:    strings.TrimSpace(item.Country.Name),
			Code:    strings.TrimSpace(deref(item.Country.Code)),
			FlagURL: strings.TrimSpace(deref(item.Country.Flag)),
		},
	}
	for _, s := range item.Seasons {
		if s.Year <= 0 {
			continue
		}
		out.Seasons = append(out.Seasons, s.Year)
		if s.Current {
			year := s.Year
			out.CurrentSeasonYear = &year
		}
	}
	return out
}

func mapVenue(v venueDTO) *usecase.ExternalVenue {
	id := deref(v.ID)
	name := strings.TrimSpace(deref(v.Name))
	if id <= 0 || name == "" {
		return nil
	}
	return &usecase.ExternalVenue{
		NativeID: id,
		Name:     name,
		City:     strings.TrimSpace(deref(v.City)),
		Capacity: v.Capacity,
		Surface:  strings.TrimSpace(deref(v.Surface)),
	}
}

func mapTeam(item teamItemDTO) usecase.ExternalTeam {
	out := usecase.ExternalTeam{
		NativeID: item.Team.ID,
		Name:     strings.TrimSpace(item.Team.Name),
		TLA:      strings.TrimSpace(deref(item.Team.Code)),
		CrestURL: strings.TrimSpace(item.Team.Logo),
		Founded:  item.Team.Founded,
		Area:     usecase.ExternalArea{Name: strings.TrimSpace(deref(item.Team.Country))},
		Venue:    mapVenue(item.Venue),
	}
	if out.Venue != nil {
		out.VenueName = out.Venue.Name
	}
	return out
}

// splitRound turns "Regular Season - 12" into a stage and a matchday.
func splitRound(round string) (string, *int) {
	round = strings.TrimSpace(round)
	stage, last, found := strings.Cut(round, " - ")
	if !found {
		return round, nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(last)); err == nil && n > 0 {
		return strings.TrimSpace(stage), &n
	}
	return strings.TrimSpace(stage), nil
}

func mapGoals(g goalsDTO) fixture.Score {
	return fixture.Score{Home: g.Home, Away: g.Away}
}

// mapFixture converts one fixture. While a match runs the full-time score is
// still empty, so the running goals stand in for it.
func mapFixture(item fixtureItemDTO, raw []byte) (usecase.ExternalFixture, bool) {
	kickoff, err := time.Parse(time.RFC3339, strings.TrimSpace(item.Fixture.Date))
	if err != nil || item.Fixture.ID <= 0 || item.League.ID <= 0 {
		return usecase.ExternalFixture{}, false
	}

	fullTime := mapGoals(item.Score.FullTime)
	if !fullTime.Known() && fixture.LookupStatus(item.Fixture.Status.Short).Category == fixture.CategoryInPlay {
		fullTime = mapGoals(item.Goals)
	}

	stage, matchday := splitRound(item.League.Round)
	return usecase.ExternalFixture{
		NativeID:            item.Fixture.ID,
		CompetitionNativeID: item.League.ID,
		SeasonYear:          item.League.Season,
		UTCDate:             kickoff.UTC(),
		StatusShort:         strings.ToUpper(strings.TrimSpace(item.Fixture.Status.Short)),
		Matchday:            matchday,
		Stage:               stage,
		Round:               strings.TrimSpace(item.League.Round),
		Home:                usecase.ExternalTeamRef{NativeID: item.Teams.Home.ID, Name: strings.TrimSpace(item.Teams.Home.Name)},
		Away:                usecase.ExternalTeamRef{NativeID: item.Teams.Away.ID, Name: strings.TrimSpace(item.Teams.Away.Name)},
		Venue:               mapVenue(item.Fixture.Venue),
		HalfTime:            mapGoals(item.Score.HalfTime),
		FullTime:            fullTime,
		ExtraTime:           mapGoals(item.Score.ExtraTime),
		Penalties:           mapGoals(item.Score.Penalty),
		Raw:                 raw,
	}, true
}

// mapStandings flattens the nested group tables. A single table is the
// regular season; several tables are groups.
func mapStandings(groups [][]standingRowDTO) []usecase.ExternalStandingList {
	stage := "REGULAR_SEASON"
	if len(groups) > 1 {
		stage = "GROUP_STAGE"
	}

	out := make([]usecase.ExternalStandingList, 0, len(groups))
	for _, rows := range groups {
		list := usecase.ExternalStandingList{Stage: stage, Type: "TOTAL"}
		if len(rows) > 0 && len(groups) > 1 {
			list.Group = strings.TrimSpace(rows[0].Group)
		}
		for _, row := range rows {
			if row.Team.ID <= 0 || row.Rank <= 0 {
				continue
			}
			list.Rows = append(list.Rows, usecase.ExternalStandingRow{
				Team:           usecase.ExternalTeamRef{NativeID: row.Team.ID, Name: strings.TrimSpace(row.Team.Name)},
				Rank:           row.Rank,
				Points:         row.Points,
				Played:         row.All.Played,
				Won:            row.All.Win,
				Draw:           row.All.Draw,
				Lost:           row.All.Lose,
				GoalsFor:       row.All.Goals.For,
				GoalsAgainst:   row.All.Goals.Against,
				GoalDifference: row.GoalsDiff,
				Form:           strings.TrimSpace(deref(row.Form)),
			})
		}
		out = append(out, list)
	}
	return out
}
