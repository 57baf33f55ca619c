package usecase_test

import (
	"testing"
	"time"

	"github.com/riskibarqy/football-sync/internal/domain/fixture"
	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/identity"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

var england = usecase.ExternalArea{Name: "England", Code: "ENG"}

func newTestMapper(t *testing.T) *identity.Mapper {
	t.Helper()

	mapper, err := identity.NewMapper(identity.DefaultOffset, identity.DefaultAliases())
	if err != nil {
		t.Fatalf("new mapper: %v", err)
	}
	return mapper
}

func newTestSync(t *testing.T) *usecase.SyncService {
	t.Helper()
	return usecase.NewSyncService(newTestMapper(t), logging.NewNop())
}

func premierLeagueA(seasons ...int) usecase.ExternalCompetition {
	current := 2024
	return usecase.ExternalCompetition{
		NativeID:          2021,
		Code:              "PL",
		Name:              "Premier League",
		Type:              "LEAGUE",
		Area:              england,
		CurrentSeasonYear: &current,
		Seasons:           seasons,
	}
}

func premierLeagueB() usecase.ExternalCompetition {
	current := 2024
	return usecase.ExternalCompetition{
		NativeID:          39,
		Name:              "Premier League",
		Type:              "League",
		Area:              england,
		CurrentSeasonYear: &current,
	}
}

func played(nativeID, home, away int64, homeGoals, awayGoals int, at time.Time) usecase.ExternalFixture {
	return usecase.ExternalFixture{
		NativeID:    nativeID,
		UTCDate:     at,
		StatusShort: "FT",
		Home:        usecase.ExternalTeamRef{NativeID: home},
		Away:        usecase.ExternalTeamRef{NativeID: away},
		FullTime:    fixture.Score{Home: fixture.IntPtr(homeGoals), Away: fixture.IntPtr(awayGoals)},
	}
}

func upcoming(nativeID, home, away int64, at time.Time) usecase.ExternalFixture {
	return usecase.ExternalFixture{
		NativeID:    nativeID,
		UTCDate:     at,
		StatusShort: "NS",
		Home:        usecase.ExternalTeamRef{NativeID: home},
		Away:        usecase.ExternalTeamRef{NativeID: away},
	}
}

func bundleA(seasonYear int, fixtures ...usecase.ExternalFixture) usecase.SeasonBundle {
	return usecase.SeasonBundle{
		Source:      progress.TaskFootballData,
		Competition: premierLeagueA(),
		SeasonYear:  seasonYear,
		Teams: []usecase.ExternalTeam{
			{NativeID: 57, Name: "Arsenal FC", ShortName: "Arsenal", TLA: "ARS", Area: england, VenueName: "Emirates Stadium"},
			{NativeID: 61, Name: "Chelsea FC", ShortName: "Chelsea", TLA: "CHE", Area: england},
		},
		Fixtures: fixtures,
	}
}
