package apifootball

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	sonic "github.com/bytedance/sonic"
)

// envelope is the wrapper every endpoint answers with. Errors is an empty
// array on success and an object keyed by problem otherwise.
type envelope struct {
	Errors  json.RawMessage `json:"errors"`
	Results int             `json:"results"`
	Paging  struct {
		Current int `json:"current"`
		Total   int `json:"total"`
	} `json:"paging"`
}

func (e envelope) problems() map[string]string {
	raw := bytes.TrimSpace(e.Errors)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var fields map[string]any
	if err := sonic.Unmarshal(raw, &fields); err != nil {
		return map[string]string{"decode": err.Error()}
	}
	out := make(map[string]string, len(fields))
	for key, value := range fields {
		text := strings.TrimSpace(fmt.Sprint(value))
		if text != "" {
			out[key] = text
		}
	}
	return out
}

func formatProblems(problems map[string]string) string {
	keys := make([]string, 0, len(problems))
	for key := range problems {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+problems[key])
	}
	return strings.Join(parts, "; ")
}

type countryDTO struct {
	Name string  `json:"name"`
	Code *string `json:"code"`
	Flag *string `json:"flag"`
}

type leagueSeasonDTO struct {
	Year    int    `json:"year"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Current bool   `json:"current"`
}

type leagueItemDTO struct {
	League struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
		Logo string `json:"logo"`
	} `json:"league"`
	Country countryDTO        `json:"country"`
	Seasons []leagueSeasonDTO `json:"seasons"`
}

type leaguesResponse struct {
	Response []leagueItemDTO `json:"response"`
}

type venueDTO struct {
	ID       *int64  `json:"id"`
	Name     *string `json:"name"`
	City     *string `json:"city"`
	Capacity *int    `json:"capacity"`
	Surface  *string `json:"surface"`
}

type teamItemDTO struct {
	Team struct {
		ID      int64   `json:"id"`
		Name    string  `json:"name"`
		Code    *string `json:"code"`
		Country *string `json:"country"`
		Founded *int    `json:"founded"`
		Logo    string  `json:"logo"`
	} `json:"team"`
	Venue venueDTO `json:"venue"`
}

type teamsResponse struct {
	Response []teamItemDTO `json:"response"`
}

type goalsDTO struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type fixtureLeagueDTO struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Logo    string  `json:"logo"`
	Flag    *string `json:"flag"`
	Season  int     `json:"season"`
	Round   string  `json:"round"`
}

type fixtureTeamDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type fixtureItemDTO struct {
	Fixture struct {
		ID     int64    `json:"id"`
		Date   string   `json:"date"`
		Venue  venueDTO `json:"venue"`
		Status struct {
			Long  string `json:"long"`
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League fixtureLeagueDTO `json:"league"`
	Teams  struct {
		Home fixtureTeamDTO `json:"home"`
		Away fixtureTeamDTO `json:"away"`
	} `json:"teams"`
	Goals goalsDTO `json:"goals"`
	Score struct {
		HalfTime  goalsDTO `json:"halftime"`
		FullTime  goalsDTO `json:"fulltime"`
		ExtraTime goalsDTO `json:"extratime"`
		Penalty   goalsDTO `json:"penalty"`
	} `json:"score"`
}

// fixturesResponse keeps each fixture verbatim for the stored raw record.
type fixturesResponse struct {
	Response []json.RawMessage `json:"response"`
}

type standingRowDTO struct {
	Rank int `json:"rank"`
	Team struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
	Points    int     `json:"points"`
	GoalsDiff int     `json:"goalsDiff"`
	Group     string  `json:"group"`
	Form      *string `json:"form"`
	All       struct {
		Played int `json:"played"`
		Win    int `json:"win"`
		Draw   int `json:"draw"`
		Lose   int `json:"lose"`
		Goals  struct {
			For     int `json:"for"`
			Against int `json:"against"`
		} `json:"goals"`
	} `json:"all"`
}

type standingsResponse struct {
	Response []struct {
		League struct {
			ID        int64              `json:"id"`
			Season    int                `json:"season"`
			Standings [][]standingRowDTO `json:"standings"`
		} `json:"league"`
	} `json:"response"`
}
