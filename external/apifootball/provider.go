package apifootball

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/domain/rawdata"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

var (
	_ usecase.CatalogProvider = (*Client)(nil)
	_ usecase.DateProvider    = (*Client)(nil)
)

func (c *Client) Source() progress.TaskType {
	return progress.TaskAPIFootball
}

// Discover lists the tracked leagues with their seasons in one call.
func (c *Client) Discover(ctx context.Context) ([]usecase.ExternalCompetition, []rawdata.Payload, error) {
	raw, err := c.get(ctx, "/leagues", nil)
	if err != nil {
		return nil, nil, fmt.Errorf("list leagues: %w", err)
	}
	var resp leaguesResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, nil, fmt.Errorf("decode leagues: %w", err)
	}

	out := make([]usecase.ExternalCompetition, 0, len(c.leagues))
	for _, item := range resp.Response {
		if item.League.ID <= 0 || (len(c.leagues) > 0 && !c.leagues[item.League.ID]) {
			continue
		}
		comp := mapLeague(item)
		c.rememberLeague(comp)
		out = append(out, comp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NativeID < out[j].NativeID })
	return out, []rawdata.Payload{c.payload("leagues", "all", raw)}, nil
}

// FetchSeason loads teams and fixtures of one league season, plus the
// standings when asked. ref is the native league ID.
func (c *Client) FetchSeason(ctx context.Context, ref string, season int, withStandings bool) (usecase.SeasonBundle, error) {
	leagueID, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	if err != nil || leagueID <= 0 || season <= 0 {
		return usecase.SeasonBundle{}, crerr.Wrapf(usecase.ErrInvalidInput, "league %q season %d", ref, season)
	}

	entityKey := strconv.FormatInt(leagueID, 10) + ":" + strconv.Itoa(season)
	query := url.Values{
		"league": {strconv.FormatInt(leagueID, 10)},
		"season": {strconv.Itoa(season)},
	}
	bundle := usecase.SeasonBundle{
		Source:      progress.TaskAPIFootball,
		Competition: c.league(leagueID),
		SeasonYear:  season,
	}

	raw, err := c.get(ctx, "/teams", query)
	if err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("fetch teams %s: %w", entityKey, err)
	}
	var teams teamsResponse
	if err := sonic.Unmarshal(raw, &teams); err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("decode teams %s: %w", entityKey, err)
	}
	for _, item := range teams.Response {
		if item.Team.ID > 0 {
			bundle.Teams = append(bundle.Teams, mapTeam(item))
		}
	}
	bundle.RawPayloads = append(bundle.RawPayloads, c.payload("teams", entityKey, raw))

	raw, err = c.get(ctx, "/fixtures", query)
	if err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("fetch fixtures %s: %w", entityKey, err)
	}
	fixtures, err := c.decodeFixtures(ctx, raw)
	if err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("decode fixtures %s: %w", entityKey, err)
	}
	bundle.Fixtures = fixtures
	bundle.RawPayloads = append(bundle.RawPayloads, c.payload("fixtures", entityKey, raw))
	if bundle.Competition.Name == "" && len(fixtures) > 0 {
		bundle.Competition = c.leagueFromFixture(ctx, raw, leagueID)
	}

	if !withStandings {
		return bundle, nil
	}
	raw, err = c.get(ctx, "/standings", query)
	if err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("fetch standings %s: %w", entityKey, err)
	}
	var standings standingsResponse
	if err := sonic.Unmarshal(raw, &standings); err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("decode standings %s: %w", entityKey, err)
	}
	for _, item := range standings.Response {
		bundle.Standings = append(bundle.Standings, mapStandings(item.League.Standings)...)
	}
	bundle.RawPayloads = append(bundle.RawPayloads, c.payload("standings", entityKey, raw))
	return bundle, nil
}

// FetchDate loads every fixture on day and groups it by league, in league ID
// order.
func (c *Client) FetchDate(ctx context.Context, day time.Time) ([]usecase.SeasonBundle, error) {
	date := day.UTC().Format(time.DateOnly)
	raw, err := c.get(ctx, "/fixtures", url.Values{"date": {date}, "timezone": {"UTC"}})
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures date=%s: %w", date, err)
	}

	var resp fixturesResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode fixtures date=%s: %w", date, err)
	}

	byLeague := make(map[int64]*usecase.SeasonBundle)
	for _, item := range resp.Response {
		var dto fixtureItemDTO
		if err := sonic.Unmarshal(item, &dto); err != nil {
			c.logger.WarnContext(ctx, "skip undecodable fixture", "date", date, "error", err)
			continue
		}
		f, ok := mapFixture(dto, item)
		if !ok {
			c.logger.WarnContext(ctx, "skip malformed fixture", "date", date, "fixture_id", dto.Fixture.ID)
			continue
		}

		bundle, ok := byLeague[f.CompetitionNativeID]
		if !ok {
			comp := c.league(f.CompetitionNativeID)
			if comp.Name == "" {
				comp = competitionFromFixture(dto.League)
			}
			bundle = &usecase.SeasonBundle{
				Source:      progress.TaskAPIFootball,
				Competition: comp,
				SeasonYear:  f.SeasonYear,
			}
			byLeague[f.CompetitionNativeID] = bundle
		}
		bundle.Fixtures = append(bundle.Fixtures, f)
	}

	ids := make([]int64, 0, len(byLeague))
	for id := range byLeague {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]usecase.SeasonBundle, 0, len(ids))
	for i, id := range ids {
		bundle := *byLeague[id]
		if i == 0 {
			// The day snapshot is stored once, with the first league.
			bundle.RawPayloads = []rawdata.Payload{c.payload("fixtures_by_date", date, raw)}
		}
		out = append(out, bundle)
	}
	return out, nil
}

func (c *Client) decodeFixtures(ctx context.Context, raw []byte) ([]usecase.ExternalFixture, error) {
	var resp fixturesResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	out := make([]usecase.ExternalFixture, 0, len(resp.Response))
	for _, item := range resp.Response {
		var dto fixtureItemDTO
		if err := sonic.Unmarshal(item, &dto); err != nil {
			c.logger.WarnContext(ctx, "skip undecodable fixture", "error", err)
			continue
		}
		f, ok := mapFixture(dto, item)
		if !ok {
			c.logger.WarnContext(ctx, "skip malformed fixture", "fixture_id", dto.Fixture.ID)
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// leagueFromFixture recovers league details from the first fixture when the
// league was never discovered by this process.
func (c *Client) leagueFromFixture(ctx context.Context, raw []byte, leagueID int64) usecase.ExternalCompetition {
	var resp fixturesResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil || len(resp.Response) == 0 {
		return usecase.ExternalCompetition{NativeID: leagueID}
	}
	var dto fixtureItemDTO
	if err := sonic.Unmarshal(resp.Response[0], &dto); err != nil {
		c.logger.WarnContext(ctx, "league details unavailable", "league", leagueID, "error", err)
		return usecase.ExternalCompetition{NativeID: leagueID}
	}
	return competitionFromFixture(dto.League)
}

func competitionFromFixture(l fixtureLeagueDTO) usecase.ExternalCompetition {
	return usecase.ExternalCompetition{
		NativeID:  l.ID,
		Name:      strings.TrimSpace(l.Name),
		EmblemURL: strings.TrimSpace(l.Logo),
		Area: usecase.ExternalArea{
			Name:    strings.TrimSpace(l.Country),
			FlagURL: strings.TrimSpace(deref(l.Flag)),
		},
	}
}

func (c *Client) rememberLeague(comp usecase.ExternalCompetition) {
	c.leagueMu.Lock()
	c.leagueCache[comp.NativeID] = comp
	c.leagueMu.Unlock()
}

func (c *Client) league(id int64) usecase.ExternalCompetition {
	c.leagueMu.Lock()
	defer c.leagueMu.Unlock()
	if comp, ok := c.leagueCache[id]; ok {
		return comp
	}
	return usecase.ExternalCompetition{NativeID: id}
}

func (c *Client) payload(entityType, entityKey string, raw []byte) rawdata.Payload {
	return rawdata.NewPayload(providerName, entityType, entityKey, raw, c.now().UTC())
}
