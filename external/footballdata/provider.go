package footballdata

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
	_ usecase.WindowProvider  = (*Client)(nil)
)

func (c *Client) Source() progress.TaskType {
	return progress.TaskFootballData
}

// Discover lists the configured competitions together with every season the
// API knows for them.
func (c *Client) Discover(ctx context.Context) ([]usecase.ExternalCompetition, []rawdata.Payload, error) {
	raw, err := c.get(ctx, "/competitions", nil)
	if err != nil {
		return nil, nil, fmt.Errorf("list competitions: %w", err)
	}
	var envelope competitionsEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, fmt.Errorf("decode competitions: %w", err)
	}

	payloads := []rawdata.Payload{c.payload("competitions", "all", raw)}
	out := make([]usecase.ExternalCompetition, 0, len(c.competitions))
	for _, item := range envelope.Competitions {
		code := strings.ToUpper(strings.TrimSpace(item.Code))
		if len(c.competitions) > 0 && !c.competitions[code] {
			continue
		}

		detail, detailRaw, err := c.competition(ctx, code)
		switch {
		case err == nil:
			item.Seasons = detail.Seasons
			payloads = append(payloads, c.payload("competition", code, detailRaw))
		case ctx.Err() != nil:
			return nil, nil, ctx.Err()
		default:
			c.logger.WarnContext(ctx, "competition detail unavailable, using current season only", "code", code, "error", err)
		}
		out = append(out, mapCompetition(item))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].NativeID < out[j].NativeID })
	return out, payloads, nil
}

// FetchSeason loads teams and matches of one competition season, plus the
// standings when asked.
func (c *Client) FetchSeason(ctx context.Context, ref string, season int, withStandings bool) (usecase.SeasonBundle, error) {
	code := strings.ToUpper(strings.TrimSpace(ref))
	if code == "" || season <= 0 {
		return usecase.SeasonBundle{}, crerr.Wrapf(usecase.ErrInvalidInput, "competition %q season %d", ref, season)
	}

	detail, detailRaw, err := c.competition(ctx, code)
	if err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("fetch competition %s: %w", code, err)
	}
	bundle := usecase.SeasonBundle{
		Source:      progress.TaskFootballData,
		Competition: mapCompetition(detail),
		SeasonYear:  season,
		RawPayloads: []rawdata.Payload{c.payload("competition", code, detailRaw)},
	}
	entityKey := code + ":" + strconv.Itoa(season)
	query := url.Values{"season": {strconv.Itoa(season)}}

	raw, err := c.get(ctx, "/competitions/"+code+"/teams", query)
	if err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("fetch teams %s: %w", entityKey, err)
	}
	var teams teamsEnvelope
	if err := sonic.Unmarshal(raw, &teams); err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("decode teams %s: %w", entityKey, err)
	}
	for _, t := range teams.Teams {
		if t.ID > 0 {
			bundle.Teams = append(bundle.Teams, mapTeam(t))
		}
	}
	bundle.RawPayloads = append(bundle.RawPayloads, c.payload("teams", entityKey, raw))

	fixtures, raw, err := c.matches(ctx, code, query, detail.ID, season)
	if err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("fetch matches %s: %w", entityKey, err)
	}
	bundle.Fixtures = fixtures
	bundle.RawPayloads = append(bundle.RawPayloads, c.payload("matches", entityKey, raw))

	if !withStandings {
		return bundle, nil
	}
	raw, err = c.get(ctx, "/competitions/"+code+"/standings", query)
	if err != nil {
		if crerr.Is(err, usecase.ErrNotFound) {
			c.logger.InfoContext(ctx, "no standings for season", "code", code, "season", season)
			return bundle, nil
		}
		return usecase.SeasonBundle{}, fmt.Errorf("fetch standings %s: %w", entityKey, err)
	}
	var standings standingsEnvelope
	if err := sonic.Unmarshal(raw, &standings); err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("decode standings %s: %w", entityKey, err)
	}
	bundle.Standings = mapStandings(standings.Standings)
	bundle.RawPayloads = append(bundle.RawPayloads, c.payload("standings", entityKey, raw))
	return bundle, nil
}

// FetchWindow loads the matches of one competition between two dates,
// inclusive.
func (c *Client) FetchWindow(ctx context.Context, ref string, from, to time.Time) (usecase.SeasonBundle, error) {
	code := strings.ToUpper(strings.TrimSpace(ref))
	if code == "" || to.Before(from) {
		return usecase.SeasonBundle{}, crerr.Wrapf(usecase.ErrInvalidInput, "competition %q window %s..%s", ref, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	detail, _, err := c.competition(ctx, code)
	if err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("fetch competition %s: %w", code, err)
	}
	comp := mapCompetition(detail)
	year := 0
	if comp.CurrentSeasonYear != nil {
		year = *comp.CurrentSeasonYear
	}

	window := from.UTC().Format(time.DateOnly) + ".." + to.UTC().Format(time.DateOnly)
	query := url.Values{
		"dateFrom": {from.UTC().Format(time.DateOnly)},
		"dateTo":   {to.UTC().Format(time.DateOnly)},
	}
	fixtures, raw, err := c.matches(ctx, code, query, detail.ID, year)
	if err != nil {
		return usecase.SeasonBundle{}, fmt.Errorf("fetch matches %s %s: %w", code, window, err)
	}
	if year == 0 && len(fixtures) > 0 {
		year = fixtures[0].SeasonYear
	}

	return usecase.SeasonBundle{
		Source:      progress.TaskFootballData,
		Competition: comp,
		SeasonYear:  year,
		Fixtures:    fixtures,
		RawPayloads: []rawdata.Payload{c.payload("matches", code+":"+window, raw)},
	}, nil
}

func (c *Client) matches(ctx context.Context, code string, query url.Values, competitionID int64, season int) ([]usecase.ExternalFixture, []byte, error) {
	raw, err := c.get(ctx, "/competitions/"+code+"/matches", query)
	if err != nil {
		return nil, nil, err
	}
	var envelope matchesEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, fmt.Errorf("decode matches: %w", err)
	}

	out := make([]usecase.ExternalFixture, 0, len(envelope.Matches))
	for _, item := range envelope.Matches {
		var m matchDTO
		if err := sonic.Unmarshal(item, &m); err != nil {
			c.logger.WarnContext(ctx, "skip undecodable match", "code", code, "error", err)
			continue
		}
		f, ok := mapMatch(m, competitionID, season, item)
		if !ok {
			c.logger.WarnContext(ctx, "skip malformed match", "code", code, "match_id", m.ID)
			continue
		}
		out = append(out, f)
	}
	return out, raw, nil
}

// competition returns the competition detail, cached for a few hours since
// it changes at most once per season.
func (c *Client) competition(ctx context.Context, code string) (competitionDTO, []byte, error) {
	now := c.now()
	c.compMu.Lock()
	cached, ok := c.compCache[code]
	c.compMu.Unlock()
	if ok && now.Sub(cached.fetchedAt) < competitionCacheTTL {
		return cached.item, cached.raw, nil
	}

	raw, err := c.get(ctx, "/competitions/"+code, nil)
	if err != nil {
		return competitionDTO{}, nil, err
	}
	var item competitionDTO
	if err := sonic.Unmarshal(raw, &item); err != nil {
		return competitionDTO{}, nil, fmt.Errorf("decode competition %s: %w", code, err)
	}

	c.compMu.Lock()
	c.compCache[code] = cachedCompetition{item: item, raw: raw, fetchedAt: now}
	c.compMu.Unlock()
	return item, raw, nil
}

func (c *Client) payload(entityType, entityKey string, raw []byte) rawdata.Payload {
	return rawdata.NewPayload(providerName, entityType, entityKey, raw, c.now().UTC())
}
