package usecase

import (
	"context"
	"strconv"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/football-sync/internal/domain/area"
	"github.com/riskibarqy/football-sync/internal/domain/competition"
	"github.com/riskibarqy/football-sync/internal/domain/fixture"
	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/domain/standing"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	"github.com/riskibarqy/football-sync/internal/domain/venue"
	"github.com/riskibarqy/football-sync/internal/identity"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/metrics"
)

// SyncService turns typed provider bundles into rows and writes them in
// dependency order: areas, competitions, venues, teams, seasons, fixtures,
// standings.
type SyncService struct {
	mapper   *identity.Mapper
	validate *validator.Validate
	logger   *logging.Logger
}

func NewSyncService(mapper *identity.Mapper, logger *logging.Logger) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		mapper:   mapper,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Component("sync"),
	}
}

type ApplyResult struct {
	CompetitionID     int64
	Venues            int
	Teams             int
	Fixtures          int
	StandingRows      int
	Skipped           int
	ChangedFixtureIDs []int64
	// ChangedLiveIDs is the subset of changed fixtures in a scheduled,
	// in-play or finished status.
	ChangedLiveIDs []int64
}

// DiscoveredCompetition is a persisted competition plus what the backfill
// needs to register its tasks.
type DiscoveredCompetition struct {
	ID                int64
	Ref               string
	Seasons           []int
	CurrentSeasonYear *int
}

// ApplyCompetitions persists competitions and their areas from a discovery
// call.
func (s *SyncService) ApplyCompetitions(ctx context.Context, w SyncWriter, source progress.TaskType, items []ExternalCompetition) ([]DiscoveredCompetition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.ApplyCompetitions", attribute.String("source", string(source)))
	var err error
	defer func() { endSpan(span, err) }()

	r := newRefResolver(w)
	var full, links []competition.Competition
	out := make([]DiscoveredCompetition, 0, len(items))
	for _, item := range items {
		comp, linkOnly, resolveErr := s.resolveCompetition(ctx, r, source, item)
		if resolveErr != nil {
			if isMalformed(resolveErr) {
				s.logger.WarnContext(ctx, "skip malformed competition", "source", source, "native_id", item.NativeID, "error", resolveErr)
				continue
			}
			err = resolveErr
			return nil, err
		}
		if linkOnly {
			links = append(links, comp)
		} else {
			full = append(full, comp)
		}
		out = append(out, DiscoveredCompetition{
			ID:                comp.ID,
			Ref:               competitionRef(source, item),
			Seasons:           season.Dedupe(item.Seasons),
			CurrentSeasonYear: item.CurrentSeasonYear,
		})
	}

	if len(full) > 0 {
		if _, err = w.UpsertCompetitions(ctx, full); err != nil {
			return nil, err
		}
	}
	if len(links) > 0 {
		if err = w.LinkCompetitionAliases(ctx, links); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Apply writes one bundle. The caller owns the transaction.
func (s *SyncService) Apply(ctx context.Context, w SyncWriter, b SeasonBundle) (ApplyResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Apply",
		attribute.String("source", string(b.Source)),
		attribute.Int64("competition_native_id", b.Competition.NativeID),
		attribute.Int("season_year", b.SeasonYear),
	)
	var (
		result ApplyResult
		err    error
	)
	defer func() { endSpan(span, err) }()

	r := newRefResolver(w)
	comp, linkOnly, err := s.resolveCompetition(ctx, r, b.Source, b.Competition)
	if err != nil {
		return result, err
	}
	if linkOnly {
		err = w.LinkCompetitionAliases(ctx, []competition.Competition{comp})
	} else {
		_, err = w.UpsertCompetitions(ctx, []competition.Competition{comp})
	}
	if err != nil {
		return result, err
	}
	result.CompetitionID = comp.ID

	venueIDs, err := s.applyVenues(ctx, w, b, &result)
	if err != nil {
		return result, err
	}
	teamIDs, err := s.applyTeams(ctx, w, r, b, venueIDs, &result)
	if err != nil {
		return result, err
	}

	years := []int{b.SeasonYear}
	for _, f := range b.Fixtures {
		years = append(years, f.SeasonYear)
	}
	if years = season.Dedupe(years); len(years) > 0 {
		if err = w.UpsertSeasons(ctx, years); err != nil {
			return result, err
		}
	}

	if err = s.applyFixtures(ctx, w, b, comp.ID, teamIDs, venueIDs, &result); err != nil {
		return result, err
	}
	if err = s.applyStandings(ctx, w, b, comp.ID, teamIDs, &result); err != nil {
		return result, err
	}
	if len(b.RawPayloads) > 0 {
		if err = w.UpsertRawPayloads(ctx, b.RawPayloads); err != nil {
			return result, err
		}
	}

	metrics.RowsSkippedTotal.WithLabelValues("bundle").Add(float64(result.Skipped))
	return result, nil
}

func (s *SyncService) resolveCompetition(ctx context.Context, r *refResolver, source progress.TaskType, item ExternalCompetition) (competition.Competition, bool, error) {
	switch source {
	case progress.TaskFootballData:
		id, err := s.mapper.Primary(item.NativeID)
		if err != nil {
			return competition.Competition{}, false, err
		}
		areaID, err := r.area(ctx, item.Area)
		if err != nil {
			return competition.Competition{}, false, err
		}
		comp := competition.Competition{
			ID:                id,
			AreaID:            areaID,
			Name:              item.Name,
			Code:              item.Code,
			Type:              item.Type,
			EmblemURL:         item.EmblemURL,
			CurrentSeasonYear: item.CurrentSeasonYear,
			Source:            string(source),
		}
		if alias, ok := s.mapper.AliasForPrimary(id); ok {
			comp.SecondaryID = int64Ptr(alias.SecondaryID)
		}
		return comp, false, s.validRow(comp)

	case progress.TaskAPIFootball:
		id, aliased, err := s.mapper.Competition(item.NativeID)
		if err != nil {
			return competition.Competition{}, false, err
		}
		if aliased {
			alias, _ := s.mapper.AliasForSecondary(item.NativeID)
			areaID, err := r.area(ctx, ExternalArea{Name: alias.Country})
			if err != nil {
				return competition.Competition{}, false, err
			}
			comp := competition.Competition{
				ID:                id,
				AreaID:            areaID,
				Name:              alias.Name,
				Code:              alias.Code,
				Type:              item.Type,
				EmblemURL:         item.EmblemURL,
				SecondaryID:       int64Ptr(item.NativeID),
				CurrentSeasonYear: item.CurrentSeasonYear,
				Source:            string(progress.TaskFootballData),
			}
			return comp, true, s.validRow(comp)
		}

		areaID, err := r.area(ctx, item.Area)
		if err != nil {
			return competition.Competition{}, false, err
		}
		comp := competition.Competition{
			ID:                id,
			AreaID:            areaID,
			Name:              item.Name,
			Code:              item.Code,
			Type:              item.Type,
			EmblemURL:         item.EmblemURL,
			SecondaryID:       int64Ptr(item.NativeID),
			CurrentSeasonYear: item.CurrentSeasonYear,
			Source:            string(source),
		}
		return comp, false, s.validRow(comp)
	}
	return competition.Competition{}, false, crerr.Wrapf(ErrInvalidInput, "unknown source %q", source)
}

func (s *SyncService) applyVenues(ctx context.Context, w SyncWriter, b SeasonBundle, result *ApplyResult) (map[int64]int64, error) {
	ids := make(map[int64]int64)
	if b.Source != progress.TaskAPIFootball {
		return ids, nil
	}

	var rows []venue.Venue
	add := func(v *ExternalVenue) {
		if v == nil || v.NativeID <= 0 {
			return
		}
		if _, seen := ids[v.NativeID]; seen {
			return
		}
		id, err := s.mapper.Secondary(v.NativeID)
		if err != nil {
			return
		}
		row := venue.Venue{ID: id, Name: v.Name, City: v.City, Capacity: v.Capacity, Surface: v.Surface}
		if s.validRow(row) != nil {
			result.Skipped++
			return
		}
		ids[v.NativeID] = id
		rows = append(rows, row)
	}
	for _, t := range b.Teams {
		add(t.Venue)
	}
	for _, f := range b.Fixtures {
		add(f.Venue)
	}
	if len(rows) == 0 {
		return ids, nil
	}

	n, err := w.UpsertVenues(ctx, rows)
	if err != nil {
		return nil, err
	}
	result.Venues = n
	metrics.RowsUpsertedTotal.WithLabelValues("venue").Add(float64(n))
	return ids, nil
}

func (s *SyncService) applyTeams(ctx context.Context, w SyncWriter, r *refResolver, b SeasonBundle, venueIDs map[int64]int64, result *ApplyResult) (*teamIDMap, error) {
	ids := &teamIDMap{source: b.Source, mapper: s.mapper, known: make(map[int64]int64)}

	if b.Source == progress.TaskAPIFootball {
		natives := make([]int64, 0, len(b.Teams)+2*len(b.Fixtures))
		for _, t := range b.Teams {
			natives = append(natives, t.NativeID)
		}
		for _, f := range b.Fixtures {
			natives = append(natives, f.Home.NativeID, f.Away.NativeID)
		}
		for _, l := range b.Standings {
			for _, row := range l.Rows {
				natives = append(natives, row.Team.NativeID)
			}
		}
		linked, err := w.TeamIDsBySecondary(ctx, natives)
		if err != nil {
			return nil, err
		}
		for native, id := range linked {
			ids.known[native] = id
		}
	}

	var rows, links []team.Team
	for _, t := range b.Teams {
		if _, done := ids.known[t.NativeID]; done {
			continue
		}
		areaID, err := r.area(ctx, t.Area)
		if err != nil {
			return nil, err
		}

		if b.Source == progress.TaskAPIFootball && areaID != nil {
			existing, found, err := w.FindTeamByName(ctx, *areaID, t.Name)
			if err != nil {
				return nil, err
			}
			if found && !s.mapper.IsSecondary(existing.ID) && existing.SecondaryID == nil {
				links = append(links, team.Team{ID: existing.ID, Name: existing.Name, SecondaryID: int64Ptr(t.NativeID), Source: existing.Source})
				ids.known[t.NativeID] = existing.ID
				continue
			}
		}

		id, err := ids.resolve(t.NativeID)
		if err != nil {
			s.logger.WarnContext(ctx, "skip team with invalid id", "source", b.Source, "native_id", t.NativeID, "error", err)
			result.Skipped++
			continue
		}
		row := team.Team{
			ID:        id,
			AreaID:    areaID,
			Name:      t.Name,
			ShortName: t.ShortName,
			TLA:       t.TLA,
			CrestURL:  t.CrestURL,
			Founded:   t.Founded,
			VenueName: t.VenueName,
			Source:    string(b.Source),
		}
		if t.Venue != nil {
			if venueID, ok := venueIDs[t.Venue.NativeID]; ok {
				row.VenueID = int64Ptr(venueID)
			}
			if row.VenueName == "" {
				row.VenueName = t.Venue.Name
			}
		}
		if b.Source == progress.TaskAPIFootball {
			row.SecondaryID = int64Ptr(t.NativeID)
		}
		if err := s.validRow(row); err != nil {
			s.logger.WarnContext(ctx, "skip malformed team", "source", b.Source, "native_id", t.NativeID, "error", err)
			result.Skipped++
			continue
		}
		rows = append(rows, row)
	}

	if len(links) > 0 {
		if err := w.LinkTeamAliases(ctx, links); err != nil {
			return nil, err
		}
	}
	if len(rows) > 0 {
		n, err := w.UpsertTeams(ctx, rows)
		if err != nil {
			return nil, err
		}
		result.Teams = n
		metrics.RowsUpsertedTotal.WithLabelValues("team").Add(float64(n))
	}
	return ids, nil
}

func (s *SyncService) applyFixtures(ctx context.Context, w SyncWriter, b SeasonBundle, competitionID int64, teamIDs *teamIDMap, venueIDs map[int64]int64, result *ApplyResult) error {
	if len(b.Fixtures) == 0 {
		return nil
	}

	rows := make([]fixture.Fixture, 0, len(b.Fixtures))
	statusByID := make(map[int64]fixture.Status, len(b.Fixtures))
	for _, f := range b.Fixtures {
		row, err := s.buildFixture(b, f, competitionID, teamIDs, venueIDs)
		if err == nil {
			err = s.validRow(row)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "skip malformed fixture", "source", b.Source, "native_id", f.NativeID, "error", err)
			result.Skipped++
			continue
		}
		statusByID[row.ID] = row.Status()
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}

	changed, err := w.UpsertFixtures(ctx, rows)
	if err != nil {
		return err
	}
	result.Fixtures = len(rows)
	result.ChangedFixtureIDs = changed
	for _, id := range changed {
		if statusByID[id].LiveIsh() {
			result.ChangedLiveIDs = append(result.ChangedLiveIDs, id)
		}
	}
	metrics.RowsUpsertedTotal.WithLabelValues("fixture").Add(float64(len(changed)))
	return nil
}

func (s *SyncService) buildFixture(b SeasonBundle, f ExternalFixture, competitionID int64, teamIDs *teamIDMap, venueIDs map[int64]int64) (fixture.Fixture, error) {
	var (
		id  int64
		err error
	)
	if b.Source == progress.TaskAPIFootball {
		id, err = s.mapper.Secondary(f.NativeID)
	} else {
		id, err = s.mapper.Primary(f.NativeID)
	}
	if err != nil {
		return fixture.Fixture{}, err
	}
	homeID, err := teamIDs.resolve(f.Home.NativeID)
	if err != nil {
		return fixture.Fixture{}, crerr.Wrap(err, "home team")
	}
	awayID, err := teamIDs.resolve(f.Away.NativeID)
	if err != nil {
		return fixture.Fixture{}, crerr.Wrap(err, "away team")
	}

	seasonYear := f.SeasonYear
	if seasonYear == 0 {
		seasonYear = b.SeasonYear
	}
	status := fixture.LookupStatus(f.StatusShort)
	row := fixture.Fixture{
		ID:            id,
		CompetitionID: competitionID,
		SeasonYear:    seasonYear,
		UTCDate:       f.UTCDate.UTC(),
		StatusShort:   status.Short,
		StatusLong:    status.Long,
		Matchday:      f.Matchday,
		Stage:         f.Stage,
		Round:         f.Round,
		HomeTeamID:    homeID,
		AwayTeamID:    awayID,
		HomeTeamName:  f.Home.Name,
		AwayTeamName:  f.Away.Name,
		HalfTime:      f.HalfTime,
		FullTime:      f.FullTime,
		ExtraTime:     f.ExtraTime,
		Penalties:     f.Penalties,
		RawData:       f.Raw,
		Source:        string(b.Source),
	}
	if f.Venue != nil {
		if venueID, ok := venueIDs[f.Venue.NativeID]; ok {
			row.VenueID = int64Ptr(venueID)
		}
	}
	row.Settle()
	return row, nil
}

func (s *SyncService) applyStandings(ctx context.Context, w SyncWriter, b SeasonBundle, competitionID int64, teamIDs *teamIDMap, result *ApplyResult) error {
	if len(b.Standings) == 0 {
		return nil
	}

	lists := make([]standing.List, 0, len(b.Standings))
	var stubs []team.Ref
	for _, l := range b.Standings {
		list := standing.List{
			CompetitionID: competitionID,
			SeasonYear:    b.SeasonYear,
			Stage:         defaultString(l.Stage, standing.StageRegularSeason),
			Type:          defaultString(l.Type, standing.TypeTotal),
			Group:         l.Group,
		}
		for _, r := range l.Rows {
			teamID, err := teamIDs.resolve(r.Team.NativeID)
			if err != nil {
				result.Skipped++
				continue
			}
			row := standing.Row{
				TeamID:         teamID,
				TeamName:       r.Team.Name,
				Rank:           r.Rank,
				Points:         r.Points,
				Played:         r.Played,
				Won:            r.Won,
				Draw:           r.Draw,
				Lost:           r.Lost,
				GoalsFor:       r.GoalsFor,
				GoalsAgainst:   r.GoalsAgainst,
				GoalDifference: r.GoalDifference,
				Form:           r.Form,
			}
			if err := s.validRow(row); err != nil {
				s.logger.WarnContext(ctx, "skip malformed standing row", "source", b.Source, "team_native_id", r.Team.NativeID, "error", err)
				result.Skipped++
				continue
			}
			list.Rows = append(list.Rows, row)
			stubs = append(stubs, team.Ref{ID: teamID, Name: r.Team.Name, Source: string(b.Source)})
		}
		if len(list.Rows) > 0 {
			lists = append(lists, list)
		}
	}
	if len(lists) == 0 {
		return nil
	}

	if err := w.EnsureTeamStubs(ctx, stubs); err != nil {
		return err
	}
	n, err := w.UpsertStandings(ctx, lists)
	if err != nil {
		return err
	}
	result.StandingRows = n
	metrics.RowsUpsertedTotal.WithLabelValues("standing_row").Add(float64(n))
	return nil
}

func (s *SyncService) validRow(row any) error {
	if err := s.validate.Struct(row); err != nil {
		return crerr.Mark(err, ErrInvalidInput)
	}
	return nil
}

func isMalformed(err error) bool {
	return crerr.IsAny(err, ErrInvalidInput, identity.ErrIDOutOfRange)
}

func competitionRef(source progress.TaskType, item ExternalCompetition) string {
	if source == progress.TaskFootballData && item.Code != "" {
		return item.Code
	}
	return strconv.FormatInt(item.NativeID, 10)
}

// refResolver caches area lookups for the lifetime of one unit of work.
type refResolver struct {
	w     SyncWriter
	areas map[string]int64
}

func newRefResolver(w SyncWriter) *refResolver {
	return &refResolver{w: w, areas: make(map[string]int64)}
}

func (r *refResolver) area(ctx context.Context, a ExternalArea) (*int64, error) {
	key := area.NameKey(a.Name)
	if key == "" {
		return nil, nil
	}
	if id, ok := r.areas[key]; ok {
		return &id, nil
	}
	id, err := r.w.ResolveArea(ctx, area.Area{Name: a.Name, Code: a.Code, FlagURL: a.FlagURL})
	if err != nil {
		return nil, err
	}
	r.areas[key] = id
	return &id, nil
}

// teamIDMap resolves native team IDs, preferring links to existing teams.
type teamIDMap struct {
	source progress.TaskType
	mapper *identity.Mapper
	known  map[int64]int64
}

func (m *teamIDMap) resolve(native int64) (int64, error) {
	if id, ok := m.known[native]; ok {
		return id, nil
	}
	if m.source == progress.TaskAPIFootball {
		return m.mapper.Secondary(native)
	}
	return m.mapper.Primary(native)
}

func int64Ptr(v int64) *int64 {
	return &v
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
