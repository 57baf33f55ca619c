package memory

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"time"

	"github.com/riskibarqy/football-sync/internal/domain/area"
	"github.com/riskibarqy/football-sync/internal/domain/competition"
	"github.com/riskibarqy/football-sync/internal/domain/fixture"
	"github.com/riskibarqy/football-sync/internal/domain/prediction"
	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/domain/rawdata"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/domain/standing"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	"github.com/riskibarqy/football-sync/internal/domain/venue"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

// FirstLocalAreaID matches the start of area_local_id_seq.
const FirstLocalAreaID int64 = 900_000_000

type listKey struct {
	competitionID int64
	seasonYear    int
	stage         string
	typ           string
	group         string
}

type rawKey struct {
	source     string
	entityType string
	entityKey  string
}

// tables is one consistent snapshot of every table. It is not safe for
// concurrent use; Store serializes access.
type tables struct {
	areas        map[int64]area.Area
	areaByKey    map[string]int64
	nextAreaID   int64
	competitions map[int64]competition.Competition
	venues       map[int64]venue.Venue
	teams        map[int64]team.Team
	seasons      map[int]bool
	fixtures     map[int64]fixture.Fixture
	listIDs      map[listKey]int64
	lists        map[int64]standing.List
	rows         map[int64]map[int64]standing.Row
	nextListID   int64
	raw          map[rawKey]rawdata.Payload
	tasks        map[progress.Key]progress.Task
	predictions  map[int64]prediction.Prediction
}

func newTables() *tables {
	return &tables{
		areas:        make(map[int64]area.Area),
		areaByKey:    make(map[string]int64),
		nextAreaID:   FirstLocalAreaID,
		competitions: make(map[int64]competition.Competition),
		venues:       make(map[int64]venue.Venue),
		teams:        make(map[int64]team.Team),
		seasons:      make(map[int]bool),
		fixtures:     make(map[int64]fixture.Fixture),
		listIDs:      make(map[listKey]int64),
		lists:        make(map[int64]standing.List),
		rows:         make(map[int64]map[int64]standing.Row),
		nextListID:   1,
		raw:          make(map[rawKey]rawdata.Payload),
		tasks:        make(map[progress.Key]progress.Task),
		predictions:  make(map[int64]prediction.Prediction),
	}
}

func (t *tables) clone() *tables {
	out := &tables{
		areas:        cloneMap(t.areas),
		areaByKey:    cloneMap(t.areaByKey),
		nextAreaID:   t.nextAreaID,
		competitions: cloneMap(t.competitions),
		venues:       cloneMap(t.venues),
		teams:        cloneMap(t.teams),
		seasons:      cloneMap(t.seasons),
		fixtures:     cloneMap(t.fixtures),
		listIDs:      cloneMap(t.listIDs),
		lists:        cloneMap(t.lists),
		rows:         make(map[int64]map[int64]standing.Row, len(t.rows)),
		nextListID:   t.nextListID,
		raw:          cloneMap(t.raw),
		tasks:        cloneMap(t.tasks),
		predictions:  cloneMap(t.predictions),
	}
	for id, rows := range t.rows {
		out.rows[id] = cloneMap(rows)
	}
	return out
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (t *tables) ResolveArea(_ context.Context, item area.Area) (int64, error) {
	key := area.NameKey(item.Name)
	if key == "" {
		return 0, fmt.Errorf("resolve area: %w", usecase.ErrInvalidInput)
	}
	if id, ok := t.areaByKey[key]; ok {
		existing := t.areas[id]
		if existing.Code == "" && item.Code != "" {
			existing.Code = item.Code
		}
		if existing.FlagURL == "" && item.FlagURL != "" {
			existing.FlagURL = item.FlagURL
		}
		t.areas[id] = existing
		return id, nil
	}

	id := t.nextAreaID
	t.nextAreaID++
	item.ID = id
	t.areas[id] = item
	t.areaByKey[key] = id
	return id, nil
}

func (t *tables) UpsertCompetitions(_ context.Context, items []competition.Competition) (int, error) {
	changed := 0
	for _, item := range items {
		if err := t.checkArea(item.AreaID); err != nil {
			return 0, fmt.Errorf("upsert competition %d: %w", item.ID, err)
		}
		existing, ok := t.competitions[item.ID]
		if ok && item.SecondaryID == nil {
			item.SecondaryID = existing.SecondaryID
		}
		if ok && reflect.DeepEqual(existing, item) {
			continue
		}
		t.competitions[item.ID] = item
		changed++
	}
	return changed, nil
}

func (t *tables) LinkCompetitionAliases(_ context.Context, items []competition.Competition) error {
	for _, item := range items {
		existing, ok := t.competitions[item.ID]
		if !ok {
			if err := t.checkArea(item.AreaID); err != nil {
				return fmt.Errorf("link competition %d: %w", item.ID, err)
			}
			t.competitions[item.ID] = item
			continue
		}
		existing.SecondaryID = item.SecondaryID
		if existing.CurrentSeasonYear == nil {
			existing.CurrentSeasonYear = item.CurrentSeasonYear
		}
		t.competitions[item.ID] = existing
	}
	return nil
}

func (t *tables) FindCompetition(_ context.Context, id int64) (competition.Competition, bool, error) {
	item, ok := t.competitions[id]
	return item, ok, nil
}

func (t *tables) UpsertVenues(_ context.Context, items []venue.Venue) (int, error) {
	changed := 0
	for _, item := range items {
		if existing, ok := t.venues[item.ID]; ok && reflect.DeepEqual(existing, item) {
			continue
		}
		t.venues[item.ID] = item
		changed++
	}
	return changed, nil
}

func (t *tables) UpsertTeams(_ context.Context, items []team.Team) (int, error) {
	changed := 0
	for _, item := range items {
		if err := t.checkArea(item.AreaID); err != nil {
			return 0, fmt.Errorf("upsert team %d: %w", item.ID, err)
		}
		if item.VenueID != nil {
			if _, ok := t.venues[*item.VenueID]; !ok {
				return 0, fmt.Errorf("upsert team %d: venue %d does not exist", item.ID, *item.VenueID)
			}
		}
		existing, ok := t.teams[item.ID]
		if ok && item.SecondaryID == nil {
			item.SecondaryID = existing.SecondaryID
		}
		if ok && reflect.DeepEqual(existing, item) {
			continue
		}
		t.teams[item.ID] = item
		changed++
	}
	return changed, nil
}

func (t *tables) LinkTeamAliases(_ context.Context, items []team.Team) error {
	for _, item := range items {
		existing, ok := t.teams[item.ID]
		if !ok {
			t.teams[item.ID] = item
			continue
		}
		existing.SecondaryID = item.SecondaryID
		t.teams[item.ID] = existing
	}
	return nil
}

func (t *tables) EnsureTeamStubs(_ context.Context, refs []team.Ref) error {
	for _, ref := range refs {
		if ref.ID <= 0 {
			return fmt.Errorf("ensure team stub: %w", usecase.ErrInvalidInput)
		}
		if _, ok := t.teams[ref.ID]; ok {
			continue
		}
		t.teams[ref.ID] = team.Team{ID: ref.ID, Name: ref.StubName(), Source: ref.Source}
	}
	return nil
}

func (t *tables) FindTeamByName(_ context.Context, areaID int64, name string) (team.Team, bool, error) {
	key := area.NameKey(name)
	var (
		found team.Team
		ok    bool
	)
	for _, item := range t.teams {
		if item.AreaID == nil || *item.AreaID != areaID || area.NameKey(item.Name) != key {
			continue
		}
		if !ok || item.ID < found.ID {
			found, ok = item, true
		}
	}
	return found, ok, nil
}

func (t *tables) TeamIDsBySecondary(_ context.Context, natives []int64) (map[int64]int64, error) {
	out := make(map[int64]int64)
	if len(natives) == 0 {
		return out, nil
	}
	wanted := make(map[int64]bool, len(natives))
	for _, n := range natives {
		wanted[n] = true
	}
	for _, item := range t.teams {
		if item.SecondaryID != nil && wanted[*item.SecondaryID] {
			out[*item.SecondaryID] = item.ID
		}
	}
	return out, nil
}

func (t *tables) UpsertSeasons(_ context.Context, years []season.Year) error {
	for _, y := range years {
		t.seasons[y] = true
	}
	return nil
}

func (t *tables) UpsertFixtures(_ context.Context, items []fixture.Fixture) ([]int64, error) {
	var changed []int64
	for _, item := range items {
		if _, ok := t.competitions[item.CompetitionID]; !ok {
			return nil, fmt.Errorf("upsert fixture %d: competition %d does not exist", item.ID, item.CompetitionID)
		}
		if !t.seasons[item.SeasonYear] {
			t.seasons[item.SeasonYear] = true
		}
		for _, ref := range []team.Ref{
			{ID: item.HomeTeamID, Name: item.HomeTeamName, Source: item.Source},
			{ID: item.AwayTeamID, Name: item.AwayTeamName, Source: item.Source},
		} {
			if _, ok := t.teams[ref.ID]; !ok {
				t.teams[ref.ID] = team.Team{ID: ref.ID, Name: ref.StubName(), Source: ref.Source}
			}
		}

		if existing, ok := t.fixtures[item.ID]; ok && reflect.DeepEqual(existing, item) {
			continue
		}
		t.fixtures[item.ID] = item
		changed = append(changed, item.ID)
	}
	return changed, nil
}

func (t *tables) ListFixturesByIDs(_ context.Context, ids []int64) ([]fixture.Fixture, error) {
	out := make([]fixture.Fixture, 0, len(ids))
	for _, id := range ids {
		if item, ok := t.fixtures[id]; ok {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return slices.CompactFunc(out, func(a, b fixture.Fixture) bool { return a.ID == b.ID }), nil
}

func (t *tables) ListUpcomingFixtures(_ context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	var out []fixture.Fixture
	for _, item := range t.fixtures {
		if item.UTCDate.Before(from) || item.UTCDate.After(to) {
			continue
		}
		if item.Status().Category != fixture.CategoryScheduled {
			continue
		}
		if p, ok := t.predictions[item.ID]; ok && !p.GeneratedAt.Before(item.UTCDate) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UTCDate.Equal(out[j].UTCDate) {
			return out[i].UTCDate.Before(out[j].UTCDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tables) ListTeamForm(_ context.Context, teamID int64, before time.Time, limit int) ([]fixture.Fixture, error) {
	var out []fixture.Fixture
	for _, item := range t.fixtures {
		if item.HomeTeamID != teamID && item.AwayTeamID != teamID {
			continue
		}
		if !item.Status().Finished() || !item.UTCDate.Before(before) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UTCDate.After(out[j].UTCDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *tables) UpsertStandings(_ context.Context, lists []standing.List) (int, error) {
	changed := 0
	for _, list := range lists {
		if _, ok := t.competitions[list.CompetitionID]; !ok {
			return 0, fmt.Errorf("upsert standings: competition %d does not exist", list.CompetitionID)
		}
		key := listKey{list.CompetitionID, list.SeasonYear, list.Stage, list.Type, list.Group}
		id, ok := t.listIDs[key]
		if !ok {
			id = t.nextListID
			t.nextListID++
			t.listIDs[key] = id
			t.rows[id] = make(map[int64]standing.Row)
		}
		meta := list
		meta.ID = id
		meta.Rows = nil
		t.lists[id] = meta

		for _, row := range list.Rows {
			if _, ok := t.teams[row.TeamID]; !ok {
				return 0, fmt.Errorf("upsert standings: team %d does not exist", row.TeamID)
			}
			if existing, ok := t.rows[id][row.TeamID]; ok && existing == row {
				continue
			}
			t.rows[id][row.TeamID] = row
			changed++
		}
	}
	return changed, nil
}

func (t *tables) TeamPoints(_ context.Context, competitionID int64, seasonYear int) (map[int64]int, error) {
	out := make(map[int64]int)
	for id, list := range t.lists {
		if list.CompetitionID != competitionID || list.SeasonYear != seasonYear || list.Type != standing.TypeTotal {
			continue
		}
		for teamID, row := range t.rows[id] {
			out[teamID] = row.Points
		}
	}
	return out, nil
}

// standingRows returns the rows of one list ordered by rank.
func (t *tables) standingRows(key listKey) []standing.Row {
	id, ok := t.listIDs[key]
	if !ok {
		return nil
	}
	out := make([]standing.Row, 0, len(t.rows[id]))
	for _, row := range t.rows[id] {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

func (t *tables) UpsertRawPayloads(_ context.Context, items []rawdata.Payload) error {
	for _, item := range items {
		key := rawKey{item.Source, item.EntityType, item.EntityKey}
		if existing, ok := t.raw[key]; ok && existing.PayloadHash == item.PayloadHash {
			continue
		}
		t.raw[key] = item
	}
	return nil
}

func (t *tables) RegisterTasks(_ context.Context, tasks []progress.Task) (int, error) {
	created := 0
	for _, task := range tasks {
		if _, ok := t.tasks[task.Key]; ok {
			continue
		}
		task.Status = progress.StatusPending
		task.ClaimedBy = ""
		task.ClaimedAt = nil
		t.tasks[task.Key] = task
		created++
	}
	return created, nil
}

func (t *tables) PendingTasks(_ context.Context, taskType progress.TaskType, now time.Time, lease time.Duration) ([]progress.Task, error) {
	var out []progress.Task
	for _, task := range t.tasks {
		if task.TaskType != taskType || task.Status.Terminal() {
			continue
		}
		if task.ClaimedAt != nil && task.ClaimedAt.Add(lease).After(now) {
			continue
		}
		if comp, ok := t.competitions[task.CompetitionID]; ok && comp.CurrentSeasonYear != nil {
			task.CurrentSeasonYear = comp.CurrentSeasonYear
		}
		out = append(out, task)
	}
	sortTasks(out)
	return out, nil
}

func (t *tables) ClaimTask(_ context.Context, key progress.Key, owner string, now time.Time, lease time.Duration) (bool, error) {
	task, ok := t.tasks[key]
	if !ok || task.Status.Terminal() {
		return false, nil
	}
	if task.ClaimedAt != nil && task.ClaimedBy != owner && task.ClaimedAt.Add(lease).After(now) {
		return false, nil
	}
	claimedAt := now
	task.ClaimedBy = owner
	task.ClaimedAt = &claimedAt
	task.Attempts++
	task.Status = progress.StatusPending
	task.LastUpdated = now
	t.tasks[key] = task
	return true, nil
}

func (t *tables) MarkTask(_ context.Context, key progress.Key, status progress.Status, lastError string, now time.Time) (progress.Status, error) {
	task, ok := t.tasks[key]
	if !ok {
		return "", fmt.Errorf("mark task %d/%d/%s: %w", key.CompetitionID, key.SeasonYear, key.TaskType, usecase.ErrNotFound)
	}
	if task.Status.Terminal() {
		return task.Status, nil
	}
	task.Status = status
	task.LastError = lastError
	task.ClaimedBy = ""
	task.ClaimedAt = nil
	task.LastUpdated = now
	t.tasks[key] = task
	return task.Status, nil
}

func (t *tables) ProgressSummary(_ context.Context) ([]progress.Count, error) {
	counts := make(map[[2]string]int)
	for _, task := range t.tasks {
		counts[[2]string{string(task.TaskType), string(task.Status)}]++
	}
	out := make([]progress.Count, 0, len(counts))
	for k, n := range counts {
		out = append(out, progress.Count{TaskType: progress.TaskType(k[0]), Status: progress.Status(k[1]), Total: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskType != out[j].TaskType {
			return out[i].TaskType < out[j].TaskType
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

func (t *tables) ListTasks(_ context.Context, filter progress.Filter) ([]progress.Task, error) {
	var out []progress.Task
	for _, task := range t.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.TaskType != "" && task.TaskType != filter.TaskType {
			continue
		}
		out = append(out, task)
	}
	sortTasks(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (t *tables) UpsertPredictions(_ context.Context, items []prediction.Prediction) error {
	for _, item := range items {
		if _, ok := t.fixtures[item.FixtureID]; !ok {
			return fmt.Errorf("upsert prediction: fixture %d does not exist", item.FixtureID)
		}
		t.predictions[item.FixtureID] = item
	}
	return nil
}

func (t *tables) checkArea(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := t.areas[*id]; !ok {
		return fmt.Errorf("area %d does not exist", *id)
	}
	return nil
}

func sortTasks(tasks []progress.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i].Key, tasks[j].Key
		if a.CompetitionID != b.CompetitionID {
			return a.CompetitionID < b.CompetitionID
		}
		if a.SeasonYear != b.SeasonYear {
			return a.SeasonYear < b.SeasonYear
		}
		return a.TaskType < b.TaskType
	})
}
