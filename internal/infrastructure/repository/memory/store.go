package memory

import (
	"context"
	"sync"
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

var _ usecase.SyncStore = (*Store)(nil)

// Store is an in-memory usecase.SyncStore used by tests and dry runs.
// Transactions run against a copy that replaces the live tables on commit.
type Store struct {
	mu   sync.Mutex
	data *tables
}

func NewStore() *Store {
	return &Store{data: newTables()}
}

func (s *Store) InTx(_ context.Context, fn func(w usecase.SyncWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.data.clone()
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx
	return nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func withLock[T any](s *Store, fn func(t *tables) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) ResolveArea(ctx context.Context, item area.Area) (int64, error) {
	return withLock(s, func(t *tables) (int64, error) { return t.ResolveArea(ctx, item) })
}

func (s *Store) UpsertCompetitions(ctx context.Context, items []competition.Competition) (int, error) {
	return withLock(s, func(t *tables) (int, error) { return t.UpsertCompetitions(ctx, items) })
}

func (s *Store) LinkCompetitionAliases(ctx context.Context, items []competition.Competition) error {
	_, err := withLock(s, func(t *tables) (struct{}, error) { return struct{}{}, t.LinkCompetitionAliases(ctx, items) })
	return err
}

func (s *Store) FindCompetition(ctx context.Context, id int64) (competition.Competition, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.FindCompetition(ctx, id)
}

func (s *Store) UpsertVenues(ctx context.Context, items []venue.Venue) (int, error) {
	return withLock(s, func(t *tables) (int, error) { return t.UpsertVenues(ctx, items) })
}

func (s *Store) UpsertTeams(ctx context.Context, items []team.Team) (int, error) {
	return withLock(s, func(t *tables) (int, error) { return t.UpsertTeams(ctx, items) })
}

func (s *Store) LinkTeamAliases(ctx context.Context, items []team.Team) error {
	_, err := withLock(s, func(t *tables) (struct{}, error) { return struct{}{}, t.LinkTeamAliases(ctx, items) })
	return err
}

func (s *Store) EnsureTeamStubs(ctx context.Context, refs []team.Ref) error {
	_, err := withLock(s, func(t *tables) (struct{}, error) { return struct{}{}, t.EnsureTeamStubs(ctx, refs) })
	return err
}

func (s *Store) FindTeamByName(ctx context.Context, areaID int64, name string) (team.Team, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.FindTeamByName(ctx, areaID, name)
}

func (s *Store) TeamIDsBySecondary(ctx context.Context, natives []int64) (map[int64]int64, error) {
	return withLock(s, func(t *tables) (map[int64]int64, error) { return t.TeamIDsBySecondary(ctx, natives) })
}

func (s *Store) UpsertSeasons(ctx context.Context, years []season.Year) error {
	_, err := withLock(s, func(t *tables) (struct{}, error) { return struct{}{}, t.UpsertSeasons(ctx, years) })
	return err
}

func (s *Store) UpsertFixtures(ctx context.Context, items []fixture.Fixture) ([]int64, error) {
	return withLock(s, func(t *tables) ([]int64, error) { return t.UpsertFixtures(ctx, items) })
}

func (s *Store) ListFixturesByIDs(ctx context.Context, ids []int64) ([]fixture.Fixture, error) {
	return withLock(s, func(t *tables) ([]fixture.Fixture, error) { return t.ListFixturesByIDs(ctx, ids) })
}

func (s *Store) ListUpcomingFixtures(ctx context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	return withLock(s, func(t *tables) ([]fixture.Fixture, error) { return t.ListUpcomingFixtures(ctx, from, to) })
}

func (s *Store) ListTeamForm(ctx context.Context, teamID int64, before time.Time, limit int) ([]fixture.Fixture, error) {
	return withLock(s, func(t *tables) ([]fixture.Fixture, error) { return t.ListTeamForm(ctx, teamID, before, limit) })
}

func (s *Store) UpsertStandings(ctx context.Context, lists []standing.List) (int, error) {
	return withLock(s, func(t *tables) (int, error) { return t.UpsertStandings(ctx, lists) })
}

func (s *Store) TeamPoints(ctx context.Context, competitionID int64, seasonYear int) (map[int64]int, error) {
	return withLock(s, func(t *tables) (map[int64]int, error) { return t.TeamPoints(ctx, competitionID, seasonYear) })
}

func (s *Store) UpsertRawPayloads(ctx context.Context, items []rawdata.Payload) error {
	_, err := withLock(s, func(t *tables) (struct{}, error) { return struct{}{}, t.UpsertRawPayloads(ctx, items) })
	return err
}

func (s *Store) RegisterTasks(ctx context.Context, tasks []progress.Task) (int, error) {
	return withLock(s, func(t *tables) (int, error) { return t.RegisterTasks(ctx, tasks) })
}

func (s *Store) PendingTasks(ctx context.Context, taskType progress.TaskType, now time.Time, lease time.Duration) ([]progress.Task, error) {
	return withLock(s, func(t *tables) ([]progress.Task, error) { return t.PendingTasks(ctx, taskType, now, lease) })
}

func (s *Store) ClaimTask(ctx context.Context, key progress.Key, owner string, now time.Time, lease time.Duration) (bool, error) {
	return withLock(s, func(t *tables) (bool, error) { return t.ClaimTask(ctx, key, owner, now, lease) })
}

func (s *Store) MarkTask(ctx context.Context, key progress.Key, status progress.Status, lastError string, now time.Time) (progress.Status, error) {
	return withLock(s, func(t *tables) (progress.Status, error) { return t.MarkTask(ctx, key, status, lastError, now) })
}

func (s *Store) ProgressSummary(ctx context.Context) ([]progress.Count, error) {
	return withLock(s, func(t *tables) ([]progress.Count, error) { return t.ProgressSummary(ctx) })
}

func (s *Store) ListTasks(ctx context.Context, filter progress.Filter) ([]progress.Task, error) {
	return withLock(s, func(t *tables) ([]progress.Task, error) { return t.ListTasks(ctx, filter) })
}

func (s *Store) UpsertPredictions(ctx context.Context, items []prediction.Prediction) error {
	_, err := withLock(s, func(t *tables) (struct{}, error) { return struct{}{}, t.UpsertPredictions(ctx, items) })
	return err
}

// Fixture, Team, Task and the other lookups below expose table contents to
// tests.
func (s *Store) Fixture(id int64) (fixture.Fixture, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.data.fixtures[id]
	return item, ok
}

func (s *Store) Fixtures() []fixture.Fixture {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]fixture.Fixture, 0, len(s.data.fixtures))
	for _, item := range s.data.fixtures {
		out = append(out, item)
	}
	return out
}

func (s *Store) Team(id int64) (team.Team, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.data.teams[id]
	return item, ok
}

func (s *Store) TeamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.teams)
}

func (s *Store) Task(key progress.Key) (progress.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.data.tasks[key]
	return item, ok
}

func (s *Store) Prediction(fixtureID int64) (prediction.Prediction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.data.predictions[fixtureID]
	return item, ok
}

func (s *Store) StandingRows(competitionID int64, seasonYear int, stage, typ, group string) []standing.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.standingRows(listKey{competitionID, seasonYear, stage, typ, group})
}

func (s *Store) RawPayloadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.raw)
}
