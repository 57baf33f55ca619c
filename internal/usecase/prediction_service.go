package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/football-sync/internal/domain/fixture"
	"github.com/riskibarqy/football-sync/internal/domain/prediction"
	"github.com/riskibarqy/football-sync/internal/domain/standing"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
)

const fallbackTag = "Let's learn"

type PredictionConfig struct {
	// DaysAhead bounds the full scan when no fixture IDs are given.
	DaysAhead int
	FormSize  int
	BatchSize int
}

type PredictResult struct {
	Requested int `json:"requested"`
	Predicted int `json:"predicted"`
	Failed    int `json:"failed"`
}

// PredictionService tags fixtures from recent form and league standing.
// It only reads synced rows and writes the predictions table.
type PredictionService struct {
	store  SyncStore
	cfg    PredictionConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewPredictionService(store SyncStore, cfg PredictionConfig, logger *logging.Logger) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DaysAhead <= 0 {
		cfg.DaysAhead = 14
	}
	if cfg.FormSize <= 0 {
		cfg.FormSize = 7
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &PredictionService{
		store:  store,
		cfg:    cfg,
		logger: logger.Component("prediction"),
		now:    time.Now,
	}
}

// TriggerPredictions runs the pass in-process for the given fixtures.
func (s *PredictionService) TriggerPredictions(ctx context.Context, fixtureIDs []int64) error {
	_, err := s.Predict(ctx, fixtureIDs)
	return err
}

// Predict computes and stores predictions. With no IDs every upcoming
// scheduled fixture in the next DaysAhead days is predicted.
func (s *PredictionService) Predict(ctx context.Context, fixtureIDs []int64) (PredictResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Predict", attribute.Int("fixture_ids", len(fixtureIDs)))
	var err error
	defer func() { endSpan(span, err) }()

	now := s.now().UTC()
	var fixtures []fixture.Fixture
	if len(fixtureIDs) > 0 {
		fixtures, err = s.store.ListFixturesByIDs(ctx, fixtureIDs)
	} else {
		fixtures, err = s.store.ListUpcomingFixtures(ctx, now, now.AddDate(0, 0, s.cfg.DaysAhead))
	}
	if err != nil {
		return PredictResult{}, err
	}

	result := PredictResult{Requested: len(fixtures)}
	points := make(map[pointsKey]map[int64]int)
	batch := make([]prediction.Prediction, 0, s.cfg.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.store.UpsertPredictions(ctx, batch); err != nil {
			return err
		}
		result.Predicted += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, f := range fixtures {
		data, predictErr := s.predictFixture(ctx, f, points)
		if predictErr != nil {
			result.Failed++
			s.logger.WarnContext(ctx, "predict fixture failed", "fixture_id", f.ID, "error", predictErr)
			continue
		}
		batch = append(batch, prediction.Prediction{FixtureID: f.ID, Data: data, GeneratedAt: now})
		if len(batch) >= s.cfg.BatchSize {
			if err = flush(); err != nil {
				return result, err
			}
		}
	}
	if err = flush(); err != nil {
		return result, err
	}

	s.logger.InfoContext(ctx, "prediction pass finished", "requested", result.Requested, "predicted", result.Predicted, "failed", result.Failed)
	return result, nil
}

type pointsKey struct {
	competitionID int64
	seasonYear    int
}

func (s *PredictionService) predictFixture(ctx context.Context, f fixture.Fixture, cache map[pointsKey]map[int64]int) (prediction.Data, error) {
	key := pointsKey{competitionID: f.CompetitionID, seasonYear: f.SeasonYear}
	points, ok := cache[key]
	if !ok {
		var err error
		points, err = s.store.TeamPoints(ctx, f.CompetitionID, f.SeasonYear)
		if err != nil {
			return prediction.Data{}, err
		}
		cache[key] = points
	}

	home, err := s.teamForm(ctx, f.HomeTeamID, f.AwayTeamID, f.UTCDate, points)
	if err != nil {
		return prediction.Data{}, err
	}
	away, err := s.teamForm(ctx, f.AwayTeamID, f.HomeTeamID, f.UTCDate, points)
	if err != nil {
		return prediction.Data{}, err
	}

	data := prediction.Data{
		HomeTags:    home.tags(),
		AwayTags:    away.tags(),
		HomeTier:    string(home.tier),
		AwayTier:    string(away.tier),
		HomeWin:     home.win() && away.loss(),
		AwayWin:     away.win() && home.loss(),
		Draw:        home.draw() && away.draw(),
		TotalOver2:  home.avgScored+away.avgScored >= 2.5,
		TotalUnder2: home.avgScored+away.avgScored < 1.5,
		Rival:       home.rival,
	}
	switch {
	case data.HomeWin:
		data.Summary = "home_win"
	case data.AwayWin:
		data.Summary = "away_win"
	case data.Draw:
		data.Summary = "draw"
	default:
		data.Summary = fallbackTag
	}
	return data, nil
}

type teamForm struct {
	tier          standing.Tier
	wins          int
	draws         int
	lowTierLosses int
	avgScored     float64
	avgConceded   float64
	topVsBottom   bool
	rival         bool
}

func (s *PredictionService) teamForm(ctx context.Context, teamID, opponentID int64, before time.Time, points map[int64]int) (teamForm, error) {
	recent, err := s.store.ListTeamForm(ctx, teamID, before, s.cfg.FormSize)
	if err != nil {
		return teamForm{}, err
	}

	own, opp := points[teamID], points[opponentID]
	form := teamForm{
		tier:  standing.TierForPoints(own),
		rival: abs(own-opp) <= 5,
	}
	oppTier := standing.TierForPoints(opp)
	form.topVsBottom = (form.tier == standing.TierHigh && oppTier == standing.TierLow) ||
		(form.tier == standing.TierLow && oppTier == standing.TierHigh)

	scored, conceded := 0, 0
	for _, f := range recent {
		gf, ga, opponent := goalsFor(f, teamID)
		scored += gf
		conceded += ga
		switch {
		case gf > ga:
			form.wins++
		case gf == ga:
			form.draws++
		default:
			if standing.TierForPoints(points[opponent]) == standing.TierLow {
				form.lowTierLosses++
			}
		}
	}
	played := max(len(recent), 1)
	form.avgScored = float64(scored) / float64(played)
	form.avgConceded = float64(conceded) / float64(played)
	return form, nil
}

func (f teamForm) win() bool  { return f.wins >= 4 }
func (f teamForm) draw() bool { return f.draws >= 3 }
func (f teamForm) loss() bool { return f.lowTierLosses >= 2 }

func (f teamForm) tags() []string {
	checks := []struct {
		tag string
		ok  bool
	}{
		{"W", f.win()},
		{"D", f.draw()},
		{"L", f.loss()},
		{"S1+", f.avgScored >= 1.0},
		{"S2+", f.avgScored >= 1.5},
		{"S3+", f.avgScored >= 2.5},
		{"CS", f.avgConceded < 0.5},
		{"C1+", f.avgConceded >= 1.0},
		{"C2+", f.avgConceded >= 1.5},
		{"C3+", f.avgConceded >= 2.5},
		{"T/B", f.topVsBottom},
		{"Rival", f.rival},
	}
	tags := make([]string, 0, len(checks))
	for _, c := range checks {
		if c.ok {
			tags = append(tags, c.tag)
		}
	}
	if len(tags) == 0 {
		tags = append(tags, fallbackTag)
	}
	return tags
}

// goalsFor returns goals scored and conceded by teamID plus the opponent.
func goalsFor(f fixture.Fixture, teamID int64) (int, int, int64) {
	home, away := 0, 0
	if f.FullTime.Home != nil {
		home = *f.FullTime.Home
	}
	if f.FullTime.Away != nil {
		away = *f.FullTime.Away
	}
	if f.HomeTeamID == teamID {
		return home, away, f.AwayTeamID
	}
	return away, home, f.HomeTeamID
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
