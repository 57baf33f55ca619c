package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/football-sync/internal/infrastructure/repository/memory"
	usecasemock "github.com/riskibarqy/football-sync/internal/mocks/usecase"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

func TestPollerService_WithMockery_TriggerFailureIsReported(t *testing.T) {
	t.Parallel()

	window := &stubWindow{bundles: map[string]usecase.SeasonBundle{
		"PL": bundleA(2024, played(1001, 57, 61, 2, 1, pollNow.AddDate(0, 0, -1))),
	}}
	trigger := usecasemock.NewPredictionTrigger(t)
	trigger.On("TriggerPredictions", mock.Anything, []int64{1001}).
		Return(errors.New("webhook unavailable")).
		Once()

	svc := newPoller(t, memory.NewStore(), window, nil, trigger, usecase.PollerConfig{Competitions: []string{"PL"}, DaysBehind: 2, DaysAhead: 7})

	result, err := svc.PollPrimary(context.Background())
	require.NoError(t, err, "a failed trigger does not fail the poll")
	assert.Equal(t, []int64{1001}, result.Changed)
	assert.False(t, result.Triggered)
}

func TestPollerService_WithMockery_QuotaStopsAfterFirstDay(t *testing.T) {
	t.Parallel()

	dates := usecasemock.NewDateProvider(t)
	dates.On("FetchDate", mock.Anything, mock.MatchedBy(func(day time.Time) bool {
		return day.Format(time.DateOnly) == "2024-08-17"
	})).
		Return(nil, crerr.Mark(errors.New("daily limit reached"), usecase.ErrQuotaExhausted)).
		Once()

	trigger := usecasemock.NewPredictionTrigger(t)

	svc := newPoller(t, memory.NewStore(), nil, dates, trigger, usecase.PollerConfig{DaysBehind: 2, DaysAhead: 7, SecondaryDaysBehind: 1, SecondaryDaysAhead: 1})

	result, err := svc.PollSecondary(context.Background())
	require.NoError(t, err)
	assert.True(t, result.QuotaHalted)
	assert.Equal(t, 1, result.Units)
	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, result.Changed)
	trigger.AssertNotCalled(t, "TriggerPredictions", mock.Anything, mock.Anything)
}
