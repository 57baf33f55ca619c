package usecase_test

import (
	"context"
	"errors"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/football-sync/internal/domain/progress"
	"github.com/riskibarqy/football-sync/internal/infrastructure/repository/memory"
	usecasemock "github.com/riskibarqy/football-sync/internal/mocks/usecase"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

func TestBackfillService_WithMockery_DiscoveryFailureAborts(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewCatalogProvider(t)
	provider.On("Source").Return(progress.TaskFootballData).Maybe()
	provider.On("Discover", mock.Anything).
		Return(nil, nil, crerr.Mark(errors.New("football-data: 429"), usecase.ErrRateLimited)).
		Once()

	svc := newBackfill(t, memory.NewStore(), usecase.BackfillConfig{StartYear: 2020, EndYear: 2024, MaxWorkers: 2}, provider)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, crerr.Is(err, usecase.ErrRateLimited))
	provider.AssertNotCalled(t, "FetchSeason", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBackfillService_WithMockery_OneProviderDownKeepsTheOther(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	healthy := &stubCatalog{source: progress.TaskFootballData, competition: premierLeagueA(2023, 2024)}

	broken := usecasemock.NewCatalogProvider(t)
	broken.On("Source").Return(progress.TaskAPIFootball).Maybe()
	broken.On("Discover", mock.Anything).Return(nil, nil, errors.New("connection reset")).Once()

	svc := newBackfill(t, store, usecase.BackfillConfig{StartYear: 2015, EndYear: 2025, MaxWorkers: 2}, healthy, broken)

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Registered)
	assert.Equal(t, 2, result.Completed)
	assert.Equal(t, 1, store.RawPayloadCount(), "only the healthy discovery snapshot is stored")
	broken.AssertNotCalled(t, "FetchSeason", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
