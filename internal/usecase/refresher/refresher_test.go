package refresher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/usecase/quotes"
)

type MockHoldingRepository struct {
	mock.Mock
}

func (m *MockHoldingRepository) Create(ctx context.Context, holding *domain.Holding) error {
	return m.Called(ctx, holding).Error(0)
}

func (m *MockHoldingRepository) GetByID(ctx context.Context, id int64) (*domain.Holding, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Holding), args.Error(1)
}

func (m *MockHoldingRepository) List(ctx context.Context, statusFilter domain.HoldingStatus) ([]*domain.Holding, error) {
	args := m.Called(ctx, statusFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Holding), args.Error(1)
}

func (m *MockHoldingRepository) Update(ctx context.Context, id int64, update domain.HoldingUpdate) (int64, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockHoldingRepository) Sell(ctx context.Context, req domain.SaleRequest) (*domain.SaleResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SaleResult), args.Error(1)
}

type MockBatchFetcher struct {
	mock.Mock
}

func (m *MockBatchFetcher) Batch(ctx context.Context, symbols []string) ([]quotes.BatchQuote, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quotes.BatchQuote), args.Error(1)
}

type fixedClock bool

func (c fixedClock) AnyOpen([]string, time.Time) bool { return bool(c) }

func active(symbols ...string) []*domain.Holding {
	out := make([]*domain.Holding, 0, len(symbols))
	for i, s := range symbols {
		out = append(out, &domain.Holding{ID: int64(i + 1), Symbol: s, Quantity: 1, Status: domain.HoldingStatusActive})
	}
	return out
}

func TestRunOnce_RefreshesDistinctSymbols(t *testing.T) {
	holdings := new(MockHoldingRepository)
	prices := new(MockBatchFetcher)
	holdings.On("List", mock.Anything, domain.HoldingStatusActive).Return(active("AAPL", "MSFT", "AAPL"), nil)
	prices.On("Batch", mock.Anything, []string{"AAPL", "MSFT"}).Return([]quotes.BatchQuote{
		{Symbol: "AAPL", CurrentPrice: decimal.NewFromInt(180)},
	}, nil)

	r := NewRefresher(holdings, prices, fixedClock(true), time.Second, nil)
	res, err := r.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Result{Symbols: 2, Refreshed: 1}, res)
	prices.AssertExpectations(t)
}

func TestRunOnce_SkipsWhenMarketsClosed(t *testing.T) {
	holdings := new(MockHoldingRepository)
	prices := new(MockBatchFetcher)
	holdings.On("List", mock.Anything, domain.HoldingStatusActive).Return(active("AAPL"), nil)

	r := NewRefresher(holdings, prices, fixedClock(false), 0, nil)
	res, err := r.RunOnce(context.Background())

	require.NoError(t, err)
	assert.True(t, res.Skipped)
	prices.AssertNotCalled(t, "Batch", mock.Anything, mock.Anything)
}

func TestRunOnce_NoClockIgnoresMarketHours(t *testing.T) {
	holdings := new(MockHoldingRepository)
	prices := new(MockBatchFetcher)
	holdings.On("List", mock.Anything, domain.HoldingStatusActive).Return(active("AAPL"), nil)
	prices.On("Batch", mock.Anything, []string{"AAPL"}).Return([]quotes.BatchQuote{}, nil)

	r := NewRefresher(holdings, prices, nil, 0, nil)
	res, err := r.RunOnce(context.Background())

	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Zero(t, res.Refreshed)
}

func TestRunOnce_NoHoldings(t *testing.T) {
	holdings := new(MockHoldingRepository)
	prices := new(MockBatchFetcher)
	holdings.On("List", mock.Anything, domain.HoldingStatusActive).Return([]*domain.Holding{}, nil)

	res, err := NewRefresher(holdings, prices, nil, 0, nil).RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	prices.AssertNotCalled(t, "Batch", mock.Anything, mock.Anything)
}

func TestRunOnce_Errors(t *testing.T) {
	t.Run("repository", func(t *testing.T) {
		holdings := new(MockHoldingRepository)
		holdings.On("List", mock.Anything, domain.HoldingStatusActive).Return(nil, errors.New("db down"))

		_, err := NewRefresher(holdings, new(MockBatchFetcher), nil, 0, nil).RunOnce(context.Background())
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("batch", func(t *testing.T) {
		holdings := new(MockHoldingRepository)
		prices := new(MockBatchFetcher)
		holdings.On("List", mock.Anything, domain.HoldingStatusActive).Return(active("AAPL"), nil)
		prices.On("Batch", mock.Anything, mock.Anything).Return(nil, errors.New("write failed"))

		_, err := NewRefresher(holdings, prices, nil, 0, nil).RunOnce(context.Background())
		assert.ErrorContains(t, err, "write failed")
	})
}

func TestStart_InvalidSchedule(t *testing.T) {
	r := NewRefresher(new(MockHoldingRepository), new(MockBatchFetcher), nil, 0, nil)

	err := r.Start("not a schedule")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	r.Stop()
}

func TestStartStop(t *testing.T) {
	r := NewRefresher(new(MockHoldingRepository), new(MockBatchFetcher), nil, 0, nil)

	require.NoError(t, r.Start("@every 1h"))
	assert.Error(t, r.Start("@every 1h"))
	r.Stop()
	r.Stop()
}
