package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/shareledger/internal/domain"
)

// MockHoldingRepository is a mock implementation of HoldingRepository for testing
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

// MockSoldShareRepository is a mock implementation of SoldShareRepository for testing
type MockSoldShareRepository struct {
	mock.Mock
}

func (m *MockSoldShareRepository) List(ctx context.Context) ([]*domain.SoldShareView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SoldShareView), args.Error(1)
}

// MockPriceLookup is a mock implementation of PriceLookup for testing
type MockPriceLookup struct {
	mock.Mock
}

func (m *MockPriceLookup) QuoteMap(ctx context.Context, symbols []string) map[string]domain.PriceQuote {
	args := m.Called(ctx, symbols)
	return args.Get(0).(map[string]domain.PriceQuote)
}

func TestPortfolioService_Summary(t *testing.T) {
	ctx := context.Background()
	holdings := new(MockHoldingRepository)
	sold := new(MockSoldShareRepository)
	prices := new(MockPriceLookup)

	holdings.On("List", ctx, domain.HoldingStatusActive).Return([]*domain.Holding{
		holding(1, "AAPL", 10, "100", domain.HoldingStatusActive),
		holding(2, "AAPL", 5, "120", domain.HoldingStatusActive),
		holding(3, "MSFT", 2, "300", domain.HoldingStatusActive),
	}, nil)
	sold.On("List", ctx).Return([]*domain.SoldShareView{}, nil)
	prices.On("QuoteMap", ctx, []string{"AAPL", "MSFT"}).Return(map[string]domain.PriceQuote{
		"AAPL": {Symbol: "AAPL", CurrentPrice: dec("110")},
	})

	svc := NewPortfolioService(holdings, sold, nil, prices)
	summary, err := svc.Summary(ctx)

	require.NoError(t, err)
	assert.Len(t, summary.Holdings, 3)
	assert.Equal(t, int64(17), summary.Totals.Quantity)
	assert.True(t, dec("2200").Equal(summary.Totals.Investment))
	assert.True(t, dec("1650").Equal(summary.Totals.CurrentValue))
	assert.True(t, dec("50").Equal(summary.Totals.ProfitLoss))
	prices.AssertExpectations(t)
}

func TestPortfolioService_SummaryOffline(t *testing.T) {
	ctx := context.Background()
	holdings := new(MockHoldingRepository)
	sold := new(MockSoldShareRepository)

	holdings.On("List", ctx, domain.HoldingStatusActive).Return([]*domain.Holding{
		holding(1, "AAPL", 10, "100", domain.HoldingStatusActive),
	}, nil)
	sold.On("List", ctx).Return([]*domain.SoldShareView{}, nil)

	summary, err := NewPortfolioService(holdings, sold, nil, nil).Summary(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Totals.Unpriced)
}

func TestPortfolioService_SummaryRepositoryError(t *testing.T) {
	ctx := context.Background()
	holdings := new(MockHoldingRepository)
	holdings.On("List", ctx, domain.HoldingStatusActive).Return(nil, errors.New("db down"))

	_, err := NewPortfolioService(holdings, new(MockSoldShareRepository), nil, nil).Summary(ctx)
	assert.Error(t, err)
}
