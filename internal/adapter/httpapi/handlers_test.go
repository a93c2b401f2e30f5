package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/shareledger/internal/config"
	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/usecase/ledger"
	"github.com/simaogato/shareledger/internal/usecase/portfolio"
	"github.com/simaogato/shareledger/internal/usecase/quotes"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) CreateHolding(ctx context.Context, input ledger.CreateHoldingInput) (*ledger.CreateHoldingResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.CreateHoldingResult), args.Error(1)
}

func (m *MockLedger) ListHoldings(ctx context.Context, status domain.HoldingStatus) ([]*domain.Holding, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Holding), args.Error(1)
}

func (m *MockLedger) GetHolding(ctx context.Context, id int64) (*domain.Holding, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Holding), args.Error(1)
}

func (m *MockLedger) UpdateHolding(ctx context.Context, id int64, update domain.HoldingUpdate) (int64, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedger) Sell(ctx context.Context, req domain.SaleRequest) (*domain.SaleResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SaleResult), args.Error(1)
}

func (m *MockLedger) ListSoldShares(ctx context.Context) ([]*domain.SoldShareView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SoldShareView), args.Error(1)
}

func (m *MockLedger) ListSymbols(ctx context.Context) ([]*domain.Symbol, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Symbol), args.Error(1)
}

type MockPrices struct {
	mock.Mock
}

func (m *MockPrices) Lookup(ctx context.Context, symbol string) (*domain.LivePrice, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LivePrice), args.Error(1)
}

func (m *MockPrices) Batch(ctx context.Context, symbols []string) ([]quotes.BatchQuote, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quotes.BatchQuote), args.Error(1)
}

func (m *MockPrices) Snapshots(ctx context.Context) ([]*domain.LivePrice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LivePrice), args.Error(1)
}

type MockSymbols struct {
	mock.Mock
}

func (m *MockSymbols) Search(ctx context.Context, query string) []domain.Symbol {
	return m.Called(ctx, query).Get(0).([]domain.Symbol)
}

type MockPortfolio struct {
	mock.Mock
}

func (m *MockPortfolio) Summary(ctx context.Context) (*portfolio.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portfolio.Summary), args.Error(1)
}

type fixture struct {
	ledger    *MockLedger
	prices    *MockPrices
	symbols   *MockSymbols
	portfolio *MockPortfolio
	server    *Server
}

func newFixture(origins ...string) *fixture {
	f := &fixture{
		ledger:    new(MockLedger),
		prices:    new(MockPrices),
		symbols:   new(MockSymbols),
		portfolio: new(MockPortfolio),
	}
	f.server = NewServer(config.HTTPConfig{Host: "127.0.0.1", Port: 0, AllowedOrigins: origins}, Services{
		Ledger:    f.ledger,
		Prices:    f.prices,
		Symbols:   f.symbols,
		Portfolio: f.portfolio,
		Currency:  "USD",
		Now:       func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	}, nil)
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSell_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"not found", fmt.Errorf("%w: holding 9", domain.ErrNotFound), http.StatusNotFound, "NotFound"},
		{"insufficient", fmt.Errorf("%w: only 60 left", domain.ErrInsufficientShares), http.StatusBadRequest, "InsufficientShares"},
		{"persistence", fmt.Errorf("%w: disk full", domain.ErrPersistence), http.StatusInternalServerError, "PersistenceFailure"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "Internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.ledger.On("Sell", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := f.do(http.MethodPost, "/api/holdings/sell", map[string]any{
				"holding_id": 9, "quantity": 10, "sell_price": 100,
			})

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantKind, decodeError(t, rec).Error)
		})
	}
}

func TestSell_AcceptsNumericStrings(t *testing.T) {
	f := newFixture()
	sellDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	f.ledger.On("Sell", mock.Anything, mock.MatchedBy(func(r domain.SaleRequest) bool {
		return r.HoldingID == 1 && r.Quantity == 40 && r.SellPrice.Equal(decimal.RequireFromString("180.5")) && r.Notes == "trim"
	})).Return(&domain.SaleResult{
		HoldingID:         1,
		Quantity:          40,
		SellPrice:         decimal.RequireFromString("180.5"),
		SellDate:          sellDate,
		RemainingQuantity: 60,
		Status:            domain.HoldingStatusActive,
	}, nil)

	rec := f.do(http.MethodPost, "/api/holdings/sell", `{"holding_id":"1","quantity":"40","sell_price":"180.5","notes":"trim"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"holding_id":1,"quantity":40,"sell_price":180.5,"sell_date":"2024-06-01","remaining_quantity":60,"status":"active"}`, rec.Body.String())
}

func TestSell_InvalidInputNeverReachesLedger(t *testing.T) {
	bodies := []string{
		`{"holding_id":1,"quantity":0,"sell_price":10}`,
		`{"holding_id":1,"quantity":-5,"sell_price":10}`,
		`{"holding_id":1,"quantity":2.5,"sell_price":10}`,
		`{"holding_id":1,"quantity":5}`,
		`{"quantity":5,"sell_price":10}`,
		`{"holding_id":1,"quantity":5,"sell_price":"abc"}`,
		`not json`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			f := newFixture()

			rec := f.do(http.MethodPost, "/api/holdings/sell", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "InvalidInput", decodeError(t, rec).Error)
			f.ledger.AssertNotCalled(t, "Sell", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateHolding(t *testing.T) {
	f := newFixture()
	f.ledger.On("CreateHolding", mock.Anything, mock.MatchedBy(func(in ledger.CreateHoldingInput) bool {
		return in.Symbol == "aapl" && in.Quantity == 100 && in.PurchasePrice.Equal(decimal.NewFromInt(150)) &&
			in.PurchaseDate.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	})).Return(&ledger.CreateHoldingResult{
		Holding: &domain.Holding{ID: 7},
		Symbol:  domain.Symbol{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NMS"},
	}, nil)

	rec := f.do(http.MethodPost, "/api/holdings", map[string]any{
		"symbol": "aapl", "quantity": 100, "purchase_price": "150", "purchase_date": "2024-01-02",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":7,"symbol":"AAPL","name":"Apple Inc.","exchange":"NMS"}`, rec.Body.String())
}

func TestCreateHolding_Validation(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/api/holdings", map[string]any{"symbol": "AAPL", "quantity": 0, "purchase_price": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/holdings", map[string]any{"quantity": 1, "purchase_price": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/holdings", map[string]any{"symbol": "AAPL", "quantity": 1, "purchase_price": 10, "purchase_date": "01/02/2024"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.ledger.AssertNotCalled(t, "CreateHolding", mock.Anything, mock.Anything)
}

func TestHoldings_ListAndGet(t *testing.T) {
	f := newFixture()
	h := &domain.Holding{
		ID: 1, Symbol: "AAPL", Quantity: 60, PurchasePrice: decimal.RequireFromString("150.25"),
		PurchaseDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Status: domain.HoldingStatusActive,
	}
	f.ledger.On("ListHoldings", mock.Anything, domain.HoldingStatusActive).Return([]*domain.Holding{h}, nil)
	f.ledger.On("GetHolding", mock.Anything, int64(1)).Return(h, nil)
	f.ledger.On("GetHolding", mock.Anything, int64(2)).Return(nil, fmt.Errorf("%w: holding 2", domain.ErrNotFound))

	rec := f.do(http.MethodGet, "/api/holdings?status=ACTIVE", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"symbol":"AAPL","quantity":60,"purchase_price":150.25,"purchase_date":"2024-01-15","notes":"","status":"active"}]`, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/holdings/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/holdings/2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/holdings/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateHolding(t *testing.T) {
	f := newFixture()
	f.ledger.On("UpdateHolding", mock.Anything, int64(3), mock.MatchedBy(func(u domain.HoldingUpdate) bool {
		return u.Quantity == 5 && u.Notes == "edited"
	})).Return(int64(0), nil)

	rec := f.do(http.MethodPut, "/api/holdings/3", map[string]any{
		"quantity": 5, "purchase_price": 12.5, "purchase_date": "2024-02-01", "notes": "edited",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Holding updated successfully","changesCount":0}`, rec.Body.String())
}

func TestPrices_UnavailableIs404(t *testing.T) {
	f := newFixture()
	f.prices.On("Lookup", mock.Anything, "ZZZZ").Return(nil, fmt.Errorf("%w: unable to fetch price for ZZZZ", domain.ErrExternalUnavailable))

	rec := f.do(http.MethodGet, "/api/prices/ZZZZ", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ExternalUnavailable", decodeError(t, rec).Error)

	rec = f.do(http.MethodPost, "/api/prices", map[string]any{"symbol": "ZZZZ"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrices_LookupAndBatch(t *testing.T) {
	f := newFixture()
	prev := decimal.RequireFromString("175")
	at := time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)
	f.prices.On("Lookup", mock.Anything, "AAPL").Return(&domain.LivePrice{
		Symbol: "AAPL", CurrentPrice: decimal.NewFromInt(180), PreviousPrice: &prev, LastUpdated: at,
	}, nil)
	f.prices.On("Batch", mock.Anything, []string{"AAPL", "NOPE"}).Return([]quotes.BatchQuote{
		{Symbol: "AAPL", CurrentPrice: decimal.NewFromInt(180)},
	}, nil)

	rec := f.do(http.MethodPost, "/api/prices", map[string]any{"symbol": "AAPL"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"symbol":"AAPL","current_price":180,"previous_price":175,"last_updated":"2024-06-01T15:30:00Z"}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/prices/batch", map[string]any{"symbols": []string{"AAPL", "NOPE"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"symbol":"AAPL","currentPrice":180,"previousPrice":null}]`, rec.Body.String())
}

func TestSymbolsSearch(t *testing.T) {
	f := newFixture()
	f.symbols.On("Search", mock.Anything, "apple").Return([]domain.Symbol{{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NMS"}})
	f.symbols.On("Search", mock.Anything, "").Return([]domain.Symbol{})

	rec := f.do(http.MethodGet, "/api/symbols/search?q=apple", nil)
	assert.JSONEq(t, `[{"symbol":"AAPL","name":"Apple Inc.","exchange":"NMS"}]`, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/symbols/search", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPortfolioReport(t *testing.T) {
	f := newFixture()
	f.portfolio.On("Summary", mock.Anything).Return(&portfolio.Summary{}, nil)

	rec := f.do(http.MethodGet, "/api/portfolio/report", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "# Portfolio Report")
	assert.Contains(t, rec.Body.String(), "Amounts in USD")
}

func TestMiddleware_CORSAndRequestID(t *testing.T) {
	f := newFixture("http://localhost:5173")

	req := httptest.NewRequest(http.MethodOptions, "/api/holdings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
	assert.JSONEq(t, `{"status":"ok","subscribers":0}`, rec.Body.String())
}
