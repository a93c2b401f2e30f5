package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/usecase/portfolio"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMoney_Format(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		value string
		want  string
	}{
		{"usd thousands", "USD", "15000", "$15,000.00"},
		{"rounds to cents", "usd", "1234.567", "$1,234.57"},
		{"default currency", "", "3", "$3.00"},
		{"negative", "USD", "-5", "-$5.00"},
		{"unknown code", "ZZZ", "1.5", "1.50 ZZZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewMoney(tt.code).Format(d(tt.value)))
		})
	}
}

func TestMoney_Signed(t *testing.T) {
	m := NewMoney("USD")
	assert.Equal(t, "+$3,000.00", m.Signed(d("3000")))
	assert.Equal(t, "$0.00", m.Signed(decimal.Zero))
}

func sampleSummary() *portfolio.Summary {
	holdings := []*domain.Holding{
		{ID: 1, Symbol: "AAPL", Quantity: 100, PurchasePrice: d("150"), Status: domain.HoldingStatusActive},
		{ID: 2, Symbol: "MSFT", Quantity: 5, PurchasePrice: d("300"), Status: domain.HoldingStatusActive},
	}
	sold := []*domain.SoldShareView{{
		SoldShare:     domain.SoldShare{ID: 1, HoldingID: 3, Quantity: 10, SellPrice: d("90"), SellDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		Symbol:        "JPM",
		PurchasePrice: d("100"),
	}}
	prev := d("175")
	prices := map[string]domain.PriceQuote{
		"AAPL": {Symbol: "AAPL", Name: "Apple Inc.", CurrentPrice: d("180"), PreviousClose: &prev},
	}
	s := portfolio.Aggregate(holdings, sold, prices, nil)
	return &s
}

func TestSummaryMarkdown(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	md, err := SummaryMarkdown(sampleSummary(), "USD", at)

	require.NoError(t, err)
	assert.Contains(t, md, "# Portfolio Report")
	assert.Contains(t, md, "Generated on 2024-06-01. Amounts in USD.")
	assert.Contains(t, md, "| AAPL | Apple Inc. | 100 | $150.00 | $180.00 | $18,000.00 | +$3,000.00 | +20.00% | ▲ |")
	assert.Contains(t, md, "| MSFT |  | 5 | $300.00 | n/a | n/a | n/a | n/a |  |")
	assert.Contains(t, md, "| Investment | $16,500.00 |")
	assert.Contains(t, md, "1 holding(s) without a current price")
	assert.Contains(t, md, "| 2024-05-01 | JPM | 10 | $100.00 | $90.00 | -$100.00 | -10.00% |")
}

func TestSummaryMarkdown_Empty(t *testing.T) {
	md, err := SummaryMarkdown(&portfolio.Summary{}, "", time.Now())

	require.NoError(t, err)
	assert.Contains(t, md, "No active holdings.")
	assert.Contains(t, md, "No sales recorded.")
	assert.NotContains(t, md, "without a current price")
}

func TestTerminal_Plain(t *testing.T) {
	out, err := Terminal("# Portfolio Report\n\nHello", true)

	require.NoError(t, err)
	assert.Contains(t, out, "Portfolio Report")
	assert.Contains(t, out, "Hello")
}
