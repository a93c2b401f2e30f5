package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProviderQuote is the raw price data returned for a canonical symbol
type ProviderQuote struct {
	Symbol        string
	CurrentPrice  decimal.Decimal
	PreviousClose *decimal.Decimal
	Currency      string
	MarketTime    time.Time
}

// PriceQuote is a resolved symbol together with its latest quote
type PriceQuote struct {
	Symbol        string
	Name          string
	Exchange      string
	CurrentPrice  decimal.Decimal
	PreviousClose *decimal.Decimal
	Currency      string
	MarketTime    time.Time
}

// DayChange returns current price minus previous close, if the previous close is known
func (q PriceQuote) DayChange() (decimal.Decimal, bool) {
	if q.PreviousClose == nil {
		return decimal.Zero, false
	}
	return q.CurrentPrice.Sub(*q.PreviousClose), true
}

// LivePrice is the persisted snapshot of the last successful quote for a symbol.
// It is advisory and never authoritative.
type LivePrice struct {
	Symbol        string
	CurrentPrice  decimal.Decimal
	PreviousPrice *decimal.Decimal
	LastUpdated   time.Time
}

// NewLivePrice builds a snapshot from a quote
func NewLivePrice(q PriceQuote, at time.Time) *LivePrice {
	return &LivePrice{
		Symbol:        q.Symbol,
		CurrentPrice:  q.CurrentPrice,
		PreviousPrice: q.PreviousClose,
		LastUpdated:   at,
	}
}
