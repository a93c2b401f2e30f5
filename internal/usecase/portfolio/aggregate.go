package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/shareledger/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Trend compares the current price with the previous close
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// HoldingValuation is an active holding valued at the latest known price.
// Price dependent fields are nil when no price is known.
type HoldingValuation struct {
	Holding       *domain.Holding
	Name          string
	Investment    decimal.Decimal
	CurrentPrice  *decimal.Decimal
	PreviousClose *decimal.Decimal
	CurrentValue  *decimal.Decimal
	ProfitLoss    *decimal.Decimal
	ProfitPercent *decimal.Decimal
	DayChange     *decimal.Decimal
	Trend         Trend
}

// RealizedSale is a sold-share event with its realized result
type RealizedSale struct {
	Sale          *domain.SoldShareView
	CostBasis     decimal.Decimal
	Proceeds      decimal.Decimal
	ProfitLoss    decimal.Decimal
	ProfitPercent decimal.Decimal
}

// Totals aggregates the active holdings.
// CurrentValue and ProfitLoss only include priced holdings.
type Totals struct {
	Quantity      int64
	Investment    decimal.Decimal
	CurrentValue  decimal.Decimal
	ProfitLoss    decimal.Decimal
	ProfitPercent *decimal.Decimal
	Priced        int
	Unpriced      int
}

// RealizedTotals aggregates the sold-share events
type RealizedTotals struct {
	Quantity   int64
	CostBasis  decimal.Decimal
	Proceeds   decimal.Decimal
	ProfitLoss decimal.Decimal
}

// Summary is the full portfolio view
type Summary struct {
	Holdings       []HoldingValuation
	Totals         Totals
	Realized       []RealizedSale
	RealizedTotals RealizedTotals
}

// Aggregate values the portfolio. It performs no I/O.
// Logic:
//   - only active holdings are valued; prices are looked up by holding symbol
//   - investment = purchase price * quantity
//   - current value = price * quantity, P&L = (price - purchase) * quantity,
//     P&L % = (price - purchase) / purchase * 100
//   - total P&L % = total P&L / total investment * 100
//   - realized P&L per sale = (sell - purchase) * quantity
func Aggregate(holdings []*domain.Holding, sold []*domain.SoldShareView, prices map[string]domain.PriceQuote, names map[string]string) Summary {
	summary := Summary{
		Holdings: make([]HoldingValuation, 0, len(holdings)),
		Realized: make([]RealizedSale, 0, len(sold)),
	}

	for _, h := range holdings {
		if !h.IsActive() {
			continue
		}

		v := valueHolding(h, prices, names)
		summary.Holdings = append(summary.Holdings, v)

		summary.Totals.Quantity += h.Quantity
		summary.Totals.Investment = summary.Totals.Investment.Add(v.Investment)
		if v.CurrentValue == nil {
			summary.Totals.Unpriced++
			continue
		}
		summary.Totals.Priced++
		summary.Totals.CurrentValue = summary.Totals.CurrentValue.Add(*v.CurrentValue)
		summary.Totals.ProfitLoss = summary.Totals.ProfitLoss.Add(*v.ProfitLoss)
	}

	if summary.Totals.Investment.IsPositive() {
		pct := summary.Totals.ProfitLoss.Div(summary.Totals.Investment).Mul(hundred)
		summary.Totals.ProfitPercent = &pct
	}

	for _, s := range sold {
		r := realize(s)
		summary.Realized = append(summary.Realized, r)

		summary.RealizedTotals.Quantity += s.Quantity
		summary.RealizedTotals.CostBasis = summary.RealizedTotals.CostBasis.Add(r.CostBasis)
		summary.RealizedTotals.Proceeds = summary.RealizedTotals.Proceeds.Add(r.Proceeds)
		summary.RealizedTotals.ProfitLoss = summary.RealizedTotals.ProfitLoss.Add(r.ProfitLoss)
	}

	return summary
}

func valueHolding(h *domain.Holding, prices map[string]domain.PriceQuote, names map[string]string) HoldingValuation {
	qty := decimal.NewFromInt(h.Quantity)
	v := HoldingValuation{
		Holding:    h,
		Name:       names[h.Symbol],
		Investment: h.PurchasePrice.Mul(qty),
	}

	q, ok := prices[h.Symbol]
	if !ok {
		return v
	}

	if q.Name != "" {
		v.Name = q.Name
	}

	price := q.CurrentPrice
	value := price.Mul(qty)
	pl := price.Sub(h.PurchasePrice).Mul(qty)

	v.CurrentPrice = &price
	v.CurrentValue = &value
	v.ProfitLoss = &pl
	if h.PurchasePrice.IsPositive() {
		pct := price.Sub(h.PurchasePrice).Div(h.PurchasePrice).Mul(hundred)
		v.ProfitPercent = &pct
	}
	v.PreviousClose = q.PreviousClose

	if change, ok := q.DayChange(); ok {
		v.DayChange = &change
		switch change.Sign() {
		case 1:
			v.Trend = TrendUp
		case -1:
			v.Trend = TrendDown
		default:
			v.Trend = TrendFlat
		}
	}

	return v
}

func realize(s *domain.SoldShareView) RealizedSale {
	qty := decimal.NewFromInt(s.Quantity)
	r := RealizedSale{
		Sale:       s,
		CostBasis:  s.PurchasePrice.Mul(qty),
		Proceeds:   s.SellPrice.Mul(qty),
		ProfitLoss: s.SellPrice.Sub(s.PurchasePrice).Mul(qty),
	}
	if s.PurchasePrice.IsPositive() {
		r.ProfitPercent = s.SellPrice.Sub(s.PurchasePrice).Div(s.PurchasePrice).Mul(hundred)
	}
	return r
}
