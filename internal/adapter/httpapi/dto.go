package httpapi

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/usecase/portfolio"
	"github.com/simaogato/shareledger/internal/usecase/quotes"
)

// Numeric request fields are json.Number so both 10 and "10" are accepted.

type createHoldingRequest struct {
	Symbol        string      `json:"symbol" binding:"required"`
	Quantity      json.Number `json:"quantity" binding:"required"`
	PurchasePrice json.Number `json:"purchase_price" binding:"required"`
	PurchaseDate  string      `json:"purchase_date"`
	Notes         string      `json:"notes"`
}

type updateHoldingRequest struct {
	Quantity      json.Number `json:"quantity" binding:"required"`
	PurchasePrice json.Number `json:"purchase_price" binding:"required"`
	PurchaseDate  string      `json:"purchase_date" binding:"required"`
	Notes         string      `json:"notes"`
}

type sellRequest struct {
	HoldingID json.Number `json:"holding_id"`
	Quantity  json.Number `json:"quantity"`
	SellPrice json.Number `json:"sell_price"`
	Notes     string      `json:"notes"`
}

type priceRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

type batchRequest struct {
	Symbols []string `json:"symbols" binding:"required"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type createHoldingResponse struct {
	ID       int64  `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

type updateHoldingResponse struct {
	Message      string `json:"message"`
	ChangesCount int64  `json:"changesCount"`
}

type holdingResponse struct {
	ID            int64       `json:"id"`
	Symbol        string      `json:"symbol"`
	Quantity      int64       `json:"quantity"`
	PurchasePrice json.Number `json:"purchase_price"`
	PurchaseDate  string      `json:"purchase_date"`
	Notes         string      `json:"notes"`
	Status        string      `json:"status"`
}

type soldShareResponse struct {
	ID            int64       `json:"id"`
	HoldingID     int64       `json:"holding_id"`
	Symbol        string      `json:"symbol"`
	Quantity      int64       `json:"quantity"`
	PurchasePrice json.Number `json:"purchase_price"`
	SellPrice     json.Number `json:"sell_price"`
	SellDate      string      `json:"sell_date"`
	Notes         string      `json:"notes"`
}

type saleResponse struct {
	HoldingID         int64       `json:"holding_id"`
	Quantity          int64       `json:"quantity"`
	SellPrice         json.Number `json:"sell_price"`
	SellDate          string      `json:"sell_date"`
	RemainingQuantity int64       `json:"remaining_quantity"`
	Status            string      `json:"status"`
}

type symbolResponse struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

type livePriceResponse struct {
	Symbol        string       `json:"symbol"`
	CurrentPrice  json.Number  `json:"current_price"`
	PreviousPrice *json.Number `json:"previous_price"`
	LastUpdated   time.Time    `json:"last_updated"`
}

type batchQuoteResponse struct {
	Symbol        string       `json:"symbol"`
	CurrentPrice  json.Number  `json:"currentPrice"`
	PreviousPrice *json.Number `json:"previousPrice"`
}

type valuationResponse struct {
	holdingResponse
	Name          string       `json:"name"`
	Investment    json.Number  `json:"investment"`
	CurrentPrice  *json.Number `json:"current_price"`
	PreviousClose *json.Number `json:"previous_close"`
	CurrentValue  *json.Number `json:"current_value"`
	ProfitLoss    *json.Number `json:"profit_loss"`
	ProfitPercent *json.Number `json:"profit_percent"`
	DayChange     *json.Number `json:"day_change"`
	Trend         string       `json:"trend,omitempty"`
}

type realizedResponse struct {
	soldShareResponse
	CostBasis     json.Number `json:"cost_basis"`
	Proceeds      json.Number `json:"proceeds"`
	ProfitLoss    json.Number `json:"profit_loss"`
	ProfitPercent json.Number `json:"profit_percent"`
}

type totalsResponse struct {
	Quantity      int64        `json:"quantity"`
	Investment    json.Number  `json:"investment"`
	CurrentValue  json.Number  `json:"current_value"`
	ProfitLoss    json.Number  `json:"profit_loss"`
	ProfitPercent *json.Number `json:"profit_percent"`
	Priced        int          `json:"priced"`
	Unpriced      int          `json:"unpriced"`
}

type realizedTotalsResponse struct {
	Quantity   int64       `json:"quantity"`
	CostBasis  json.Number `json:"cost_basis"`
	Proceeds   json.Number `json:"proceeds"`
	ProfitLoss json.Number `json:"profit_loss"`
}

type summaryResponse struct {
	Holdings       []valuationResponse    `json:"holdings"`
	Totals         totalsResponse         `json:"totals"`
	Realized       []realizedResponse     `json:"realized"`
	RealizedTotals realizedTotalsResponse `json:"realized_totals"`
}

type streamMessage struct {
	Type   string              `json:"type"`
	Prices []livePriceResponse `json:"prices"`
}

func num(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func numPtr(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := num(*d)
	return &n
}

// percentages are rounded to 4 places
func pctPtr(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	r := d.Round(4)
	return numPtr(&r)
}

func toHoldingResponse(h *domain.Holding) holdingResponse {
	return holdingResponse{
		ID:            h.ID,
		Symbol:        h.Symbol,
		Quantity:      h.Quantity,
		PurchasePrice: num(h.PurchasePrice),
		PurchaseDate:  h.PurchaseDate.Format(domain.DateLayout),
		Notes:         h.Notes,
		Status:        string(h.Status),
	}
}

func toSoldShareResponse(s *domain.SoldShareView) soldShareResponse {
	return soldShareResponse{
		ID:            s.ID,
		HoldingID:     s.HoldingID,
		Symbol:        s.Symbol,
		Quantity:      s.Quantity,
		PurchasePrice: num(s.PurchasePrice),
		SellPrice:     num(s.SellPrice),
		SellDate:      s.SellDate.Format(domain.DateLayout),
		Notes:         s.Notes,
	}
}

func toSaleResponse(r *domain.SaleResult) saleResponse {
	return saleResponse{
		HoldingID:         r.HoldingID,
		Quantity:          r.Quantity,
		SellPrice:         num(r.SellPrice),
		SellDate:          r.SellDate.Format(domain.DateLayout),
		RemainingQuantity: r.RemainingQuantity,
		Status:            string(r.Status),
	}
}

func toSymbolResponse(s domain.Symbol) symbolResponse {
	return symbolResponse{Symbol: s.Symbol, Name: s.Name, Exchange: s.Exchange}
}

func toLivePriceResponse(p *domain.LivePrice) livePriceResponse {
	return livePriceResponse{
		Symbol:        p.Symbol,
		CurrentPrice:  num(p.CurrentPrice),
		PreviousPrice: numPtr(p.PreviousPrice),
		LastUpdated:   p.LastUpdated.UTC(),
	}
}

func toLivePriceResponses(prices []*domain.LivePrice) []livePriceResponse {
	out := make([]livePriceResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, toLivePriceResponse(p))
	}
	return out
}

func toBatchResponse(batch []quotes.BatchQuote) []batchQuoteResponse {
	out := make([]batchQuoteResponse, 0, len(batch))
	for _, q := range batch {
		out = append(out, batchQuoteResponse{
			Symbol:        q.Symbol,
			CurrentPrice:  num(q.CurrentPrice),
			PreviousPrice: numPtr(q.PreviousPrice),
		})
	}
	return out
}

func toSummaryResponse(s *portfolio.Summary) summaryResponse {
	resp := summaryResponse{
		Holdings: make([]valuationResponse, 0, len(s.Holdings)),
		Realized: make([]realizedResponse, 0, len(s.Realized)),
		Totals: totalsResponse{
			Quantity:      s.Totals.Quantity,
			Investment:    num(s.Totals.Investment),
			CurrentValue:  num(s.Totals.CurrentValue),
			ProfitLoss:    num(s.Totals.ProfitLoss),
			ProfitPercent: pctPtr(s.Totals.ProfitPercent),
			Priced:        s.Totals.Priced,
			Unpriced:      s.Totals.Unpriced,
		},
		RealizedTotals: realizedTotalsResponse{
			Quantity:   s.RealizedTotals.Quantity,
			CostBasis:  num(s.RealizedTotals.CostBasis),
			Proceeds:   num(s.RealizedTotals.Proceeds),
			ProfitLoss: num(s.RealizedTotals.ProfitLoss),
		},
	}

	for _, v := range s.Holdings {
		resp.Holdings = append(resp.Holdings, valuationResponse{
			holdingResponse: toHoldingResponse(v.Holding),
			Name:            v.Name,
			Investment:      num(v.Investment),
			CurrentPrice:    numPtr(v.CurrentPrice),
			PreviousClose:   numPtr(v.PreviousClose),
			CurrentValue:    numPtr(v.CurrentValue),
			ProfitLoss:      numPtr(v.ProfitLoss),
			ProfitPercent:   pctPtr(v.ProfitPercent),
			DayChange:       numPtr(v.DayChange),
			Trend:           string(v.Trend),
		})
	}

	for _, r := range s.Realized {
		resp.Realized = append(resp.Realized, realizedResponse{
			soldShareResponse: toSoldShareResponse(r.Sale),
			CostBasis:         num(r.CostBasis),
			Proceeds:          num(r.Proceeds),
			ProfitLoss:        num(r.ProfitLoss),
			ProfitPercent:     num(r.ProfitPercent.Round(4)),
		})
	}

	return resp
}
