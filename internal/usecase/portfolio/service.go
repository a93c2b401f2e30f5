package portfolio

import (
	"context"
	"fmt"

	"github.com/simaogato/shareledger/internal/domain"
)

// PriceLookup returns the available quotes for symbols keyed by the requested string
type PriceLookup interface {
	QuoteMap(ctx context.Context, symbols []string) map[string]domain.PriceQuote
}

// PortfolioService assembles portfolio summaries
type PortfolioService struct {
	HoldingRepo   domain.HoldingRepository
	SoldShareRepo domain.SoldShareRepository
	SymbolRepo    domain.SymbolRepository
	Prices        PriceLookup
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(
	holdingRepo domain.HoldingRepository,
	soldShareRepo domain.SoldShareRepository,
	symbolRepo domain.SymbolRepository,
	prices PriceLookup,
) *PortfolioService {
	return &PortfolioService{
		HoldingRepo:   holdingRepo,
		SoldShareRepo: soldShareRepo,
		SymbolRepo:    symbolRepo,
		Prices:        prices,
	}
}

// Summary values the portfolio
// Logic:
//  1. Load active holdings and every sale
//  2. Look up prices for the distinct active symbols (nil Prices means offline)
//  3. Fill display names from the symbol cache
//  4. Aggregate
func (s *PortfolioService) Summary(ctx context.Context) (*Summary, error) {
	holdings, err := s.HoldingRepo.List(ctx, domain.HoldingStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active holdings: %w", err)
	}

	sold, err := s.SoldShareRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sold shares: %w", err)
	}

	prices := map[string]domain.PriceQuote{}
	if s.Prices != nil {
		prices = s.Prices.QuoteMap(ctx, distinctSymbols(holdings))
	}

	names := map[string]string{}
	if s.SymbolRepo != nil {
		cached, err := s.SymbolRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list symbols: %w", err)
		}
		for _, sym := range cached {
			names[sym.Symbol] = sym.Name
		}
	}

	summary := Aggregate(holdings, sold, prices, names)
	return &summary, nil
}

func distinctSymbols(holdings []*domain.Holding) []string {
	seen := make(map[string]struct{}, len(holdings))
	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		if _, ok := seen[h.Symbol]; ok {
			continue
		}
		seen[h.Symbol] = struct{}{}
		symbols = append(symbols, h.Symbol)
	}
	return symbols
}
