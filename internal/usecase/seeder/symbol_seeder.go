package seeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/simaogato/shareledger/internal/domain"
)

// SampleSymbols is the starter set loaded into an empty symbol cache
var SampleSymbols = []domain.Symbol{
	{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ"},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Exchange: "NASDAQ"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Exchange: "NASDAQ"},
	{Symbol: "AMZN", Name: "Amazon.com Inc.", Exchange: "NASDAQ"},
	{Symbol: "META", Name: "Meta Platforms Inc.", Exchange: "NASDAQ"},
	{Symbol: "TSLA", Name: "Tesla Inc.", Exchange: "NASDAQ"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Exchange: "NASDAQ"},
	{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Exchange: "NYSE"},
	{Symbol: "BAC", Name: "Bank of America Corp.", Exchange: "NYSE"},
	{Symbol: "WMT", Name: "Walmart Inc.", Exchange: "NYSE"},
}

// SymbolSeeder fills the symbol cache with the sample symbols
type SymbolSeeder struct {
	repo    domain.SymbolRepository
	symbols []domain.Symbol
}

// NewSymbolSeeder creates a new SymbolSeeder instance
func NewSymbolSeeder(repo domain.SymbolRepository) *SymbolSeeder {
	return &SymbolSeeder{
		repo:    repo,
		symbols: SampleSymbols,
	}
}

// Seed inserts every sample symbol that is not cached yet.
// Existing rows are left untouched so names refreshed by searches survive restarts.
// Returns the number of inserted symbols.
func (s *SymbolSeeder) Seed(ctx context.Context) (int, error) {
	inserted := 0
	for _, sym := range s.symbols {
		_, err := s.repo.GetBySymbol(ctx, sym.Symbol)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return inserted, fmt.Errorf("failed to check symbol %s: %w", sym.Symbol, err)
		}

		sym := sym
		if err := s.repo.Upsert(ctx, &sym); err != nil {
			return inserted, fmt.Errorf("failed to seed symbol %s: %w", sym.Symbol, err)
		}
		inserted++
	}

	return inserted, nil
}
