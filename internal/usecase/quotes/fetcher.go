package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/simaogato/shareledger/internal/domain"
)

// SymbolResolver canonicalizes a requested ticker
type SymbolResolver interface {
	Resolve(ctx context.Context, raw string) (domain.Symbol, bool)
}

// Fetcher resolves a requested symbol and fetches its quote from the provider.
// It is the uncached lookup sitting behind the price cache.
type Fetcher struct {
	Resolver SymbolResolver
	Provider domain.QuoteProvider
	Timeout  time.Duration
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(resolver SymbolResolver, provider domain.QuoteProvider, timeout time.Duration) *Fetcher {
	return &Fetcher{
		Resolver: resolver,
		Provider: provider,
		Timeout:  timeout,
	}
}

// Fetch returns the quote of the symbol resolved from raw
func (f *Fetcher) Fetch(ctx context.Context, raw string) (*domain.PriceQuote, error) {
	symbol, ok := f.Resolver.Resolve(ctx, raw)
	if !ok {
		return nil, fmt.Errorf("%w: symbol %q could not be resolved", domain.ErrExternalUnavailable, raw)
	}

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	pq, err := f.Provider.Quote(ctx, symbol.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExternalUnavailable, err)
	}

	return &domain.PriceQuote{
		Symbol:        symbol.Symbol,
		Name:          symbol.Name,
		Exchange:      symbol.Exchange,
		CurrentPrice:  pq.CurrentPrice,
		PreviousClose: pq.PreviousClose,
		Currency:      pq.Currency,
		MarketTime:    pq.MarketTime,
	}, nil
}
