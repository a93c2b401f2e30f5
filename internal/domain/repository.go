package domain

import (
	"context"
)

// HoldingRepository defines the interface for holding persistence operations
type HoldingRepository interface {
	// Create persists a new holding and assigns its ID
	Create(ctx context.Context, holding *Holding) error

	// GetByID retrieves a holding by its ID
	GetByID(ctx context.Context, id int64) (*Holding, error)

	// List retrieves holdings, optionally filtered by status
	// If statusFilter is empty, returns all holdings
	List(ctx context.Context, statusFilter HoldingStatus) ([]*Holding, error)

	// Update edits an active holding and returns the number of changed rows
	Update(ctx context.Context, id int64, update HoldingUpdate) (int64, error)

	// Sell settles a sale atomically: the sold-share insert and the holding
	// update either both happen or neither does
	Sell(ctx context.Context, req SaleRequest) (*SaleResult, error)
}

// SoldShareRepository defines the interface for sold-share reads
type SoldShareRepository interface {
	// List retrieves every sale joined with its holding, newest sell date first
	List(ctx context.Context) ([]*SoldShareView, error)
}

// SymbolRepository defines the interface for the validated symbol cache
type SymbolRepository interface {
	// Upsert inserts or refreshes a symbol
	Upsert(ctx context.Context, symbol *Symbol) error

	// GetBySymbol retrieves a cached symbol
	GetBySymbol(ctx context.Context, symbol string) (*Symbol, error)

	// List retrieves every cached symbol ordered by ticker
	List(ctx context.Context) ([]*Symbol, error)
}

// LivePriceRepository defines the interface for price snapshot persistence
type LivePriceRepository interface {
	// Upsert overwrites the snapshot for the price's symbol
	Upsert(ctx context.Context, price *LivePrice) error

	// GetBySymbol retrieves the snapshot of a symbol
	GetBySymbol(ctx context.Context, symbol string) (*LivePrice, error)

	// List retrieves every snapshot ordered by symbol
	List(ctx context.Context) ([]*LivePrice, error)
}

// SymbolSearcher is the external search capability used to validate tickers
type SymbolSearcher interface {
	Search(ctx context.Context, query string) ([]SymbolMatch, error)
}

// QuoteProvider is the external quote capability
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*ProviderQuote, error)
}
