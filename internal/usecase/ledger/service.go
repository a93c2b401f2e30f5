package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/logger"
)

// SymbolResolver canonicalizes a requested ticker
type SymbolResolver interface {
	Resolve(ctx context.Context, raw string) (domain.Symbol, bool)
}

// CreateHoldingInput represents the input for recording a purchase
type CreateHoldingInput struct {
	Symbol        string
	Quantity      int64
	PurchasePrice decimal.Decimal
	PurchaseDate  time.Time // zero means today
	Notes         string
}

// CreateHoldingResult is the persisted holding and the symbol it was resolved to
type CreateHoldingResult struct {
	Holding *domain.Holding
	Symbol  domain.Symbol
}

// LedgerService handles the holding lifecycle
type LedgerService struct {
	HoldingRepo   domain.HoldingRepository
	SoldShareRepo domain.SoldShareRepository
	SymbolRepo    domain.SymbolRepository
	Resolver      SymbolResolver
	Now           func() time.Time
	Logger        *logger.Logger
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(
	holdingRepo domain.HoldingRepository,
	soldShareRepo domain.SoldShareRepository,
	symbolRepo domain.SymbolRepository,
	resolver SymbolResolver,
	log *logger.Logger,
) *LedgerService {
	if log == nil {
		log = logger.Discard()
	}
	return &LedgerService{
		HoldingRepo:   holdingRepo,
		SoldShareRepo: soldShareRepo,
		SymbolRepo:    symbolRepo,
		Resolver:      resolver,
		Now:           time.Now,
		Logger:        log,
	}
}

// CreateHolding records a purchase
// Logic:
//  1. Validate quantity and price
//  2. Resolve the symbol against the provider (unresolvable means invalid input)
//  3. Refresh the symbol cache (failures are logged, not fatal)
//  4. Persist the holding under the canonical symbol
func (s *LedgerService) CreateHolding(ctx context.Context, input CreateHoldingInput) (*CreateHoldingResult, error) {
	raw := strings.TrimSpace(input.Symbol)
	if raw == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be a positive integer", domain.ErrInvalidInput)
	}
	if input.PurchasePrice.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: purchase price must be positive", domain.ErrInvalidInput)
	}

	symbol, ok := s.Resolver.Resolve(ctx, raw)
	if !ok {
		return nil, fmt.Errorf("%w: invalid or unsupported stock symbol %q", domain.ErrInvalidInput, raw)
	}

	if err := s.SymbolRepo.Upsert(ctx, &symbol); err != nil {
		s.Logger.Warning("failed to cache symbol %s: %v", symbol.Symbol, err)
	}

	purchaseDate := input.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = s.today()
	}

	holding := &domain.Holding{
		Symbol:        symbol.Symbol,
		Quantity:      input.Quantity,
		PurchasePrice: input.PurchasePrice,
		PurchaseDate:  purchaseDate,
		Notes:         input.Notes,
		Status:        domain.HoldingStatusActive,
	}

	if err := s.HoldingRepo.Create(ctx, holding); err != nil {
		return nil, err
	}

	s.Logger.Info("recorded holding %d: %d %s @ %s", holding.ID, holding.Quantity, holding.Symbol, holding.PurchasePrice)

	return &CreateHoldingResult{Holding: holding, Symbol: symbol}, nil
}

// ListHoldings returns holdings, optionally filtered by status
func (s *LedgerService) ListHoldings(ctx context.Context, status domain.HoldingStatus) ([]*domain.Holding, error) {
	switch status {
	case "", domain.HoldingStatusActive, domain.HoldingStatusSold:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	return s.HoldingRepo.List(ctx, status)
}

// GetHolding returns a single holding
func (s *LedgerService) GetHolding(ctx context.Context, id int64) (*domain.Holding, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: holding id must be a positive integer", domain.ErrInvalidInput)
	}
	return s.HoldingRepo.GetByID(ctx, id)
}

// UpdateHolding edits an active holding and returns the number of changed rows
func (s *LedgerService) UpdateHolding(ctx context.Context, id int64, update domain.HoldingUpdate) (int64, error) {
	if id <= 0 {
		return 0, fmt.Errorf("%w: holding id must be a positive integer", domain.ErrInvalidInput)
	}
	if err := update.Validate(); err != nil {
		return 0, err
	}
	return s.HoldingRepo.Update(ctx, id, update)
}

// Sell settles a sale. The sell date is stamped with today's date when missing.
func (s *LedgerService) Sell(ctx context.Context, req domain.SaleRequest) (*domain.SaleResult, error) {
	if req.SellDate.IsZero() {
		req.SellDate = s.today()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := s.HoldingRepo.Sell(ctx, req)
	if err != nil {
		s.Logger.Warning("sale against holding %d rejected: %v", req.HoldingID, err)
		return nil, err
	}

	s.Logger.Info("sold %d shares of holding %d @ %s (remaining %d, %s)",
		result.Quantity, result.HoldingID, result.SellPrice, result.RemainingQuantity, result.Status)
	return result, nil
}

// ListSoldShares returns every sale newest first
func (s *LedgerService) ListSoldShares(ctx context.Context) ([]*domain.SoldShareView, error) {
	return s.SoldShareRepo.List(ctx)
}

// ListSymbols returns the validated symbol cache
func (s *LedgerService) ListSymbols(ctx context.Context) ([]*domain.Symbol, error) {
	return s.SymbolRepo.List(ctx)
}

func (s *LedgerService) today() time.Time {
	y, m, d := s.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
