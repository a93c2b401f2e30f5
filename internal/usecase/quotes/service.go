package quotes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/logger"
)

// QuoteSource returns cached quotes, reporting false when a price is unavailable
type QuoteSource interface {
	Get(ctx context.Context, symbol string) (domain.PriceQuote, bool)
}

// Publisher receives every snapshot written by the service
type Publisher interface {
	Publish(prices []*domain.LivePrice)
}

// BatchQuote is one entry of a batch lookup
type BatchQuote struct {
	Symbol        string
	CurrentPrice  decimal.Decimal
	PreviousPrice *decimal.Decimal
}

// PriceService looks up prices and records LivePrice snapshots
type PriceService struct {
	Quotes        QuoteSource
	LivePriceRepo domain.LivePriceRepository
	Publisher     Publisher
	Concurrency   int
	Now           func() time.Time
	Logger        *logger.Logger
}

// NewPriceService creates a new PriceService instance
func NewPriceService(quotes QuoteSource, livePriceRepo domain.LivePriceRepository, concurrency int, log *logger.Logger) *PriceService {
	if concurrency <= 0 {
		concurrency = 1
	}
	if log == nil {
		log = logger.Discard()
	}
	return &PriceService{
		Quotes:        quotes,
		LivePriceRepo: livePriceRepo,
		Concurrency:   concurrency,
		Now:           time.Now,
		Logger:        log,
	}
}

// Lookup fetches the price of symbol and records its snapshot
// Logic:
//   - unavailable prices return ErrExternalUnavailable and write nothing
//   - the snapshot is keyed by the canonical symbol of the quote
func (s *PriceService) Lookup(ctx context.Context, symbol string) (*domain.LivePrice, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}

	q, ok := s.Quotes.Get(ctx, symbol)
	if !ok {
		return nil, fmt.Errorf("%w: unable to fetch price for %s", domain.ErrExternalUnavailable, symbol)
	}

	snapshot := domain.NewLivePrice(q, s.Now().UTC())
	if err := s.LivePriceRepo.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}

	s.publish([]*domain.LivePrice{snapshot})
	return snapshot, nil
}

// Batch fetches many prices concurrently, records a snapshot for each
// available one and returns only those, in request order
func (s *PriceService) Batch(ctx context.Context, symbols []string) ([]BatchQuote, error) {
	found := make([]*domain.PriceQuote, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)
	for i, symbol := range symbols {
		i, symbol := i, strings.TrimSpace(symbol)
		if symbol == "" {
			continue
		}
		g.Go(func() error {
			if q, ok := s.Quotes.Get(gctx, symbol); ok {
				found[i] = &q
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	result := make([]BatchQuote, 0, len(symbols))
	snapshots := make([]*domain.LivePrice, 0, len(symbols))
	for _, q := range found {
		if q == nil {
			continue
		}
		snapshot := domain.NewLivePrice(*q, now)
		if err := s.LivePriceRepo.Upsert(ctx, snapshot); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
		result = append(result, BatchQuote{
			Symbol:        q.Symbol,
			CurrentPrice:  q.CurrentPrice,
			PreviousPrice: q.PreviousClose,
		})
	}

	s.publish(snapshots)
	return result, nil
}

// Snapshots lists every stored LivePrice row
func (s *PriceService) Snapshots(ctx context.Context) ([]*domain.LivePrice, error) {
	return s.LivePriceRepo.List(ctx)
}

// QuoteMap returns the available quotes for symbols keyed by the requested string
func (s *PriceService) QuoteMap(ctx context.Context, symbols []string) map[string]domain.PriceQuote {
	var (
		mu     sync.Mutex
		result = make(map[string]domain.PriceQuote, len(symbols))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			if q, ok := s.Quotes.Get(gctx, symbol); ok {
				mu.Lock()
				result[symbol] = q
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func (s *PriceService) publish(prices []*domain.LivePrice) {
	if s.Publisher == nil || len(prices) == 0 {
		return
	}
	s.Publisher.Publish(prices)
}
