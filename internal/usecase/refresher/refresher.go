package refresher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/logger"
	"github.com/simaogato/shareledger/internal/usecase/quotes"
)

// BatchFetcher fetches and records prices for many symbols
type BatchFetcher interface {
	Batch(ctx context.Context, symbols []string) ([]quotes.BatchQuote, error)
}

// MarketClock reports whether any listing exchange of the symbols is in session
type MarketClock interface {
	AnyOpen(symbols []string, t time.Time) bool
}

// Result describes one refresh run
type Result struct {
	Symbols   int
	Refreshed int
	Skipped   bool
}

// Refresher periodically refreshes the LivePrice snapshots of active holdings
type Refresher struct {
	HoldingRepo domain.HoldingRepository
	Prices      BatchFetcher
	Clock       MarketClock
	Timeout     time.Duration
	Now         func() time.Time
	Logger      *logger.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewRefresher creates a new Refresher. A nil clock refreshes regardless of market hours.
func NewRefresher(holdingRepo domain.HoldingRepository, prices BatchFetcher, clock MarketClock, timeout time.Duration, log *logger.Logger) *Refresher {
	if log == nil {
		log = logger.Discard()
	}
	return &Refresher{
		HoldingRepo: holdingRepo,
		Prices:      prices,
		Clock:       clock,
		Timeout:     timeout,
		Now:         time.Now,
		Logger:      log.Named("refresher"),
	}
}

// RunOnce refreshes the prices of every distinct active symbol
// Logic:
//  1. List active holdings; no holdings means nothing to do
//  2. Skip the run when a clock is set and every exchange is closed
//  3. Batch fetch; unavailable symbols are simply missing from the result
func (r *Refresher) RunOnce(ctx context.Context) (Result, error) {
	holdings, err := r.HoldingRepo.List(ctx, domain.HoldingStatusActive)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list active holdings: %w", err)
	}

	symbols := distinct(holdings)
	res := Result{Symbols: len(symbols)}
	if len(symbols) == 0 {
		return res, nil
	}

	if r.Clock != nil && !r.Clock.AnyOpen(symbols, r.Now()) {
		res.Skipped = true
		return res, nil
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	refreshed, err := r.Prices.Batch(ctx, symbols)
	if err != nil {
		return res, fmt.Errorf("failed to refresh prices: %w", err)
	}
	res.Refreshed = len(refreshed)
	return res, nil
}

// Start schedules RunOnce with a cron spec such as "@every 1m" or "*/5 9-16 * * 1-5"
func (r *Refresher) Start(spec string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil {
		return fmt.Errorf("refresher already started")
	}

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, r.tick); err != nil {
		return fmt.Errorf("%w: invalid refresh schedule %q: %w", domain.ErrInvalidInput, spec, err)
	}
	c.Start()
	r.cron = c

	r.Logger.Info("Price refresher started with schedule %s", spec)
	return nil
}

// Stop halts scheduling and waits for a running refresh to finish
func (r *Refresher) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	r.Logger.Info("Price refresher stopped")
}

func (r *Refresher) tick() {
	res, err := r.RunOnce(context.Background())
	switch {
	case err != nil:
		r.Logger.Error("Price refresh failed: %v", err)
	case res.Skipped:
		r.Logger.Debug("Markets closed, skipped refresh of %d symbols", res.Symbols)
	default:
		r.Logger.Debug("Refreshed %d/%d symbols", res.Refreshed, res.Symbols)
	}
}

func distinct(holdings []*domain.Holding) []string {
	seen := make(map[string]struct{}, len(holdings))
	out := make([]string, 0, len(holdings))
	for _, h := range holdings {
		if _, ok := seen[h.Symbol]; ok {
			continue
		}
		seen[h.Symbol] = struct{}{}
		out = append(out, h.Symbol)
	}
	return out
}
