package main

import (
	"context"
	"fmt"
	"os"

	"github.com/simaogato/shareledger/internal/adapter/repository/sqlstore"
	"github.com/simaogato/shareledger/internal/adapter/yahoo"
	"github.com/simaogato/shareledger/internal/config"
	"github.com/simaogato/shareledger/internal/logger"
	"github.com/simaogato/shareledger/internal/usecase/ledger"
	"github.com/simaogato/shareledger/internal/usecase/portfolio"
	"github.com/simaogato/shareledger/internal/usecase/pricecache"
	"github.com/simaogato/shareledger/internal/usecase/quotes"
	"github.com/simaogato/shareledger/internal/usecase/symbols"
)

// app is the wiring shared by every command. It talks to the store directly,
// so the server does not need to be running.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *sqlstore.DB
	resolver  *symbols.Resolver
	ledger    *ledger.LedgerService
	prices    *quotes.PriceService
	portfolio *portfolio.PortfolioService
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		return nil, err
	}

	log := logger.New(os.Stderr, cfg.LogLevel, cfg.Name)

	db, err := sqlstore.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	holdingRepo := sqlstore.NewHoldingRepository(db)
	soldShareRepo := sqlstore.NewSoldShareRepository(db)
	symbolRepo := sqlstore.NewSymbolRepository(db)

	provider := yahoo.NewClient(cfg.Quotes)
	resolver := symbols.NewResolver(provider, cfg.Quotes.AllowedExchanges, cfg.Quotes.Timeout(), log.Named("symbols"))
	fetcher := quotes.NewFetcher(resolver, provider, cfg.Quotes.Timeout())
	cache := pricecache.New(fetcher, cfg.Quotes.CacheTTL(), pricecache.WithLogger(log.Named("pricecache")))
	prices := quotes.NewPriceService(cache, sqlstore.NewLivePriceRepository(db), cfg.Quotes.Concurrency, log.Named("prices"))

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		resolver:  resolver,
		ledger:    ledger.NewLedgerService(holdingRepo, soldShareRepo, symbolRepo, resolver, log.Named("ledger")),
		prices:    prices,
		portfolio: portfolio.NewPortfolioService(holdingRepo, soldShareRepo, symbolRepo, nil),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warning("closing store: %v", err)
	}
}

// withApp opens the app for the duration of fn
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
