package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/shareledger/internal/adapter/grpc"
	"github.com/simaogato/shareledger/internal/adapter/httpapi"
	"github.com/simaogato/shareledger/internal/adapter/marketcal"
	"github.com/simaogato/shareledger/internal/adapter/repository/sqlstore"
	"github.com/simaogato/shareledger/internal/adapter/yahoo"
	"github.com/simaogato/shareledger/internal/config"
	"github.com/simaogato/shareledger/internal/logger"
	"github.com/simaogato/shareledger/internal/usecase/ledger"
	"github.com/simaogato/shareledger/internal/usecase/portfolio"
	"github.com/simaogato/shareledger/internal/usecase/pricecache"
	"github.com/simaogato/shareledger/internal/usecase/quotes"
	"github.com/simaogato/shareledger/internal/usecase/refresher"
	"github.com/simaogato/shareledger/internal/usecase/seeder"
	"github.com/simaogato/shareledger/internal/usecase/symbols"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel, cfg.Name)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Setup Database
	db, err := sqlstore.Open(ctx, cfg.Storage)
	if err != nil {
		log.Critical("Failed to open database: %v", err)
	}

	// 2. Initialize Repositories
	holdingRepo := sqlstore.NewHoldingRepository(db)
	soldShareRepo := sqlstore.NewSoldShareRepository(db)
	symbolRepo := sqlstore.NewSymbolRepository(db)
	livePriceRepo := sqlstore.NewLivePriceRepository(db)

	// 3. Initialize Services (Use Cases)
	provider := yahoo.NewClient(cfg.Quotes)
	resolver := symbols.NewResolver(provider, cfg.Quotes.AllowedExchanges, cfg.Quotes.Timeout(), log.Named("symbols"))
	fetcher := quotes.NewFetcher(resolver, provider, cfg.Quotes.Timeout())
	cache := pricecache.New(fetcher, cfg.Quotes.CacheTTL(), pricecache.WithLogger(log.Named("pricecache")))
	log.Info("Price cache TTL %s", cache.TTL())

	hub := httpapi.NewHub(log)
	go hub.Run(ctx)

	priceService := quotes.NewPriceService(cache, livePriceRepo, cfg.Quotes.Concurrency, log.Named("prices"))
	priceService.Publisher = hub

	ledgerService := ledger.NewLedgerService(holdingRepo, soldShareRepo, symbolRepo, resolver, log.Named("ledger"))
	portfolioService := portfolio.NewPortfolioService(holdingRepo, soldShareRepo, symbolRepo, priceService)

	symbolSeeder := seeder.NewSymbolSeeder(symbolRepo)
	inserted, err := symbolSeeder.Seed(ctx)
	if err != nil {
		log.Critical("Failed to seed symbols: %v", err)
	}
	log.Info("Symbol cache seeded (%d new)", inserted)

	// 4. Start HTTP API
	httpServer := httpapi.NewServer(cfg.HTTP, httpapi.Services{
		Ledger:    ledgerService,
		Prices:    priceService,
		Symbols:   resolver,
		Portfolio: portfolioService,
		Hub:       hub,
		Currency:  cfg.Currency,
	}, log)

	go func() {
		log.Info("HTTP server listening on %s", cfg.HTTP.Address())
		if err := httpServer.Start(); err != nil {
			log.Critical("Failed to serve HTTP: %v", err)
		}
	}()

	// 5. Start gRPC Server
	var grpcServer *grpclib.Server
	if cfg.GRPC.Enabled {
		grpcServer = grpclib.NewServer(
			grpclib.UnaryInterceptor(grpcadapter.AuthInterceptor(cfg.GRPC.APIToken)),
		)
		grpcadapter.Register(grpcServer, grpcadapter.NewServer(ledgerService, portfolioService))
		healthpb.RegisterHealthServer(grpcServer, health.NewServer())
		reflection.Register(grpcServer)

		lis, err := net.Listen("tcp", cfg.GRPC.Address())
		if err != nil {
			log.Critical("Failed to listen on %s: %v", cfg.GRPC.Address(), err)
		}

		go func() {
			log.Info("gRPC server listening on %s", cfg.GRPC.Address())
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpclib.ErrServerStopped) {
				log.Critical("Failed to serve gRPC: %v", err)
			}
		}()
	}

	// 6. Background price refresh
	var priceRefresher *refresher.Refresher
	if cfg.Refresher.Enabled {
		var clock refresher.MarketClock
		if cfg.Refresher.MarketHoursOnly {
			clock = marketcal.NewRegistry(log)
		}
		priceRefresher = refresher.NewRefresher(holdingRepo, priceService, clock, cfg.Quotes.Timeout()*2, log)
		if err := priceRefresher.Start(cfg.Refresher.Schedule); err != nil {
			log.Critical("Failed to start refresher: %v", err)
		}
		log.Info("Price refresher scheduled (%s)", cfg.Refresher.Schedule)
	}

	waitForShutdown(log, func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP shutdown: %v", err)
		}
		if grpcServer != nil {
			grpcServer.GracefulStop()
			log.Info("gRPC server stopped")
		}
		if priceRefresher != nil {
			priceRefresher.Stop()
		}
		cancel()
		if err := db.Close(); err != nil {
			log.Error("Closing database: %v", err)
		}
	})
}

// waitForShutdown waits for SIGTERM or SIGINT and runs stop
func waitForShutdown(log *logger.Logger, stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info("Received signal: %v. Shutting down gracefully...", sig)

	stop()
	log.Info("Shutdown complete")
}
