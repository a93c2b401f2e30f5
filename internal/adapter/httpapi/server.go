package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simaogato/shareledger/internal/config"
	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/logger"
	"github.com/simaogato/shareledger/internal/usecase/ledger"
	"github.com/simaogato/shareledger/internal/usecase/portfolio"
	"github.com/simaogato/shareledger/internal/usecase/quotes"
)

// Ledger is the holding lifecycle used by the API
type Ledger interface {
	CreateHolding(ctx context.Context, input ledger.CreateHoldingInput) (*ledger.CreateHoldingResult, error)
	ListHoldings(ctx context.Context, status domain.HoldingStatus) ([]*domain.Holding, error)
	GetHolding(ctx context.Context, id int64) (*domain.Holding, error)
	UpdateHolding(ctx context.Context, id int64, update domain.HoldingUpdate) (int64, error)
	Sell(ctx context.Context, req domain.SaleRequest) (*domain.SaleResult, error)
	ListSoldShares(ctx context.Context) ([]*domain.SoldShareView, error)
	ListSymbols(ctx context.Context) ([]*domain.Symbol, error)
}

// Prices looks up and records live prices
type Prices interface {
	Lookup(ctx context.Context, symbol string) (*domain.LivePrice, error)
	Batch(ctx context.Context, symbols []string) ([]quotes.BatchQuote, error)
	Snapshots(ctx context.Context) ([]*domain.LivePrice, error)
}

// SymbolSearch ranks provider matches for a query
type SymbolSearch interface {
	Search(ctx context.Context, query string) []domain.Symbol
}

// Portfolio values the portfolio
type Portfolio interface {
	Summary(ctx context.Context) (*portfolio.Summary, error)
}

// Services groups the use cases served over HTTP
type Services struct {
	Ledger    Ledger
	Prices    Prices
	Symbols   SymbolSearch
	Portfolio Portfolio
	Hub       *Hub
	Currency  string
	Now       func() time.Time
}

// Server is the JSON API under /api
type Server struct {
	Config   config.HTTPConfig
	Logger   *logger.Logger
	services Services
	engine   *gin.Engine
	http     *http.Server
}

// NewServer builds the router. The hub, when set, must be running.
func NewServer(cfg config.HTTPConfig, services Services, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	if services.Now == nil {
		services.Now = time.Now
	}
	if !log.DebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Config:   cfg,
		Logger:   log.Named("http"),
		services: services,
		engine:   gin.New(),
	}

	s.engine.Use(gin.Recovery(), requestID(), accessLog(s.Logger), cors(cfg.AllowedOrigins))
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")

	api.GET("/health", s.health)

	api.POST("/holdings", s.createHolding)
	api.GET("/holdings", s.listHoldings)
	api.POST("/holdings/sell", s.sell)
	api.GET("/holdings/:id", s.getHolding)
	api.PUT("/holdings/:id", s.updateHolding)
	api.GET("/sold-shares", s.listSoldShares)

	api.GET("/symbols", s.listSymbols)
	api.GET("/symbols/search", s.searchSymbols)

	api.POST("/prices", s.postPrice)
	api.GET("/prices", s.listPrices)
	api.POST("/prices/batch", s.batchPrices)
	api.GET("/prices/:symbol", s.getPrice)

	api.GET("/portfolio/summary", s.summary)
	api.GET("/portfolio/report", s.report)

	if s.services.Hub != nil {
		api.GET("/prices/stream", s.services.Hub.serveWS)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.Logger.Info("Starting HTTP server on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
