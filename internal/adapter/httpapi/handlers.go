package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/report"
	"github.com/simaogato/shareledger/internal/usecase/ledger"
)

func (s *Server) bind(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		s.writeError(c, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error()))
		return false
	}
	return true
}

func (s *Server) holdingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(c, fmt.Errorf("%w: holding id %q must be a positive integer", domain.ErrInvalidInput, c.Param("id")))
		return 0, false
	}
	return id, true
}

func (s *Server) health(c *gin.Context) {
	subscribers := 0
	if s.services.Hub != nil {
		subscribers = s.services.Hub.Subscribers()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "subscribers": subscribers})
}

func (s *Server) createHolding(c *gin.Context) {
	var req createHoldingRequest
	if !s.bind(c, &req) {
		return
	}

	qty, err := domain.ParseQuantity(req.Quantity.String())
	if err != nil {
		s.writeError(c, err)
		return
	}
	price, err := domain.ParsePrice("purchase price", req.PurchasePrice.String())
	if err != nil {
		s.writeError(c, err)
		return
	}
	input := ledger.CreateHoldingInput{
		Symbol:        req.Symbol,
		Quantity:      qty,
		PurchasePrice: price,
		Notes:         req.Notes,
	}
	if strings.TrimSpace(req.PurchaseDate) != "" {
		if input.PurchaseDate, err = domain.ParseDate(req.PurchaseDate); err != nil {
			s.writeError(c, err)
			return
		}
	}

	result, err := s.services.Ledger.CreateHolding(c.Request.Context(), input)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, createHoldingResponse{
		ID:       result.Holding.ID,
		Symbol:   result.Symbol.Symbol,
		Name:     result.Symbol.Name,
		Exchange: result.Symbol.Exchange,
	})
}

func (s *Server) listHoldings(c *gin.Context) {
	status := domain.HoldingStatus(strings.ToLower(c.Query("status")))
	holdings, err := s.services.Ledger.ListHoldings(c.Request.Context(), status)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := make([]holdingResponse, 0, len(holdings))
	for _, h := range holdings {
		resp = append(resp, toHoldingResponse(h))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getHolding(c *gin.Context) {
	id, ok := s.holdingID(c)
	if !ok {
		return
	}
	h, err := s.services.Ledger.GetHolding(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toHoldingResponse(h))
}

func (s *Server) updateHolding(c *gin.Context) {
	id, ok := s.holdingID(c)
	if !ok {
		return
	}
	var req updateHoldingRequest
	if !s.bind(c, &req) {
		return
	}

	qty, err := domain.ParseQuantity(req.Quantity.String())
	if err != nil {
		s.writeError(c, err)
		return
	}
	price, err := domain.ParsePrice("purchase price", req.PurchasePrice.String())
	if err != nil {
		s.writeError(c, err)
		return
	}
	date, err := domain.ParseDate(req.PurchaseDate)
	if err != nil {
		s.writeError(c, err)
		return
	}

	changes, err := s.services.Ledger.UpdateHolding(c.Request.Context(), id, domain.HoldingUpdate{
		Quantity:      qty,
		PurchasePrice: price,
		PurchaseDate:  date,
		Notes:         req.Notes,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, updateHoldingResponse{
		Message:      "Holding updated successfully",
		ChangesCount: changes,
	})
}

func (s *Server) sell(c *gin.Context) {
	var req sellRequest
	if !s.bind(c, &req) {
		return
	}

	sale, err := domain.ParseSaleRequest(req.HoldingID.String(), req.Quantity.String(), req.SellPrice.String(), req.Notes)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result, err := s.services.Ledger.Sell(c.Request.Context(), sale)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSaleResponse(result))
}

func (s *Server) listSoldShares(c *gin.Context) {
	sold, err := s.services.Ledger.ListSoldShares(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := make([]soldShareResponse, 0, len(sold))
	for _, v := range sold {
		resp = append(resp, toSoldShareResponse(v))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listSymbols(c *gin.Context) {
	symbols, err := s.services.Ledger.ListSymbols(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := make([]symbolResponse, 0, len(symbols))
	for _, sym := range symbols {
		resp = append(resp, toSymbolResponse(*sym))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) searchSymbols(c *gin.Context) {
	matches := s.services.Symbols.Search(c.Request.Context(), c.Query("q"))

	resp := make([]symbolResponse, 0, len(matches))
	for _, m := range matches {
		resp = append(resp, toSymbolResponse(m))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) postPrice(c *gin.Context) {
	var req priceRequest
	if !s.bind(c, &req) {
		return
	}
	s.lookupPrice(c, req.Symbol)
}

func (s *Server) getPrice(c *gin.Context) {
	s.lookupPrice(c, c.Param("symbol"))
}

func (s *Server) lookupPrice(c *gin.Context, symbol string) {
	price, err := s.services.Prices.Lookup(c.Request.Context(), symbol)
	if err != nil {
		s.writePriceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLivePriceResponse(price))
}

func (s *Server) listPrices(c *gin.Context) {
	prices, err := s.services.Prices.Snapshots(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLivePriceResponses(prices))
}

func (s *Server) batchPrices(c *gin.Context) {
	var req batchRequest
	if !s.bind(c, &req) {
		return
	}

	found, err := s.services.Prices.Batch(c.Request.Context(), req.Symbols)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBatchResponse(found))
}

func (s *Server) summary(c *gin.Context) {
	summary, err := s.services.Portfolio.Summary(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSummaryResponse(summary))
}

func (s *Server) report(c *gin.Context) {
	summary, err := s.services.Portfolio.Summary(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	currency := c.DefaultQuery("currency", s.services.Currency)
	md, err := report.SummaryMarkdown(summary, currency, s.services.Now())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}
