package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/shareledger/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default().Quotes
	cfg.SearchURL = srv.URL + "/v1/finance/search"
	cfg.ChartURL = srv.URL + "/v8/finance/chart"
	cfg.Retries = 0
	cfg.TimeoutSeconds = 2
	return NewClient(cfg)
}

func TestClient_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/finance/search", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("quotesCount"))
		assert.Equal(t, "0", r.URL.Query().Get("newsCount"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"quotes":[
			{"symbol":"AAPL","shortname":"Apple Inc.","longname":"Apple Inc.","exchange":"NMS","quoteType":"EQUITY","score":31000},
			{"symbol":"APLE","shortname":"Apple Hospitality","exchange":"NYQ","quoteType":"EQUITY","score":20000}
		]}`))
	})

	matches, err := client.Search(context.Background(), "apple")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "AAPL", matches[0].Symbol)
	assert.Equal(t, "NMS", matches[0].Exchange)
	assert.Equal(t, "EQUITY", matches[0].QuoteType)
	assert.Equal(t, 31000.0, matches[0].Score)
}

func TestClient_SearchServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Search(context.Background(), "apple")
	assert.Error(t, err)
}

func TestClient_Quote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "2d", r.URL.Query().Get("range"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"chart":{"result":[{"meta":{
			"currency":"USD","symbol":"AAPL","regularMarketTime":1717000000,
			"regularMarketPrice":189.5,"chartPreviousClose":187.25
		}}],"error":null}}`))
	})

	quote, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, "USD", quote.Currency)
	assert.True(t, decimal.RequireFromString("189.5").Equal(quote.CurrentPrice))
	require.NotNil(t, quote.PreviousClose)
	assert.True(t, decimal.RequireFromString("187.25").Equal(*quote.PreviousClose))
	assert.Equal(t, time.Unix(1717000000, 0).UTC(), quote.MarketTime)
}

func TestClient_QuoteChartError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := client.Quote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestClient_QuoteTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Quote(ctx, "AAPL")
	assert.Error(t, err)
}
