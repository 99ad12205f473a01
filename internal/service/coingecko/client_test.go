package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	domsvc "VolCast/internal/domain/service"
	"VolCast/pkg/cache"
	"VolCast/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func testServer(t *testing.T, listHits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/coins/list", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(listHits, 1)
		json.NewEncoder(w).Encode([]coinEntry{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
			{ID: "batcat", Symbol: "btc", Name: "Batcat"}, // symbol collision, first wins
			{ID: "ethereum", Symbol: "eth", Name: "Ethereum"},
		})
	})
	mux.HandleFunc("/coins/bitcoin/market_chart", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("vs_currency") != "usd" {
			http.Error(w, "bad vs_currency", http.StatusBadRequest)
			return
		}
		day := int64(24 * time.Hour / time.Millisecond)
		base := int64(1700000000000)
		json.NewEncoder(w).Encode(marketChart{
			Prices: [][2]float64{
				{float64(base), 42000},
				{float64(base + day), 43100},
				{float64(base + day), 43100}, // duplicate timestamp, dropped
				{float64(base + 2*day), 0},   // non-positive price, dropped
				{float64(base + 3*day), 41800},
			},
			TotalVolumes: [][2]float64{
				{float64(base), 1e9},
				{float64(base + day), 1.1e9},
				{float64(base + 3*day), 0.9e9},
			},
		})
	})
	mux.HandleFunc("/coins/ethereum/market_chart", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) (domsvc.PriceSource, *cache.MemoryCache) {
	t.Helper()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })
	src := New(&Config{BaseURL: baseURL, CoinListTTL: time.Hour}, mem, testLogger(t))
	return src, mem
}

func TestHistoricalPrices(t *testing.T) {
	var listHits int32
	srv := testServer(t, &listHits)
	src, _ := newTestClient(t, srv.URL)

	prices, err := src.HistoricalPrices(context.Background(), "BTC", 30)
	if err != nil {
		t.Fatalf("HistoricalPrices: %v", err)
	}
	if len(prices) != 3 {
		t.Fatalf("expected 3 usable points, got %d", len(prices))
	}
	if prices[0].Price != 42000 || prices[1].Price != 43100 || prices[2].Price != 41800 {
		t.Errorf("unexpected prices: %+v", prices)
	}
	if prices[1].Volume != 1.1e9 {
		t.Errorf("volume not matched by timestamp: got %v", prices[1].Volume)
	}
	for i := 1; i < len(prices); i++ {
		if !prices[i].Timestamp.After(prices[i-1].Timestamp) {
			t.Errorf("timestamps not strictly increasing at %d", i)
		}
	}
}

func TestCoinListCached(t *testing.T) {
	var listHits int32
	srv := testServer(t, &listHits)
	src, _ := newTestClient(t, srv.URL)

	for i := 0; i < 3; i++ {
		if _, err := src.HistoricalPrices(context.Background(), "btc", 30); err != nil {
			t.Fatalf("HistoricalPrices #%d: %v", i+1, err)
		}
	}
	if got := atomic.LoadInt32(&listHits); got != 1 {
		t.Errorf("expected 1 coins/list fetch, got %d", got)
	}
}

func TestUnknownTokenIsDataUnavailable(t *testing.T) {
	var listHits int32
	srv := testServer(t, &listHits)
	src, _ := newTestClient(t, srv.URL)

	_, err := src.HistoricalPrices(context.Background(), "NOPE", 30)
	if !errors.Is(err, domsvc.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestUpstreamErrorIsDataUnavailable(t *testing.T) {
	var listHits int32
	srv := testServer(t, &listHits)
	src, _ := newTestClient(t, srv.URL)

	_, err := src.HistoricalPrices(context.Background(), "ETH", 30)
	if !errors.Is(err, domsvc.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}
