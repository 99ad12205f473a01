package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"VolCast/internal/domain/models"
	domsvc "VolCast/internal/domain/service"
	"VolCast/pkg/cache"
	pkghttp "VolCast/pkg/http"
	"VolCast/pkg/logger"
	"VolCast/pkg/util"
)

const coinListKey = "coingecko:coinlist"

// Config holds CoinGecko connection settings.
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	CoinListTTL time.Duration `yaml:"coinlist_ttl"`
}

// Client implements a PriceSource backed by the CoinGecko REST API. The
// symbol-to-id coin list is cached so repeated analyses don't hammer the
// /coins/list endpoint.
type Client struct {
	cfg   *Config
	http  *pkghttp.Client
	cache cache.Service
	log   *logger.Logger
}

// New creates a CoinGecko PriceSource.
func New(cfg *Config, c cache.Service, log *logger.Logger) domsvc.PriceSource {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:   cfg,
		http:  pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		cache: c,
		log:   log,
	}
}

type coinEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type marketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// HistoricalPrices fetches the daily USD price history for a token symbol.
func (c *Client) HistoricalPrices(ctx context.Context, token string, days int) (models.PriceSeries, error) {
	id, err := c.resolveID(ctx, token)
	if err != nil {
		return nil, err
	}

	var chart marketChart
	err = c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodGet,
		URL:     fmt.Sprintf("%s/coins/%s/market_chart", c.cfg.BaseURL, id),
		Headers: c.headers(),
		QueryParams: map[string][]string{
			"vs_currency": {"usd"},
			"days":        {strconv.Itoa(days)},
			"interval":    {"daily"},
		},
	}, &chart)
	if err != nil {
		return nil, fmt.Errorf("market_chart %s: %v: %w", id, err, domsvc.ErrDataUnavailable)
	}

	volumes := make(map[int64]float64, len(chart.TotalVolumes))
	for _, v := range chart.TotalVolumes {
		volumes[int64(v[0])] = v[1]
	}

	out := make(models.PriceSeries, 0, len(chart.Prices))
	var lastDay time.Time
	for _, p := range chart.Prices {
		ts := int64(p[0]) // milliseconds
		day := util.DayStart(time.UnixMilli(ts))
		// One sample per calendar day; drop non-positive prices and the
		// intra-day duplicate CoinGecko appends for the current day.
		if p[1] <= 0 || !day.After(lastDay) {
			continue
		}
		lastDay = day
		out = append(out, models.PricePoint{
			Timestamp: day,
			Price:     p[1],
			Volume:    volumes[ts],
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty price history for %s: %w", id, domsvc.ErrDataUnavailable)
	}

	c.log.Debug("fetched price history",
		logger.String("coin", id),
		logger.Int("days", days),
		logger.Int("samples", len(out)))
	return out, nil
}

// resolveID maps a token symbol like "BTC" to the CoinGecko coin id like
// "bitcoin". The full coin list is fetched once and cached as JSON; on a
// symbol collision the first listing wins.
func (c *Client) resolveID(ctx context.Context, token string) (string, error) {
	symbol := strings.ToLower(strings.TrimSpace(token))

	ids, err := c.coinIDs(ctx)
	if err != nil {
		return "", err
	}
	id, ok := ids[symbol]
	if !ok {
		return "", fmt.Errorf("unknown token %q: %w", token, domsvc.ErrDataUnavailable)
	}
	return id, nil
}

func (c *Client) coinIDs(ctx context.Context) (map[string]string, error) {
	if c.cache != nil {
		var raw string
		if err := c.cache.Get(ctx, coinListKey, &raw); err == nil {
			var ids map[string]string
			if err := json.Unmarshal([]byte(raw), &ids); err == nil {
				return ids, nil
			}
		}
	}

	var list []coinEntry
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodGet,
		URL:     c.cfg.BaseURL + "/coins/list",
		Headers: c.headers(),
	}, &list)
	if err != nil {
		return nil, fmt.Errorf("coins/list: %v: %w", err, domsvc.ErrDataUnavailable)
	}

	ids := make(map[string]string, len(list))
	for _, e := range list {
		sym := strings.ToLower(e.Symbol)
		if sym == "" || e.ID == "" {
			continue
		}
		if _, seen := ids[sym]; !seen {
			ids[sym] = e.ID
		}
	}

	if c.cache != nil {
		ttl := c.cfg.CoinListTTL
		if ttl == 0 {
			ttl = 6 * time.Hour
		}
		raw, err := json.Marshal(ids)
		if err == nil {
			if err := c.cache.Set(ctx, coinListKey, string(raw), ttl); err != nil {
				c.log.Warn("coin list cache write failed", logger.Error(err))
			}
		}
	}

	c.log.Info("coin list refreshed", logger.Int("symbols", len(ids)))
	return ids, nil
}

func (c *Client) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if c.cfg.APIKey != "" {
		h["x-cg-demo-api-key"] = c.cfg.APIKey
	}
	return h
}
