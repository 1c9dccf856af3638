// Package coingecko is a small rate-limited client for the CoinGecko v3
// REST API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/rcleozier/creator-log/internal/apperr"
	"github.com/rcleozier/creator-log/internal/logging"
	"github.com/rcleozier/creator-log/internal/metrics"
	"github.com/rcleozier/creator-log/internal/tracing"
)

// MaxPerPage is the largest page size the markets endpoint accepts.
const MaxPerPage = 250

const apiKeyHeader = "x-cg-demo-api-key"

type Config struct {
	BaseURL string
	APIKey  string
	RPS     float64
	Burst   int
	Timeout time.Duration
}

// Client calls CoinGecko. Every request first takes a token from a shared
// limiter; there are no retries.
type Client struct {
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logging.Component("coingecko"),
	}
}

// Markets lists coins by market cap, descending.
func (c *Client) Markets(ctx context.Context, page, perPage int) ([]MarketCoin, error) {
	q := url.Values{}
	q.Set("vs_currency", Currency)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("sparkline", "false")
	q.Set("price_change_percentage", "24h,7d")

	var coins []MarketCoin
	if err := c.get(ctx, "markets", "/coins/markets", q, &coins); err != nil {
		return nil, err
	}
	if coins == nil {
		coins = []MarketCoin{}
	}
	return coins, nil
}

// Coin fetches one coin with market, developer and community data.
// An unknown id wraps apperr.ErrNotFound.
func (c *Client) Coin(ctx context.Context, id string) (*CoinDetail, error) {
	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("market_data", "true")
	q.Set("community_data", "true")
	q.Set("developer_data", "true")
	q.Set("sparkline", "false")

	var coin CoinDetail
	if err := c.get(ctx, "coin", "/coins/"+url.PathEscape(id), q, &coin); err != nil {
		return nil, err
	}
	return &coin, nil
}

func (c *Client) wait(ctx context.Context) error {
	r := c.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("%w: rate limiter cannot reserve token", apperr.ErrUpstreamUnavailable)
	}
	if delay := r.Delay(); delay > 0 {
		metrics.RateLimitWaits.WithLabelValues("coingecko").Inc()
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			r.Cancel()
			return ctx.Err()
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) (err error) {
	ctx, span := tracing.StartSpan(ctx, "coingecko", "coingecko."+op, attribute.String("http.path", path))
	start := time.Now()
	defer func() {
		metrics.UpstreamDuration.WithLabelValues("coingecko", op, metrics.Result(err)).Observe(time.Since(start).Seconds())
		tracing.End(span, err)
	}()

	if err := c.wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: coingecko %s: %v", apperr.ErrUpstreamUnavailable, op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: coingecko %s %s", apperr.ErrNotFound, op, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		c.log.Warn().Int("status", resp.StatusCode).Str("op", op).Str("body", string(snippet)).Msg("coingecko request failed")
		return fmt.Errorf("%w: coingecko %s returned %d", apperr.ErrUpstreamUnavailable, op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode coingecko %s: %v", apperr.ErrMalformedPayload, op, err)
	}
	return nil
}
