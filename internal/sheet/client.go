package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rcleozier/creator-log/internal/apperr"
	"github.com/rcleozier/creator-log/internal/logging"
	"github.com/rcleozier/creator-log/internal/metrics"
	"github.com/rcleozier/creator-log/internal/tracing"
)

// maxBodyBytes bounds how much of the export is read. Larger exports are
// rejected rather than truncated.
const maxBodyBytes = 16 << 20

// Client downloads the published CSV export of the case sheet.
type Client struct {
	url        string
	httpClient *http.Client
	maxBytes   int64
	log        zerolog.Logger
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBodyBytes,
		log:        logging.Component("sheet"),
	}
}

// FetchRaw downloads the export body. Transport failures and non-2xx
// responses wrap apperr.ErrUpstreamUnavailable; a body over the size limit
// wraps apperr.ErrMalformedPayload.
func (c *Client) FetchRaw(ctx context.Context) (body []byte, err error) {
	ctx, span := tracing.StartSpan(ctx, "sheet", "sheet.fetch", attribute.String("http.url", c.url))
	start := time.Now()
	defer func() {
		metrics.UpstreamDuration.WithLabelValues("sheet", "fetch", metrics.Result(err)).Observe(time.Since(start).Seconds())
		tracing.End(span, err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build sheet request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch sheet: %v", apperr.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: sheet returned %d", apperr.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet body: %v", apperr.ErrUpstreamUnavailable, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: sheet body exceeds %d bytes", apperr.ErrMalformedPayload, c.maxBytes)
	}
	return body, nil
}

// Fetch downloads and parses the export.
func (c *Client) Fetch(ctx context.Context) (*Table, error) {
	body, err := c.FetchRaw(ctx)
	if err != nil {
		result := "upstream"
		if errors.Is(err, apperr.ErrMalformedPayload) {
			result = "malformed"
		}
		metrics.SheetFetchTotal.WithLabelValues(result).Inc()
		return nil, err
	}
	t, err := Parse(body)
	if err != nil {
		metrics.SheetFetchTotal.WithLabelValues("malformed").Inc()
		c.log.Warn().Err(err).Int("bytes", len(body)).Msg("sheet payload rejected")
		return nil, err
	}
	metrics.SheetFetchTotal.WithLabelValues("ok").Inc()
	c.log.Debug().Int("rows", len(t.Rows)).Int("columns", len(t.Columns)).Msg("sheet fetched")
	return t, nil
}
