// Package climate fetches daily observations from the Environment and
// Climate Change Canada bulk data service, one CSV per station per year.
package climate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"weather-station-etl/internal/observability"
)

const (
	maxAttempts     = 3
	initialBackoff  = 2 * time.Second
	dailyTimeframe  = "2" // bulk service: 1=hourly, 2=daily, 3=monthly
	responseBodyCap = 64 << 20
)

// Client talks to the climate bulk data endpoint. Requests are rate limited
// so batch extraction stays polite to the public service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	backoff    time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a bulk-data client. requestsPerSecond bounds the request
// rate across all station-year fetches.
func NewClient(baseURL string, timeout time.Duration, requestsPerSecond float64, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		backoff:    initialBackoff,
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchStationYear downloads the daily CSV for one station and year. It
// retries transient failures with exponential backoff (2s, doubling, up to
// three attempts) and returns the raw CSV bytes.
func (c *Client) FetchStationYear(ctx context.Context, stationID string, year int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := c.fetchWithRetry(ctx, stationID, year)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	return data, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, stationID string, year int) ([]byte, error) {
	backoff := c.backoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, err := c.fetch(ctx, stationID, year)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.Warn("bulk data fetch failed",
			"station_id", stationID,
			"year", year,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err,
		)
		if attempt < maxAttempts {
			if !sleepWithContext(ctx, backoff) {
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("fetch station %s year %d after %d attempts: %w", stationID, year, maxAttempts, lastErr)
}

func (c *Client) fetch(ctx context.Context, stationID string, year int) ([]byte, error) {
	params := url.Values{
		"format":    {"csv"},
		"stationID": {stationID},
		"Year":      {strconv.Itoa(year)},
		"Month":     {"1"},
		"Day":       {"1"},
		"time":      {"LST"},
		"timeframe": {dailyTimeframe},
		"submit":    {"Download Data"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bulk data request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("bulk data API error: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyCap))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
