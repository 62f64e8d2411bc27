// Package search provides the market-evidence capability used by the
// MarketValidator enrichment stage: a rate-limited HTTP client over a
// web-search API, with result caching and a circuit breaker so a dead or
// exhausted endpoint degrades gracefully.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Result is one piece of market evidence: a ranked snippet with its source.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Rank    int    `json:"rank"`
}

// Client is the search capability injected into MarketValidator.
// Implementations return *Error for failures so callers can record typed
// FAILED reasons.
type Client interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// ClientConfig holds connection settings for the search API.
type ClientConfig struct {
	Endpoint       string        `yaml:"endpoint" env:"SEARCH_ENDPOINT" env-default:""`
	APIKey         string        `yaml:"-" env:"SEARCH_API_KEY"` // Secret, env only
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SEARCH_REQUEST_TIMEOUT" env-default:"15s"`
	// RatePerSecond is the client-side request budget; the API bills per
	// call and throttles independently.
	RatePerSecond float64 `yaml:"rate_per_second" env:"SEARCH_RATE_PER_SECOND" env-default:"2"`
	Burst         int     `yaml:"burst" env:"SEARCH_BURST" env-default:"4"`
	// CostPerCallUSD is attributed to each uncached search.
	CostPerCallUSD float64 `yaml:"cost_per_call_usd" env:"SEARCH_COST_PER_CALL_USD" env-default:"0.005"`
}

// HTTPClient calls a JSON web-search API.
type HTTPClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewHTTPClient creates a rate-limited search client.
func NewHTTPClient(cfg *ClientConfig, logger *zap.Logger) (*HTTPClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &HTTPClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		logger:   logger.Named("search"),
	}, nil
}

var _ Client = (*HTTPClient)(nil)

// Search runs one query and returns ranked evidence snippets.
func (c *HTTPClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, NewError(ErrorTypeTimeout, "rate limiter wait aborted", false, err)
	}

	payload := map[string]any{
		"q":   query,
		"num": limit,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError(ErrorTypeMalformed, "marshal query", false, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(ErrorTypeUnavailable, "build request", false, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewError(ErrorTypeTimeout, "request timed out", true, err)
		}
		return nil, NewError(ErrorTypeUnavailable, "request failed", true, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusPaymentRequired:
		return nil, NewError(ErrorTypeQuota, fmt.Sprintf("quota exhausted (HTTP %d)", resp.StatusCode), false, nil)
	case resp.StatusCode >= 500:
		return nil, NewError(ErrorTypeUnavailable, fmt.Sprintf("server error (HTTP %d)", resp.StatusCode), true, nil)
	case resp.StatusCode != http.StatusOK:
		return nil, NewError(ErrorTypeUnavailable, fmt.Sprintf("unexpected status %s", resp.Status), false, nil)
	}

	var decoded struct {
		Results []Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, NewError(ErrorTypeMalformed, "decode response", false, err)
	}

	for i := range decoded.Results {
		if decoded.Results[i].Rank == 0 {
			decoded.Results[i].Rank = i + 1
		}
	}

	c.logger.Debug("search completed",
		zap.String("query", query),
		zap.Int("results", len(decoded.Results)),
		zap.Duration("elapsed", time.Since(start)))

	return decoded.Results, nil
}
