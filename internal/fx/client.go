// internal/fx/client.go
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"fxwallet/internal/domain"
	"fxwallet/internal/util"

	"github.com/shopspring/decimal"
)

// RateProvider supplies the decimal exchange rate for an ordered currency
// pair. Implementations must return exactly 1 for equal currencies without
// consulting any backing source.
type RateProvider interface {
	GetRate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error)
}

// ratesResponse is the payload of the external exchange-rate API.
type ratesResponse struct {
	Result          string                     `json:"result"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

// Client fetches exchange rates over HTTP and caches them with a TTL. The
// HTTP timeout is independent of any database lock wait in the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      *RateCache
	logger     *slog.Logger
}

// NewClient creates a rate client against the given API.
func NewClient(baseURL, apiKey string, timeout time.Duration, cache *RateCache, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      cache,
		logger:     logger,
	}
}

// GetRate returns the exchange rate from one currency to another, using a
// cached value when one is fresh. A pair the source does not quote yields
// util.ErrRateUnavailable; an unreachable or failing source yields
// util.ErrRateSourceFailure.
func (c *Client) GetRate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	if rate, ok := c.cache.Get(from, to); ok {
		c.logger.Debug("Using cached exchange rate", "from", from, "to", to, "rate", rate)
		return rate, nil
	}

	rates, err := c.fetchRates(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}

	rate, ok := rates[string(to)]
	if !ok || rate.IsZero() {
		return decimal.Zero, fmt.Errorf("no rate for %s to %s: %w", from, to, util.ErrRateUnavailable)
	}

	c.cache.Set(from, to, rate)
	c.logger.Info("Fetched and cached exchange rate", "from", from, "to", to, "rate", rate)

	return rate, nil
}

func (c *Client) fetchRates(ctx context.Context, base domain.Currency) (map[string]decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s/latest/%s", c.baseURL, c.apiKey, base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", util.ErrRateSourceFailure)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Exchange rate request failed", "base", base, "error", err)
		return nil, fmt.Errorf("rate request for %s failed: %w", base, util.ErrRateSourceFailure)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Exchange rate source returned error status", "base", base, "status", resp.StatusCode)
		return nil, fmt.Errorf("rate source returned status %d: %w", resp.StatusCode, util.ErrRateSourceFailure)
	}

	var payload ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", util.ErrRateSourceFailure)
	}
	if payload.Result != "success" {
		return nil, fmt.Errorf("rate source returned result %q: %w", payload.Result, util.ErrRateSourceFailure)
	}

	return payload.ConversionRates, nil
}
