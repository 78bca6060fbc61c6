package pricing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nie11kun/price-comparator/models"
)

// ErrRateUnavailable means neither a live lookup nor the fallback table
// could produce a rate for the pair.
var ErrRateUnavailable = errors.New("conversion rate unavailable")

// RateClient fetches a live conversion rate for a currency pair.
type RateClient interface {
	PairRate(ctx context.Context, from, to string) (float64, error)
}

// ExchangeRateAPIClient talks to the ExchangeRate-API v6 pair endpoint.
type ExchangeRateAPIClient struct {
	http   *resty.Client
	apiKey string
}

func NewExchangeRateAPIClient(apiKey string, timeout time.Duration) *ExchangeRateAPIClient {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetBaseURL("https://v6.exchangerate-api.com/v6")
	return &ExchangeRateAPIClient{http: client, apiKey: apiKey}
}

type pairResponse struct {
	Result         string  `json:"result"`
	ConversionRate float64 `json:"conversion_rate"`
	ErrorType      string  `json:"error-type"`
}

func (c *ExchangeRateAPIClient) PairRate(ctx context.Context, from, to string) (float64, error) {
	if c.apiKey == "" {
		return 0, fmt.Errorf("exchange rate API key is missing")
	}

	var body pairResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(fmt.Sprintf("/%s/pair/%s/%s", c.apiKey, from, to))
	if err != nil {
		return 0, fmt.Errorf("exchange rate request failed: %v", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("exchange rate API returned status %d", resp.StatusCode())
	}
	if body.Result != "success" {
		errorType := body.ErrorType
		if errorType == "" {
			errorType = "unknown API error"
		}
		return 0, fmt.Errorf("exchange rate API error: %s", errorType)
	}
	if body.ConversionRate <= 0 {
		return 0, fmt.Errorf("exchange rate API returned no rate for %s->%s", from, to)
	}
	return body.ConversionRate, nil
}

// RateProvider resolves conversion rates with a live client backed by a
// static fallback table. Breaker state lives in the per-run session, so
// nothing leaks between runs.
type RateProvider struct {
	client    RateClient
	fallback  map[string]float64 // rate into the reference currency
	reference string
	threshold int
}

func NewRateProvider(client RateClient, fallback map[string]float64, reference string, threshold int) *RateProvider {
	if threshold < 1 {
		threshold = 1
	}
	return &RateProvider{
		client:    client,
		fallback:  fallback,
		reference: strings.ToUpper(reference),
		threshold: threshold,
	}
}

// NewRun creates a fresh rate session for one update run.
func (p *RateProvider) NewRun() *RunRates {
	return &RunRates{provider: p, failures: make(map[string]int)}
}

// RunRates is the per-run rate session. Once the circuit breaker opens
// it stays open for the rest of the run: every later pair skips the
// remote call and goes straight to the fallback table.
type RunRates struct {
	provider *RateProvider

	mu       sync.Mutex
	failures map[string]int
	open     bool
}

// GetRate resolves a conversion rate for the pair. Identity pairs are
// always 1.0 and never touch the breaker.
func (r *RunRates) GetRate(ctx context.Context, from, to string) (models.ConversionRate, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if from == to {
		return models.ConversionRate{From: from, To: to, Rate: 1.0, Source: models.RateSourceLive}, nil
	}

	if !r.breakerOpen() {
		rate, err := r.provider.client.PairRate(ctx, from, to)
		if err == nil {
			r.recordSuccess(from + "/" + to)
			log.Printf("Got live rate %.4f for %s->%s", rate, from, to)
			return models.ConversionRate{From: from, To: to, Rate: rate, Source: models.RateSourceLive}, nil
		}
		log.Printf("Live rate lookup failed for %s->%s: %v", from, to, err)
		r.recordFailure(from + "/" + to)
	}

	// Fallback rates are only expressed against the reference currency.
	if to == r.provider.reference {
		if rate, ok := r.provider.fallback[from]; ok {
			log.Printf("Using fallback rate %.4f for %s->%s", rate, from, to)
			return models.ConversionRate{From: from, To: to, Rate: rate, Source: models.RateSourceFallback}, nil
		}
	}
	return models.ConversionRate{}, ErrRateUnavailable
}

func (r *RunRates) breakerOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

func (r *RunRates) recordSuccess(pair string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[pair] = 0
}

func (r *RunRates) recordFailure(pair string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[pair]++
	if r.failures[pair] >= r.provider.threshold && !r.open {
		r.open = true
		log.Printf("Rate lookups disabled for the rest of this run after %d failure(s) on %s", r.failures[pair], pair)
	}
}
