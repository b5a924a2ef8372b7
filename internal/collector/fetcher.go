package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"StockScout/internal/metrics"
	"StockScout/internal/model"
)

// ErrNoData is returned when a provider answers successfully but has no bars
// or metrics for the symbol.
var ErrNoData = errors.New("no data returned")

// StatusError is a non-200 reply from a provider's HTTP API.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", e.Provider, e.Code, e.Body)
}

// Transient reports whether a later attempt can succeed: throttling and
// server-side failures.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// Fetcher defines the interface for fetching daily price bars.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
	Name() string
}

// FundamentalsFetcher defines the interface for fetching fundamental metrics.
type FundamentalsFetcher interface {
	FetchFundamentals(ctx context.Context, symbol string) (model.Fundamentals, error)
}

// NewFetcher builds the named price provider wrapped with retries and a
// circuit breaker. The mock provider is returned unwrapped.
func NewFetcher(provider, polygonKey, proxy string, m *metrics.Metrics) (Fetcher, error) {
	var f Fetcher
	switch provider {
	case "polygon":
		f = NewPolygonFetcher(polygonKey, proxy)
	case "yahoo":
		f = NewYahooFetcher(proxy)
	case "mock":
		return &MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", provider)
	}
	return NewResilientFetcher(f, DefaultRetryConfig, DefaultBreakerConfig, m), nil
}
