package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"

	"StockScout/internal/metrics"
	"StockScout/internal/model"
)

// RetryConfig controls the exponential backoff between provider attempts.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries:     3,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
}

// BreakerConfig holds the circuit breaker settings for one provider.
type BreakerConfig struct {
	MaxRequests uint32        // max requests allowed in half-open state
	Interval    time.Duration // cyclic period of the closed state to clear counts
	Timeout     time.Duration // period of the open state before half-open
}

var DefaultBreakerConfig = BreakerConfig{
	MaxRequests: 3,
	Interval:    time.Minute,
	Timeout:     30 * time.Second,
}

// permanent reports errors that another attempt cannot fix.
func permanent(err error) bool {
	var se *StatusError
	if errors.As(err, &se) && !se.Transient() {
		return true
	}
	return errors.Is(err, ErrNoData) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// outage reports errors that count against the provider's breaker. A bad
// symbol or a rejected request says nothing about the provider's health.
func outage(err error) bool {
	if errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	return true
}

// WithRetry calls fn until it succeeds, returns a permanent error, or the
// retries run out.
func WithRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if permanent(err) {
			return err
		}

		lastErr = err
		if attempt < config.MaxRetries {
			log.Printf("[WARN] retry attempt %d/%d failed: %v", attempt+1, config.MaxRetries, err)
		}
	}

	return fmt.Errorf("failed after %d retries: %w", config.MaxRetries, lastErr)
}

// ResilientFetcher wraps a Fetcher with a circuit breaker and retries.
type ResilientFetcher struct {
	next    Fetcher
	breaker *gobreaker.CircuitBreaker[[]model.Bar]
	retry   RetryConfig
	metrics *metrics.Metrics
}

// NewResilientFetcher wraps next. m may be nil.
func NewResilientFetcher(next Fetcher, retry RetryConfig, bc BreakerConfig, m *metrics.Metrics) *ResilientFetcher {
	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !outage(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[WARN] circuit breaker %s: %s -> %s", name, from, to)
			m.SetBreakerState(name, stateToInt(to))
		},
	}
	m.SetBreakerState(next.Name(), 0)
	return &ResilientFetcher{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[[]model.Bar](settings),
		retry:   retry,
		metrics: m,
	}
}

func (r *ResilientFetcher) Name() string { return r.next.Name() }

// State returns the breaker's current state.
func (r *ResilientFetcher) State() gobreaker.State { return r.breaker.State() }

func (r *ResilientFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	var bars []model.Bar
	attempt := 0
	err := WithRetry(ctx, r.retry, func() error {
		if attempt > 0 {
			r.metrics.IncRetry(r.next.Name())
		}
		attempt++

		b, err := r.breaker.Execute(func() ([]model.Bar, error) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return r.next.FetchDailyBars(ctx, symbol, start, end)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("provider %s unavailable: %w", r.next.Name(), err)
			}
			return err
		}
		bars = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bars, nil
}

func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
