package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics for batch scoring.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TickersScored   *prometheus.CounterVec   // labels: profile
	TickerFailures  *prometheus.CounterVec   // labels: reason
	FetchDuration   *prometheus.HistogramVec // labels: provider
	BatchDuration   prometheus.Histogram
	LatestScore     *prometheus.GaugeVec // labels: ticker, profile
	BreakerState    *prometheus.GaugeVec // labels: breaker; 0=closed, 1=half-open, 2=open
	ProviderRetries *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

var durationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// NewMetrics creates and registers all metrics on reg. A nil reg uses a
// fresh private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		TickersScored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockscout",
			Name:      "tickers_scored_total",
			Help:      "Tickers scored successfully, by score profile",
		}, []string{"profile"}),
		TickerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockscout",
			Name:      "ticker_failures_total",
			Help:      "Tickers that could not be scored, by failure reason",
		}, []string{"reason"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stockscout",
			Name:      "fetch_duration_seconds",
			Help:      "Price series fetch latency",
			Buckets:   durationBuckets,
		}, []string{"provider"}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stockscout",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a full batch run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		LatestScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "stockscout",
			Name:      "latest_score",
			Help:      "Most recent 1-100 score per ticker and profile",
		}, []string{"ticker", "profile"}),
		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "stockscout",
			Name:      "circuit_breaker_state",
			Help:      "Provider circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"breaker"}),
		ProviderRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockscout",
			Name:      "provider_retries_total",
			Help:      "Retried provider requests",
		}, []string{"provider"}),
		gatherer: reg,
	}
}

// ObserveScore records a successful score.
func (m *Metrics) ObserveScore(ticker, profile string, score int) {
	if m == nil {
		return
	}
	m.TickersScored.WithLabelValues(profile).Inc()
	m.LatestScore.WithLabelValues(ticker, profile).Set(float64(score))
}

// ObserveFailure records a ticker that could not be scored.
func (m *Metrics) ObserveFailure(reason string) {
	if m == nil {
		return
	}
	m.TickerFailures.WithLabelValues(reason).Inc()
}

// ObserveFetch records how long a provider fetch took.
func (m *Metrics) ObserveFetch(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveBatch records the duration of a full batch.
func (m *Metrics) ObserveBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(d.Seconds())
}

// SetBreakerState records a circuit breaker transition.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// IncRetry counts a retried provider request.
func (m *Metrics) IncRetry(provider string) {
	if m == nil {
		return
	}
	m.ProviderRetries.WithLabelValues(provider).Inc()
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
