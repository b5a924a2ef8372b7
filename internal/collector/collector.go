package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"StockScout/internal/calculator"
	"StockScout/internal/metrics"
	"StockScout/internal/model"
	"StockScout/internal/strategy"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Days  int                    // bars generated per call, default 120
	Data  map[string][]model.Bar // fixed bars per symbol
	Fail  map[string]error       // forced error per symbol
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, start, _ time.Time) ([]model.Bar, error) {
	if err, ok := m.Fail[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Data[symbol]; ok {
		return bars, nil
	}
	days := m.Days
	if days <= 0 {
		days = 120
	}
	return generateMockBars(m.Price, start, days), nil
}

// MockFundamentals serves fixed fundamentals per symbol.
type MockFundamentals struct {
	Data map[string]model.Fundamentals
	Err  error
}

func (m *MockFundamentals) FetchFundamentals(_ context.Context, symbol string) (model.Fundamentals, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Data[symbol], nil
}

func generateMockBars(basePrice float64, start time.Time, count int) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher  Fetcher
	Overview FundamentalsFetcher // optional
	Params   calculator.Params
	Lookback int // calendar days fetched by Series
	Metrics  *metrics.Metrics
	now      func() time.Time
}

// NewCollector creates a new Collector with the default indicator parameters.
func NewCollector(fetcher Fetcher, overview FundamentalsFetcher) *Collector {
	return &Collector{
		Fetcher:  fetcher,
		Overview: overview,
		Params:   calculator.DefaultParams(),
		Lookback: 120,
		now:      time.Now,
	}
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// FetchSeries downloads daily bars in [start, end]. Provider failures come
// back as *model.DownloadError.
func (c *Collector) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return model.PriceSeries{}, errors.New("empty ticker")
	}
	if end.Before(start) {
		return model.PriceSeries{}, fmt.Errorf("end date %s is before start date %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	began := time.Now()
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, start, end)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), time.Since(began))
	if err != nil {
		if errors.Is(err, ErrNoData) {
			err = fmt.Errorf("No data returned for %s", symbol)
		}
		return model.PriceSeries{}, &model.DownloadError{Symbol: symbol, Err: err}
	}
	if len(bars) == 0 {
		return model.PriceSeries{}, &model.DownloadError{Symbol: symbol, Err: fmt.Errorf("No data returned for %s", symbol)}
	}
	return model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: c.clock()}, nil
}

// Series fetches the trailing Lookback days ending today.
func (c *Collector) Series(ctx context.Context, symbol string) (model.PriceSeries, error) {
	end := c.clock()
	lookback := c.Lookback
	if lookback <= 0 {
		lookback = 120
	}
	return c.FetchSeries(ctx, symbol, end.AddDate(0, 0, -lookback), end)
}

// FetchFundamentals returns nil fundamentals when no source is configured.
func (c *Collector) FetchFundamentals(ctx context.Context, symbol string) (model.Fundamentals, error) {
	if c.Overview == nil {
		return nil, nil
	}
	return c.Overview.FetchFundamentals(ctx, NormalizeSymbol(symbol))
}

// Analyze fetches a series, computes the full indicator table and scores the
// latest bar.
func (c *Collector) Analyze(ctx context.Context, symbol string, start, end time.Time) (*model.Analysis, error) {
	series, err := c.FetchSeries(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	return c.AnalyzeSeries(ctx, series)
}

// AnalyzeSeries is Analyze for an already fetched series.
func (c *Collector) AnalyzeSeries(ctx context.Context, series model.PriceSeries) (*model.Analysis, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if err := c.Params.Validate(); err != nil {
		return nil, fmt.Errorf("indicator params: %w", err)
	}

	rows := calculator.Compute(series, c.Params)

	fund, err := c.FetchFundamentals(ctx, series.Symbol)
	if err != nil {
		log.Printf("[WARN] fundamentals for %s unavailable: %v", series.Symbol, err)
		fund = nil
	}

	a := &model.Analysis{Series: series, Rows: rows, Fundamentals: fund}
	if in, ok := strategy.InputFromRows(rows, fund); ok {
		a.Score = strategy.Evaluate(in)
	}
	if h, l, err := calculator.PriceRange(series.Bars, 0); err != nil {
		log.Printf("[WARN] price range calculation failed: %v", err)
	} else {
		a.High, a.Low = h, l
	}
	return a, nil
}

func (c *Collector) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}
