package collector

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"StockScout/internal/model"
	"StockScout/internal/strategy"
)

var testStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFetchSeries_NormalizesSymbol(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 100, Days: 30}, nil)
	series, err := c.FetchSeries(context.Background(), "  aapl ", testStart, testStart.AddDate(0, 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if series.Symbol != "AAPL" {
		t.Errorf("expected AAPL, got %q", series.Symbol)
	}
	if series.Len() != 30 {
		t.Errorf("expected 30 bars, got %d", series.Len())
	}
}

func TestFetchSeries_NoData(t *testing.T) {
	mock := &MockFetcher{Price: 100, Fail: map[string]error{"ZZZZ": ErrNoData}}
	c := NewCollector(mock, nil)
	_, err := c.FetchSeries(context.Background(), "zzzz", testStart, testStart.AddDate(0, 1, 0))

	var dl *model.DownloadError
	if !errors.As(err, &dl) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if dl.Symbol != "ZZZZ" {
		t.Errorf("expected symbol ZZZZ, got %s", dl.Symbol)
	}
	want := "failed to download data for ZZZZ: No data returned for ZZZZ"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestFetchSeries_BadRange(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 100}, nil)
	if _, err := c.FetchSeries(context.Background(), "AAPL", testStart, testStart.AddDate(0, 0, -1)); err == nil {
		t.Error("expected error for end before start")
	}
	if _, err := c.FetchSeries(context.Background(), "   ", testStart, testStart); err == nil {
		t.Error("expected error for empty ticker")
	}
}

func TestSeries_UsesLookback(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewCollector(&MockFetcher{Price: 50, Days: 10}, nil)
	c.now = func() time.Time { return now }
	c.Lookback = 30

	series, err := c.Series(context.Background(), "msft")
	if err != nil {
		t.Fatal(err)
	}
	first := series.Bars[0]
	if !first.Date.Equal(now.AddDate(0, 0, -30)) {
		t.Errorf("expected series to start 30 days back, got %s", first.Date)
	}
	if !series.FetchedAt.Equal(now) {
		t.Errorf("expected FetchedAt %s, got %s", now, series.FetchedAt)
	}
}

func TestAnalyze_RisingSeries(t *testing.T) {
	fund := &MockFundamentals{Data: map[string]model.Fundamentals{
		"AAPL": {model.MetricTrailingPE: 12},
	}}
	c := NewCollector(&MockFetcher{Price: 100, Days: 120}, fund)

	a, err := c.Analyze(context.Background(), "AAPL", testStart, testStart.AddDate(0, 4, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Rows) != 120 {
		t.Fatalf("expected 120 rows, got %d", len(a.Rows))
	}
	trend, ok := a.Score.Factor(strategy.FactorTrend)
	if !ok || trend.RawScore != 1 {
		t.Errorf("expected bullish trend factor, got %+v", trend)
	}
	pe, ok := a.Score.Factor(strategy.FactorPE)
	if !ok || pe.RawScore != 1 {
		t.Errorf("expected P/E factor +1, got %+v", pe)
	}
	if a.Score.Value < 1 || a.Score.Value > 100 {
		t.Errorf("score out of range: %d", a.Score.Value)
	}
	last := a.Series.Bars[len(a.Series.Bars)-1]
	if math.Abs(a.High-last.High) > 1e-9 {
		t.Errorf("expected high %.4f, got %.4f", last.High, a.High)
	}
	if math.Abs(a.Low-a.Series.Bars[0].Low) > 1e-9 {
		t.Errorf("expected low %.4f, got %.4f", a.Series.Bars[0].Low, a.Low)
	}
}

func TestAnalyze_FundamentalsFailureIsNotFatal(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 100, Days: 60}, &MockFundamentals{Err: errors.New("rate limited")})
	a, err := c.Analyze(context.Background(), "AAPL", testStart, testStart.AddDate(0, 2, 0))
	if err != nil {
		t.Fatal(err)
	}
	if a.Fundamentals != nil {
		t.Errorf("expected nil fundamentals, got %v", a.Fundamentals)
	}
	if _, ok := a.Score.Factor(strategy.FactorPE); ok {
		t.Error("P/E factor should be absent without fundamentals")
	}
}

func TestAnalyze_InvalidSeries(t *testing.T) {
	bars := generateMockBars(100, testStart, 5)
	bars[3].Date = bars[2].Date
	c := NewCollector(&MockFetcher{Data: map[string][]model.Bar{"AAPL": bars}}, nil)

	_, err := c.Analyze(context.Background(), "AAPL", testStart, testStart.AddDate(0, 0, 5))
	var inv *model.InvalidSeriesError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidSeriesError, got %v", err)
	}
	if inv.Index != 3 {
		t.Errorf("expected index 3, got %d", inv.Index)
	}
}
