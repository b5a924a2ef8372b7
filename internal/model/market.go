package model

import (
	"time"
)

// Bar represents a single daily OHLCV record.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the daily bars of one ticker, oldest first.
type PriceSeries struct {
	Symbol    string
	Bars      []Bar
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.Bars) }

// Closes extracts the closing prices in series order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar.
func (s PriceSeries) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Validate checks ordering and price sanity. Dates must be strictly
// increasing at day granularity and OHLC prices positive.
func (s PriceSeries) Validate() error {
	for i, b := range s.Bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return &InvalidSeriesError{Symbol: s.Symbol, Index: i, Reason: "non-positive price"}
		}
		if b.Volume < 0 {
			return &InvalidSeriesError{Symbol: s.Symbol, Index: i, Reason: "negative volume"}
		}
		if i == 0 {
			continue
		}
		prev, cur := day(s.Bars[i-1].Date), day(b.Date)
		switch {
		case cur.Equal(prev):
			return &InvalidSeriesError{Symbol: s.Symbol, Index: i, Reason: "duplicate date " + cur.Format(time.DateOnly)}
		case cur.Before(prev):
			return &InvalidSeriesError{Symbol: s.Symbol, Index: i, Reason: "dates not increasing"}
		}
	}
	return nil
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
