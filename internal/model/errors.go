package model

import "fmt"

// InsufficientDataError is returned when a series is too short for a
// requested single-value indicator.
type InsufficientDataError struct {
	Indicator string
	Need      int
	Have      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d bars, have %d", e.Indicator, e.Need, e.Have)
}

// InvalidSeriesError reports a malformed price series.
type InvalidSeriesError struct {
	Symbol string
	Index  int
	Reason string
}

func (e *InvalidSeriesError) Error() string {
	return fmt.Sprintf("invalid series %s at bar %d: %s", e.Symbol, e.Index, e.Reason)
}

// DownloadError wraps a market data provider failure.
type DownloadError struct {
	Symbol string
	Err    error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download data for %s: %v", e.Symbol, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
