package model

import "time"

// IndicatorRow holds the indicator values for one bar. A nil field means
// the series did not have enough history at that position. With the default
// parameters SMAShort is SMA(20), SMALong is SMA(50) and RSI is RSI(14).
type IndicatorRow struct {
	Date           time.Time
	Close          float64
	SMAShort       *float64
	SMALong        *float64
	BollingerUpper *float64
	BollingerMid   *float64
	BollingerLower *float64
	RSI            *float64
	MACD           *float64
	MACDSignal     *float64
}

// Histogram returns MACD minus its signal line when both are defined.
func (r IndicatorRow) Histogram() *float64 {
	if r.MACD == nil || r.MACDSignal == nil {
		return nil
	}
	h := *r.MACD - *r.MACDSignal
	return &h
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
