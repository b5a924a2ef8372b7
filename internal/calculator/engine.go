// Package calculator computes technical indicators over daily price series.
//
// Compute produces one IndicatorRow per bar and never fails: positions
// without enough history carry nil values. The Calculate* helpers and
// Summarize return single latest values and report *model.InsufficientDataError
// when the series is too short.
package calculator

import (
	"fmt"

	"StockScout/internal/model"
)

// Params holds the indicator windows.
type Params struct {
	SMAShort        int
	SMALong         int
	BollingerPeriod int
	BollingerK      float64
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
}

// DefaultParams returns SMA(20/50), Bollinger(20, 2), RSI(14), MACD(12, 26, 9).
func DefaultParams() Params {
	return Params{
		SMAShort:        20,
		SMALong:         50,
		BollingerPeriod: 20,
		BollingerK:      2,
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
	}
}

// MidTermParams keeps the standard Bollinger, RSI and MACD windows but pairs
// SMA(10) with SMA(20), for a roughly one-month horizon.
func MidTermParams() Params {
	p := DefaultParams()
	p.SMAShort = 10
	p.SMALong = 20
	return p
}

// ShortTermParams returns compressed windows for a roughly one-week horizon.
func ShortTermParams() Params {
	return Params{
		SMAShort:        3,
		SMALong:         5,
		BollingerPeriod: 5,
		BollingerK:      2,
		RSIPeriod:       5,
		MACDFast:        3,
		MACDSlow:        8,
		MACDSignal:      3,
	}
}

// Validate checks that every window is usable.
func (p Params) Validate() error {
	windows := []struct {
		name string
		n    int
	}{
		{"sma_short", p.SMAShort},
		{"sma_long", p.SMALong},
		{"rsi", p.RSIPeriod},
		{"macd_fast", p.MACDFast},
		{"macd_slow", p.MACDSlow},
		{"macd_signal", p.MACDSignal},
	}
	for _, w := range windows {
		if w.n <= 0 {
			return fmt.Errorf("%s period must be positive, got %d", w.name, w.n)
		}
	}
	if p.BollingerPeriod < 2 {
		return fmt.Errorf("bollinger period must be at least 2, got %d", p.BollingerPeriod)
	}
	if p.BollingerK <= 0 {
		return fmt.Errorf("bollinger k must be positive, got %g", p.BollingerK)
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("macd fast period %d must be shorter than slow period %d", p.MACDFast, p.MACDSlow)
	}
	return nil
}

// Compute returns one indicator row per bar, aligned with series.Bars.
func Compute(series model.PriceSeries, p Params) []model.IndicatorRow {
	closes := series.Closes()
	smaShort := SMASeries(closes, p.SMAShort)
	smaLong := SMASeries(closes, p.SMALong)
	bands := BollingerSeries(closes, p.BollingerPeriod, p.BollingerK)
	rsi := RSISeries(closes, p.RSIPeriod)
	macd, sig := MACDSeries(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)

	rows := make([]model.IndicatorRow, len(series.Bars))
	for i, bar := range series.Bars {
		row := model.IndicatorRow{
			Date:       bar.Date,
			Close:      bar.Close,
			SMAShort:   smaShort[i],
			SMALong:    smaLong[i],
			RSI:        rsi[i],
			MACD:       macd[i],
			MACDSignal: sig[i],
		}
		if b := bands[i]; b != nil {
			row.BollingerUpper = model.Float(b.Upper)
			row.BollingerMid = model.Float(b.Mid)
			row.BollingerLower = model.Float(b.Lower)
		}
		rows[i] = row
	}
	return rows
}

// Kind names a single indicator for Summarize.
type Kind int

const (
	KindSMAShort Kind = iota
	KindSMALong
	KindBollinger
	KindRSI
	KindMACD
	KindMACDSignal
)

func (k Kind) String() string {
	switch k {
	case KindSMAShort:
		return "SMA short"
	case KindSMALong:
		return "SMA long"
	case KindBollinger:
		return "Bollinger"
	case KindRSI:
		return "RSI"
	case KindMACD:
		return "MACD"
	case KindMACDSignal:
		return "MACD signal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MinBars returns the number of bars needed before kind is first defined.
func MinBars(k Kind, p Params) int {
	switch k {
	case KindSMAShort:
		return p.SMAShort
	case KindSMALong:
		return p.SMALong
	case KindBollinger:
		return p.BollingerPeriod
	case KindRSI:
		return p.RSIPeriod + 1
	case KindMACD:
		return max(p.MACDFast, p.MACDSlow)
	case KindMACDSignal:
		return max(p.MACDFast, p.MACDSlow) + p.MACDSignal - 1
	default:
		return 0
	}
}

// Summarize returns the latest indicator row, failing unless every requested
// kind is defined at the last bar.
func Summarize(series model.PriceSeries, p Params, kinds ...Kind) (model.IndicatorRow, error) {
	if err := p.Validate(); err != nil {
		return model.IndicatorRow{}, fmt.Errorf("invalid params: %w", err)
	}
	have := series.Len()
	if have == 0 {
		return model.IndicatorRow{}, &model.InsufficientDataError{Indicator: "close", Need: 1, Have: 0}
	}
	for _, k := range kinds {
		if need := MinBars(k, p); have < need {
			return model.IndicatorRow{}, &model.InsufficientDataError{Indicator: k.String(), Need: need, Have: have}
		}
	}
	rows := Compute(series, p)
	return rows[len(rows)-1], nil
}
