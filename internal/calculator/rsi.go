package calculator

import (
	"errors"

	"StockScout/internal/model"
)

// wilderState carries Wilder-smoothed average gain and loss across a series.
type wilderState struct {
	period  int
	changes int
	avgGain float64
	avgLoss float64
}

// update feeds one close-to-close change. It reports false until period
// changes have been seen; the first value is seeded with their simple mean.
func (w *wilderState) update(change float64) (float64, bool) {
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}
	w.changes++
	p := float64(w.period)

	switch {
	case w.changes < w.period:
		w.avgGain += gain
		w.avgLoss += loss
		return 0, false
	case w.changes == w.period:
		w.avgGain = (w.avgGain + gain) / p
		w.avgLoss = (w.avgLoss + loss) / p
	default:
		w.avgGain = (w.avgGain*(p-1) + gain) / p
		w.avgLoss = (w.avgLoss*(p-1) + loss) / p
	}
	return rsiFromAverages(w.avgGain, w.avgLoss), true
}

// rsiFromAverages maps smoothed averages to RSI. A flat window (no gains and
// no losses) is reported as 50.
func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// RSISeries computes the Wilder RSI at every position. The first value is
// at index period.
func RSISeries(prices []float64, period int) []*float64 {
	out := make([]*float64, len(prices))
	if period <= 0 {
		return out
	}
	w := &wilderState{period: period}
	for i := 1; i < len(prices); i++ {
		if v, ok := w.update(prices[i] - prices[i-1]); ok {
			out[i] = model.Float(v)
		}
	}
	return out
}

// CalculateRSI computes the Wilder-smoothed RSI over the given period.
// Requires at least period+1 bars.
func CalculateRSI(bars []model.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 0, &model.InsufficientDataError{Indicator: "RSI", Need: period + 1, Have: len(bars)}
	}
	series := RSISeries(extractCloses(bars), period)
	return *series[len(series)-1], nil
}
