package calculator

import (
	"errors"

	"StockScout/internal/model"
)

// emaState is the running state of one exponential moving average.
type emaState struct {
	period int
	alpha  float64
	count  int
	sum    float64
	value  float64
}

func newEMAState(period int) *emaState {
	return &emaState{period: period, alpha: 2.0 / float64(period+1)}
}

// update feeds the next value. The average is undefined for the first
// period-1 values and is seeded with their simple mean at the period-th.
func (e *emaState) update(v float64) (float64, bool) {
	e.count++
	if e.count < e.period {
		e.sum += v
		return 0, false
	}
	if e.count == e.period {
		e.sum += v
		e.value = e.sum / float64(e.period)
		return e.value, true
	}
	// Same as v*alpha + ema*(1-alpha), but exact when v equals the average.
	e.value += e.alpha * (v - e.value)
	return e.value, true
}

// EMASeries computes the SMA-seeded exponential moving average at every position.
func EMASeries(values []float64, period int) []*float64 {
	out := make([]*float64, len(values))
	if period <= 0 {
		return out
	}
	e := newEMAState(period)
	for i, v := range values {
		if ema, ok := e.update(v); ok {
			out[i] = model.Float(ema)
		}
	}
	return out
}

// MACDSeries returns the MACD line (fast EMA minus slow EMA) and its signal
// line (EMA of the MACD line) at every position.
func MACDSeries(prices []float64, fast, slow, signal int) (macd, sig []*float64) {
	macd = make([]*float64, len(prices))
	sig = make([]*float64, len(prices))
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return macd, sig
	}
	fastEMA, slowEMA, sigEMA := newEMAState(fast), newEMAState(slow), newEMAState(signal)
	for i, p := range prices {
		f, fastOK := fastEMA.update(p)
		s, slowOK := slowEMA.update(p)
		if !fastOK || !slowOK {
			continue
		}
		line := f - s
		macd[i] = model.Float(line)
		if v, ok := sigEMA.update(line); ok {
			sig[i] = model.Float(v)
		}
	}
	return macd, sig
}

// CalculateMACD returns the latest MACD and signal values.
func CalculateMACD(prices []float64, fast, slow, signal int) (line, sigLine float64, err error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return 0, 0, errors.New("periods must be positive")
	}
	need := max(fast, slow) + signal - 1
	if len(prices) < need {
		return 0, 0, &model.InsufficientDataError{Indicator: "MACD", Need: need, Have: len(prices)}
	}
	macd, sig := MACDSeries(prices, fast, slow, signal)
	n := len(prices) - 1
	return *macd[n], *sig[n], nil
}
