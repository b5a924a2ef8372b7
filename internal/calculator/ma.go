package calculator

import (
	"errors"

	"StockScout/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, &model.InsufficientDataError{Indicator: "SMA", Need: period, Have: len(prices)}
	}
	return mean(prices[len(prices)-period:]), nil
}

// SMASeries returns the SMA at every position. Each value is recomputed
// from its own window so rounding errors never accumulate along the series.
func SMASeries(prices []float64, period int) []*float64 {
	out := make([]*float64, len(prices))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(prices); i++ {
		out[i] = model.Float(mean(prices[i-period+1 : i+1]))
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func extractCloses(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
