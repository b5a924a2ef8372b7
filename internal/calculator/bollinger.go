package calculator

import (
	"fmt"
	"math"

	"StockScout/internal/model"
)

// Band is one Bollinger envelope position.
type Band struct {
	Upper, Mid, Lower float64
}

// BollingerSeries computes Bollinger Bands at every position. The width uses
// the sample standard deviation (n-1 denominator) of the trailing window.
func BollingerSeries(prices []float64, period int, k float64) []*Band {
	out := make([]*Band, len(prices))
	if period <= 1 {
		return out
	}
	mids := SMASeries(prices, period)
	for i, mid := range mids {
		if mid == nil {
			continue
		}
		width := k * sampleStdDev(prices[i-period+1:i+1], *mid)
		out[i] = &Band{Upper: *mid + width, Mid: *mid, Lower: *mid - width}
	}
	return out
}

func sampleStdDev(window []float64, mean float64) float64 {
	var ss float64
	for _, v := range window {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(window)-1))
}

// CalculateBollinger returns the latest band.
func CalculateBollinger(prices []float64, period int, k float64) (Band, error) {
	if period < 2 {
		return Band{}, fmt.Errorf("bollinger period must be at least 2, got %d", period)
	}
	if len(prices) < period {
		return Band{}, &model.InsufficientDataError{Indicator: "Bollinger", Need: period, Have: len(prices)}
	}
	bands := BollingerSeries(prices[len(prices)-period:], period, k)
	return *bands[period-1], nil
}
