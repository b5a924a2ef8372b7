package calculator

import (
	"errors"
	"fmt"
	"math"

	"StockScout/internal/model"
)

// PriceRange scans the most recent lookback bars and returns the high and low.
// A non-positive lookback scans the whole series.
func PriceRange(bars []model.Bar, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	n := len(bars)
	start := 0
	if lookback > 0 && lookback < n {
		start = n - lookback
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// RangePosition locates a price within a period's high/low band.
type RangePosition struct {
	Fraction float64 // 0 at the low, 1 at the high
	Beyond   float64 // overshoot past the nearer edge relative to that edge; 0 inside
}

// LocateInRange places price within [low, high]. A price outside the band is
// pinned to the nearer edge and the overshoot is kept in Beyond, positive
// above the high and negative below the low. A collapsed band reads 0.5.
func LocateInRange(price, high, low float64) (RangePosition, error) {
	if high < low {
		return RangePosition{}, fmt.Errorf("high %.2f is below low %.2f", high, low)
	}
	if low <= 0 {
		return RangePosition{}, fmt.Errorf("range low must be positive, got %.2f", low)
	}
	switch {
	case price > high:
		return RangePosition{Fraction: 1, Beyond: (price - high) / high}, nil
	case price < low:
		return RangePosition{Fraction: 0, Beyond: (price - low) / low}, nil
	case high == low:
		return RangePosition{Fraction: 0.5}, nil
	}
	return RangePosition{Fraction: (price - low) / (high - low)}, nil
}

func (p RangePosition) String() string {
	switch {
	case p.Beyond > 0:
		return fmt.Sprintf("%.1f%% above the high", p.Beyond*100)
	case p.Beyond < 0:
		return fmt.Sprintf("%.1f%% below the low", -p.Beyond*100)
	}
	return fmt.Sprintf("%.0f%% of range", p.Fraction*100)
}
