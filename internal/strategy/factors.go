package strategy

import (
	"fmt"

	"StockScout/internal/model"
)

// Factor names as they appear in the score breakdown.
const (
	FactorTrend          = "Trend"
	FactorMeanReversion  = "Mean reversion"
	FactorMomentum       = "Momentum"
	FactorBollinger      = "Bollinger"
	FactorPE             = "P/E"
	FactorEarningsGrowth = "Earnings growth"
	FactorDebtToEquity   = "Debt/Equity"
	FactorRevenueGrowth  = "Revenue growth"
)

// Factor weights: the maximum points each factor can add or remove.
// Technical and fundamental weights sum to 100.
const (
	weightTrend       = 20
	weightMeanRev     = 15
	weightMomentum    = 15
	weightBollinger   = 10
	weightFundamental = 10
)

func factor(name string, raw, weight float64, commentary string) model.FactorScore {
	raw = clamp(raw, -1, 1)
	return model.FactorScore{
		Name:       name,
		RawScore:   raw,
		Weight:     weight,
		Weighted:   raw * weight,
		Commentary: commentary,
	}
}

// scoreTrend scores the moving average alignment.
// Bull alignment: price > SMA short > SMA long
// Bear alignment: price < SMA short < SMA long
func scoreTrend(price float64, row model.IndicatorRow) model.FactorScore {
	if row.SMAShort == nil || row.SMALong == nil {
		return factor(FactorTrend, 0, weightTrend, "not enough history")
	}
	short, long := *row.SMAShort, *row.SMALong
	switch {
	case price > short && short > long:
		return factor(FactorTrend, 1, weightTrend, "uptrend")
	case price < short && short < long:
		return factor(FactorTrend, -1, weightTrend, "downtrend")
	default:
		return factor(FactorTrend, 0, weightTrend, "sideways")
	}
}

// scoreMeanReversion rewards RSI moving back into the 30-70 band from either
// side. Leaving oversold earns full points, leaving overbought half, since the
// price is still stretched. Sitting in a band counts half, signed by side.
func scoreMeanReversion(row model.IndicatorRow, prev *model.IndicatorRow) model.FactorScore {
	if row.RSI == nil {
		return factor(FactorMeanReversion, 0, weightMeanRev, "not enough history")
	}
	rsi := *row.RSI
	if prev != nil && prev.RSI != nil {
		p := *prev.RSI
		switch {
		case p < 30 && rsi >= 30:
			return factor(FactorMeanReversion, 1, weightMeanRev, fmt.Sprintf("RSI %.0f crossed above 30", rsi))
		case p > 70 && rsi <= 70:
			return factor(FactorMeanReversion, 0.5, weightMeanRev, fmt.Sprintf("RSI %.0f crossed back below 70", rsi))
		}
	}
	switch {
	case rsi < 30:
		return factor(FactorMeanReversion, 0.5, weightMeanRev, fmt.Sprintf("RSI %.0f oversold", rsi))
	case rsi > 70:
		return factor(FactorMeanReversion, -0.5, weightMeanRev, fmt.Sprintf("RSI %.0f overbought", rsi))
	default:
		return factor(FactorMeanReversion, 0, weightMeanRev, fmt.Sprintf("RSI %.0f", rsi))
	}
}

// scoreMomentum compares MACD with its signal line. Full points need both
// lines moving in the direction of the crossover.
func scoreMomentum(row model.IndicatorRow, prev *model.IndicatorRow) model.FactorScore {
	if row.MACD == nil || row.MACDSignal == nil {
		return factor(FactorMomentum, 0, weightMomentum, "not enough history")
	}
	macd, sig := *row.MACD, *row.MACDSignal
	rising, falling := false, false
	if prev != nil && prev.MACD != nil && prev.MACDSignal != nil {
		rising = macd > *prev.MACD && sig > *prev.MACDSignal
		falling = macd < *prev.MACD && sig < *prev.MACDSignal
	}
	switch {
	case macd > sig && rising:
		return factor(FactorMomentum, 1, weightMomentum, "MACD above signal, rising")
	case macd > sig:
		return factor(FactorMomentum, 0.5, weightMomentum, "MACD above signal")
	case macd < sig && falling:
		return factor(FactorMomentum, -1, weightMomentum, "MACD below signal, falling")
	case macd < sig:
		return factor(FactorMomentum, -0.5, weightMomentum, "MACD below signal")
	default:
		return factor(FactorMomentum, 0, weightMomentum, "MACD on signal")
	}
}

// scoreBollinger rewards a price at or below the lower band and penalises a
// price at or above the upper band.
func scoreBollinger(price float64, row model.IndicatorRow) model.FactorScore {
	if row.BollingerUpper == nil || row.BollingerLower == nil {
		return factor(FactorBollinger, 0, weightBollinger, "not enough history")
	}
	upper, lower := *row.BollingerUpper, *row.BollingerLower
	switch {
	case upper == lower:
		return factor(FactorBollinger, 0, weightBollinger, "bands collapsed")
	case price <= lower:
		return factor(FactorBollinger, 1, weightBollinger, "at lower band")
	case price >= upper:
		return factor(FactorBollinger, -1, weightBollinger, "at upper band")
	default:
		return factor(FactorBollinger, 0, weightBollinger, "inside bands")
	}
}

// scoreFundamentals returns one factor per supplied metric. Missing metrics
// are skipped.
func scoreFundamentals(f model.Fundamentals) []model.FactorScore {
	var out []model.FactorScore

	if pe, ok := f.Get(model.MetricTrailingPE); ok {
		var raw float64
		switch {
		case pe <= 0:
			raw = -1
		case pe < 15:
			raw = 1
		case pe <= 25:
			raw = 0.5
		case pe <= 40:
			raw = 0
		default:
			raw = -0.5
		}
		out = append(out, factor(FactorPE, raw, weightFundamental, fmt.Sprintf("P/E %.1f", pe)))
	}

	if g, ok := f.Get(model.MetricEarningsGrowth); ok {
		var raw float64
		switch {
		case g > 0.2:
			raw = 1
		case g > 0.1:
			raw = 0.6
		case g > 0:
			raw = 0.3
		case g < 0:
			raw = -0.6
		}
		out = append(out, factor(FactorEarningsGrowth, raw, weightFundamental, fmt.Sprintf("%+.1f%% q/q", g*100)))
	}

	if de, ok := f.Get(model.MetricDebtToEquity); ok {
		var raw float64
		switch {
		case de < 100:
			raw = 1
		case de < 200:
			raw = 0.5
		default:
			raw = -0.5
		}
		out = append(out, factor(FactorDebtToEquity, raw, weightFundamental, fmt.Sprintf("D/E %.0f", de)))
	}

	if g, ok := f.Get(model.MetricRevenueGrowth); ok {
		var raw float64
		switch {
		case g > 0.1:
			raw = 1
		case g > 0:
			raw = 0.5
		case g < 0:
			raw = -0.5
		}
		out = append(out, factor(FactorRevenueGrowth, raw, weightFundamental, fmt.Sprintf("%+.1f%% q/q", g*100)))
	}

	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
