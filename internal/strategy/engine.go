// Package strategy turns the latest indicator values and optional
// fundamentals into a bounded 1-100 short-term score.
package strategy

import (
	"math"

	"StockScout/internal/model"
)

// Tiers maps score floors to ratings, highest first.
var Tiers = []struct {
	MinScore int
	Rating   model.Rating
}{
	{80, model.RatingStrongBuy},
	{60, model.RatingBuy},
	{41, model.RatingHold},
	{21, model.RatingSell},
}

// DefaultRating applies below the lowest tier.
var DefaultRating = model.RatingStrongSell

// mapRating maps a 1-100 score to a Rating.
func mapRating(score int) model.Rating {
	for _, t := range Tiers {
		if score >= t.MinScore {
			return t.Rating
		}
	}
	return DefaultRating
}

// Evaluate computes the composite score from the latest indicators.
// Indicators that are still nil contribute a neutral factor.
func Evaluate(in model.ScoreInput) model.Score {
	factors := []model.FactorScore{
		scoreTrend(in.Close, in.Latest),
		scoreMeanReversion(in.Latest, in.Previous),
		scoreMomentum(in.Latest, in.Previous),
		scoreBollinger(in.Close, in.Latest),
	}
	factors = append(factors, scoreFundamentals(in.Fundamentals)...)

	var total float64
	for _, f := range factors {
		total += f.Weighted
	}

	value := Rescale(total)
	score := model.Score{
		Value:   value,
		Total:   total,
		Rating:  mapRating(value),
		Factors: factors,
	}

	if rsi := in.Latest.RSI; rsi != nil {
		switch {
		case *rsi > 85:
			score.Warning = "RSI above 85: extremely overbought"
		case *rsi < 15:
			score.Warning = "RSI below 15: capitulation"
		}
	}
	return score
}

// Rescale maps a weighted total in [-100, 100] onto [1, 100].
func Rescale(total float64) int {
	v := int(math.Round(50 + total/2))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

// InputFromRows builds a ScoreInput from the tail of an indicator table.
func InputFromRows(rows []model.IndicatorRow, f model.Fundamentals) (model.ScoreInput, bool) {
	if len(rows) == 0 {
		return model.ScoreInput{}, false
	}
	latest := rows[len(rows)-1]
	in := model.ScoreInput{Close: latest.Close, Latest: latest, Fundamentals: f}
	if len(rows) > 1 {
		prev := rows[len(rows)-2]
		in.Previous = &prev
	}
	return in, true
}
