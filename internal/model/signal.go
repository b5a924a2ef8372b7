package model

// Rating is the label attached to a score band.
type Rating string

const (
	RatingStrongBuy  Rating = "STRONG_BUY"
	RatingBuy        Rating = "BUY"
	RatingHold       Rating = "HOLD"
	RatingSell       Rating = "SELL"
	RatingStrongSell Rating = "STRONG_SELL"
)

// FactorScore represents a single sub-score of the composite score.
// RawScore is in [-1, 1]; Weighted = RawScore * Weight.
type FactorScore struct {
	Name       string
	RawScore   float64
	Weight     float64
	Weighted   float64
	Commentary string
}

// ScoreInput is everything the score calculator looks at.
type ScoreInput struct {
	Close        float64
	Latest       IndicatorRow
	Previous     *IndicatorRow // nil when the series has a single row
	Fundamentals Fundamentals
}

// Score is the composite 1-100 short-term score with its breakdown.
type Score struct {
	Value   int
	Total   float64 // sum of weighted factors, in [-100, 100]
	Rating  Rating
	Factors []FactorScore
	Warning string
}

// Factor returns the factor with the given name.
func (s Score) Factor(name string) (FactorScore, bool) {
	for _, f := range s.Factors {
		if f.Name == name {
			return f, true
		}
	}
	return FactorScore{}, false
}

// Analysis is the full single-ticker result handed to presentation layers.
type Analysis struct {
	Series       PriceSeries
	Rows         []IndicatorRow
	Fundamentals Fundamentals
	Score        Score
	High         float64 // highest high over the series
	Low          float64 // lowest low over the series
}
