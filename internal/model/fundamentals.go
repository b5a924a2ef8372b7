package model

// Fundamental metric keys understood by the score calculator.
const (
	MetricTrailingPE     = "trailingPE"
	MetricEarningsGrowth = "earningsQuarterlyGrowth"
	MetricDebtToEquity   = "debtToEquity"
	MetricRevenueGrowth  = "revenueQuarterlyGrowth"
)

// Fundamentals maps a metric key to its value. An absent key is a missing
// metric, never an error.
type Fundamentals map[string]float64

// Get returns the metric and whether it was supplied.
func (f Fundamentals) Get(key string) (float64, bool) {
	if f == nil {
		return 0, false
	}
	v, ok := f[key]
	return v, ok
}
