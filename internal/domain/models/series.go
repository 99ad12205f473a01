package models

import "time"

// PricePoint is one sample of the price history for a token.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
}

// SeriesPoint is a (timestamp, value) pair used for derived series.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// PriceSeries is an ordered price history: strictly increasing timestamps,
// positive prices. Immutable once fetched.
type PriceSeries []PricePoint

// ReturnSeries holds simple percentage returns, one entry shorter than the
// PriceSeries it derives from.
type ReturnSeries []SeriesPoint

// VolatilitySeries holds EWMA volatility (a standard deviation, so every
// value is >= 0), aligned one-to-one with its ReturnSeries.
type VolatilitySeries []SeriesPoint

// Values extracts the raw return values.
func (s ReturnSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Values extracts the raw volatility values.
func (s VolatilitySeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Last returns the most recent volatility, or 0 for an empty series.
func (s VolatilitySeries) Last() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Value
}

// RiskLevel buckets a volatility value against the token's own history.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)
