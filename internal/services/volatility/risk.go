package volatility

import (
	"fmt"
	"math"
	"sort"

	"VolCast/internal/domain/models"
)

// Tertile cut points of the historical distribution.
const (
	lowQuantile  = 0.33
	highQuantile = 0.67
)

// Classify buckets a volatility value against the empirical distribution of
// a historical volatility series: below the 33rd percentile is low, above
// the 67th is high, in between is medium.
func Classify(current float64, history models.VolatilitySeries) (models.RiskLevel, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("%w: empty volatility history", ErrInsufficientData)
	}
	values := history.Values()
	sort.Float64s(values)

	low := quantile(values, lowQuantile)
	high := quantile(values, highQuantile)
	switch {
	case current < low:
		return models.RiskLow, nil
	case current > high:
		return models.RiskHigh, nil
	default:
		return models.RiskMedium, nil
	}
}

// quantile computes the q-th quantile of sorted values by linear
// interpolation between order statistics (pandas/numpy default):
// pos = q*(n-1), interpolated between the surrounding samples. gonum's
// CumulantKinds implement different conventions, so this stays explicit.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}
