package volatility

import (
	"fmt"
	"math"

	"VolCast/internal/domain/models"
)

// DefaultLambda is the RiskMetrics decay factor for daily series.
const DefaultLambda = 0.94

// seedWindow is the number of leading squared returns averaged into the
// initial variance estimate when the series is long enough; shorter series
// fall back to the whole-series mean.
const seedWindow = 20

// EstimateEWMA computes the RiskMetrics-style EWMA volatility series for a
// return series:
//
//	v[0] = mean(r[0..min(20,n)-1]^2)
//	v[i] = lambda*v[i-1] + (1-lambda)*r[i-1]^2
//	sigma[i] = sqrt(v[i])
//
// The update uses the previous period's squared return, so sigma[i] is an
// estimate formed from information available strictly before i. The output
// is aligned one-to-one with the input. Summation is plain left-to-right so
// identical inputs produce bit-identical output.
func EstimateEWMA(returns models.ReturnSeries, lambda float64) (models.VolatilitySeries, error) {
	if lambda <= 0 || lambda >= 1 {
		return nil, fmt.Errorf("%w: lambda %v outside (0,1)", ErrInvalidParameter, lambda)
	}
	if len(returns) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 returns, got %d", ErrInsufficientData, len(returns))
	}

	sq := make([]float64, len(returns))
	for i, p := range returns {
		sq[i] = p.Value * p.Value
	}

	n := len(sq)
	if n > seedWindow {
		n = seedWindow
	}
	var sum float64
	for _, s := range sq[:n] {
		sum += s
	}
	v := sum / float64(n)

	out := make(models.VolatilitySeries, len(returns))
	out[0] = models.SeriesPoint{Timestamp: returns[0].Timestamp, Value: math.Sqrt(v)}
	for i := 1; i < len(returns); i++ {
		v = lambda*v + (1-lambda)*sq[i-1]
		out[i] = models.SeriesPoint{Timestamp: returns[i].Timestamp, Value: math.Sqrt(v)}
	}
	return out, nil
}
