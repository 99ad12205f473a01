package volatility

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// ValueAtRisk computes one-tailed delta-normal VaR:
//
//	VaR = exposure * z(confidence) * volatility
//
// where z is the inverse standard normal CDF. Zero mean return and normally
// distributed returns are assumed; the result is in the exposure's currency.
func ValueAtRisk(volatility, confidence, exposure float64) (float64, error) {
	if volatility < 0 {
		return 0, fmt.Errorf("%w: volatility %v must be >= 0", ErrInvalidParameter, volatility)
	}
	if confidence <= 0 || confidence >= 1 {
		return 0, fmt.Errorf("%w: confidence %v outside (0,1)", ErrInvalidParameter, confidence)
	}
	if exposure <= 0 {
		return 0, fmt.Errorf("%w: exposure %v must be > 0", ErrInvalidParameter, exposure)
	}
	return exposure * stdNormal.Quantile(confidence) * volatility, nil
}
