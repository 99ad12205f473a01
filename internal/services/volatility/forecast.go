package volatility

import "fmt"

// Forecast projects the last estimated volatility over a horizon. Under the
// EWMA model the h-step-ahead forecast is flat and equal to the current
// volatility for every h >= 1: the recursion has no mean-reversion term.
func Forecast(current float64, horizon int) (float64, error) {
	if horizon < 1 {
		return 0, fmt.Errorf("%w: horizon %d must be >= 1", ErrInvalidParameter, horizon)
	}
	if current < 0 {
		return 0, fmt.Errorf("%w: volatility %v must be >= 0", ErrInvalidParameter, current)
	}
	return current, nil
}
