package volatility

import "errors"

var (
	// ErrInsufficientData reports a series too short for the requested
	// operation.
	ErrInsufficientData = errors.New("volatility: insufficient data")

	// ErrInvalidParameter reports an out-of-domain lambda, confidence,
	// horizon, or exposure.
	ErrInvalidParameter = errors.New("volatility: invalid parameter")
)
