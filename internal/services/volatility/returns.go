package volatility

import (
	"fmt"

	"VolCast/internal/domain/models"
)

// BuildReturns converts a price series into simple percentage returns
// r_t = p_t/p_{t-1} - 1, timestamped at t. Simple returns, not log returns:
// the RiskMetrics EWMA downstream expects the same convention.
// The result is one entry shorter than the input.
func BuildReturns(prices models.PriceSeries) (models.ReturnSeries, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 price samples, got %d", ErrInsufficientData, len(prices))
	}
	out := make(models.ReturnSeries, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out = append(out, models.SeriesPoint{
			Timestamp: prices[i].Timestamp,
			Value:     prices[i].Price/prices[i-1].Price - 1,
		})
	}
	return out, nil
}
