package service

import (
	"context"
	"errors"

	"VolCast/internal/domain/models"
)

// ErrDataUnavailable reports that the upstream price provider failed or
// returned no usable data. The session surfaces it without touching its
// cached state.
var ErrDataUnavailable = errors.New("market data unavailable")

// PriceSource fetches the historical price series for a token over a
// lookback window measured in days. It is the engine's only blocking
// collaborator; retry and timeout policy live behind this interface.
type PriceSource interface {
	HistoricalPrices(ctx context.Context, token string, days int) (models.PriceSeries, error)
}
