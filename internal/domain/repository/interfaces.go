package repository

import (
	"context"

	"VolCast/internal/domain/models"
)

// HistoryStore persists completed analysis records.
type HistoryStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, rec *models.AnalysisRecord) error
	Recent(ctx context.Context, token string, limit int) ([]*models.AnalysisRecord, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// EventPublisher publishes analysis-completed events for downstream
// report/notification consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev *models.AnalysisEvent) error
	Close() error
}

// Metrics records operational metrics for the analysis commands.
type Metrics interface {
	RecordCommand(command string)
	RecordError(kind string)
	RecordVolatility(token string, sigma float64)
	RecordLatency(op string, seconds float64)
}
