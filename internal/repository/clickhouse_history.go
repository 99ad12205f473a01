package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"VolCast/internal/domain/models"
	pkgch "VolCast/pkg/clickhouse"
	applogger "VolCast/pkg/logger"
)

// CHHistoryStore implements HistoryStore backed by ClickHouse.
type CHHistoryStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client) *CHHistoryStore {
	return &CHHistoryStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHHistoryStore) SetLogger(l *applogger.Logger) { s.l = l }

var historySchema = []string{
	`CREATE DATABASE IF NOT EXISTS volcast`,
	`CREATE TABLE IF NOT EXISTS volcast.analysis_history (
        token              String,
        ts                 DateTime64(3),
        days               Int32,
        current_volatility Float64,
        forecast           Float64,
        var_95             Float64,
        risk_level         LowCardinality(String)
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(ts)
    ORDER BY (token, ts)`,
}

// Init creates the database and history table if they don't exist.
func (s *CHHistoryStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, historySchema)
}

func (s *CHHistoryStore) Store(ctx context.Context, rec *models.AnalysisRecord) error {
	start := time.Now()
	const q = `
        INSERT INTO volcast.analysis_history
            (token, ts, days, current_volatility, forecast, var_95, risk_level)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		rec.Token, rec.Timestamp, rec.Days,
		rec.CurrentVolatility, rec.Forecast, rec.VaR95, rec.RiskLevel)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history insert error",
				applogger.String("token", rec.Token),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store analysis record: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse history insert ok",
			applogger.String("token", rec.Token),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHHistoryStore) Recent(ctx context.Context, token string, limit int) ([]*models.AnalysisRecord, error) {
	start := time.Now()
	const q = `
        SELECT token, ts, days, current_volatility, forecast, var_95, risk_level
        FROM volcast.analysis_history
        WHERE token = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, token, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history query error",
				applogger.String("token", token),
				applogger.Int("limit", limit),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("recent records: %w", err)
	}
	defer rows.Close()

	out := make([]*models.AnalysisRecord, 0, limit)
	for rows.Next() {
		var rec models.AnalysisRecord
		if err := rows.Scan(&rec.Token, &rec.Timestamp, &rec.Days,
			&rec.CurrentVolatility, &rec.Forecast, &rec.VaR95, &rec.RiskLevel); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse history query ok",
			applogger.String("token", token),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHHistoryStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHHistoryStore) Close() error {
	return s.ch.Close()
}
