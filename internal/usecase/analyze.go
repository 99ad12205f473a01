package usecase

import (
	"context"
	"fmt"
	"time"

	"VolCast/internal/domain/models"
	domrepo "VolCast/internal/domain/repository"
	"VolCast/pkg/logger"
)

// AnalysisDefaults are the knobs applied when a request leaves them unset.
type AnalysisDefaults struct {
	Days       int
	Horizon    int
	Confidence float64
	Exposure   float64 // notional the VaR figures are quoted against
}

func (d AnalysisDefaults) withFallbacks() AnalysisDefaults {
	if d.Days == 0 {
		d.Days = 30
	}
	if d.Horizon == 0 {
		d.Horizon = 7
	}
	if d.Confidence == 0 {
		d.Confidence = 0.95
	}
	if d.Exposure == 0 {
		d.Exposure = 10_000
	}
	return d
}

// AnalysisUseCase runs the analysis commands over named sessions and fans
// results out to the optional history store and event publisher. Both are
// best-effort: a failed write is logged and never fails the command.
type AnalysisUseCase struct {
	sessions *SessionManager
	history  domrepo.HistoryStore // nil when history is disabled
	events   domrepo.EventPublisher
	metrics  domrepo.Metrics
	log      *logger.Logger
	defaults AnalysisDefaults
}

func NewAnalysisUseCase(
	sessions *SessionManager,
	history domrepo.HistoryStore,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	defaults AnalysisDefaults,
) *AnalysisUseCase {
	return &AnalysisUseCase{
		sessions: sessions,
		history:  history,
		events:   events,
		metrics:  metrics,
		log:      log,
		defaults: defaults.withFallbacks(),
	}
}

// Analyze loads (or reuses) price history for a token in the named session
// and reports its volatility profile.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, session, token string, days int) (*models.AnalysisReport, error) {
	start := time.Now()
	if days == 0 {
		days = uc.defaults.Days
	}

	s := uc.sessions.Get(session)
	cached, err := s.Ensure(ctx, token, days)
	if err != nil {
		uc.metrics.RecordError("analyze")
		return nil, err
	}
	vols, err := s.Volatility()
	if err != nil {
		return nil, err
	}
	risk, err := s.RiskLevel()
	if err != nil {
		return nil, err
	}

	mean, minV, maxV := seriesStats(vols)
	current := vols.Last()

	uc.metrics.RecordCommand("analyze")
	uc.metrics.RecordVolatility(NormalizeToken(token), current)
	uc.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	uc.log.Info("analysis complete",
		logger.String("token", NormalizeToken(token)),
		logger.Int("days", days),
		logger.Bool("cached", cached),
		logger.Any("sigma", current),
		logger.String("risk", string(risk)))

	uc.record(ctx, "analyze", s, days, current, risk)

	return &models.AnalysisReport{
		Token:             NormalizeToken(token),
		Days:              days,
		Samples:           len(vols),
		CurrentVolatility: current,
		MeanVolatility:    mean,
		MaxVolatility:     maxV,
		MinVolatility:     minV,
		RiskLevel:         risk,
		Volatility:        vols,
		GeneratedAt:       time.Now().UTC(),
	}, nil
}

// Predict ensures the session is loaded for the token and projects its
// volatility over the horizon, with parametric VaR at the given confidence.
func (uc *AnalysisUseCase) Predict(ctx context.Context, session, token string, days, horizon int, confidence float64) (*models.ForecastReport, error) {
	start := time.Now()
	if days == 0 {
		days = uc.defaults.Days
	}
	if horizon == 0 {
		horizon = uc.defaults.Horizon
	}
	if confidence == 0 {
		confidence = uc.defaults.Confidence
	}

	s := uc.sessions.Get(session)
	if _, err := s.Ensure(ctx, token, days); err != nil {
		uc.metrics.RecordError("forecast")
		return nil, err
	}
	forecast, err := s.Forecast(horizon)
	if err != nil {
		uc.metrics.RecordError("forecast")
		return nil, err
	}
	vols, err := s.Volatility()
	if err != nil {
		return nil, err
	}
	risk, err := s.RiskLevel()
	if err != nil {
		return nil, err
	}
	vaR, err := s.ValueAtRisk(confidence, uc.defaults.Exposure)
	if err != nil {
		uc.metrics.RecordError("forecast")
		return nil, err
	}

	uc.metrics.RecordCommand("forecast")
	uc.metrics.RecordLatency("forecast", time.Since(start).Seconds())
	uc.log.Info("forecast complete",
		logger.String("token", NormalizeToken(token)),
		logger.Int("horizon", horizon),
		logger.Any("forecast_sigma", forecast))

	uc.record(ctx, "forecast", s, days, vols.Last(), risk)

	return &models.ForecastReport{
		Token:             NormalizeToken(token),
		Days:              days,
		Horizon:           horizon,
		Confidence:        confidence,
		Exposure:          uc.defaults.Exposure,
		CurrentVolatility: vols.Last(),
		Forecast:          forecast,
		ValueAtRisk:       vaR,
		RiskLevel:         risk,
		GeneratedAt:       time.Now().UTC(),
	}, nil
}

// Risk assesses the currently active token of the named session. Unlike
// Analyze it never fetches: an empty session is an error.
func (uc *AnalysisUseCase) Risk(ctx context.Context, session string) (*models.RiskReport, error) {
	start := time.Now()
	s := uc.sessions.Get(session)
	token, _, ok := s.Active()
	if !ok {
		uc.metrics.RecordError("risk")
		return nil, ErrNoActiveSession
	}
	vols, err := s.Volatility()
	if err != nil {
		return nil, err
	}
	risk, err := s.RiskLevel()
	if err != nil {
		return nil, err
	}
	var95, err := s.ValueAtRisk(0.95, uc.defaults.Exposure)
	if err != nil {
		return nil, err
	}
	var99, err := s.ValueAtRisk(0.99, uc.defaults.Exposure)
	if err != nil {
		return nil, err
	}

	mean, _, _ := seriesStats(vols)

	uc.metrics.RecordCommand("risk")
	uc.metrics.RecordLatency("risk", time.Since(start).Seconds())

	return &models.RiskReport{
		Token:             token,
		CurrentVolatility: vols.Last(),
		MeanVolatility:    mean,
		VaR95:             var95,
		VaR99:             var99,
		RiskLevel:         risk,
		GeneratedAt:       time.Now().UTC(),
	}, nil
}

// Reset clears the named session. Returns the token that was active, empty
// if the session was already empty.
func (uc *AnalysisUseCase) Reset(_ context.Context, session string) string {
	s := uc.sessions.Get(session)
	token, _, _ := s.Active()
	s.Reset()
	uc.metrics.RecordCommand("reset")
	uc.log.Info("session reset", logger.String("session", session), logger.String("token", token))
	return token
}

// History returns the most recent persisted analysis records for a token.
func (uc *AnalysisUseCase) History(ctx context.Context, token string, limit int) ([]*models.AnalysisRecord, error) {
	if uc.history == nil {
		return nil, fmt.Errorf("history store disabled")
	}
	return uc.history.Recent(ctx, NormalizeToken(token), limit)
}

// record persists the completed command and publishes the matching event.
// Both sinks are optional and best-effort.
func (uc *AnalysisUseCase) record(ctx context.Context, command string, s *AnalysisSession, days int, sigma float64, risk models.RiskLevel) {
	token, _, ok := s.Active()
	if !ok {
		return
	}
	forecast, err := s.Forecast(uc.defaults.Horizon)
	if err != nil {
		forecast = sigma
	}
	var95, err := s.ValueAtRisk(0.95, uc.defaults.Exposure)
	if err != nil {
		var95 = 0
	}
	now := time.Now().UTC()

	if uc.history != nil {
		rec := &models.AnalysisRecord{
			Token:             token,
			Timestamp:         now,
			Days:              days,
			CurrentVolatility: sigma,
			Forecast:          forecast,
			VaR95:             var95,
			RiskLevel:         string(risk),
		}
		if err := uc.history.Store(ctx, rec); err != nil {
			uc.log.Warn("history store failed", logger.String("token", token), logger.Error(err))
		}
	}
	if uc.events != nil {
		ev := &models.AnalysisEvent{
			Token:             token,
			Command:           command,
			Timestamp:         now,
			Days:              days,
			CurrentVolatility: sigma,
			Forecast:          forecast,
			VaR95:             var95,
			RiskLevel:         risk,
		}
		if err := uc.events.Publish(ctx, ev); err != nil {
			uc.log.Warn("event publish failed", logger.String("token", token), logger.Error(err))
		}
	}
}

// seriesStats computes mean, min and max of a volatility series. Empty
// input returns all zeros.
func seriesStats(vols models.VolatilitySeries) (mean, minV, maxV float64) {
	if len(vols) == 0 {
		return 0, 0, 0
	}
	minV = vols[0].Value
	maxV = vols[0].Value
	var sum float64
	for _, p := range vols {
		sum += p.Value
		if p.Value < minV {
			minV = p.Value
		}
		if p.Value > maxV {
			maxV = p.Value
		}
	}
	return sum / float64(len(vols)), minV, maxV
}
