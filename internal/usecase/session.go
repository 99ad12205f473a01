package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"VolCast/internal/domain/models"
	domsvc "VolCast/internal/domain/service"
	"VolCast/internal/services/volatility"
)

// ErrNoActiveSession is returned by read operations on a session that has
// not loaded any data yet (or was reset).
var ErrNoActiveSession = errors.New("no active session: run analyze first")

// AnalysisSession holds the loaded state for one analysis context: the
// token, the fetched price history and the volatility series derived from
// it. A session is either empty or ready; Ensure moves it to ready and all
// other operations read the ready state.
type AnalysisSession struct {
	mu     sync.Mutex
	source domsvc.PriceSource
	lambda float64

	token     string
	days      int
	prices    models.PriceSeries
	returns   models.ReturnSeries
	vols      models.VolatilitySeries
	refreshed time.Time
}

func NewAnalysisSession(source domsvc.PriceSource, lambda float64) *AnalysisSession {
	if lambda <= 0 || lambda >= 1 {
		lambda = volatility.DefaultLambda
	}
	return &AnalysisSession{source: source, lambda: lambda}
}

// NormalizeToken canonicalizes user-supplied token symbols so "btc", "BTC"
// and " Btc " address the same session data.
func NormalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}

// Ensure makes the session ready for (token, days). If the session already
// holds data for the same pair nothing is fetched and the cached state is
// reused. Any other combination triggers a full fetch and recompute; the
// previous state is replaced only after the new one is fully built, so a
// failed fetch leaves the session exactly as it was.
func (s *AnalysisSession) Ensure(ctx context.Context, token string, days int) (cached bool, err error) {
	token = NormalizeToken(token)
	if token == "" {
		return false, fmt.Errorf("%w: empty token", volatility.ErrInvalidParameter)
	}
	if days < 2 {
		return false, fmt.Errorf("%w: days %d must be >= 2", volatility.ErrInvalidParameter, days)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == token && s.days == days && len(s.vols) > 0 {
		return true, nil
	}

	prices, err := s.source.HistoricalPrices(ctx, token, days)
	if err != nil {
		return false, fmt.Errorf("fetch %s/%dd: %w", token, days, err)
	}
	returns, err := volatility.BuildReturns(prices)
	if err != nil {
		return false, fmt.Errorf("returns for %s: %w", token, err)
	}
	vols, err := volatility.EstimateEWMA(returns, s.lambda)
	if err != nil {
		return false, fmt.Errorf("volatility for %s: %w", token, err)
	}

	s.token = token
	s.days = days
	s.prices = prices
	s.returns = returns
	s.vols = vols
	s.refreshed = time.Now()
	return false, nil
}

// Active reports the token and window of the loaded state, if any.
func (s *AnalysisSession) Active() (token string, days int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.days, len(s.vols) > 0
}

// Volatility returns the loaded volatility series.
func (s *AnalysisSession) Volatility() (models.VolatilitySeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vols) == 0 {
		return nil, ErrNoActiveSession
	}
	out := make(models.VolatilitySeries, len(s.vols))
	copy(out, s.vols)
	return out, nil
}

// Forecast projects the session's current volatility over horizon days.
func (s *AnalysisSession) Forecast(horizon int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vols) == 0 {
		return 0, ErrNoActiveSession
	}
	return volatility.Forecast(s.vols.Last(), horizon)
}

// RiskLevel classifies the session's current volatility against its own
// history.
func (s *AnalysisSession) RiskLevel() (models.RiskLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vols) == 0 {
		return "", ErrNoActiveSession
	}
	return volatility.Classify(s.vols.Last(), s.vols)
}

// ValueAtRisk computes delta-normal VaR for an exposure at the given
// confidence, using the session's current volatility.
func (s *AnalysisSession) ValueAtRisk(confidence, exposure float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vols) == 0 {
		return 0, ErrNoActiveSession
	}
	return volatility.ValueAtRisk(s.vols.Last(), confidence, exposure)
}

// Reset drops the loaded state and returns the session to empty. Resetting
// an empty session is a no-op.
func (s *AnalysisSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.days = 0
	s.prices = nil
	s.returns = nil
	s.vols = nil
	s.refreshed = time.Time{}
}

// SessionManager hands out named sessions, creating them on first use.
// Each name gets its own independent AnalysisSession.
type SessionManager struct {
	mu       sync.Mutex
	source   domsvc.PriceSource
	lambda   float64
	sessions map[string]*AnalysisSession
}

func NewSessionManager(source domsvc.PriceSource, lambda float64) *SessionManager {
	return &SessionManager{
		source:   source,
		lambda:   lambda,
		sessions: make(map[string]*AnalysisSession),
	}
}

func (m *SessionManager) Get(name string) *AnalysisSession {
	if name == "" {
		name = "default"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[name]; ok {
		return s
	}
	s := NewAnalysisSession(m.source, m.lambda)
	m.sessions[name] = s
	return s
}

// NewSession creates a detached session sharing the manager's source and
// decay factor, without registering it. Used for one-shot computations
// that must not disturb named session state.
func (m *SessionManager) NewSession() *AnalysisSession {
	return NewAnalysisSession(m.source, m.lambda)
}
