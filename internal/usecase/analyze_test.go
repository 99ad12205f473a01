package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"VolCast/internal/domain/models"
	"VolCast/internal/services/volatility"
	"VolCast/pkg/logger"
)

type fakeMetrics struct {
	mu       sync.Mutex
	commands map[string]int
	errs     map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{commands: make(map[string]int), errs: make(map[string]int)}
}

func (m *fakeMetrics) RecordCommand(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[command]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[kind]++
}

func (m *fakeMetrics) RecordVolatility(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)    {}

type fakeHistory struct {
	mu   sync.Mutex
	recs []*models.AnalysisRecord
}

func (h *fakeHistory) Init(context.Context) error { return nil }

func (h *fakeHistory) Store(_ context.Context, rec *models.AnalysisRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = append(h.recs, rec)
	return nil
}

func (h *fakeHistory) Recent(_ context.Context, token string, limit int) ([]*models.AnalysisRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*models.AnalysisRecord
	for i := len(h.recs) - 1; i >= 0 && len(out) < limit; i-- {
		if h.recs[i].Token == token {
			out = append(out, h.recs[i])
		}
	}
	return out, nil
}

func (h *fakeHistory) Health(context.Context) error { return nil }
func (h *fakeHistory) Close() error                 { return nil }

type fakeEvents struct {
	mu  sync.Mutex
	evs []*models.AnalysisEvent
}

func (e *fakeEvents) Publish(_ context.Context, ev *models.AnalysisEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evs = append(e.evs, ev)
	return nil
}

func (e *fakeEvents) Close() error { return nil }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func newTestUseCase(t *testing.T, src *fakeSource) (*AnalysisUseCase, *fakeHistory, *fakeEvents, *fakeMetrics) {
	t.Helper()
	hist := &fakeHistory{}
	evs := &fakeEvents{}
	met := newFakeMetrics()
	uc := NewAnalysisUseCase(
		NewSessionManager(src, volatility.DefaultLambda),
		hist, evs, met, testLogger(t),
		AnalysisDefaults{},
	)
	return uc, hist, evs, met
}

func TestAnalyzeProducesReport(t *testing.T) {
	src := newFakeSource()
	uc, hist, evs, met := newTestUseCase(t, src)

	rep, err := uc.Analyze(context.Background(), "default", "btc", 30)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.Token != "BTC" {
		t.Errorf("token: expected BTC, got %q", rep.Token)
	}
	if rep.Samples != 29 {
		t.Errorf("samples: expected 29 from 30 prices, got %d", rep.Samples)
	}
	if rep.MinVolatility > rep.MeanVolatility || rep.MeanVolatility > rep.MaxVolatility {
		t.Errorf("stats out of order: min=%v mean=%v max=%v",
			rep.MinVolatility, rep.MeanVolatility, rep.MaxVolatility)
	}
	if rep.RiskLevel == "" {
		t.Errorf("risk level missing")
	}
	if len(rep.Volatility) != rep.Samples {
		t.Errorf("series length %d does not match samples %d", len(rep.Volatility), rep.Samples)
	}

	if len(hist.recs) != 1 || hist.recs[0].Token != "BTC" {
		t.Errorf("expected one BTC history record, got %v", hist.recs)
	}
	if len(evs.evs) != 1 || evs.evs[0].Command != "analyze" {
		t.Errorf("expected one analyze event, got %v", evs.evs)
	}
	if met.commands["analyze"] != 1 {
		t.Errorf("expected analyze command metric, got %v", met.commands)
	}
}

func TestAnalyzeReusesSessionData(t *testing.T) {
	src := newFakeSource()
	uc, _, _, _ := newTestUseCase(t, src)

	for i := 0; i < 3; i++ {
		if _, err := uc.Analyze(context.Background(), "default", "BTC", 30); err != nil {
			t.Fatalf("Analyze #%d: %v", i+1, err)
		}
	}
	if got := src.fetchCount("BTC", 30); got != 1 {
		t.Errorf("expected 1 upstream fetch across repeated analyses, got %d", got)
	}
}

func TestPredictFlatForecast(t *testing.T) {
	src := newFakeSource()
	uc, _, _, _ := newTestUseCase(t, src)

	rep, err := uc.Predict(context.Background(), "default", "ETH", 30, 14, 0.99)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if rep.Forecast != rep.CurrentVolatility {
		t.Errorf("flat model: forecast %v should equal current %v", rep.Forecast, rep.CurrentVolatility)
	}
	if rep.Horizon != 14 || rep.Confidence != 0.99 {
		t.Errorf("parameters not echoed: horizon=%d confidence=%v", rep.Horizon, rep.Confidence)
	}
	if rep.ValueAtRisk <= 0 {
		t.Errorf("expected positive VaR, got %v", rep.ValueAtRisk)
	}
}

func TestRiskRequiresActiveSession(t *testing.T) {
	src := newFakeSource()
	uc, _, _, met := newTestUseCase(t, src)

	if _, err := uc.Risk(context.Background(), "fresh"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if met.errs["risk"] != 1 {
		t.Errorf("expected risk error metric, got %v", met.errs)
	}

	if _, err := uc.Analyze(context.Background(), "fresh", "BTC", 30); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	rep, err := uc.Risk(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("Risk after analyze: %v", err)
	}
	if rep.Token != "BTC" {
		t.Errorf("token: expected BTC, got %q", rep.Token)
	}
	if rep.VaR99 <= rep.VaR95 {
		t.Errorf("VaR99 (%v) should exceed VaR95 (%v)", rep.VaR99, rep.VaR95)
	}
}

func TestResetReturnsActiveToken(t *testing.T) {
	src := newFakeSource()
	uc, _, _, _ := newTestUseCase(t, src)

	if _, err := uc.Analyze(context.Background(), "default", "BTC", 30); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got := uc.Reset(context.Background(), "default"); got != "BTC" {
		t.Errorf("reset: expected BTC, got %q", got)
	}
	if got := uc.Reset(context.Background(), "default"); got != "" {
		t.Errorf("reset of empty session: expected empty token, got %q", got)
	}
	if _, err := uc.Risk(context.Background(), "default"); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("expected ErrNoActiveSession after reset, got %v", err)
	}
}

func TestCompareParallelTokens(t *testing.T) {
	src := newFakeSource()
	src.fail["DOWN"] = true
	uc, _, _, _ := newTestUseCase(t, src)

	rep, err := uc.Compare(context.Background(), []string{"btc", "eth", "down", "BTC"}, 30)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	// Duplicate BTC is collapsed; input order is preserved.
	want := []string{"BTC", "ETH", "DOWN"}
	if len(rep.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(rep.Entries))
	}
	for i, token := range want {
		if rep.Entries[i].Token != token {
			t.Errorf("entry[%d]: expected %s, got %s", i, token, rep.Entries[i].Token)
		}
	}
	for _, e := range rep.Entries[:2] {
		if e.Err != "" {
			t.Errorf("%s: unexpected error %q", e.Token, e.Err)
		}
		if e.RiskLevel == "" {
			t.Errorf("%s: risk level missing", e.Token)
		}
	}
	if rep.Entries[2].Err == "" {
		t.Errorf("DOWN should carry its fetch error")
	}
}

func TestCompareNoTokens(t *testing.T) {
	src := newFakeSource()
	uc, _, _, _ := newTestUseCase(t, src)
	if _, err := uc.Compare(context.Background(), []string{" ", ""}, 30); !errors.Is(err, volatility.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestCompareLeavesNamedSessionsAlone(t *testing.T) {
	src := newFakeSource()
	uc, _, _, _ := newTestUseCase(t, src)

	if _, err := uc.Analyze(context.Background(), "default", "BTC", 30); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := uc.Compare(context.Background(), []string{"ETH", "SOL"}, 30); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	rep, err := uc.Risk(context.Background(), "default")
	if err != nil {
		t.Fatalf("Risk: %v", err)
	}
	if rep.Token != "BTC" {
		t.Errorf("default session disturbed by compare: got %q", rep.Token)
	}
}

func TestHistoryRecent(t *testing.T) {
	src := newFakeSource()
	uc, _, _, _ := newTestUseCase(t, src)

	for i := 0; i < 3; i++ {
		if _, err := uc.Analyze(context.Background(), "default", "BTC", 30); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}
	recs, err := uc.History(context.Background(), "btc", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 records, got %d", len(recs))
	}
	for _, r := range recs {
		if r.Token != "BTC" {
			t.Errorf("record token: expected BTC, got %q", r.Token)
		}
	}
}
