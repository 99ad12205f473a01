package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"VolCast/internal/domain/models"
	domsvc "VolCast/internal/domain/service"
	"VolCast/internal/services/volatility"
	"VolCast/internal/usecase"
	xhttp "VolCast/pkg/http"
	"VolCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubSource struct{}

func (stubSource) HistoricalPrices(_ context.Context, token string, days int) (models.PriceSeries, error) {
	if token == "DOWN" {
		return nil, fmt.Errorf("upstream 503: %w", domsvc.ErrDataUnavailable)
	}
	base := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.PriceSeries, days)
	for i := 0; i < days; i++ {
		out[i] = models.PricePoint{
			Timestamp: base.AddDate(0, 0, i),
			Price:     100 + 5*math.Sin(float64(i)),
			Volume:    1000,
		}
	}
	return out, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordCommand(string)             {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordVolatility(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)    {}

func newTestHandler(t *testing.T) (*AnalysisEchoHandler, *echo.Echo) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	uc := usecase.NewAnalysisUseCase(
		usecase.NewSessionManager(stubSource{}, volatility.DefaultLambda),
		nil, nil, nopMetrics{}, log,
		usecase.AnalysisDefaults{},
	)
	h := NewAnalysisEchoHandler(log, uc)
	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

func doGet(t *testing.T, e *echo.Echo, path string, params url.Values) (*httptest.ResponseRecorder, xhttp.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path+"?"+params.Encode(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body xhttp.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
	return rec, body
}

func TestAnalyzeEndpoint(t *testing.T) {
	_, e := newTestHandler(t)

	_, body := doGet(t, e, "/api/analyze", url.Values{"token": {"btc"}, "days": {"30"}})
	if body.Status != http.StatusOK {
		t.Fatalf("expected envelope status 200, got %d", body.Status)
	}
	raw, _ := json.Marshal(body.Data)
	var rep models.AnalysisReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Token != "BTC" || rep.Samples != 29 {
		t.Errorf("unexpected report: token=%q samples=%d", rep.Token, rep.Samples)
	}
	if rep.RiskLevel == "" {
		t.Errorf("risk level missing")
	}
}

func TestAnalyzeMissingToken(t *testing.T) {
	_, e := newTestHandler(t)
	_, body := doGet(t, e, "/api/analyze", url.Values{})
	if body.Status != http.StatusBadRequest {
		t.Errorf("expected 400 envelope, got %d", body.Status)
	}
}

func TestAnalyzeDaysOutOfRange(t *testing.T) {
	_, e := newTestHandler(t)
	_, body := doGet(t, e, "/api/analyze", url.Values{"token": {"btc"}, "days": {"9999"}})
	if body.Status != http.StatusBadRequest {
		t.Errorf("expected 400 envelope, got %d", body.Status)
	}
}

func TestAnalyzeUpstreamDown(t *testing.T) {
	_, e := newTestHandler(t)
	_, body := doGet(t, e, "/api/analyze", url.Values{"token": {"down"}})
	if body.Status != http.StatusBadGateway {
		t.Errorf("expected 502 envelope, got %d", body.Status)
	}
}

func TestRiskWithoutSession(t *testing.T) {
	_, e := newTestHandler(t)
	_, body := doGet(t, e, "/api/risk", url.Values{"session": {"empty"}})
	if body.Status != http.StatusConflict {
		t.Errorf("expected 409 envelope, got %d", body.Status)
	}
}

func TestRiskAfterAnalyze(t *testing.T) {
	_, e := newTestHandler(t)

	if _, body := doGet(t, e, "/api/analyze", url.Values{"token": {"eth"}}); body.Status != http.StatusOK {
		t.Fatalf("analyze failed: %d", body.Status)
	}
	_, body := doGet(t, e, "/api/risk", url.Values{})
	if body.Status != http.StatusOK {
		t.Fatalf("expected 200 envelope, got %d", body.Status)
	}
	raw, _ := json.Marshal(body.Data)
	var rep models.RiskReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Token != "ETH" {
		t.Errorf("expected ETH, got %q", rep.Token)
	}
	if rep.VaR99 <= rep.VaR95 {
		t.Errorf("VaR99 (%v) should exceed VaR95 (%v)", rep.VaR99, rep.VaR95)
	}
}

func TestCompareEndpoint(t *testing.T) {
	_, e := newTestHandler(t)
	_, body := doGet(t, e, "/api/compare", url.Values{"tokens": {"btc,eth,down"}})
	if body.Status != http.StatusOK {
		t.Fatalf("expected 200 envelope, got %d", body.Status)
	}
	raw, _ := json.Marshal(body.Data)
	var rep models.ComparisonReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(rep.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(rep.Entries))
	}
	if rep.Entries[2].Token != "DOWN" || rep.Entries[2].Err == "" {
		t.Errorf("DOWN entry should carry its error: %+v", rep.Entries[2])
	}
}

func TestResetEndpoint(t *testing.T) {
	_, e := newTestHandler(t)

	if _, body := doGet(t, e, "/api/analyze", url.Values{"token": {"btc"}}); body.Status != http.StatusOK {
		t.Fatalf("analyze failed: %d", body.Status)
	}

	form := url.Values{"session": {"default"}}
	req := httptest.NewRequest(http.MethodPost, "/api/reset", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body xhttp.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Status != http.StatusOK {
		t.Fatalf("expected 200 envelope, got %d", body.Status)
	}

	// Session is empty again.
	_, body = doGet(t, e, "/api/risk", url.Values{})
	if body.Status != http.StatusConflict {
		t.Errorf("expected 409 after reset, got %d", body.Status)
	}
}
