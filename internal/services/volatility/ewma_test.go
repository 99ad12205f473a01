package volatility

import (
	"errors"
	"math"
	"testing"
	"time"

	"VolCast/internal/domain/models"
)

func returnSeries(t *testing.T, values []float64) models.ReturnSeries {
	t.Helper()
	base := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.ReturnSeries, len(values))
	for i, v := range values {
		out[i] = models.SeriesPoint{Timestamp: base.AddDate(0, 0, i), Value: v}
	}
	return out
}

func priceSeries(t *testing.T, prices []float64) models.PriceSeries {
	t.Helper()
	base := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.PriceSeries, len(prices))
	for i, p := range prices {
		out[i] = models.PricePoint{Timestamp: base.AddDate(0, 0, i), Price: p, Volume: 1000}
	}
	return out
}

func TestBuildReturns(t *testing.T) {
	prices := priceSeries(t, []float64{100, 110, 99, 99, 120})
	rets, err := BuildReturns(prices)
	if err != nil {
		t.Fatalf("BuildReturns: %v", err)
	}
	if len(rets) != len(prices)-1 {
		t.Fatalf("expected %d returns, got %d", len(prices)-1, len(rets))
	}
	for i, r := range rets {
		want := prices[i+1].Price/prices[i].Price - 1
		if r.Value != want {
			t.Errorf("return[%d]: expected %v, got %v", i, want, r.Value)
		}
		if !r.Timestamp.Equal(prices[i+1].Timestamp) {
			t.Errorf("return[%d]: timestamp not aligned with price[%d]", i, i+1)
		}
	}
}

func TestBuildReturnsInsufficientData(t *testing.T) {
	for _, n := range []int{0, 1} {
		_, err := BuildReturns(priceSeries(t, make([]float64, n))[:n])
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("n=%d: expected ErrInsufficientData, got %v", n, err)
		}
	}
}

// TestEstimateEWMAGoldenScenario reproduces the recursion step by step:
// seed = mean of all squared returns (n < 20), then
// v[i] = lambda*v[i-1] + (1-lambda)*r[i-1]^2.
func TestEstimateEWMAGoldenScenario(t *testing.T) {
	values := []float64{0.01, -0.02, 0.015, -0.005, 0.02}
	const lambda = 0.94

	got, err := EstimateEWMA(returnSeries(t, values), lambda)
	if err != nil {
		t.Fatalf("EstimateEWMA: %v", err)
	}
	if len(got) != len(values) {
		t.Fatalf("expected %d points, got %d", len(values), len(got))
	}

	sq := make([]float64, len(values))
	for i, r := range values {
		sq[i] = r * r
	}
	var sum float64
	for _, s := range sq {
		sum += s
	}
	v := sum / float64(len(sq))
	want := []float64{math.Sqrt(v)}
	for i := 1; i < len(values); i++ {
		v = lambda*v + (1-lambda)*sq[i-1]
		want = append(want, math.Sqrt(v))
	}

	for i := range want {
		// Same left-to-right arithmetic, so bit-identical output.
		if got[i].Value != want[i] {
			t.Errorf("sigma[%d]: expected %v, got %v", i, want[i], got[i].Value)
		}
	}
}

func TestEstimateEWMASeedWindow(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = 0.001 * float64(i+1)
	}
	got, err := EstimateEWMA(returnSeries(t, values), 0.94)
	if err != nil {
		t.Fatalf("EstimateEWMA: %v", err)
	}

	// Seed averages only the first 20 squared returns when >= 20 exist.
	var sum float64
	for _, r := range values[:20] {
		sum += r * r
	}
	want := math.Sqrt(sum / 20)
	if got[0].Value != want {
		t.Errorf("seed sigma: expected %v, got %v", want, got[0].Value)
	}
}

func TestEstimateEWMANonNegativeAndAligned(t *testing.T) {
	values := []float64{0.03, -0.05, 0.0, 0.01, -0.02, 0.04, -0.01}
	rets := returnSeries(t, values)
	vols, err := EstimateEWMA(rets, 0.94)
	if err != nil {
		t.Fatalf("EstimateEWMA: %v", err)
	}
	if len(vols) != len(rets) {
		t.Fatalf("expected %d points, got %d", len(rets), len(vols))
	}
	for i, p := range vols {
		if p.Value < 0 {
			t.Errorf("sigma[%d] = %v is negative", i, p.Value)
		}
		if !p.Timestamp.Equal(rets[i].Timestamp) {
			t.Errorf("sigma[%d]: timestamp misaligned", i)
		}
	}
}

func TestEstimateEWMAZeroReturns(t *testing.T) {
	vols, err := EstimateEWMA(returnSeries(t, make([]float64, 10)), 0.94)
	if err != nil {
		t.Fatalf("EstimateEWMA: %v", err)
	}
	for i, p := range vols {
		if p.Value != 0 {
			t.Errorf("sigma[%d]: expected 0 for constant-zero returns, got %v", i, p.Value)
		}
	}
}

func TestEstimateEWMAIdempotent(t *testing.T) {
	rets := returnSeries(t, []float64{0.012, -0.031, 0.007, 0.019, -0.004, 0.025})
	a, err := EstimateEWMA(rets, 0.94)
	if err != nil {
		t.Fatalf("EstimateEWMA: %v", err)
	}
	b, err := EstimateEWMA(rets, 0.94)
	if err != nil {
		t.Fatalf("EstimateEWMA: %v", err)
	}
	for i := range a {
		if a[i].Value != b[i].Value {
			t.Errorf("sigma[%d]: runs differ (%v vs %v)", i, a[i].Value, b[i].Value)
		}
	}
}

func TestEstimateEWMAInvalidInputs(t *testing.T) {
	rets := returnSeries(t, []float64{0.01, 0.02, 0.03})
	for _, lambda := range []float64{0, 1, -0.5, 1.5} {
		if _, err := EstimateEWMA(rets, lambda); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("lambda=%v: expected ErrInvalidParameter, got %v", lambda, err)
		}
	}
	if _, err := EstimateEWMA(returnSeries(t, []float64{0.01}), 0.94); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("length-1 series: expected ErrInsufficientData, got %v", err)
	}
}

func TestForecastFlatTermStructure(t *testing.T) {
	const sigma = 0.0123
	for _, h := range []int{1, 7, 30, 365} {
		got, err := Forecast(sigma, h)
		if err != nil {
			t.Fatalf("Forecast(h=%d): %v", h, err)
		}
		if got != sigma {
			t.Errorf("Forecast(h=%d): expected %v, got %v", h, sigma, got)
		}
	}
	if _, err := Forecast(sigma, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("horizon 0: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := Forecast(-0.1, 1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("negative sigma: expected ErrInvalidParameter, got %v", err)
	}
}
