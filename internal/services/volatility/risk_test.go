package volatility

import (
	"errors"
	"math"
	"testing"

	"VolCast/internal/domain/models"
)

func volSeries(t *testing.T, values []float64) models.VolatilitySeries {
	t.Helper()
	return models.VolatilitySeries(returnSeries(t, values))
}

func TestQuantileInterpolation(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}
	// pos = q*(n-1) with linear interpolation: 0.33*99 = 32.67 -> 33.67.
	if got := quantile(values, 0.33); math.Abs(got-33.67) > 1e-9 {
		t.Errorf("p33 of 1..100: expected 33.67, got %v", got)
	}
	if got := quantile(values, 0.67); math.Abs(got-67.33) > 1e-9 {
		t.Errorf("p67 of 1..100: expected 67.33, got %v", got)
	}
	if got := quantile(values, 0); got != 1 {
		t.Errorf("p0: expected 1, got %v", got)
	}
	if got := quantile(values, 1); got != 100 {
		t.Errorf("p100: expected 100, got %v", got)
	}
	if got := quantile([]float64{42}, 0.5); got != 42 {
		t.Errorf("single sample: expected 42, got %v", got)
	}
}

func TestClassifyTertiles(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}
	history := volSeries(t, values)
	low := quantile(values, lowQuantile)
	high := quantile(values, highQuantile)

	tests := []struct {
		current float64
		want    models.RiskLevel
	}{
		{1, models.RiskLow},
		{33, models.RiskLow},
		{low, models.RiskMedium}, // exactly on the low cut
		{50, models.RiskMedium},
		{high, models.RiskMedium}, // exactly on the high cut
		{70, models.RiskHigh},
		{100, models.RiskHigh},
	}
	for _, tc := range tests {
		got, err := Classify(tc.current, history)
		if err != nil {
			t.Fatalf("Classify(%v): %v", tc.current, err)
		}
		if got != tc.want {
			t.Errorf("Classify(%v): expected %s, got %s", tc.current, tc.want, got)
		}
	}
}

func TestClassifyDoesNotReorderHistory(t *testing.T) {
	history := volSeries(t, []float64{5, 1, 4, 2, 3})
	if _, err := Classify(3, history); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	want := []float64{5, 1, 4, 2, 3}
	for i, p := range history {
		if p.Value != want[i] {
			t.Fatalf("history[%d] mutated: expected %v, got %v", i, want[i], p.Value)
		}
	}
}

func TestClassifyDegenerateHistory(t *testing.T) {
	history := volSeries(t, []float64{0.02, 0.02, 0.02})
	got, err := Classify(0.02, history)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got != models.RiskMedium {
		t.Errorf("identical history: expected medium, got %s", got)
	}
}

func TestClassifyEmptyHistory(t *testing.T) {
	if _, err := Classify(0.02, nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}
