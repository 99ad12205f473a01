package models

import "time"

// AnalysisReport summarizes the volatility analysis of a single token.
type AnalysisReport struct {
	Token             string           `json:"token"`
	Days              int              `json:"days"`
	Samples           int              `json:"samples"`
	CurrentVolatility float64          `json:"current_volatility"`
	MeanVolatility    float64          `json:"mean_volatility"`
	MaxVolatility     float64          `json:"max_volatility"`
	MinVolatility     float64          `json:"min_volatility"`
	RiskLevel         RiskLevel        `json:"risk_level"`
	Volatility        VolatilitySeries `json:"volatility"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

// ForecastReport carries the h-step volatility forecast and the parametric
// VaR figures derived from it.
type ForecastReport struct {
	Token             string    `json:"token"`
	Days              int       `json:"days"`
	Horizon           int       `json:"horizon"`
	Confidence        float64   `json:"confidence"`
	Exposure          float64   `json:"exposure"`
	CurrentVolatility float64   `json:"current_volatility"`
	Forecast          float64   `json:"forecast_volatility"`
	ValueAtRisk       float64   `json:"value_at_risk"`
	RiskLevel         RiskLevel `json:"risk_level"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// RiskReport is the risk assessment of the currently active session token.
type RiskReport struct {
	Token             string    `json:"token"`
	CurrentVolatility float64   `json:"current_volatility"`
	MeanVolatility    float64   `json:"mean_volatility"`
	VaR95             float64   `json:"var_95"`
	VaR99             float64   `json:"var_99"`
	RiskLevel         RiskLevel `json:"risk_level"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// ComparisonEntry is one token's slot in a comparison report.
type ComparisonEntry struct {
	Token             string    `json:"token"`
	CurrentVolatility float64   `json:"current_volatility"`
	RiskLevel         RiskLevel `json:"risk_level"`
	Err               string    `json:"error,omitempty"`
}

// ComparisonReport compares volatility across several tokens over the same
// lookback window.
type ComparisonReport struct {
	Days        int               `json:"days"`
	Entries     []ComparisonEntry `json:"entries"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// AnalysisRecord is the history row persisted after a completed analysis.
type AnalysisRecord struct {
	Token             string
	Timestamp         time.Time
	Days              int
	CurrentVolatility float64
	Forecast          float64
	VaR95             float64
	RiskLevel         string
}

// AnalysisEvent is published to the events topic after a completed analysis
// for the downstream report/notification layer. Plain numbers, no formatting.
type AnalysisEvent struct {
	Token             string    `json:"token"`
	Command           string    `json:"command"`
	Timestamp         time.Time `json:"timestamp"`
	Days              int       `json:"days"`
	CurrentVolatility float64   `json:"current_volatility"`
	Forecast          float64   `json:"forecast_volatility"`
	VaR95             float64   `json:"var_95"`
	RiskLevel         RiskLevel `json:"risk_level"`
}
