package models

// Requests for the analysis command endpoints. Defined in domain for
// consistency and reuse.

type AnalyzeRequest struct {
	Session string `query:"session" json:"session" default:"default"`
	Token   string `query:"token" json:"token" validate:"required"`
	Days    int    `query:"days" json:"days" default:"30" validate:"gte=2,lte=365"`
}

type ForecastRequest struct {
	Session    string  `query:"session" json:"session" default:"default"`
	Token      string  `query:"token" json:"token" validate:"required"`
	Days       int     `query:"days" json:"days" default:"30" validate:"gte=2,lte=365"`
	Horizon    int     `query:"horizon" json:"horizon" default:"7" validate:"gte=1,lte=90"`
	Confidence float64 `query:"confidence" json:"confidence" default:"0.95" validate:"gt=0,lt=1"`
}

type RiskRequest struct {
	Session string `query:"session" json:"session" default:"default"`
}

type ResetRequest struct {
	Session string `query:"session" json:"session" default:"default"`
}

type CompareRequest struct {
	Tokens string `query:"tokens" json:"tokens" validate:"required"`
	Days   int    `query:"days" json:"days" default:"30" validate:"gte=2,lte=365"`
}

type HistoryRequest struct {
	Token string `query:"token" json:"token" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}
