package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"VolCast/internal/domain/models"
	domsvc "VolCast/internal/domain/service"
	"VolCast/internal/service/ratelimit"
	"VolCast/internal/services/volatility"
	"VolCast/internal/usecase"
	"VolCast/pkg/cache"
	xhttp "VolCast/pkg/http"
	xlogger "VolCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

const compareCacheTTL = 30 * time.Second

// AnalysisEchoHandler exposes the analysis commands over HTTP.
type AnalysisEchoHandler struct {
	logger *xlogger.Logger
	uc     *usecase.AnalysisUseCase
	cache  cache.Service
	rl     *ratelimit.Limiter
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, uc *usecase.AnalysisUseCase) *AnalysisEchoHandler {
	return &AnalysisEchoHandler{logger: logger, uc: uc, rl: ratelimit.New()}
}

// SetCache enables response caching for the compare endpoint.
func (h *AnalysisEchoHandler) SetCache(c cache.Service) { h.cache = c }

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/analyze", h.Analyze)
	g.GET("/forecast", h.Forecast)
	g.GET("/risk", h.Risk)
	g.GET("/compare", h.Compare)
	g.GET("/history", h.History)
	g.POST("/reset", h.Reset)
}

func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":analyze", 5, 2) {
		return rateLimitedResponse(c)
	}

	res, err := h.uc.Analyze(c.Request().Context(), req.Session, req.Token, req.Days)
	if err != nil {
		h.logger.Error("analyze usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":forecast", 5, 2) {
		return rateLimitedResponse(c)
	}

	res, err := h.uc.Predict(c.Request().Context(), req.Session, req.Token, req.Days, req.Horizon, req.Confidence)
	if err != nil {
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Risk(c echo.Context) error {
	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.Risk(c.Request().Context(), req.Session)
	if err != nil {
		h.logger.Error("risk usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

// Compare fans out to every requested token, so its responses are cached
// briefly to spare the upstream API.
func (h *AnalysisEchoHandler) Compare(c echo.Context) error {
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":compare", 3, 1) {
		return rateLimitedResponse(c)
	}

	tokens := strings.Split(req.Tokens, ",")
	cacheKey := cache.GenerateKeyWithParams("compare", strings.ToUpper(req.Tokens), req.Days)
	if h.cache != nil {
		var raw string
		if err := h.cache.Get(c.Request().Context(), cacheKey, &raw); err == nil {
			h.logger.Debug("compare cache hit", xlogger.String("key", cacheKey))
			return xhttp.SuccessResponse(c, json.RawMessage(raw))
		}
	}

	res, err := h.uc.Compare(c.Request().Context(), tokens, req.Days)
	if err != nil {
		h.logger.Error("compare usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}

	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := h.cache.Set(c.Request().Context(), cacheKey, string(b), compareCacheTTL); err != nil {
				h.logger.Warn("compare cache write failed", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	recs, err := h.uc.History(c.Request().Context(), req.Token, req.Limit)
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

func (h *AnalysisEchoHandler) Reset(c echo.Context) error {
	req := &models.ResetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	token := h.uc.Reset(c.Request().Context(), req.Session)
	return xhttp.SuccessResponse(c, map[string]string{
		"session": req.Session,
		"token":   token,
	})
}

func rateLimitedResponse(c echo.Context) error {
	return xhttp.AppErrorResponse(c,
		xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many requests", http.StatusTooManyRequests))
}

// toAppError maps domain errors onto HTTP statuses. Anything unmapped stays
// a 500 via AppErrorResponse.
func toAppError(err error) error {
	switch {
	case errors.Is(err, volatility.ErrInvalidParameter):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, volatility.ErrInsufficientData):
		return xhttp.NewAppError("ERR_INSUFFICIENT_DATA", "", err.Error(), http.StatusUnprocessableEntity).WithError(err)
	case errors.Is(err, domsvc.ErrDataUnavailable):
		return xhttp.NewAppError("ERR_UPSTREAM", "", err.Error(), http.StatusBadGateway).WithError(err)
	case errors.Is(err, usecase.ErrNoActiveSession):
		return xhttp.NewAppError("ERR_NO_SESSION", "", err.Error(), http.StatusConflict).WithError(err)
	default:
		return err
	}
}
