package server

import (
	"context"
	"errors"
	"net/http"

	"gexdash/internal/dashboard/controller"
	"gexdash/internal/dashboard/state"
	"gexdash/pkg/gex"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Dashboard is the controller surface served over HTTP.
type Dashboard interface {
	View() controller.View
	TriggerRefresh(ctx context.Context) error
	Select(ctx context.Context, u controller.SelectionUpdate) error
	DismissBanner()
}

// RefreshScheduler is the period timer behind the refresh-rate setting.
type RefreshScheduler interface {
	SetInterval(rateMs int)
	Rate() int
	Active() bool
}

type SelectionRequest struct {
	Ticker *string `json:"ticker" validate:"omitempty,max=16"`
	// Date is parsed by the handler; an empty string selects the server default.
	Date *string `json:"date"`
}

type RefreshRateRequest struct {
	RateMs *int `json:"rate_ms" validate:"required"`
}

// ThresholdRequest resets to the default distance when threshold is omitted.
// An explicit zero is rejected.
type ThresholdRequest struct {
	Threshold *float64 `json:"threshold" default:"10" validate:"required,gt=0"`
}

type ToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type RefreshInfo struct {
	RateMs int  `json:"rateMs"`
	Active bool `json:"active"`
}

// StateResponse is the body of GET /api/state.
type StateResponse struct {
	controller.View
	Refresh RefreshInfo `json:"refresh"`
}

type Handler struct {
	dashboard Dashboard
	scheduler RefreshScheduler
	settings  *state.Settings
	ws        http.Handler
	logger    *zap.Logger
}

func NewHandler(dashboard Dashboard, scheduler RefreshScheduler, settings *state.Settings, ws http.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		dashboard: dashboard,
		scheduler: scheduler,
		settings:  settings,
		ws:        ws,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/state", h.State)
	g.POST("/refresh", h.Refresh)
	g.PUT("/selection", h.Selection)
	g.PUT("/settings/refresh-rate", h.RefreshRate)
	g.PUT("/settings/threshold", h.Threshold)
	g.PUT("/settings/alerts", h.Alerts)
	g.PUT("/settings/speech", h.Speech)
	g.POST("/banner/dismiss", h.DismissBanner)

	if h.ws != nil {
		e.GET("/ws", echo.WrapHandler(h.ws))
	}
}

func (h *Handler) Health(c echo.Context) error {
	v := h.dashboard.View()
	return c.JSON(http.StatusOK, map[string]any{
		"ok":     true,
		"status": v.Status.State,
	})
}

func (h *Handler) State(c echo.Context) error {
	return success(c, h.stateResponse())
}

func (h *Handler) Refresh(c echo.Context) error {
	if err := h.dashboard.TriggerRefresh(c.Request().Context()); err != nil {
		return h.refreshError(c, err)
	}
	return success(c, h.stateResponse())
}

func (h *Handler) Selection(c echo.Context) error {
	req := &SelectionRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return badRequest(c, verr)
	}

	u := controller.SelectionUpdate{Ticker: req.Ticker}
	if req.Date != nil {
		d, err := gex.ParseDate(*req.Date)
		if err != nil {
			return badRequest(c, []ValidationError{{Code: "ERR_DATETIME", Field: "date", Message: err.Error()}})
		}
		u.Expiry = &d
	}

	if err := h.dashboard.Select(c.Request().Context(), u); err != nil {
		return h.refreshError(c, err)
	}
	return success(c, h.stateResponse())
}

func (h *Handler) RefreshRate(c echo.Context) error {
	req := &RefreshRateRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return badRequest(c, verr)
	}
	h.scheduler.SetInterval(*req.RateMs)
	return success(c, RefreshInfo{RateMs: h.scheduler.Rate(), Active: h.scheduler.Active()})
}

func (h *Handler) Threshold(c echo.Context) error {
	req := &ThresholdRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return badRequest(c, verr)
	}
	h.settings.SetProximityThreshold(*req.Threshold)
	return success(c, h.settings.View())
}

func (h *Handler) Alerts(c echo.Context) error {
	req := &ToggleRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return badRequest(c, verr)
	}
	h.settings.SetAlertsEnabled(*req.Enabled)
	h.logger.Info("alerts toggled", zap.Bool("enabled", *req.Enabled))
	return success(c, h.settings.View())
}

func (h *Handler) Speech(c echo.Context) error {
	req := &ToggleRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return badRequest(c, verr)
	}
	h.settings.SetSpeechEnabled(*req.Enabled)
	h.logger.Info("speech toggled", zap.Bool("enabled", *req.Enabled))
	return success(c, h.settings.View())
}

func (h *Handler) DismissBanner(c echo.Context) error {
	h.dashboard.DismissBanner()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) stateResponse() StateResponse {
	return StateResponse{
		View:    h.dashboard.View(),
		Refresh: RefreshInfo{RateMs: h.scheduler.Rate(), Active: h.scheduler.Active()},
	}
}

// refreshError maps controller failures to HTTP statuses.
func (h *Handler) refreshError(c echo.Context, err error) error {
	var (
		fe *gex.FetchError
		pe *gex.ParseError
	)
	switch {
	case errors.Is(err, controller.ErrThrottled):
		return errorResponse(c, http.StatusTooManyRequests, err)
	case errors.As(err, &fe), errors.As(err, &pe):
		return errorResponse(c, http.StatusBadGateway, err)
	default:
		h.logger.Error("refresh failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, err)
	}
}
