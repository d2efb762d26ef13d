package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const readinessTimeout = 3 * time.Second

// Pinger is satisfied by every CredentialStore.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves GET /health (liveness) and GET /health/ready
// (readiness, pings the credential store).
type HealthHandler struct {
	store  Pinger
	driver string
	log    zerolog.Logger
}

func NewHealthHandler(store Pinger, driver string, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{store: store, driver: driver, log: log}
}

type dependencyStatus struct {
	Status string `json:"status"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	status, httpStatus := "ok", http.StatusOK
	dep := dependencyStatus{Status: "ok"}

	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Str("driver", h.driver).Msg("readiness check failed")
		status, httpStatus = "degraded", http.StatusServiceUnavailable
		dep.Status = "unhealthy"
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: map[string]dependencyStatus{h.driver: dep},
	})
}
