package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"souqbalady/pkg/response"
)

type HealthHandler struct {
	environment string
	startedAt   time.Time
}

func NewHealthHandler(environment string) *HealthHandler {
	return &HealthHandler{
		environment: environment,
		startedAt:   time.Now(),
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return response.Success(c, map[string]string{
		"status":      "ok",
		"environment": h.environment,
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
		"time":        time.Now().UTC().Format(time.RFC3339),
	})
}
