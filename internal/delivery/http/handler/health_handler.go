package handler

import (
	"sidecrew/internal/delivery/http/middleware"
	"sidecrew/internal/pkg/response"
	"sidecrew/internal/usecase/status"

	"github.com/gofiber/fiber/v3"
)

type HealthHandler struct {
	uc *status.Service
}

func NewHealthHandler(uc *status.Service) *HealthHandler {
	return &HealthHandler{uc: uc}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

// Health answers 503 when the store is unreachable. A missing cache only
// shows up in the report.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	report := h.uc.Report(c.Context())
	if !report.StoreHealthy {
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "Store unavailable", nil, nil)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, report)
}
