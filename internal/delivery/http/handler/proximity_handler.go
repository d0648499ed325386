package handler

import (
	"context"
	"errors"

	"sidecrew/internal/delivery/http/dto"
	"sidecrew/internal/domain/proximity"
	"sidecrew/internal/pkg/response"
	"sidecrew/internal/usecase/nearby"

	"github.com/gofiber/fiber/v3"
)

type NearbyAgentFinder interface {
	NearbyAgents(ctx context.Context, lat, lng float64) ([]proximity.Match, error)
}

// ProximityHandler serves the agent proximity lookup. Unlike the rest of
// the API it answers with a bare JSON body: {"agents": [...]} on success and
// {"error": "..."} on failure.
type ProximityHandler struct {
	finder NearbyAgentFinder
}

func NewProximityHandler(finder NearbyAgentFinder) *ProximityHandler {
	return &ProximityHandler{finder: finder}
}

func (h *ProximityHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/agents/near", h.Near)
}

func (h *ProximityHandler) Near(c fiber.Ctx) error {
	lat, lng, err := nearby.ParseCoordinates(c.Query("lat"), c.Query("lng"))
	if err != nil {
		return response.Raw(c, fiber.StatusBadRequest, fiber.Map{"error": "Invalid location data"})
	}

	matches, err := h.finder.NearbyAgents(c.Context(), lat, lng)
	if err != nil {
		if errors.Is(err, nearby.ErrInvalidLocation) {
			return response.Raw(c, fiber.StatusBadRequest, fiber.Map{"error": "Invalid location data"})
		}
		return response.Raw(c, fiber.StatusInternalServerError, fiber.Map{"error": "Internal server error"})
	}

	return response.Raw(c, fiber.StatusOK, fiber.Map{"agents": dto.NewNearbyAgentResponses(matches)})
}
