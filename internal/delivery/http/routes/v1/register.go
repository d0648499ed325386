package v1

import (
	"sidecrew/internal/delivery/http/handler"
	"sidecrew/internal/delivery/http/middleware"
	"sidecrew/internal/domain/account"

	"github.com/gofiber/fiber/v3"
)

// Handlers are the v1 endpoints. A nil handler leaves its routes out.
type Handlers struct {
	Auth      *handler.AuthHandler
	Proximity *handler.ProximityHandler
	Client    *handler.ClientHandler
	Agent     *handler.AgentHandler
	Worker    *handler.WorkerHandler
	Profile   *handler.ProfileHandler
	Admin     *handler.AdminHandler
}

func Register(r fiber.Router, h Handlers, authMw *middleware.AuthMiddleware) {
	if r == nil || authMw == nil {
		return
	}

	RegisterAccounts(r, h.Auth)
	if h.Proximity != nil {
		h.Proximity.RegisterRoutes(r)
	}

	protected := r.Group("", authMw.Middleware())
	RegisterRoles(protected, h)
	RegisterAdmin(protected, h.Admin)
}

func role(r fiber.Router, prefix string, kind account.Kind) fiber.Router {
	return r.Group(prefix, middleware.RequireRole(kind))
}
