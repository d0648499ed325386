package v1

import (
	"sidecrew/internal/domain/account"

	"github.com/gofiber/fiber/v3"
)

// RegisterRoles mounts one group per role: its lifecycle endpoints and its
// own profile.
func RegisterRoles(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	client := role(r, "/client", account.KindClient)
	agent := role(r, "/agent", account.KindAgent)
	worker := role(r, "/worker", account.KindWorker)

	if h.Client != nil {
		h.Client.RegisterRoutes(client)
	}
	if h.Agent != nil {
		h.Agent.RegisterRoutes(agent)
	}
	if h.Worker != nil {
		h.Worker.RegisterRoutes(worker)
	}
	if h.Profile != nil {
		for _, g := range []fiber.Router{client, agent, worker} {
			h.Profile.RegisterRoutes(g)
		}
	}
}
