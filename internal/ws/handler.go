package ws

import (
	"net/http"
	"strings"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"
)

// Authenticator resolves an access token to the actor it identifies.
type Authenticator interface {
	Authenticate(accessToken string) (account.Actor, error)
}

type Handler struct {
	hub  *Hub
	auth Authenticator
	log  *logger.Logger
}

func NewHandler(hub *Hub, auth Authenticator, log *logger.Logger) *Handler {
	return &Handler{hub: hub, auth: auth, log: logger.OrNop(log).With("component", "ws")}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/ws", h.HandleEvents)
}

// HandleEvents upgrades the request and streams the caller's lifecycle
// events. Browsers cannot set headers on a websocket handshake, so the
// access token comes in the "token" query parameter.
func (h *Handler) HandleEvents(c fiber.Ctx) error {
	if h == nil || h.hub == nil {
		return fiber.ErrServiceUnavailable
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	actor, err := h.auth.Authenticate(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("ws upgrade failed", "error", err)
			return
		}

		client := NewClient(h.hub, conn, actor.Topic())
		h.hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	return fiberHandler(c)
}
