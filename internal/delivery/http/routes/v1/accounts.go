package v1

import (
	"sidecrew/internal/delivery/http/handler"
	"sidecrew/internal/domain/account"

	"github.com/gofiber/fiber/v3"
)

func RegisterAccounts(r fiber.Router, authHandler *handler.AuthHandler) {
	if r == nil || authHandler == nil {
		return
	}
	authHandler.RegisterRoutes(r.Group("/auth"))
}

func RegisterAdmin(r fiber.Router, adminHandler *handler.AdminHandler) {
	if r == nil || adminHandler == nil {
		return
	}
	adminHandler.RegisterRoutes(role(r, "/admin", account.KindAdmin))
}
