package middleware

import (
	"errors"
	"strings"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/usecase/auth"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const CtxActorKey = "actor"

// Authenticator resolves an access token to the actor it identifies.
type Authenticator interface {
	Authenticate(accessToken string) (account.Actor, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(a Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: a}
}

func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := BearerToken(c.Get("Authorization"))
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}

		actor, err := m.auth.Authenticate(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				return NewAppError(fiber.StatusUnauthorized, "Token expired", nil, err)
			}
			return NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, err)
		}

		c.Locals(CtxActorKey, actor)
		return c.Next()
	}
}

// RequireRole lets through only actors of one of the given kinds. It must
// run after Middleware.
func RequireRole(kinds ...account.Kind) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}
		for _, k := range kinds {
			if actor.Kind == k {
				return c.Next()
			}
		}
		return NewAppError(fiber.StatusForbidden, "Forbidden", nil, nil)
	}
}

func ActorFrom(c fiber.Ctx) (account.Actor, bool) {
	actor, ok := c.Locals(CtxActorKey).(account.Actor)
	if !ok || actor.ID == uuid.Nil {
		return account.Actor{}, false
	}
	return actor, true
}

func BearerToken(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
