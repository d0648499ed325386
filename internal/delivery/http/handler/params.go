package handler

import (
	"sidecrew/internal/delivery/http/middleware"
	"sidecrew/internal/domain/account"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ratingRequest struct {
	Rating int `json:"rating"`
}

func pathID(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "Invalid "+name, nil, err)
	}
	return id, nil
}

func currentActor(c fiber.Ctx) (account.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return account.Actor{}, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	return actor, nil
}

// actorAndID is the preamble of every "act on resource :id" endpoint.
func actorAndID(c fiber.Ctx) (account.Actor, uuid.UUID, error) {
	actor, err := currentActor(c)
	if err != nil {
		return account.Actor{}, uuid.Nil, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return account.Actor{}, uuid.Nil, err
	}
	return actor, id, nil
}
