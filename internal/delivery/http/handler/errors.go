package handler

import (
	"errors"

	"sidecrew/internal/delivery/http/middleware"
	"sidecrew/internal/pkg/response"
	"sidecrew/internal/usecase/admin"
	"sidecrew/internal/usecase/board"
	"sidecrew/internal/usecase/lifecycle"
	"sidecrew/internal/usecase/profile"

	"github.com/gofiber/fiber/v3"
)

type errorRule struct {
	err    error
	status int
	msg    string
}

// Specific errors come before the kinds they wrap.
var lifecycleErrorRules = []errorRule{
	{lifecycle.ErrAlreadyApplied, fiber.StatusConflict, "Already applied to this posting"},
	{lifecycle.ErrAlreadyRated, fiber.StatusConflict, "Already rated"},
	{lifecycle.ErrPostingFilled, fiber.StatusConflict, "Posting is no longer accepting workers"},
	{lifecycle.ErrNoAgent, fiber.StatusConflict, "Job has no agent"},
	{lifecycle.ErrJobCompleted, fiber.StatusConflict, "Completed jobs cannot be deleted"},
	{lifecycle.ErrRemarksRequired, fiber.StatusBadRequest, "Remarks are required when rejecting proof"},
	{lifecycle.ErrProofIncomplete, fiber.StatusBadRequest, "Image, latitude and longitude are required"},
	{lifecycle.ErrInvalidRating, fiber.StatusBadRequest, "Rating must be between 1 and 5"},
	{lifecycle.ErrNotFound, fiber.StatusNotFound, "Not found"},
	{lifecycle.ErrUnauthorized, fiber.StatusForbidden, "Forbidden"},
	{lifecycle.ErrInvalidState, fiber.StatusConflict, "Action not allowed in the current state"},
	{lifecycle.ErrValidation, fiber.StatusBadRequest, "Invalid request payload"},
	{lifecycle.ErrConflict, fiber.StatusConflict, "Conflict"},
}

func mapLifecycleError(err error) error {
	if err == nil {
		return nil
	}
	for _, r := range lifecycleErrorRules {
		if errors.Is(err, r.err) {
			return middleware.NewAppError(r.status, r.msg, nil, err)
		}
	}
	return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
}

func mapBoardError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, board.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusForbidden, "Forbidden", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

func mapAdminError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, admin.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Not found", nil, err)
	case errors.Is(err, admin.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	default:
		return mapLifecycleError(err)
	}
}

func mapProfileError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, profile.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Profile not found", nil, err)
	case errors.Is(err, profile.ErrForbidden):
		return middleware.NewAppError(fiber.StatusForbidden, "Forbidden", nil, err)
	case errors.Is(err, profile.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	case errors.Is(err, profile.ErrEmailTaken):
		return middleware.NewAppError(fiber.StatusConflict, "Email already in use", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
