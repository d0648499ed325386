package handler

import (
	"context"

	"sidecrew/internal/delivery/http/dto"
	"sidecrew/internal/delivery/http/middleware"
	"sidecrew/internal/domain/account"
	"sidecrew/internal/pkg/response"
	"sidecrew/internal/usecase/admin"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type AdminHandler struct {
	uc *admin.Service
}

func NewAdminHandler(uc *admin.Service) *AdminHandler {
	return &AdminHandler{uc: uc}
}

func (h *AdminHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/stats", h.Stats)

	r.Get("/accounts/:kind", h.ListAccounts)
	r.Post("/accounts/:kind/:id/approve", h.Approve)
	r.Post("/accounts/:kind/:id/reject", h.Reject)
	r.Delete("/accounts/:kind/:id", h.DeleteAccount)

	r.Get("/jobs", h.ListJobs)
	r.Get("/jobs/:id", h.JobDetail)
	r.Delete("/jobs/:id", h.DeleteJob)
}

func (h *AdminHandler) Stats(c fiber.Ctx) error {
	st, err := h.uc.Stats(c.Context())
	if err != nil {
		return mapAdminError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, st)
}

func (h *AdminHandler) ListAccounts(c fiber.Ctx) error {
	kind, err := accountKind(c)
	if err != nil {
		return err
	}
	list, err := h.uc.ListAccounts(c.Context(), kind, account.ApprovalStatus(c.Query("status")))
	if err != nil {
		return mapAdminError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewAccountResponses(list))
}

func (h *AdminHandler) Approve(c fiber.Ctx) error {
	return h.setStatus(c, h.uc.Approve, "Account approved")
}

func (h *AdminHandler) Reject(c fiber.Ctx) error {
	return h.setStatus(c, h.uc.Reject, "Account rejected")
}

func (h *AdminHandler) setStatus(c fiber.Ctx, set func(ctx context.Context, kind account.Kind, id uuid.UUID) (account.Account, error), msg string) error {
	kind, err := accountKind(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, err := set(c.Context(), kind, id)
	if err != nil {
		return mapAdminError(err)
	}
	return response.Success(c, fiber.StatusOK, msg, dto.NewAccountResponse(a))
}

func (h *AdminHandler) DeleteAccount(c fiber.Ctx) error {
	kind, err := accountKind(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.uc.DeleteAccount(c.Context(), kind, id); err != nil {
		return mapAdminError(err)
	}
	return response.Success(c, fiber.StatusOK, "Account deleted", nil)
}

func (h *AdminHandler) ListJobs(c fiber.Ctx) error {
	jobs, err := h.uc.ListJobs(c.Context())
	if err != nil {
		return mapAdminError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobResponses(jobs))
}

func (h *AdminHandler) JobDetail(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.uc.JobDetail(c.Context(), id)
	if err != nil {
		return mapAdminError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobDetailResponse(d))
}

func (h *AdminHandler) DeleteJob(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	if err := h.uc.DeleteJob(c.Context(), actor, id); err != nil {
		return mapAdminError(err)
	}
	return response.Success(c, fiber.StatusOK, "Job deleted", nil)
}

func accountKind(c fiber.Ctx) (account.Kind, error) {
	kind, err := account.ParseKind(c.Params("kind"))
	if err != nil || !kind.Stored() {
		return "", middleware.NewAppError(fiber.StatusNotFound, "Unknown account type", nil, err)
	}
	return kind, nil
}
