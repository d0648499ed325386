package handler

import (
	"context"

	"sidecrew/internal/delivery/http/dto"
	"sidecrew/internal/delivery/http/middleware"
	"sidecrew/internal/domain/account"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/pkg/response"
	"sidecrew/internal/usecase/board"
	"sidecrew/internal/usecase/lifecycle"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type AgentHandler struct {
	engine *lifecycle.Service
	board  *board.Service
}

type createPostingRequest struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	WorkerPayRateCents *int64 `json:"worker_pay_rate_cents"`
}

type rejectProofRequest struct {
	Remarks string `json:"remarks"`
}

func NewAgentHandler(engine *lifecycle.Service, b *board.Service) *AgentHandler {
	return &AgentHandler{engine: engine, board: b}
}

func (h *AgentHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/board", h.Board)

	r.Post("/jobs/:id/claim", h.jobAction(h.engine.ClaimJob, "Job claimed"))
	r.Post("/jobs/:id/invite/accept", h.jobAction(h.engine.AcceptInvite, "Invitation accepted"))
	r.Post("/jobs/:id/invite/reject", h.jobAction(h.engine.RejectInvite, "Invitation declined"))
	r.Post("/jobs/:id/postings", h.CreatePosting)

	r.Post("/applications/:id/accept", h.AcceptApplication)
	r.Post("/applications/:id/reject", h.RejectApplication)
	r.Post("/applications/:id/paid", h.MarkPaid)
	r.Post("/applications/:id/rate", h.RateWorker)

	r.Post("/proofs/:id/approve", h.ApproveProof)
	r.Post("/proofs/:id/reject", h.RejectProof)
}

func (h *AgentHandler) Board(c fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	b, err := h.board.Agent(c.Context(), actor)
	if err != nil {
		return mapBoardError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewAgentBoardResponse(b))
}

func (h *AgentHandler) jobAction(act func(ctx context.Context, actor account.Actor, jobID uuid.UUID) (job.Job, error), msg string) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, id, err := actorAndID(c)
		if err != nil {
			return err
		}
		j, err := act(c.Context(), actor, id)
		if err != nil {
			return mapLifecycleError(err)
		}
		return response.Success(c, fiber.StatusOK, msg, dto.NewJobResponse(j))
	}
}

func (h *AgentHandler) CreatePosting(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	var req createPostingRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
		}
	}

	in := lifecycle.PostingInput{Title: req.Title, Description: req.Description}
	if req.WorkerPayRateCents != nil {
		rate := job.Cents(*req.WorkerPayRateCents)
		in.WorkerPayRate = &rate
	}
	p, err := h.engine.CreatePosting(c.Context(), actor, id, in)
	if err != nil {
		return mapLifecycleError(err)
	}
	return response.Success(c, fiber.StatusCreated, "Posting created", dto.NewPostingResponse(p))
}

func (h *AgentHandler) AcceptApplication(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	out, err := h.engine.AcceptApplication(c.Context(), actor, id)
	if err != nil {
		return mapLifecycleError(err)
	}
	return response.Success(c, fiber.StatusOK, "Application accepted", dto.NewAcceptResponse(out))
}

func (h *AgentHandler) RejectApplication(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	a, err := h.engine.RejectApplication(c.Context(), actor, id)
	if err != nil {
		return mapLifecycleError(err)
	}
	return response.Success(c, fiber.StatusOK, "Application rejected", dto.NewApplicationResponse(a))
}

func (h *AgentHandler) MarkPaid(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	a, err := h.engine.MarkWorkerPaid(c.Context(), actor, id)
	if err != nil {
		return mapLifecycleError(err)
	}
	return response.Success(c, fiber.StatusOK, "Worker marked as paid", dto.NewApplicationResponse(a))
}

func (h *AgentHandler) RateWorker(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	var req ratingRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	a, err := h.engine.RateWorker(c.Context(), actor, id, req.Rating)
	if err != nil {
		return mapLifecycleError(err)
	}
	return response.Success(c, fiber.StatusOK, "Worker rated", dto.NewApplicationResponse(a))
}

func (h *AgentHandler) ApproveProof(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	out, err := h.engine.ApproveProof(c.Context(), actor, id)
	if err != nil {
		return mapLifecycleError(err)
	}
	return response.Success(c, fiber.StatusOK, "Proof approved", dto.NewReviewResponse(out))
}

func (h *AgentHandler) RejectProof(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	var req rejectProofRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
		}
	}
	out, err := h.engine.RejectProof(c.Context(), actor, id, req.Remarks)
	if err != nil {
		return mapLifecycleError(err)
	}
	return response.Success(c, fiber.StatusOK, "Proof rejected", dto.NewReviewResponse(out))
}
