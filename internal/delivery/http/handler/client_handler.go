package handler

import (
	"sidecrew/internal/delivery/http/dto"
	"sidecrew/internal/delivery/http/middleware"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/pkg/response"
	"sidecrew/internal/usecase/board"
	"sidecrew/internal/usecase/lifecycle"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ClientHandler struct {
	engine *lifecycle.Service
	board  *board.Service
}

type createJobRequest struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Address           string     `json:"address"`
	Latitude          *float64   `json:"latitude"`
	Longitude         *float64   `json:"longitude"`
	PayPerWorkerCents int64      `json:"pay_per_worker_cents"`
	WorkersNeeded     int        `json:"workers_needed"`
	InviteAgentID     *uuid.UUID `json:"invite_agent_id"`
}

func NewClientHandler(engine *lifecycle.Service, b *board.Service) *ClientHandler {
	return &ClientHandler{engine: engine, board: b}
}

func (h *ClientHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/jobs", h.CreateJob)
	r.Get("/jobs", h.ListJobs)
	r.Delete("/jobs/:id", h.DeleteJob)
	r.Post("/jobs/:id/pay", h.Pay)
	r.Post("/jobs/:id/rate", h.RateAgent)
}

func (h *ClientHandler) CreateJob(c fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var req createJobRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	j, err := h.engine.CreateJob(c.Context(), actor, lifecycle.CreateJobInput{
		Title:         req.Title,
		Description:   req.Description,
		Address:       req.Address,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		PayPerWorker:  job.Cents(req.PayPerWorkerCents),
		WorkersNeeded: req.WorkersNeeded,
		InviteAgentID: req.InviteAgentID,
	})
	if err != nil {
		return mapLifecycleError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, dto.NewJobResponse(j))
}

func (h *ClientHandler) ListJobs(c fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	jobs, err := h.board.ClientJobs(c.Context(), actor)
	if err != nil {
		return mapBoardError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewClientJobResponses(jobs))
}

func (h *ClientHandler) DeleteJob(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	if err := h.engine.DeleteJob(c.Context(), actor, id); err != nil {
		return mapLifecycleError(err)
	}
	return response.Success(c, fiber.StatusOK, "Job deleted", nil)
}

func (h *ClientHandler) Pay(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	j, err := h.engine.PayForJob(c.Context(), actor, id)
	if err != nil {
		return mapLifecycleError(err)
	}
	return response.Success(c, fiber.StatusOK, "Payment recorded", dto.NewJobResponse(j))
}

func (h *ClientHandler) RateAgent(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	var req ratingRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	j, err := h.engine.RateAgent(c.Context(), actor, id, req.Rating)
	if err != nil {
		return mapLifecycleError(err)
	}
	return response.Success(c, fiber.StatusOK, "Agent rated", dto.NewJobResponse(j))
}
