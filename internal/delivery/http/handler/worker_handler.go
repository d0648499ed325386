package handler

import (
	"context"
	"io"
	"strconv"
	"strings"

	"sidecrew/internal/delivery/http/dto"
	"sidecrew/internal/delivery/http/middleware"
	"sidecrew/internal/domain/application"
	"sidecrew/internal/infrastructure/blob"
	"sidecrew/internal/pkg/logger"
	"sidecrew/internal/pkg/response"
	"sidecrew/internal/usecase/board"
	"sidecrew/internal/usecase/lifecycle"

	"github.com/gofiber/fiber/v3"
)

const maxProofImageBytes = 10 << 20

type BlobWriter interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

type WorkerHandler struct {
	engine *lifecycle.Service
	board  *board.Service
	blobs  BlobWriter
	log    *logger.Logger
}

func NewWorkerHandler(engine *lifecycle.Service, b *board.Service, blobs BlobWriter, log *logger.Logger) *WorkerHandler {
	return &WorkerHandler{
		engine: engine,
		board:  b,
		blobs:  blobs,
		log:    logger.OrNop(log).With("component", "worker_handler"),
	}
}

func (h *WorkerHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/board", h.Board)
	r.Post("/postings/:id/apply", h.Apply)
	r.Post("/applications/:id/proof", h.SubmitProof)
}

func (h *WorkerHandler) Board(c fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	b, err := h.board.Worker(c.Context(), actor)
	if err != nil {
		return mapBoardError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewWorkerBoardResponse(b))
}

func (h *WorkerHandler) Apply(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	a, err := h.engine.Apply(c.Context(), actor, id)
	if err != nil {
		return mapLifecycleError(err)
	}
	return response.Success(c, fiber.StatusCreated, "Application submitted", dto.NewApplicationResponse(a))
}

// SubmitProof takes a multipart form with an "image" file and "latitude" /
// "longitude" fields. Input is checked before anything is written to the
// blob store; a stored image is removed again if the submission is refused,
// and a resubmission removes the image it replaced.
func (h *WorkerHandler) SubmitProof(c fiber.Ctx) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}

	lat, latOK := formFloat(c, "latitude")
	lng, lngOK := formFloat(c, "longitude")
	file, fileErr := c.FormFile("image")
	if !latOK || !lngOK || fileErr != nil || file.Size == 0 {
		return mapLifecycleError(lifecycle.ErrProofIncomplete)
	}
	if !application.ValidCoordinates(lat, lng) {
		return middleware.NewAppError(fiber.StatusBadRequest, "Coordinates out of range", nil, nil)
	}
	if file.Size > maxProofImageBytes {
		return middleware.NewAppError(fiber.StatusRequestEntityTooLarge, "Image too large", nil, nil)
	}

	f, err := file.Open()
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Unreadable image", nil, err)
	}
	defer f.Close()

	ref, err := h.blobs.Put(c.Context(), blob.ProofKey(id, file.Filename), file.Header.Get("Content-Type"), f)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	res, err := h.engine.SubmitProof(c.Context(), actor, id, lifecycle.ProofInput{ImageRef: ref, Latitude: &lat, Longitude: &lng})
	if err != nil {
		h.dropBlob(c.Context(), ref)
		return mapLifecycleError(err)
	}
	if res.ReplacedImageRef != "" {
		h.dropBlob(c.Context(), res.ReplacedImageRef)
	}
	return response.Success(c, fiber.StatusCreated, "Proof submitted", dto.NewProofResponse(res.Proof))
}

func (h *WorkerHandler) dropBlob(ctx context.Context, ref string) {
	if err := h.blobs.Delete(context.WithoutCancel(ctx), ref); err != nil {
		h.log.Warn("orphaned proof image", "ref", ref, "error", err)
	}
}

func formFloat(c fiber.Ctx, key string) (float64, bool) {
	raw := strings.TrimSpace(c.FormValue(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
