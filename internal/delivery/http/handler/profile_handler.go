package handler

import (
	"context"
	"strings"

	"sidecrew/internal/delivery/http/dto"
	"sidecrew/internal/delivery/http/middleware"
	"sidecrew/internal/infrastructure/blob"
	"sidecrew/internal/pkg/logger"
	"sidecrew/internal/pkg/response"
	"sidecrew/internal/usecase/profile"

	"github.com/gofiber/fiber/v3"
)

const maxProfilePicBytes = 5 << 20

type ProfileHandler struct {
	uc    *profile.Service
	blobs BlobWriter
	log   *logger.Logger
}

// updateProfileRequest is accepted as JSON or as a multipart form with an
// optional "profile_pic" file.
type updateProfileRequest struct {
	Name        string   `json:"name" form:"name"`
	Email       string   `json:"email" form:"email"`
	Phone       string   `json:"phone" form:"phone"`
	CompanyName string   `json:"company_name" form:"company_name"`
	Address     string   `json:"address" form:"address"`
	AgencyName  string   `json:"agency_name" form:"agency_name"`
	Latitude    *float64 `json:"latitude" form:"latitude"`
	Longitude   *float64 `json:"longitude" form:"longitude"`
	Skills      string   `json:"skills" form:"skills"`
	Available   bool     `json:"available" form:"available"`
}

func NewProfileHandler(uc *profile.Service, blobs BlobWriter, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{uc: uc, blobs: blobs, log: logger.OrNop(log).With("component", "profile_handler")}
}

// RegisterRoutes mounts the profile endpoints on a role group, so the same
// handler serves /client/profile, /agent/profile and /worker/profile.
func (h *ProfileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/profile", h.Get)
	r.Put("/profile", h.Update)
	r.Delete("/profile", h.Delete)
}

func (h *ProfileHandler) Get(c fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	a, err := h.uc.Get(c.Context(), actor)
	if err != nil {
		return mapProfileError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewAccountResponse(a))
}

func (h *ProfileHandler) Update(c fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	in := profile.UpdateInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		Address:     req.Address,
		AgencyName:  req.AgencyName,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Skills:      req.Skills,
		Available:   req.Available,
	}

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if file, ferr := c.FormFile("profile_pic"); ferr == nil && file.Size > 0 {
			if file.Size > maxProfilePicBytes {
				return middleware.NewAppError(fiber.StatusRequestEntityTooLarge, "Image too large", nil, nil)
			}
			f, err := file.Open()
			if err != nil {
				return middleware.NewAppError(fiber.StatusBadRequest, "Unreadable image", nil, err)
			}
			defer f.Close()
			ref, err := h.blobs.Put(c.Context(), blob.ProfilePicKey(string(actor.Kind), actor.ID, file.Filename), file.Header.Get("Content-Type"), f)
			if err != nil {
				return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
			}
			in.ProfilePic = ref
		}
	}

	res, err := h.uc.Update(c.Context(), actor, in)
	if err != nil {
		if in.ProfilePic != "" {
			h.dropBlob(c.Context(), in.ProfilePic)
		}
		return mapProfileError(err)
	}
	if res.ReplacedPicture != "" {
		h.dropBlob(c.Context(), res.ReplacedPicture)
	}
	return response.Success(c, fiber.StatusOK, "Profile updated", dto.NewAccountResponse(res.Account))
}

func (h *ProfileHandler) Delete(c fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	a, err := h.uc.Delete(c.Context(), actor)
	if err != nil {
		return mapProfileError(err)
	}
	if a.ProfilePic != "" {
		h.dropBlob(c.Context(), a.ProfilePic)
	}
	return response.Success(c, fiber.StatusOK, "Account deleted", nil)
}

func (h *ProfileHandler) dropBlob(ctx context.Context, ref string) {
	if err := h.blobs.Delete(context.WithoutCancel(ctx), ref); err != nil {
		h.log.Warn("orphaned profile picture", "ref", ref, "error", err)
	}
}
