package handler

import (
	"errors"
	"strings"

	"sidecrew/internal/delivery/http/dto"
	"sidecrew/internal/delivery/http/middleware"
	"sidecrew/internal/domain/account"
	"sidecrew/internal/pkg/response"
	ucauth "sidecrew/internal/usecase/auth"

	"github.com/gofiber/fiber/v3"
)

type AuthHandler struct {
	uc *ucauth.Service
}

type registerRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Phone       string   `json:"phone"`
	CompanyName string   `json:"company_name"`
	Address     string   `json:"address"`
	AgencyName  string   `json:"agency_name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Skills      string   `json:"skills"`
	Available   *bool    `json:"available"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func NewAuthHandler(uc *ucauth.Service) *AuthHandler {
	return &AuthHandler{uc: uc}
}

func (h *AuthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/register/:kind", h.Register)
	r.Post("/login/:kind", h.Login)
	r.Post("/refresh", h.Refresh)
}

func (h *AuthHandler) Register(c fiber.Ctx) error {
	kind, err := account.ParseKind(c.Params("kind"))
	if err != nil || !kind.Stored() {
		return middleware.NewAppError(fiber.StatusNotFound, "Unknown account type", nil, err)
	}

	var req registerRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	acc, err := h.uc.Register(c.Context(), ucauth.RegisterInput{
		Kind:        kind,
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		Address:     req.Address,
		AgencyName:  req.AgencyName,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Skills:      req.Skills,
		Available:   req.Available,
	})
	if err != nil {
		return mapAuthUsecaseError(err)
	}

	return response.Success(c, fiber.StatusCreated, "Registration received, awaiting approval", dto.NewAccountResponse(acc))
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	kind, err := account.ParseKind(c.Params("kind"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusNotFound, "Unknown account type", nil, err)
	}

	var req loginRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	acc, tokens, err := h.uc.Login(c.Context(), ucauth.LoginInput{Kind: kind, Email: req.Email, Password: req.Password})
	if err != nil {
		return mapAuthUsecaseError(err)
	}

	data := map[string]any{
		"account":       dto.NewAccountResponse(acc),
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}

// Refresh takes the refresh token from the Authorization header, or from
// the body when the header is absent.
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	tok, ok := middleware.BearerToken(c.Get("Authorization"))
	if !ok {
		var req refreshRequest
		if len(c.Body()) > 0 {
			if err := c.Bind().Body(&req); err != nil {
				return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
			}
		}
		tok = strings.TrimSpace(req.RefreshToken)
	}
	if tok == "" {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	tokens, err := h.uc.Refresh(c.Context(), tok)
	if err != nil {
		if errors.Is(err, ucauth.ErrTokenExpired) {
			return middleware.NewAppError(fiber.StatusUnauthorized, "Refresh token expired", nil, err)
		}
		if errors.Is(err, ucauth.ErrInvalidToken) {
			return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid refresh token", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, tokens)
}

func mapAuthUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ucauth.ErrEmailAlreadyRegistered):
		return middleware.NewAppError(fiber.StatusConflict, "Email already registered", nil, err)
	case errors.Is(err, ucauth.ErrPendingApproval):
		return middleware.NewAppError(fiber.StatusConflict, "Account is pending approval", nil, err)
	case errors.Is(err, ucauth.ErrAccountRejected):
		return middleware.NewAppError(fiber.StatusConflict, "Account has been rejected", nil, err)
	case errors.Is(err, ucauth.ErrInvalidCredentials):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid email or password", nil, err)
	case errors.Is(err, ucauth.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
