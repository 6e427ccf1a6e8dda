package handler

import (
	"github.com/labstack/echo/v4"

	"vexachat/internal/usecase"
	"vexachat/pkg/errors"
	"vexachat/pkg/response"
)

type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{authUseCase: authUseCase}
}

type namedSessionRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=64"`
	Email       string `json:"email" validate:"omitempty,email"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url"`
}

// GuestLogin begins an anonymous session.
func (h *AuthHandler) GuestLogin(c echo.Context) error {
	ident, err := h.authUseCase.BeginGuestSession(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, ident)
}

// NamedLogin begins a session for a named user.
func (h *AuthHandler) NamedLogin(c echo.Context) error {
	var req namedSessionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ident, err := h.authUseCase.BeginNamedSession(c.Request().Context(), usecase.NamedSessionInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, ident)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	h.authUseCase.EndSession(c.Request().Context())
	return response.Success(c, map[string]bool{"signed_out": true})
}

func (h *AuthHandler) Me(c echo.Context) error {
	ident := h.authUseCase.CurrentIdentity()
	if ident == nil {
		return response.Error(c, errors.Unauthorized("No active session", nil))
	}
	return response.Success(c, ident)
}
