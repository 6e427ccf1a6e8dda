package handler

import (
	"github.com/labstack/echo/v4"

	"vexachat/internal/usecase"
	"vexachat/pkg/errors"
	"vexachat/pkg/response"
	"vexachat/pkg/utils"
)

type UserHandler struct {
	profileUseCase *usecase.ProfileUseCase
}

func NewUserHandler(profileUseCase *usecase.ProfileUseCase) *UserHandler {
	return &UserHandler{profileUseCase: profileUseCase}
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"omitempty,max=64"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url"`
}

type socialLinkRequest struct {
	Platform string `json:"platform" validate:"required,max=32"`
	URL      string `json:"url" validate:"required,url"`
}

func (h *UserHandler) GetMyProfile(c echo.Context) error {
	user, err := h.profileUseCase.GetProfile(c.Request().Context(), "")
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.profileUseCase.GetProfile(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.profileUseCase.UpdateProfile(c.Request().Context(), usecase.UpdateProfileInput{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) AddSocialLink(c echo.Context) error {
	var req socialLinkRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.profileUseCase.AddSocialLink(c.Request().Context(), req.Platform, req.URL); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"updated": true})
}

func (h *UserHandler) DeleteAccount(c echo.Context) error {
	if err := h.profileUseCase.DeleteAccount(c.Request().Context()); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"deleted": true})
}

func (h *UserHandler) GetNearbyUsers(c echo.Context) error {
	limit := utils.GetLimitParam(c, 20, 100)
	users, err := h.profileUseCase.NearbyUsers(c.Request().Context(), limit)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, users)
}
