package router

import (
	"github.com/labstack/echo/v4"

	"vexachat/internal/adapter/api/handler"
)

func SetupUserRouter(e *echo.Echo, userHandler *handler.UserHandler) {
	userGroup := e.Group("/v1/users")

	userGroup.GET("/me", userHandler.GetMyProfile)          // GET /v1/users/me - Own profile
	userGroup.PATCH("/me", userHandler.UpdateProfile)       // PATCH /v1/users/me - Edit profile
	userGroup.PUT("/me/social-links", userHandler.AddSocialLink) // PUT /v1/users/me/social-links
	userGroup.DELETE("/me", userHandler.DeleteAccount)      // DELETE /v1/users/me - Delete account
	userGroup.GET("/nearby", userHandler.GetNearbyUsers)    // GET /v1/users/nearby - Online users
	userGroup.GET("/:uid", userHandler.GetProfile)          // GET /v1/users/:uid - Public profile
}
