package router

import (
	"github.com/labstack/echo/v4"

	"vexachat/internal/adapter/api/handler"
)

func SetupAuthRouter(e *echo.Echo, authHandler *handler.AuthHandler) {
	authGroup := e.Group("/v1/auth")

	authGroup.POST("/guest", authHandler.GuestLogin)     // POST /v1/auth/guest - Anonymous session
	authGroup.POST("/session", authHandler.NamedLogin)   // POST /v1/auth/session - Named session
	authGroup.DELETE("/session", authHandler.Logout)     // DELETE /v1/auth/session - Sign out
	authGroup.GET("/me", authHandler.Me)                 // GET /v1/auth/me - Current identity
}
