package router

import (
	"github.com/labstack/echo/v4"

	"vexachat/internal/adapter/api/handler"
)

func Setup(e *echo.Echo, healthHandler *handler.HealthHandler) {
	e.GET("/health", healthHandler.CheckHealth)
}
