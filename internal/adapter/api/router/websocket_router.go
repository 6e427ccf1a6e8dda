package router

import (
	"github.com/labstack/echo/v4"

	"vexachat/internal/adapter/api/handler"
)

func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws/chats/:id", wsHandler.StreamMessages) // GET /ws/chats/:id - Live message snapshots
}
