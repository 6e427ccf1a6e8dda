package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"vexachat/internal/domain/entity"
	ws "vexachat/internal/infrastructure/websocket"
	"vexachat/internal/usecase"
	"vexachat/pkg/errors"
	"vexachat/pkg/logger"
	"vexachat/pkg/response"
)

// WebSocketHandler streams message snapshots for one conversation over a
// WebSocket, the push channel a browser gets from the hosted backend's
// real-time listeners.
type WebSocketHandler struct {
	manager     *ws.Manager
	chatUseCase *usecase.ChatUseCase
	authUseCase *usecase.AuthUseCase
	upgrader    websocket.Upgrader
}

func NewWebSocketHandler(manager *ws.Manager, chatUseCase *usecase.ChatUseCase, authUseCase *usecase.AuthUseCase) *WebSocketHandler {
	return &WebSocketHandler{
		manager:     manager,
		chatUseCase: chatUseCase,
		authUseCase: authUseCase,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// StreamMessages upgrades the connection and subscribes to the
// conversation's messages. Every relevant mutation delivers the full ordered
// message list as one JSON frame.
func (h *WebSocketHandler) StreamMessages(c echo.Context) error {
	if h.authUseCase.CurrentIdentity() == nil {
		return response.Error(c, errors.Unauthorized("An active session is required", nil))
	}
	conversationID := c.Param("id")

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed: %v", err)
		return err
	}

	client := ws.NewClient(conversationID, conn)
	h.manager.Register <- client

	sub, err := h.chatUseCase.SubscribeToMessages(conversationID, func(msgs []*entity.Message) {
		payload, err := json.Marshal(msgs)
		if err != nil {
			logger.Error("Failed to encode snapshot for conversation %s: %v", conversationID, err)
			return
		}
		client.Queue(payload)
	})
	if err != nil {
		// The connection is already hijacked; an HTTP error body cannot be
		// written anymore. Signal the failure in-protocol instead.
		logger.Error("Failed to subscribe to conversation %s: %v", conversationID, err)
		h.manager.Unregister <- client
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"))
		conn.Close()
		return nil
	}

	go client.WritePump()
	client.ReadPump(h.manager)
	sub.Cancel()
	return nil
}
