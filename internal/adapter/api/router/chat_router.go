package router

import (
	"github.com/labstack/echo/v4"

	"vexachat/internal/adapter/api/handler"
)

// SetupChatRouter sets up all chat-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler) {
	chatGroup := e.Group("/v1/chats")

	chatGroup.POST("", chatHandler.OpenConversation)       // POST /v1/chats - Open or reopen a conversation
	chatGroup.GET("", chatHandler.GetUserConversations)    // GET /v1/chats - List own conversations
	chatGroup.POST("/:id/messages", chatHandler.SendMessage) // POST /v1/chats/:id/messages - Send message
	chatGroup.GET("/:id/messages", chatHandler.GetHistory)   // GET /v1/chats/:id/messages - Message history
	chatGroup.PUT("/:id/read", chatHandler.MarkRead)         // PUT /v1/chats/:id/read - Batch read receipts
	chatGroup.POST("/:id/repair", chatHandler.RepairSummary) // POST /v1/chats/:id/repair - Recompute summary
}
