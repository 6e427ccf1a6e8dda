package handler

import (
	"github.com/labstack/echo/v4"

	"vexachat/internal/usecase"
	"vexachat/pkg/errors"
	"vexachat/pkg/response"
	"vexachat/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
	authUseCase *usecase.AuthUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, authUseCase *usecase.AuthUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
		authUseCase: authUseCase,
	}
}

type openConversationRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type markReadRequest struct {
	MessageIDs []string `json:"message_ids" validate:"required,min=1"`
}

// OpenConversation creates or reopens the conversation with the recipient.
func (h *ChatHandler) OpenConversation(c echo.Context) error {
	var req openConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	conv, err := h.chatUseCase.OpenConversation(c.Request().Context(), req.RecipientID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, conv)
}

// GetUserConversations lists the current user's conversations, most recent
// activity first.
func (h *ChatHandler) GetUserConversations(c echo.Context) error {
	ident := h.authUseCase.CurrentIdentity()
	if ident == nil {
		return response.Error(c, errors.Unauthorized("An active session is required", nil))
	}

	limit := utils.GetLimitParam(c, 20, 100)
	convs, err := h.chatUseCase.ConversationsForUser(c.Request().Context(), ident.UID, limit)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, convs)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	msg, err := h.chatUseCase.SendMessage(c.Request().Context(), c.Param("id"), req.Text)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}

// GetHistory returns the most recent messages in chronological order.
func (h *ChatHandler) GetHistory(c echo.Context) error {
	limit := utils.GetLimitParam(c, 50, 200)
	msgs, err := h.chatUseCase.History(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, msgs)
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.chatUseCase.MarkRead(c.Request().Context(), c.Param("id"), req.MessageIDs)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

// RepairSummary recomputes the conversation summary from the latest message.
func (h *ChatHandler) RepairSummary(c echo.Context) error {
	conv, err := h.chatUseCase.RepairConversationSummary(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conv)
}
