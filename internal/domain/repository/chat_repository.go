package repository

import (
	"context"
	"time"

	"vexachat/internal/domain/entity"
	"vexachat/internal/domain/storage"
)

type ChatRepository interface {
	// EnsureConversation merge-writes the conversation document; reopening an
	// existing conversation never erases its summary or history.
	EnsureConversation(ctx context.Context, conv *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListByParticipant(ctx context.Context, uid string, limit int) ([]*entity.Conversation, error)
	UpdateSummary(ctx context.Context, id, lastMessage string, at time.Time) error
	Delete(ctx context.Context, id string) error

	// Message methods
	CreateMessage(ctx context.Context, conversationID string, msg *entity.Message) (string, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error)
	LatestMessage(ctx context.Context, conversationID string) (*entity.Message, error)
	MarkMessageRead(ctx context.Context, conversationID, messageID string) error
	SubscribeMessages(conversationID string, fn func(msgs []*entity.Message)) (storage.Subscription, error)
}
