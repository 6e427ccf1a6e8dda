package repository

import (
	"context"
	"time"

	"vexachat/internal/domain/entity"
	"vexachat/internal/domain/repository"
	"vexachat/internal/domain/storage"
	"vexachat/pkg/errors"
)

const (
	chatsCollection       = "chats"
	messagesSubcollection = "messages"
)

type storeChatRepository struct {
	store storage.Store
}

func NewStoreChatRepository(store storage.Store) repository.ChatRepository {
	return &storeChatRepository{store: store}
}

func (r *storeChatRepository) EnsureConversation(ctx context.Context, conv *entity.Conversation) error {
	_, exists, err := r.store.GetDocument(ctx, chatsCollection, conv.ID)
	if err != nil {
		return errors.Internal("Failed to get conversation", err)
	}

	rec := storage.Record{
		"participants": conv.Participants,
		"updatedAt":    conv.UpdatedAt,
	}
	if !exists {
		// Summary fields are written once on creation; reopening must not
		// reset lastMessage or lastMessageTime.
		rec["lastMessage"] = conv.LastMessage
		rec["lastMessageTime"] = conv.LastMessageTime
		rec["createdAt"] = conv.CreatedAt
	}
	if err := r.store.SetDocument(ctx, chatsCollection, conv.ID, rec, true); err != nil {
		return errors.Internal("Failed to write conversation", err)
	}
	return nil
}

func (r *storeChatRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	rec, exists, err := r.store.GetDocument(ctx, chatsCollection, id)
	if err != nil {
		return nil, errors.Internal("Failed to get conversation", err)
	}
	if !exists {
		return nil, errors.NotFound("Conversation", nil)
	}
	return conversationFromRecord(id, rec), nil
}

func (r *storeChatRepository) ListByParticipant(ctx context.Context, uid string, limit int) ([]*entity.Conversation, error) {
	docs, err := r.store.Query(ctx, chatsCollection, storage.Query{
		Filters: []storage.Filter{{Field: "participants", Op: storage.OpArrayContains, Value: uid}},
		OrderBy: &storage.Order{Field: "lastMessageTime", Direction: storage.Desc},
		Limit:   limit,
	})
	if err != nil {
		return nil, errors.Internal("Failed to query conversations", err)
	}

	convs := make([]*entity.Conversation, 0, len(docs))
	for _, doc := range docs {
		convs = append(convs, conversationFromRecord(doc.ID, doc.Data))
	}
	return convs, nil
}

func (r *storeChatRepository) UpdateSummary(ctx context.Context, id, lastMessage string, at time.Time) error {
	err := r.store.UpdateDocument(ctx, chatsCollection, id, storage.Record{
		"lastMessage":     lastMessage,
		"lastMessageTime": at,
		"updatedAt":       time.Now(),
	})
	if err != nil {
		return errors.Internal("Failed to update conversation summary", err)
	}
	return nil
}

func (r *storeChatRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.DeleteDocument(ctx, chatsCollection, id); err != nil {
		return errors.Internal("Failed to delete conversation", err)
	}
	return nil
}

func (r *storeChatRepository) CreateMessage(ctx context.Context, conversationID string, msg *entity.Message) (string, error) {
	id, err := r.store.AddToSubcollection(ctx, chatsCollection, conversationID, messagesSubcollection, storage.Record{
		"text":       msg.Text,
		"senderId":   msg.SenderID,
		"senderName": msg.SenderName,
		"timestamp":  msg.Timestamp,
		"read":       msg.Read,
		"type":       msg.Type,
	})
	if err != nil {
		return "", errors.Internal("Failed to create message", err)
	}
	return id, nil
}

// ListMessages returns up to limit messages, most recent first. Callers
// wanting chronological order reverse the slice.
func (r *storeChatRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error) {
	docs, err := r.store.QuerySubcollection(ctx, chatsCollection, conversationID, messagesSubcollection, storage.Query{
		OrderBy: &storage.Order{Field: "timestamp", Direction: storage.Desc},
		Limit:   limit,
	})
	if err != nil {
		return nil, errors.Internal("Failed to query messages", err)
	}

	msgs := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		msgs = append(msgs, messageFromRecord(doc.ID, doc.Data))
	}
	return msgs, nil
}

func (r *storeChatRepository) LatestMessage(ctx context.Context, conversationID string) (*entity.Message, error) {
	msgs, err := r.ListMessages(ctx, conversationID, 1)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, errors.NotFound("Message", nil)
	}
	return msgs[0], nil
}

// MarkMessageRead touches only the read flag; everything else on a message
// is immutable.
func (r *storeChatRepository) MarkMessageRead(ctx context.Context, conversationID, messageID string) error {
	_, exists, err := r.store.GetFromSubcollection(ctx, chatsCollection, conversationID, messagesSubcollection, messageID)
	if err != nil {
		return errors.Internal("Failed to get message", err)
	}
	if !exists {
		return errors.NotFound("Message", nil)
	}
	err = r.store.UpdateInSubcollection(ctx, chatsCollection, conversationID, messagesSubcollection, messageID, storage.Record{
		"read": true,
	})
	if err != nil {
		return errors.Internal("Failed to update message read status", err)
	}
	return nil
}

func (r *storeChatRepository) SubscribeMessages(conversationID string, fn func(msgs []*entity.Message)) (storage.Subscription, error) {
	return r.store.SubscribeToSubcollection(chatsCollection, conversationID, messagesSubcollection, "timestamp", func(docs []storage.Document) {
		msgs := make([]*entity.Message, 0, len(docs))
		for _, doc := range docs {
			msgs = append(msgs, messageFromRecord(doc.ID, doc.Data))
		}
		fn(msgs)
	})
}

func conversationFromRecord(id string, rec storage.Record) *entity.Conversation {
	return &entity.Conversation{
		ID:              id,
		Participants:    rec.Strings("participants"),
		LastMessage:     rec.String("lastMessage"),
		LastMessageTime: rec.Time("lastMessageTime"),
		CreatedAt:       rec.Time("createdAt"),
		UpdatedAt:       rec.Time("updatedAt"),
	}
}

func messageFromRecord(id string, rec storage.Record) *entity.Message {
	return &entity.Message{
		ID:         id,
		Text:       rec.String("text"),
		SenderID:   rec.String("senderId"),
		SenderName: rec.String("senderName"),
		Timestamp:  rec.Time("timestamp"),
		Read:       rec.Bool("read"),
		Type:       rec.String("type"),
	}
}
