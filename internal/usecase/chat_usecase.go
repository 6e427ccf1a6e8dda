package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"vexachat/internal/domain/entity"
	"vexachat/internal/domain/repository"
	"vexachat/internal/domain/storage"
	"vexachat/pkg/errors"
	"vexachat/pkg/logger"
)

const conversationIDSeparator = "_"

// ChatUseCase implements two-party conversations: deterministic conversation
// ids, append-only message logs with a denormalized summary on the parent
// document, snapshot subscriptions, and batched read receipts.
type ChatUseCase struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	sessions *AuthUseCase
}

func NewChatUseCase(chatRepo repository.ChatRepository, userRepo repository.UserRepository, sessions *AuthUseCase) *ChatUseCase {
	return &ChatUseCase{
		chatRepo: chatRepo,
		userRepo: userRepo,
		sessions: sessions,
	}
}

// ConversationID is a pure function of the participant pair: both sides
// compute the same id regardless of argument order, so a conversation
// document is never duplicated.
func ConversationID(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, conversationIDSeparator)
}

// ConversationSummary attaches the other participant's display data to a
// conversation for listing.
type ConversationSummary struct {
	*entity.Conversation
	OtherUser *entity.User `json:"other_user,omitempty"`
}

// MarkReadResult reports a best-effort batch: ids that failed are listed
// instead of failing the whole call.
type MarkReadResult struct {
	Updated []string `json:"updated"`
	Failed  []string `json:"failed,omitempty"`
}

// OpenConversation creates or reopens the conversation between the current
// user and otherUID. The merge write means reopening never erases an
// existing summary or history.
func (uc *ChatUseCase) OpenConversation(ctx context.Context, otherUID string) (*entity.Conversation, error) {
	ident := uc.sessions.CurrentIdentity()
	if ident == nil {
		return nil, errors.Unauthorized("An active session is required", nil)
	}
	if otherUID == "" {
		return nil, errors.BadRequest("recipient id is required", nil)
	}
	if otherUID == ident.UID {
		return nil, errors.BadRequest("You cannot open a conversation with yourself", nil)
	}

	now := time.Now()
	conv := &entity.Conversation{
		ID:              ConversationID(ident.UID, otherUID),
		Participants:    []string{ident.UID, otherUID},
		LastMessage:     "",
		LastMessageTime: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.chatRepo.EnsureConversation(ctx, conv); err != nil {
		return nil, err
	}
	return uc.chatRepo.GetByID(ctx, conv.ID)
}

// SendMessage appends a message to the conversation and then refreshes the
// parent summary. The two writes are sequential; an interruption between
// them leaves a repairable gap (see RepairConversationSummary).
func (uc *ChatUseCase) SendMessage(ctx context.Context, conversationID, text string) (*entity.Message, error) {
	ident := uc.sessions.CurrentIdentity()
	if ident == nil {
		return nil, errors.Unauthorized("An active session is required", nil)
	}
	if text == "" {
		return nil, errors.BadRequest("message text is required", nil)
	}

	if _, err := uc.chatRepo.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}

	senderName := "User"
	if sender, err := uc.userRepo.GetByID(ctx, ident.UID); err == nil && sender.DisplayName != "" {
		senderName = sender.DisplayName
	}

	msg := &entity.Message{
		Text:       text,
		SenderID:   ident.UID,
		SenderName: senderName,
		Timestamp:  time.Now(),
		Read:       false,
		Type:       "text",
	}
	id, err := uc.chatRepo.CreateMessage(ctx, conversationID, msg)
	if err != nil {
		return nil, err
	}
	msg.ID = id

	if err := uc.chatRepo.UpdateSummary(ctx, conversationID, msg.Text, msg.Timestamp); err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns the most recent limit messages in chronological order: the
// store reads newest-first with the limit applied, then the slice is
// reversed.
func (uc *ChatUseCase) History(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error) {
	msgs, err := uc.chatRepo.ListMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// SubscribeToMessages registers a snapshot listener for the conversation's
// messages. The store enforces at most one active listener per conversation:
// subscribing again supersedes the previous listener.
func (uc *ChatUseCase) SubscribeToMessages(conversationID string, fn func(msgs []*entity.Message)) (storage.Subscription, error) {
	return uc.chatRepo.SubscribeMessages(conversationID, fn)
}

// ConversationsForUser lists the user's conversations by most recent
// activity, resolving the other participant for display. A conversation
// whose counterpart no longer exists is omitted rather than failing the
// whole listing.
func (uc *ChatUseCase) ConversationsForUser(ctx context.Context, uid string, limit int) ([]*ConversationSummary, error) {
	convs, err := uc.chatRepo.ListByParticipant(ctx, uid, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]*ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		otherUID := ""
		for _, p := range conv.Participants {
			if p != uid {
				otherUID = p
				break
			}
		}
		if otherUID == "" {
			continue
		}

		other, err := uc.userRepo.GetByID(ctx, otherUID)
		if err != nil {
			if errors.Is(err, "NOT_FOUND") {
				continue
			}
			return nil, err
		}
		summaries = append(summaries, &ConversationSummary{Conversation: conv, OtherUser: other})
	}
	return summaries, nil
}

// MarkRead flips the read flag on each given message, best-effort per id.
// Failures are collected and reported; the call itself succeeds as long as
// the conversation exists.
func (uc *ChatUseCase) MarkRead(ctx context.Context, conversationID string, messageIDs []string) (*MarkReadResult, error) {
	if _, err := uc.chatRepo.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}

	result := &MarkReadResult{}
	for _, id := range messageIDs {
		if err := uc.chatRepo.MarkMessageRead(ctx, conversationID, id); err != nil {
			logger.Warn("MarkRead: message %s in conversation %s: %v", id, conversationID, err)
			result.Failed = append(result.Failed, id)
			continue
		}
		result.Updated = append(result.Updated, id)
	}
	return result, nil
}

// RepairConversationSummary recomputes lastMessage/lastMessageTime from the
// newest message. It is the recovery path for the window where a message was
// written but the summary update never ran.
func (uc *ChatUseCase) RepairConversationSummary(ctx context.Context, conversationID string) (*entity.Conversation, error) {
	conv, err := uc.chatRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	latest, err := uc.chatRepo.LatestMessage(ctx, conversationID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			if err := uc.chatRepo.UpdateSummary(ctx, conversationID, "", conv.CreatedAt); err != nil {
				return nil, err
			}
			return uc.chatRepo.GetByID(ctx, conversationID)
		}
		return nil, err
	}

	if err := uc.chatRepo.UpdateSummary(ctx, conversationID, latest.Text, latest.Timestamp); err != nil {
		return nil, err
	}
	return uc.chatRepo.GetByID(ctx, conversationID)
}
