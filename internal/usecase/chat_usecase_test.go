package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vexachat/internal/adapter/repository"
	"vexachat/internal/adapter/storage/memstore"
	"vexachat/internal/domain/entity"
	domainrepo "vexachat/internal/domain/repository"
	"vexachat/internal/domain/storage"
	apperrors "vexachat/pkg/errors"
)

type chatFixture struct {
	store    *memstore.Store
	auth     *AuthUseCase
	chat     *ChatUseCase
	userRepo domainrepo.UserRepository
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	store := memstore.New()
	t.Cleanup(func() { store.Close() })

	userRepo := repository.NewStoreUserRepository(store)
	chatRepo := repository.NewStoreChatRepository(store)
	presence := NewPresenceTracker(userRepo)
	auth := NewAuthUseCase(userRepo, presence, LocalUIDs{})
	return &chatFixture{
		store:    store,
		auth:     auth,
		chat:     NewChatUseCase(chatRepo, userRepo, auth),
		userRepo: userRepo,
	}
}

func (f *chatFixture) signIn(t *testing.T) *Identity {
	t.Helper()
	ident, err := f.auth.BeginGuestSession(context.Background())
	require.NoError(t, err)
	return ident
}

func (f *chatFixture) addUser(t *testing.T, uid, name string) {
	t.Helper()
	err := f.userRepo.Set(context.Background(), &entity.User{
		UID:         uid,
		UserID:      "#VX-0000",
		DisplayName: name,
		CreatedAt:   time.Now(),
	}, true)
	require.NoError(t, err)
}

func TestConversationIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, ConversationID("alice", "bob"), ConversationID("bob", "alice"))
	assert.Equal(t, "alice_bob", ConversationID("bob", "alice"))
}

func TestOpenConversationRequiresSession(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.chat.OpenConversation(context.Background(), "other")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "UNAUTHORIZED"))
}

func TestOpenConversationRejectsSelf(t *testing.T) {
	f := newChatFixture(t)
	ident := f.signIn(t)

	_, err := f.chat.OpenConversation(context.Background(), ident.UID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))
}

func TestOpenConversationTwiceKeepsOneDocument(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	ident := f.signIn(t)
	f.addUser(t, "other", "Ada")

	first, err := f.chat.OpenConversation(ctx, "other")
	require.NoError(t, err)

	_, err = f.chat.SendMessage(ctx, first.ID, "hello")
	require.NoError(t, err)

	second, err := f.chat.OpenConversation(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "hello", second.LastMessage, "reopening preserves the summary")
	assert.ElementsMatch(t, []string{ident.UID, "other"}, second.Participants)

	docs, err := f.store.Query(ctx, "chats", storage.Query{})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSendMessageRequiresExistingConversation(t *testing.T) {
	f := newChatFixture(t)
	f.signIn(t)

	_, err := f.chat.SendMessage(context.Background(), "a_b", "hello")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestSendMessageDenormalizesSenderAndUpdatesSummary(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	ident := f.signIn(t)
	f.addUser(t, "other", "Ada")

	conv, err := f.chat.OpenConversation(ctx, "other")
	require.NoError(t, err)

	msg, err := f.chat.SendMessage(ctx, conv.ID, "hello there")
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	assert.Equal(t, ident.UID, msg.SenderID)
	assert.Equal(t, ident.DisplayName, msg.SenderName)
	assert.Equal(t, "text", msg.Type)
	assert.False(t, msg.Read)

	updated, err := f.chat.RepairConversationSummary(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello there", updated.LastMessage)
	assert.Equal(t, msg.Timestamp.Unix(), updated.LastMessageTime.Unix())
}

func TestHistoryReturnsChronologicalOrderWithLimit(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	f.signIn(t)
	f.addUser(t, "other", "Ada")

	conv, err := f.chat.OpenConversation(ctx, "other")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		_, err := f.chat.SendMessage(ctx, conv.ID, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	msgs, err := f.chat.History(ctx, conv.ID, 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3, "limit keeps the newest messages")
	assert.Equal(t, "msg 3", msgs[0].Text)
	assert.Equal(t, "msg 4", msgs[1].Text)
	assert.Equal(t, "msg 5", msgs[2].Text)

	again, err := f.chat.History(ctx, conv.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, msgs[0].ID, again[0].ID, "reads do not mutate the log")
}

func TestHistoryOfEmptyConversationIsEmpty(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	f.signIn(t)
	f.addUser(t, "other", "Ada")

	conv, err := f.chat.OpenConversation(ctx, "other")
	require.NoError(t, err)

	msgs, err := f.chat.History(ctx, conv.ID, 50)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSubscribeToMessagesSeesNewMessage(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	f.signIn(t)
	f.addUser(t, "other", "Ada")

	conv, err := f.chat.OpenConversation(ctx, "other")
	require.NoError(t, err)

	ch := make(chan []*entity.Message, 8)
	sub, err := f.chat.SubscribeToMessages(conv.ID, func(msgs []*entity.Message) {
		ch <- msgs
	})
	require.NoError(t, err)
	defer sub.Cancel()

	select {
	case msgs := <-ch:
		assert.Empty(t, msgs, "initial snapshot of an empty conversation")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for initial snapshot")
	}

	sent, err := f.chat.SendMessage(ctx, conv.ID, "hello")
	require.NoError(t, err)

	select {
	case msgs := <-ch:
		require.Len(t, msgs, 1)
		assert.Equal(t, sent.ID, msgs[0].ID)
		assert.Equal(t, "hello", msgs[0].Text)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message snapshot")
	}
}

func TestMarkReadFlipsFlagsBestEffort(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	f.signIn(t)
	f.addUser(t, "other", "Ada")

	conv, err := f.chat.OpenConversation(ctx, "other")
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 3; i++ {
		msg, err := f.chat.SendMessage(ctx, conv.ID, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}

	result, err := f.chat.MarkRead(ctx, conv.ID, []string{ids[0], ids[1], "no-such-message"})
	require.NoError(t, err, "a bad id does not fail the batch")
	assert.ElementsMatch(t, []string{ids[0], ids[1]}, result.Updated)
	assert.Equal(t, []string{"no-such-message"}, result.Failed)

	msgs, err := f.chat.History(ctx, conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.True(t, msgs[0].Read)
	assert.True(t, msgs[1].Read)
	assert.False(t, msgs[2].Read)
	assert.Equal(t, "msg 2", msgs[2].Text, "only the read flag changed")
}

func TestMarkReadRequiresExistingConversation(t *testing.T) {
	f := newChatFixture(t)
	f.signIn(t)

	_, err := f.chat.MarkRead(context.Background(), "a_b", []string{"m1"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestConversationsForUserOrdersByActivityAndResolvesOther(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	ident := f.signIn(t)
	f.addUser(t, "ada", "Ada")
	f.addUser(t, "bob", "Bob")

	convA, err := f.chat.OpenConversation(ctx, "ada")
	require.NoError(t, err)
	convB, err := f.chat.OpenConversation(ctx, "bob")
	require.NoError(t, err)

	_, err = f.chat.SendMessage(ctx, convA.ID, "to ada, later")
	require.NoError(t, err)

	summaries, err := f.chat.ConversationsForUser(ctx, ident.UID, 20)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, convA.ID, summaries[0].ID, "most recent activity first")
	assert.Equal(t, "Ada", summaries[0].OtherUser.DisplayName)
	assert.Equal(t, convB.ID, summaries[1].ID)
	assert.Equal(t, "Bob", summaries[1].OtherUser.DisplayName)
}

func TestConversationsForUserOmitsMissingCounterpart(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	ident := f.signIn(t)
	f.addUser(t, "ada", "Ada")

	_, err := f.chat.OpenConversation(ctx, "ada")
	require.NoError(t, err)
	_, err = f.chat.OpenConversation(ctx, "ghost")
	require.NoError(t, err)

	summaries, err := f.chat.ConversationsForUser(ctx, ident.UID, 20)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Ada", summaries[0].OtherUser.DisplayName)
}

func TestRepairConversationSummaryWithNoMessages(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	f.signIn(t)
	f.addUser(t, "ada", "Ada")

	conv, err := f.chat.OpenConversation(ctx, "ada")
	require.NoError(t, err)

	repaired, err := f.chat.RepairConversationSummary(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, repaired.LastMessage)
	assert.Equal(t, conv.CreatedAt.Unix(), repaired.LastMessageTime.Unix())
}
