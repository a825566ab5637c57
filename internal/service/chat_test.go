package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ShoaibAJ01/zameerrealstates/internal/apperrors"
	"github.com/ShoaibAJ01/zameerrealstates/internal/models"
	"github.com/ShoaibAJ01/zameerrealstates/internal/repository"
)

func bootstrapService(t *testing.T) (*ChatService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	store.AddUser(&models.User{ID: "u1", Name: "Usman", Role: models.RoleUser})
	store.AddUser(&models.User{ID: "u2", Name: "Sana", Role: models.RoleUser})
	store.AddUser(&models.User{ID: "admin", Name: "Zameer", Role: models.RoleAdmin})
	svc := NewChatService(store, nil, zap.NewNop().Sugar())
	return svc, store
}

func TestStartChat_Idempotent(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	first, err := svc.StartChat(ctx, "u1", "u2")
	require.NoError(t, err)
	second, err := svc.StartChat(ctx, "u2", "u1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, map[string]int{"u1": 0, "u2": 0}, first.UnreadCount)
}

func TestStartChat_Concurrent(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	const n = 16
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "u1", "u2"
			if i%2 == 0 {
				a, b = b, a
			}
			chat, err := svc.StartChat(ctx, a, b)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = chat.ID
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, ids[0], ids[i])
	}
}

func TestStartChat_DefaultsToAdmin(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)

	chat, err := svc.StartChat(context.Background(), "u1", "")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"u1", "admin"}, chat.Participants)
}

func TestStartChat_NoAdmin(t *testing.T) {
	t.Parallel()
	store := repository.NewMemoryStore()
	store.AddUser(&models.User{ID: "u1", Role: models.RoleUser})
	svc := NewChatService(store, nil, zap.NewNop().Sugar())

	_, err := svc.StartChat(context.Background(), "u1", "")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStartChat_UnknownUser(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)

	_, err := svc.StartChat(context.Background(), "u1", "ghost")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSendMessage_UpdatesSummaryAndCounters(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	chat, err := svc.StartChat(ctx, "u1", "admin")
	require.NoError(t, err)

	msg, updated, err := svc.SendMessage(ctx, chat.ID, "u1", "Hello", models.MessageTypeText, "", "")
	require.NoError(t, err)
	require.Equal(t, "Hello", msg.Body)
	require.False(t, msg.DeliveredAt.IsZero())
	require.Equal(t, "Hello", updated.LastMessage)
	require.Equal(t, 1, updated.UnreadCount["admin"])
	require.Equal(t, 0, updated.UnreadCount["u1"])
}

func TestSendMessage_PlaceholderSummaries(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	chat, err := svc.StartChat(ctx, "u1", "u2")
	require.NoError(t, err)

	cases := map[string]string{
		models.MessageTypeImage: "📷 Image",
		models.MessageTypeVoice: "🎤 Voice message",
		models.MessageTypeFile:  "📎 File",
	}
	for msgType, want := range cases {
		_, updated, err := svc.SendMessage(ctx, chat.ID, "u1", "", msgType, "https://cdn.example/x", "x")
		require.NoError(t, err)
		require.Equal(t, want, updated.LastMessage)
	}
}

func TestSendMessage_ConcurrentCountersDoNotLoseIncrements(t *testing.T) {
	t.Parallel()
	svc, store := bootstrapService(t)
	ctx := context.Background()

	chat, err := svc.StartChat(ctx, "u1", "u2")
	require.NoError(t, err)

	const perSide = 20
	errs := make(chan error, perSide*2)
	var wg sync.WaitGroup
	for i := 0; i < perSide; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := svc.SendMessage(ctx, chat.ID, "u1", "from u1", models.MessageTypeText, "", "")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, _, err := svc.SendMessage(ctx, chat.ID, "u2", "from u2", models.MessageTypeText, "", "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	final, err := store.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Equal(t, perSide, final.UnreadCount["u1"])
	require.Equal(t, perSide, final.UnreadCount["u2"])
}

func TestSendMessage_Errors(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	_, _, err := svc.SendMessage(ctx, "missing", "u1", "hi", "", "", "")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	chat, err := svc.StartChat(ctx, "u1", "u2")
	require.NoError(t, err)

	_, _, err = svc.SendMessage(ctx, chat.ID, "admin", "hi", "", "", "")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, _, err = svc.SendMessage(ctx, chat.ID, "u1", "   ", models.MessageTypeText, "", "")
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, _, err = svc.SendMessage(ctx, chat.ID, "u1", "hi", "carrier-pigeon", "", "")
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestEditMessage(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	chat, err := svc.StartChat(ctx, "u1", "u2")
	require.NoError(t, err)
	msg, _, err := svc.SendMessage(ctx, chat.ID, "u1", "typo", models.MessageTypeText, "", "")
	require.NoError(t, err)

	edited, err := svc.EditMessage(ctx, msg.ID, "u1", "fixed")
	require.NoError(t, err)
	require.Equal(t, "fixed", edited.Body)
	require.True(t, edited.Edited)
	require.False(t, edited.EditedAt.IsZero())

	_, err = svc.EditMessage(ctx, msg.ID, "u2", "not mine")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.EditMessage(ctx, "missing", "u1", "x")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEditMessage_DeletedIsInvalidState(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	chat, err := svc.StartChat(ctx, "u1", "u2")
	require.NoError(t, err)
	msg, _, err := svc.SendMessage(ctx, chat.ID, "u1", "bye", models.MessageTypeText, "", "")
	require.NoError(t, err)

	_, err = svc.DeleteMessage(ctx, msg.ID, "u1")
	require.NoError(t, err)

	_, err = svc.EditMessage(ctx, msg.ID, "u1", "resurrect")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestDeleteMessage(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	chat, err := svc.StartChat(ctx, "u1", "u2")
	require.NoError(t, err)
	msg, _, err := svc.SendMessage(ctx, chat.ID, "u1", "secret", models.MessageTypeText, "", "")
	require.NoError(t, err)

	deleted, err := svc.DeleteMessage(ctx, msg.ID, "u1")
	require.NoError(t, err)
	require.True(t, deleted.Deleted)
	require.Empty(t, deleted.Body)
	require.False(t, deleted.DeletedAt.IsZero())

	// a second delete is rejected, never an unhandled fault
	_, err = svc.DeleteMessage(ctx, msg.ID, "u1")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = svc.DeleteMessage(ctx, msg.ID, "u2")
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestMarkRead_OnlyResetsActor(t *testing.T) {
	t.Parallel()
	svc, store := bootstrapService(t)
	ctx := context.Background()

	chat, err := svc.StartChat(ctx, "u1", "admin")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"u1": 0, "admin": 0}, chat.UnreadCount)

	_, updated, err := svc.SendMessage(ctx, chat.ID, "u1", "Hello", models.MessageTypeText, "", "")
	require.NoError(t, err)
	require.Equal(t, "Hello", updated.LastMessage)
	require.Equal(t, 1, updated.UnreadCount["admin"])

	_, _, err = svc.SendMessage(ctx, chat.ID, "admin", "Hi, how can I help?", models.MessageTypeText, "", "")
	require.NoError(t, err)

	readAt, err := svc.MarkRead(ctx, chat.ID, "admin")
	require.NoError(t, err)
	require.False(t, readAt.IsZero())

	final, err := store.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Equal(t, 0, final.UnreadCount["admin"])
	// u1 still has admin's reply unread
	require.Equal(t, 1, final.UnreadCount["u1"])

	msgs, err := svc.ListMessages(ctx, chat.ID, "admin", false)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.True(t, msgs[0].Read)      // u1's message, read by admin
	require.False(t, msgs[1].Read)     // admin's own message stays unread
	require.Equal(t, "Hello", msgs[0].Body)
}

func TestMarkRead_NotParticipant(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	chat, err := svc.StartChat(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = svc.MarkRead(ctx, chat.ID, "admin")
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestListMessages_FusedAndSeparateReadMarkingAgree(t *testing.T) {
	t.Parallel()
	svc, store := bootstrapService(t)
	ctx := context.Background()

	// fused: list with markRead
	chatA, err := svc.StartChat(ctx, "u1", "u2")
	require.NoError(t, err)
	_, _, err = svc.SendMessage(ctx, chatA.ID, "u1", "one", models.MessageTypeText, "", "")
	require.NoError(t, err)
	_, err = svc.ListMessages(ctx, chatA.ID, "u2", true)
	require.NoError(t, err)

	// separate: list then explicit MarkRead
	chatB, err := svc.StartChat(ctx, "u1", "admin")
	require.NoError(t, err)
	_, _, err = svc.SendMessage(ctx, chatB.ID, "u1", "one", models.MessageTypeText, "", "")
	require.NoError(t, err)
	_, err = svc.ListMessages(ctx, chatB.ID, "admin", false)
	require.NoError(t, err)
	_, err = svc.MarkRead(ctx, chatB.ID, "admin")
	require.NoError(t, err)

	a, err := store.GetChat(ctx, chatA.ID)
	require.NoError(t, err)
	b, err := store.GetChat(ctx, chatB.ID)
	require.NoError(t, err)
	require.Equal(t, 0, a.UnreadCount["u2"])
	require.Equal(t, 0, b.UnreadCount["admin"])

	msgsA, err := svc.ListMessages(ctx, chatA.ID, "u1", false)
	require.NoError(t, err)
	msgsB, err := svc.ListMessages(ctx, chatB.ID, "u1", false)
	require.NoError(t, err)
	require.True(t, msgsA[0].Read)
	require.True(t, msgsB[0].Read)
}

func TestListMessages_Forbidden(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	chat, err := svc.StartChat(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = svc.ListMessages(ctx, chat.ID, "admin", true)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestListMessages_OrderedByCreation(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	chat, err := svc.StartChat(ctx, "u1", "u2")
	require.NoError(t, err)

	errs := make(chan error, 30)
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := "u1"
			if i%2 == 0 {
				sender = "u2"
			}
			_, _, err := svc.SendMessage(ctx, chat.ID, sender, "m", models.MessageTypeText, "", "")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	msgs, err := svc.ListMessages(ctx, chat.ID, "u1", false)
	require.NoError(t, err)
	require.Len(t, msgs, 30)
	for i := 1; i < len(msgs); i++ {
		require.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
	}
}

func TestAdminOperations(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	chat, err := svc.StartChat(ctx, "u1", "admin")
	require.NoError(t, err)

	_, err = svc.AllChats(ctx, "u1")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	chats, err := svc.AllChats(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, chats, 1)

	_, err = svc.AssignChat(ctx, "u1", chat.ID, "u2")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	assigned, err := svc.AssignChat(ctx, "admin", chat.ID, "u2")
	require.NoError(t, err)
	require.Equal(t, "u2", assigned.AssignedTo)

	_, err = svc.AssignChat(ctx, "admin", chat.ID, "ghost")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMyChats_SortedByActivity(t *testing.T) {
	t.Parallel()
	svc, _ := bootstrapService(t)
	ctx := context.Background()

	older, err := svc.StartChat(ctx, "u1", "u2")
	require.NoError(t, err)
	newer, err := svc.StartChat(ctx, "u1", "admin")
	require.NoError(t, err)

	_, _, err = svc.SendMessage(ctx, older.ID, "u1", "first", models.MessageTypeText, "", "")
	require.NoError(t, err)
	_, _, err = svc.SendMessage(ctx, newer.ID, "u1", "second", models.MessageTypeText, "", "")
	require.NoError(t, err)

	chats, err := svc.MyChats(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	require.Equal(t, newer.ID, chats[0].ID)
}
