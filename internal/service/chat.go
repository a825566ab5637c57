package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ShoaibAJ01/zameerrealstates/internal/apperrors"
	"github.com/ShoaibAJ01/zameerrealstates/internal/models"
	"github.com/ShoaibAJ01/zameerrealstates/internal/repository"
)

// Publisher receives message-sent events. Publishing is best-effort: a
// failure is logged and never fails the send.
type Publisher interface {
	MessageSent(ctx context.Context, m *models.Message) error
}

// ChatService is the message lifecycle engine. Every operation checks that
// the actor is a participant of the target chat before touching state.
type ChatService struct {
	store    repository.Store
	producer Publisher
	log      *zap.SugaredLogger
}

func NewChatService(store repository.Store, producer Publisher, log *zap.SugaredLogger) *ChatService {
	return &ChatService{store: store, producer: producer, log: log}
}

// StartChat returns the chat between userID and counterpartID, creating it
// on first contact. An empty counterpartID means "the support admin", the
// entry point the marketplace frontend uses. Idempotent: a duplicate start
// returns the existing chat.
func (s *ChatService) StartChat(ctx context.Context, userID, counterpartID string) (*models.Chat, error) {
	if counterpartID == "" {
		admin, err := s.store.FindAdmin(ctx)
		if err != nil {
			return nil, err
		}
		counterpartID = admin.ID
	}
	if counterpartID == userID {
		return nil, fmt.Errorf("%w: cannot start a chat with yourself", apperrors.ErrBadRequest)
	}
	for _, id := range []string{userID, counterpartID} {
		ok, err := s.store.UserExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, id)
		}
	}
	return s.store.FindOrCreateChat(ctx, []string{userID, counterpartID})
}

// SendMessage persists a message and applies the chat summary update plus
// the recipients' unread increments in one atomic chat update. Returns the
// stored message and the chat as it looks after the update.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID, body, msgType, fileURL, fileName string) (*models.Message, *models.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if !chat.HasParticipant(senderID) {
		return nil, nil, apperrors.ErrForbidden
	}
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !models.ValidMessageType(msgType) {
		return nil, nil, fmt.Errorf("%w: message type %q", apperrors.ErrBadRequest, msgType)
	}
	if msgType == models.MessageTypeText && strings.TrimSpace(body) == "" {
		return nil, nil, fmt.Errorf("%w: empty message", apperrors.ErrBadRequest)
	}

	now := time.Now().UTC()
	msg := &models.Message{
		ChatID:      chatID,
		SenderID:    senderID,
		Body:        body,
		Type:        msgType,
		FileURL:     fileURL,
		FileName:    fileName,
		DeliveredAt: now,
		CreatedAt:   now,
	}
	msg, err = s.store.InsertMessage(ctx, msg)
	if err != nil {
		return nil, nil, err
	}

	var recipients []string
	for _, p := range chat.Participants {
		if p != senderID {
			recipients = append(recipients, p)
		}
	}
	summary := models.SummaryLabel(msgType, body)
	if err := s.store.ApplySend(ctx, chatID, summary, now, recipients); err != nil {
		return nil, nil, err
	}
	updated, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}

	if s.producer != nil {
		if err := s.producer.MessageSent(ctx, msg); err != nil {
			s.log.Warnw("message event publish failed", "messageId", msg.ID, "err", err)
		}
	}
	return msg, updated, nil
}

// EditMessage replaces the body of a message. Only the sender may edit, and
// a soft-deleted message can no longer be edited.
func (s *ChatService) EditMessage(ctx context.Context, messageID, actorID, newBody string) (*models.Message, error) {
	if strings.TrimSpace(newBody) == "" {
		return nil, fmt.Errorf("%w: empty message", apperrors.ErrBadRequest)
	}
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != actorID {
		return nil, apperrors.ErrForbidden
	}
	if msg.Deleted {
		return nil, apperrors.ErrInvalidState
	}
	return s.store.MarkEdited(ctx, messageID, newBody, time.Now().UTC())
}

// DeleteMessage soft-deletes a message, clearing its body. Only the sender
// may delete. A second delete of the same message is rejected with
// ErrInvalidState rather than treated as a no-op.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, actorID string) (*models.Message, error) {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != actorID {
		return nil, apperrors.ErrForbidden
	}
	if msg.Deleted {
		return nil, apperrors.ErrInvalidState
	}
	return s.store.MarkDeleted(ctx, messageID, time.Now().UTC())
}

// MarkRead flags every message in the chat not sent by the actor as read and
// zeroes the actor's unread counter. Other participants' counters are
// untouched. Returns the read timestamp applied.
func (s *ChatService) MarkRead(ctx context.Context, chatID, actorID string) (time.Time, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return time.Time{}, err
	}
	if !chat.HasParticipant(actorID) {
		return time.Time{}, apperrors.ErrForbidden
	}
	now := time.Now().UTC()
	if err := s.store.MarkRead(ctx, chatID, actorID, now); err != nil {
		return time.Time{}, err
	}
	if err := s.store.ResetUnread(ctx, chatID, actorID); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// ListMessages returns the chat's messages ascending by creation time. With
// markRead set, fetching also flags them read for the actor, the behavior
// the chat view relies on; callers that want the two effects separately pass
// false and call MarkRead themselves.
func (s *ChatService) ListMessages(ctx context.Context, chatID, actorID string, markRead bool) ([]models.Message, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(actorID) {
		return nil, apperrors.ErrForbidden
	}
	// mark first so the returned messages carry their read state
	if markRead {
		now := time.Now().UTC()
		if err := s.store.MarkRead(ctx, chatID, actorID, now); err != nil {
			return nil, err
		}
		if err := s.store.ResetUnread(ctx, chatID, actorID); err != nil {
			return nil, err
		}
	}
	return s.store.MessagesByChat(ctx, chatID)
}

// MyChats lists the actor's chats, most recently active first.
func (s *ChatService) MyChats(ctx context.Context, actorID string) ([]models.Chat, error) {
	return s.store.ChatsByUser(ctx, actorID)
}

// AllChats lists every chat. Admin only.
func (s *ChatService) AllChats(ctx context.Context, actorID string) ([]models.Chat, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.store.AllChats(ctx)
}

// AssignChat routes a support chat to a handler. Admin only.
func (s *ChatService) AssignChat(ctx context.Context, actorID, chatID, assigneeID string) (*models.Chat, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	ok, err := s.store.UserExists(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, assigneeID)
	}
	return s.store.AssignChat(ctx, chatID, assigneeID)
}

// ChatParticipants resolves participant profiles for a chat the actor
// belongs to.
func (s *ChatService) ChatParticipants(ctx context.Context, chatID, actorID string) ([]models.User, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(actorID) {
		return nil, apperrors.ErrForbidden
	}
	users := make([]models.User, 0, len(chat.Participants))
	for _, id := range chat.Participants {
		u, err := s.store.GetUser(ctx, id)
		if err != nil {
			continue
		}
		users = append(users, *u)
	}
	return users, nil
}

func (s *ChatService) requireAdmin(ctx context.Context, actorID string) error {
	u, err := s.store.GetUser(ctx, actorID)
	if err != nil {
		return err
	}
	if u.Role != models.RoleAdmin {
		return apperrors.ErrForbidden
	}
	return nil
}
