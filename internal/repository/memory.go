package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShoaibAJ01/zameerrealstates/internal/apperrors"
	"github.com/ShoaibAJ01/zameerrealstates/internal/models"
)

// MemoryStore is a Store kept entirely in memory. It backs the test suites
// and the dev mode where no Mongo URI is configured. All methods serialize
// on one mutex, which gives the same per-entity atomicity the Mongo
// implementation gets from single-document updates.
type MemoryStore struct {
	mu       sync.Mutex
	chats    map[string]*models.Chat   // chat id -> chat
	byKey    map[string]string         // participants key -> chat id
	messages map[string]*models.Message // message id -> message
	order    map[string][]string       // chat id -> message ids, insertion order
	users    map[string]*models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:    make(map[string]*models.Chat),
		byKey:    make(map[string]string),
		messages: make(map[string]*models.Message),
		order:    make(map[string][]string),
		users:    make(map[string]*models.User),
	}
}

// AddUser seeds the users collection.
func (s *MemoryStore) AddUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	s.users[u.ID] = &cp
}

func cloneChat(c *models.Chat) *models.Chat {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	cp.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		cp.UnreadCount[k] = v
	}
	return &cp
}

func (s *MemoryStore) FindOrCreateChat(_ context.Context, participants []string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ParticipantsKey(participants)
	if id, ok := s.byKey[key]; ok {
		return cloneChat(s.chats[id]), nil
	}
	now := time.Now().UTC()
	counts := make(map[string]int, len(participants))
	for _, p := range participants {
		counts[p] = 0
	}
	chat := &models.Chat{
		ID:              uuid.NewString(),
		Participants:    append([]string(nil), participants...),
		ParticipantsKey: key,
		UnreadCount:     counts,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.chats[chat.ID] = chat
	s.byKey[key] = chat.ID
	return cloneChat(chat), nil
}

func (s *MemoryStore) GetChat(_ context.Context, chatID string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneChat(chat), nil
}

func (s *MemoryStore) ChatsByUser(_ context.Context, userID string) ([]models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Chat
	for _, chat := range s.chats {
		if chat.HasParticipant(userID) {
			out = append(out, *cloneChat(chat))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageTime.After(out[j].LastMessageTime)
	})
	return out, nil
}

func (s *MemoryStore) AllChats(_ context.Context) ([]models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Chat, 0, len(s.chats))
	for _, chat := range s.chats {
		out = append(out, *cloneChat(chat))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageTime.After(out[j].LastMessageTime)
	})
	return out, nil
}

func (s *MemoryStore) ApplySend(_ context.Context, chatID, summary string, at time.Time, recipients []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return apperrors.ErrNotFound
	}
	chat.LastMessage = summary
	chat.LastMessageTime = at
	chat.UpdatedAt = at
	for _, r := range recipients {
		chat.UnreadCount[r]++
	}
	return nil
}

func (s *MemoryStore) ResetUnread(_ context.Context, chatID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return apperrors.ErrNotFound
	}
	chat.UnreadCount[userID] = 0
	return nil
}

func (s *MemoryStore) AssignChat(_ context.Context, chatID, assigneeID string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	chat.AssignedTo = assigneeID
	chat.UpdatedAt = time.Now().UTC()
	return cloneChat(chat), nil
}

func (s *MemoryStore) InsertMessage(_ context.Context, m *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	cp := *m
	s.messages[m.ID] = &cp
	s.order[m.ChatID] = append(s.order[m.ChatID], m.ID)
	return m, nil
}

func (s *MemoryStore) GetMessage(_ context.Context, messageID string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[messageID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) MessagesByChat(_ context.Context, chatID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.order[chatID]
	out := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.messages[id])
	}
	// stable keeps insertion order on equal timestamps
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) MarkEdited(_ context.Context, messageID, body string, at time.Time) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[messageID]
	if !ok || m.Deleted {
		return nil, apperrors.ErrInvalidState
	}
	m.Body = body
	m.Edited = true
	m.EditedAt = at
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) MarkDeleted(_ context.Context, messageID string, at time.Time) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[messageID]
	if !ok || m.Deleted {
		return nil, apperrors.ErrInvalidState
	}
	m.Deleted = true
	m.DeletedAt = at
	m.Body = ""
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, chatID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order[chatID] {
		m := s.messages[id]
		if m.SenderID != userID && !m.Read {
			m.Read = true
			m.ReadAt = at
		}
	}
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) UserExists(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[userID]
	return ok, nil
}

func (s *MemoryStore) FindAdmin(_ context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Role == models.RoleAdmin {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}
