package repository

import (
	"context"
	"time"

	"github.com/ShoaibAJ01/zameerrealstates/internal/models"
)

// ChatStore persists chat threads. Implementations must apply every mutation
// as a single atomic update on the chat document; in particular ApplySend
// carries the summary fields and all counter increments together so two
// concurrent sends cannot lose an increment.
type ChatStore interface {
	// FindOrCreateChat returns the chat with exactly this participant set,
	// creating it with zeroed unread counters if absent. Safe under
	// concurrent calls for the same pair.
	FindOrCreateChat(ctx context.Context, participants []string) (*models.Chat, error)
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)
	ChatsByUser(ctx context.Context, userID string) ([]models.Chat, error)
	AllChats(ctx context.Context) ([]models.Chat, error)
	// ApplySend updates the summary cache and increments the unread counter
	// of every recipient by one.
	ApplySend(ctx context.Context, chatID, summary string, at time.Time, recipients []string) error
	ResetUnread(ctx context.Context, chatID, userID string) error
	AssignChat(ctx context.Context, chatID, assigneeID string) (*models.Chat, error)
}

// MessageStore persists messages. Ordering contract: MessagesByChat returns
// messages ascending by creation time, insertion order breaking exact ties.
type MessageStore interface {
	InsertMessage(ctx context.Context, m *models.Message) (*models.Message, error)
	GetMessage(ctx context.Context, messageID string) (*models.Message, error)
	MessagesByChat(ctx context.Context, chatID string) ([]models.Message, error)
	// MarkEdited sets the new body on a message that is not deleted.
	MarkEdited(ctx context.Context, messageID, body string, at time.Time) (*models.Message, error)
	// MarkDeleted soft-deletes a message that is not already deleted,
	// clearing its body.
	MarkDeleted(ctx context.Context, messageID string, at time.Time) (*models.Message, error)
	// MarkRead flags every unread message in the chat not sent by userID.
	MarkRead(ctx context.Context, chatID, userID string, at time.Time) error
}

// UserStore is the read-only slice of the accounts collection the chat
// core needs.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	FindAdmin(ctx context.Context) (*models.User, error)
}

// Store bundles the three collections behind one handle, the way the
// service consumes them.
type Store interface {
	ChatStore
	MessageStore
	UserStore
}
