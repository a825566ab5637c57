package ws

import (
	"time"

	"github.com/ShoaibAJ01/zameerrealstates/internal/models"
)

// Notifier emits the fixed fan-out sequence for each lifecycle operation.
// Both facades (socket and REST) go through it, so connected clients see
// the same events whichever entry point mutated the chat.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// MessageSent broadcasts the message to the chat room first, then pushes
// the summary change to every participant's identity channel.
func (n *Notifier) MessageSent(msg *models.Message, chat *models.Chat) {
	n.hub.BroadcastRoom(msg.ChatID, event(evtNewMessage, msg))
	update := map[string]any{
		"chatId":          chat.ID,
		"lastMessage":     chat.LastMessage,
		"lastMessageTime": chat.LastMessageTime,
	}
	for _, p := range chat.Participants {
		n.hub.NotifyUser(p, event(evtChatUpdated, update))
	}
}

func (n *Notifier) MessageEdited(msg *models.Message) {
	n.hub.BroadcastRoom(msg.ChatID, event(evtMessageEdited, msg))
}

func (n *Notifier) MessageDeleted(msg *models.Message) {
	n.hub.BroadcastRoom(msg.ChatID, event(evtMessageDeleted, msg))
}

func (n *Notifier) MessagesRead(chatID, userID string, at time.Time) {
	n.hub.BroadcastRoom(chatID, event(evtMessagesRead, map[string]any{
		"userId": userID,
		"chatId": chatID,
		"readAt": at,
	}))
}
