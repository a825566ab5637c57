package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// PresenceMirror receives presence transitions so an external store (Redis)
// can serve lookups. Implementations are best-effort; errors are logged.
type PresenceMirror interface {
	SetOnline(ctx context.Context, userID string) error
	Refresh(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

// Hub is the session registry and broadcast router. It maps each
// authenticated user to its single live connection (last authentication
// wins) and tracks which connections are viewing which chat room.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client          // user id -> current connection
	rooms   map[string]map[*Client]bool // chat id -> viewers

	mirror PresenceMirror // optional
	log    *zap.SugaredLogger
}

func NewHub(mirror PresenceMirror, log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[*Client]bool),
		mirror:  mirror,
		log:     log,
	}
}

// Bind records c as the live connection for its user, replacing any prior
// binding, and announces the user online to everyone.
func (h *Hub) Bind(c *Client) {
	h.mu.Lock()
	h.clients[c.uid] = c
	h.mu.Unlock()

	if h.mirror != nil {
		if err := h.mirror.SetOnline(context.Background(), c.uid); err != nil {
			h.log.Warnw("presence mirror set online", "userId", c.uid, "err", err)
		}
	}
	h.BroadcastAll(event(evtUserOnline, map[string]string{"userId": c.uid}))
}

// Unbind removes c from every room, and releases the identity binding only
// if c still owns it: a stale disconnect racing a fresh reconnect must not
// evict the new session. The offline broadcast fires only on a real release.
func (h *Hub) Unbind(c *Client) {
	h.mu.Lock()
	for chatID, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, chatID)
		}
	}
	released := false
	if c.uid != "" && h.clients[c.uid] == c {
		delete(h.clients, c.uid)
		released = true
	}
	h.mu.Unlock()

	if released {
		h.announceOffline(c.uid)
	}
}

// ReleaseIdentity drops the connection's identity binding without touching
// its room memberships, for a connection that is about to authenticate as
// someone else. The old identity must not linger in the registry once no
// connection answers for it.
func (h *Hub) ReleaseIdentity(c *Client) {
	h.mu.Lock()
	released := c.uid != "" && h.clients[c.uid] == c
	if released {
		delete(h.clients, c.uid)
	}
	h.mu.Unlock()

	if released {
		h.announceOffline(c.uid)
	}
}

func (h *Hub) announceOffline(userID string) {
	if h.mirror != nil {
		if err := h.mirror.SetOffline(context.Background(), userID); err != nil {
			h.log.Warnw("presence mirror set offline", "userId", userID, "err", err)
		}
	}
	h.BroadcastAll(event(evtUserOffline, map[string]string{"userId": userID}))
}

// Touch re-arms the presence TTL for a connection that just proved liveness
// with a pong. Skipped when the connection no longer owns its identity.
func (h *Hub) Touch(c *Client) {
	if h.mirror == nil || c.uid == "" {
		return
	}
	h.mu.RLock()
	owns := h.clients[c.uid] == c
	h.mu.RUnlock()
	if !owns {
		return
	}
	if err := h.mirror.Refresh(context.Background(), c.uid); err != nil {
		h.log.Warnw("presence mirror refresh", "userId", c.uid, "err", err)
	}
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.clients))
	for uid := range h.clients {
		out = append(out, uid)
	}
	return out
}

// JoinRoom adds the connection to a chat room's viewer set.
func (h *Hub) JoinRoom(chatID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[*Client]bool)
	}
	h.rooms[chatID][c] = true
}

// BroadcastRoom delivers to every connection viewing the chat.
func (h *Hub) BroadcastRoom(chatID string, data []byte) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[chatID]))
	for c := range h.rooms[chatID] {
		members = append(members, c)
	}
	h.mu.RUnlock()
	for _, c := range members {
		c.enqueue(data)
	}
}

// BroadcastRoomExcept is BroadcastRoom minus the originating connection,
// used for typing indicators.
func (h *Hub) BroadcastRoomExcept(chatID string, except *Client, data []byte) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[chatID]))
	for c := range h.rooms[chatID] {
		if c != except {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range members {
		c.enqueue(data)
	}
}

// NotifyUser delivers to the user's current connection, whatever room it is
// viewing. No-op when the user is offline.
func (h *Hub) NotifyUser(userID string, data []byte) {
	h.mu.RLock()
	c := h.clients[userID]
	h.mu.RUnlock()
	if c != nil {
		c.enqueue(data)
	}
}

// BroadcastAll delivers to every bound connection. Used only for presence
// changes.
func (h *Hub) BroadcastAll(data []byte) {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.enqueue(data)
	}
}

// Relay forwards a call-signaling payload to the target's connection.
// Signaling is best-effort: an offline target means the payload is dropped
// silently, with no error back to the caller.
func (h *Hub) Relay(kind, targetID string, payload any) {
	h.mu.RLock()
	c := h.clients[targetID]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	c.enqueue(event(kind, payload))
}
