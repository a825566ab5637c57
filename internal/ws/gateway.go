package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/ShoaibAJ01/zameerrealstates/internal/metrics"
	"github.com/ShoaibAJ01/zameerrealstates/internal/service"
)

// TokenValidator verifies a bearer token and returns the user id it
// identifies.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// Options carry the per-connection transport tunables.
type Options struct {
	PingInterval    time.Duration
	WriteDeadline   time.Duration
	MaxMessageSize  int64
	RateLimitPerSec int
}

// Gateway owns a connection from accept to close. Connections arrive
// unauthenticated, must present a token via an authenticate event, and are
// then bound into the hub until the transport drops.
type Gateway struct {
	hub      *Hub
	notifier *Notifier
	svc      *service.ChatService
	tokens   TokenValidator
	opts     Options
	log      *zap.SugaredLogger
}

func NewGateway(hub *Hub, notifier *Notifier, svc *service.ChatService, tokens TokenValidator, opts Options, log *zap.SugaredLogger) *Gateway {
	if opts.PingInterval == 0 {
		opts.PingInterval = 25 * time.Second
	}
	if opts.WriteDeadline == 0 {
		opts.WriteDeadline = 10 * time.Second
	}
	if opts.MaxMessageSize == 0 {
		opts.MaxMessageSize = 64 * 1024
	}
	if opts.RateLimitPerSec == 0 {
		opts.RateLimitPerSec = 20
	}
	return &Gateway{hub: hub, notifier: notifier, svc: svc, tokens: tokens, opts: opts, log: log}
}

// Handle is the websocket entry point for Fiber.
func (g *Gateway) Handle() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		c := newClient(conn, g.opts.RateLimitPerSec, g.opts.PingInterval, g.opts.WriteDeadline)
		metrics.ConnectionsActive.Inc()
		defer metrics.ConnectionsActive.Dec()

		go c.writePump()
		g.readLoop(c)
	}
}

func (g *Gateway) readLoop(c *Client) {
	defer func() {
		g.hub.Unbind(c)
		c.close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(g.opts.MaxMessageSize)
	readWait := g.opts.PingInterval * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		g.hub.Touch(c)
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
		if !c.limiter.Allow() {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		metrics.SocketEvents.WithLabelValues(env.Type).Inc()
		g.dispatch(c, &env)
	}
}

// dispatch handles one inbound event. Apart from authenticate, which always
// answers, failures are logged and never surfaced to the socket.
func (g *Gateway) dispatch(c *Client, env *Envelope) {
	if env.Type == evtAuthenticate {
		g.handleAuthenticate(c, env.Payload)
		return
	}
	// everything below requires an authenticated connection
	if c.uid == "" {
		return
	}
	ctx := context.Background()

	switch env.Type {
	case evtJoinChat:
		var p struct {
			ChatID string `json:"chatId"`
		}
		if json.Unmarshal(env.Payload, &p) != nil || p.ChatID == "" {
			return
		}
		g.hub.JoinRoom(p.ChatID, c)

	case evtTyping:
		var p struct {
			ChatID   string `json:"chatId"`
			IsTyping bool   `json:"isTyping"`
		}
		if json.Unmarshal(env.Payload, &p) != nil || p.ChatID == "" {
			return
		}
		g.hub.BroadcastRoomExcept(p.ChatID, c, event(evtUserTyping, map[string]any{
			"userId":   c.uid,
			"isTyping": p.IsTyping,
		}))

	case evtSendMessage:
		var p struct {
			ChatID   string `json:"chatId"`
			Message  string `json:"message"`
			Type     string `json:"messageType"`
			FileURL  string `json:"fileUrl"`
			FileName string `json:"fileName"`
		}
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		msg, chat, err := g.svc.SendMessage(ctx, p.ChatID, c.uid, p.Message, p.Type, p.FileURL, p.FileName)
		if err != nil {
			g.log.Warnw("send message", "userId", c.uid, "chatId", p.ChatID, "err", err)
			return
		}
		g.notifier.MessageSent(msg, chat)

	case evtEditMessage:
		var p struct {
			MessageID string `json:"messageId"`
			NewBody   string `json:"newMessage"`
		}
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		msg, err := g.svc.EditMessage(ctx, p.MessageID, c.uid, p.NewBody)
		if err != nil {
			g.log.Warnw("edit message", "userId", c.uid, "messageId", p.MessageID, "err", err)
			return
		}
		g.notifier.MessageEdited(msg)

	case evtDeleteMessage:
		var p struct {
			MessageID string `json:"messageId"`
		}
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		msg, err := g.svc.DeleteMessage(ctx, p.MessageID, c.uid)
		if err != nil {
			g.log.Warnw("delete message", "userId", c.uid, "messageId", p.MessageID, "err", err)
			return
		}
		g.notifier.MessageDeleted(msg)

	case evtMarkRead:
		var p struct {
			ChatID string `json:"chatId"`
		}
		if json.Unmarshal(env.Payload, &p) != nil || p.ChatID == "" {
			return
		}
		readAt, err := g.svc.MarkRead(ctx, p.ChatID, c.uid)
		if err != nil {
			g.log.Warnw("mark read", "userId", c.uid, "chatId", p.ChatID, "err", err)
			return
		}
		g.notifier.MessagesRead(p.ChatID, c.uid, readAt)

	case evtCheckUserOnline:
		var p struct {
			UserID string `json:"userId"`
		}
		if json.Unmarshal(env.Payload, &p) != nil || p.UserID == "" {
			return
		}
		typ := evtUserOffline
		if g.hub.IsOnline(p.UserID) {
			typ = evtUserOnline
		}
		c.enqueue(event(typ, map[string]string{"userId": p.UserID}))

	case evtGetOnlineUsers:
		c.enqueue(event(evtOnlineUsers, g.hub.OnlineUsers()))

	case evtCallOffer, evtCallAnswer, evtCallReject, evtCallEnd, evtIceCandidate:
		g.relay(c, env)

	default:
		// unknown event, ignore
	}
}

func (g *Gateway) handleAuthenticate(c *Client, payload json.RawMessage) {
	var p struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || p.Token == "" {
		c.enqueue(event(evtAuthenticated, map[string]any{
			"success": false,
			"error":   "token required",
		}))
		return
	}
	uid, err := g.tokens.Validate(p.Token)
	if err != nil {
		// connection stays unauthenticated; the client may retry
		c.enqueue(event(evtAuthenticated, map[string]any{
			"success": false,
			"error":   "invalid token",
		}))
		return
	}
	// switching identity on a live connection releases the old binding
	if c.uid != "" && c.uid != uid {
		g.hub.ReleaseIdentity(c)
	}
	c.uid = uid
	g.hub.Bind(c)
	c.enqueue(event(evtAuthenticated, map[string]any{
		"success": true,
		"userId":  uid,
	}))
}

// relay forwards a signaling payload to the target's connection with the
// sender's id attached. An offline target drops the payload silently.
func (g *Gateway) relay(c *Client, env *Envelope) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(env.Payload, &fields); err != nil {
		return
	}
	rawTo, ok := fields["to"]
	if !ok {
		return
	}
	var target string
	if json.Unmarshal(rawTo, &target) != nil || target == "" {
		return
	}
	from, _ := json.Marshal(c.uid)
	fields["from"] = from
	delete(fields, "to")
	g.hub.Relay(env.Type, target, fields)
}
