package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ShoaibAJ01/zameerrealstates/internal/apperrors"
	"github.com/ShoaibAJ01/zameerrealstates/internal/middleware"
	"github.com/ShoaibAJ01/zameerrealstates/internal/service"
	"github.com/ShoaibAJ01/zameerrealstates/internal/ws"
)

// ChatHandler is the REST facade over the lifecycle engine. Mutations fan
// out through the same notifier the socket path uses, so clients watching
// over websocket see REST-originated changes too.
type ChatHandler struct {
	svc      *service.ChatService
	hub      *ws.Hub
	notifier *ws.Notifier
	log      *zap.SugaredLogger
}

func NewChatHandler(svc *service.ChatService, hub *ws.Hub, notifier *ws.Notifier, log *zap.SugaredLogger) *ChatHandler {
	return &ChatHandler{svc: svc, hub: hub, notifier: notifier, log: log}
}

func (h *ChatHandler) fail(c *fiber.Ctx, op string, err error) error {
	status := apperrors.StatusCode(err)
	msg := err.Error()
	if status >= 500 {
		// log the detail, keep it out of the response
		h.log.Errorw(op, "err", err)
		msg = "internal error"
	}
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

// POST /api/chat/start
// Body: {"participantId": "..."}; empty means the support admin.
func (h *ChatHandler) StartChat(c *fiber.Ctx) error {
	var body struct {
		ParticipantID string `json:"participantId"`
	}
	// an empty body is fine: default to the support admin
	_ = c.BodyParser(&body)
	chat, err := h.svc.StartChat(c.Context(), middleware.UserID(c), body.ParticipantID)
	if err != nil {
		return h.fail(c, "start chat", err)
	}
	return c.JSON(chat)
}

// GET /api/chat/my-chats
func (h *ChatHandler) MyChats(c *fiber.Ctx) error {
	chats, err := h.svc.MyChats(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, "my chats", err)
	}
	return c.JSON(chats)
}

// GET /api/chat/:chatID/messages
// Fetching a chat's messages as its viewer also marks them read and resets
// the viewer's unread counter.
func (h *ChatHandler) Messages(c *fiber.Ctx) error {
	chatID := c.Params("chatID")
	uid := middleware.UserID(c)
	msgs, err := h.svc.ListMessages(c.Context(), chatID, uid, true)
	if err != nil {
		return h.fail(c, "list messages", err)
	}
	return c.JSON(msgs)
}

// POST /api/chat/:chatID/message
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var body struct {
		Message  string `json:"message"`
		Type     string `json:"messageType"`
		FileURL  string `json:"fileUrl"`
		FileName string `json:"fileName"`
	}
	if err := c.BodyParser(&body); err != nil {
		return h.fail(c, "send message", apperrors.ErrBadRequest)
	}
	msg, chat, err := h.svc.SendMessage(c.Context(), c.Params("chatID"), middleware.UserID(c), body.Message, body.Type, body.FileURL, body.FileName)
	if err != nil {
		return h.fail(c, "send message", err)
	}
	h.notifier.MessageSent(msg, chat)
	return c.JSON(msg)
}

// PATCH /api/chat/message/:messageID
func (h *ChatHandler) EditMessage(c *fiber.Ctx) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&body); err != nil {
		return h.fail(c, "edit message", apperrors.ErrBadRequest)
	}
	msg, err := h.svc.EditMessage(c.Context(), c.Params("messageID"), middleware.UserID(c), body.Message)
	if err != nil {
		return h.fail(c, "edit message", err)
	}
	h.notifier.MessageEdited(msg)
	return c.JSON(msg)
}

// DELETE /api/chat/message/:messageID
func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	msg, err := h.svc.DeleteMessage(c.Context(), c.Params("messageID"), middleware.UserID(c))
	if err != nil {
		return h.fail(c, "delete message", err)
	}
	h.notifier.MessageDeleted(msg)
	return c.JSON(msg)
}

// POST /api/chat/:chatID/read
func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	chatID := c.Params("chatID")
	uid := middleware.UserID(c)
	readAt, err := h.svc.MarkRead(c.Context(), chatID, uid)
	if err != nil {
		return h.fail(c, "mark read", err)
	}
	h.notifier.MessagesRead(chatID, uid, readAt)
	return c.JSON(fiber.Map{"chatId": chatID, "readAt": readAt})
}

// GET /api/chat/admin/all-chats
func (h *ChatHandler) AllChats(c *fiber.Ctx) error {
	chats, err := h.svc.AllChats(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, "all chats", err)
	}
	return c.JSON(chats)
}

// PATCH /api/chat/:chatID/assign
func (h *ChatHandler) AssignChat(c *fiber.Ctx) error {
	var body struct {
		AssignedTo string `json:"assignedTo"`
	}
	if err := c.BodyParser(&body); err != nil || body.AssignedTo == "" {
		return h.fail(c, "assign chat", apperrors.ErrBadRequest)
	}
	chat, err := h.svc.AssignChat(c.Context(), middleware.UserID(c), c.Params("chatID"), body.AssignedTo)
	if err != nil {
		return h.fail(c, "assign chat", err)
	}
	return c.JSON(chat)
}

// GET /api/chat/:chatID/participants
func (h *ChatHandler) Participants(c *fiber.Ctx) error {
	users, err := h.svc.ChatParticipants(c.Context(), c.Params("chatID"), middleware.UserID(c))
	if err != nil {
		return h.fail(c, "participants", err)
	}
	return c.JSON(users)
}

// GET /presence/:userID
func (h *ChatHandler) Presence(c *fiber.Ctx) error {
	uid := c.Params("userID")
	return c.JSON(fiber.Map{"userId": uid, "online": h.hub.IsOnline(uid)})
}
