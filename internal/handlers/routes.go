package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/ShoaibAJ01/zameerrealstates/internal/ws"
)

// Register wires every route onto the app.
func Register(app *fiber.App, h *ChatHandler, gateway *ws.Gateway, jwtMw fiber.Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	chat := app.Group("/api/chat", jwtMw)
	chat.Post("/start", h.StartChat)
	chat.Get("/my-chats", h.MyChats)
	chat.Get("/admin/all-chats", h.AllChats)
	chat.Patch("/message/:messageID", h.EditMessage)
	chat.Delete("/message/:messageID", h.DeleteMessage)
	chat.Get("/:chatID/messages", h.Messages)
	chat.Post("/:chatID/message", h.SendMessage)
	chat.Post("/:chatID/read", h.MarkRead)
	chat.Patch("/:chatID/assign", h.AssignChat)
	chat.Get("/:chatID/participants", h.Participants)

	app.Get("/presence/:userID", h.Presence)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(gateway.Handle()))
}
