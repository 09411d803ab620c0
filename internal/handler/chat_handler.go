package handler

import (
	"context"
	"time"

	"github.com/arturoeanton/storyline/internal/service"
	"github.com/gofiber/fiber/v3"
)

// ChatHandler handles coaching chat sessions.
type ChatHandler struct {
	chats        *service.ChatService
	replyTimeout time.Duration
}

// NewChatHandler creates a new chat handler. replyTimeout bounds a request
// that waits on the model.
func NewChatHandler(chats *service.ChatService, replyTimeout time.Duration) *ChatHandler {
	return &ChatHandler{chats: chats, replyTimeout: replyTimeout}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	sessions := router.Group("/chat/sessions")
	sessions.Get("/", h.ListSessions)
	sessions.Post("/", h.CreateSession)
	sessions.Patch("/:id", h.RenameSession)
	sessions.Delete("/:id", h.DeleteSession)
	sessions.Get("/:id/messages", h.ListMessages)
	sessions.Post("/:id/messages", h.SendMessage)
}

func (h *ChatHandler) ListSessions(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.chats.ListSessions(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": list, "count": len(list)})
}

// CreateSession opens a session and answers the initial message if one is given.
func (h *ChatHandler) CreateSession(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body service.NewSession
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}

	ctx, cancel := h.withTimeout(c.Context())
	defer cancel()

	session, ex, err := h.chats.CreateSession(ctx, uid, body)
	if err != nil {
		return respondError(c, err)
	}
	resp := fiber.Map{"session": session}
	if ex != nil {
		resp["exchange"] = ex
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *ChatHandler) RenameSession(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body struct {
		Title string `json:"title"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	session, err := h.chats.RenameSession(c.Context(), uid, id, body.Title)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

func (h *ChatHandler) DeleteSession(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.chats.DeleteSession(c.Context(), uid, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ChatHandler) ListMessages(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	msgs, err := h.chats.ListMessages(c.Context(), uid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs, "count": len(msgs)})
}

// SendMessage stores the user's message and the coach's reply. A failed
// reply is stored as the fallback text, so this still answers 200.
func (h *ChatHandler) SendMessage(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body struct {
		Message           string `json:"message"`
		PersonalStatement string `json:"personal_statement"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}

	ctx, cancel := h.withTimeout(c.Context())
	defer cancel()

	ex, err := h.chats.SendMessage(ctx, uid, id, body.Message, body.PersonalStatement)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ex)
}

func (h *ChatHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.replyTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.replyTimeout)
}
