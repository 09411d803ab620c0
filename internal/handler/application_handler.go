package handler

import (
	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/service"
	"github.com/gofiber/fiber/v3"
)

// ApplicationHandler handles applications, questions and suggestions.
type ApplicationHandler struct {
	apps *service.ApplicationService
}

// NewApplicationHandler creates a new application handler.
func NewApplicationHandler(apps *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps}
}

// Register sets up application routes.
func (h *ApplicationHandler) Register(router fiber.Router) {
	apps := router.Group("/applications")
	apps.Get("/", h.List)
	apps.Post("/", h.Create)
	apps.Get("/:id", h.Get)
	apps.Put("/:id", h.Update)
	apps.Delete("/:id", h.Delete)
	apps.Post("/:id/questions", h.AddQuestion)

	questions := router.Group("/questions")
	questions.Put("/:id", h.UpdateQuestion)
	questions.Delete("/:id", h.DeleteQuestion)
	questions.Get("/:id/suggestions", h.ListSuggestions)
	questions.Post("/:id/suggestions", h.SaveSuggestion)

	router.Delete("/suggestions/:id", h.DeleteSuggestion)
}

func (h *ApplicationHandler) List(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.apps.List(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"applications": list, "count": len(list)})
}

// Create stores an application together with its questions.
func (h *ApplicationHandler) Create(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body domain.ApplicationInput
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	app, err := h.apps.Create(c.Context(), uid, body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

func (h *ApplicationHandler) Get(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	app, err := h.apps.Get(c.Context(), uid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(app)
}

func (h *ApplicationHandler) Update(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body domain.ApplicationInput
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	app, err := h.apps.Update(c.Context(), uid, id, body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(app)
}

func (h *ApplicationHandler) Delete(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.apps.Delete(c.Context(), uid, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ApplicationHandler) AddQuestion(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body domain.QuestionInput
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	q, err := h.apps.AddQuestion(c.Context(), uid, id, body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(q)
}

func (h *ApplicationHandler) UpdateQuestion(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body domain.QuestionInput
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	q, err := h.apps.UpdateQuestion(c.Context(), uid, id, body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(q)
}

func (h *ApplicationHandler) DeleteQuestion(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.apps.DeleteQuestion(c.Context(), uid, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListSuggestions returns the events saved for a question.
func (h *ApplicationHandler) ListSuggestions(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.apps.ListSuggestions(c.Context(), uid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"suggestions": list, "count": len(list)})
}

// SaveSuggestion keeps an event as a suggestion for a question.
func (h *ApplicationHandler) SaveSuggestion(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body struct {
		EventID int64 `json:"event_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	sg, err := h.apps.SaveSuggestion(c.Context(), uid, id, body.EventID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sg)
}

func (h *ApplicationHandler) DeleteSuggestion(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.apps.DeleteSuggestion(c.Context(), uid, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
