package handler

import (
	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/service"
	"github.com/gofiber/fiber/v3"
)

// ActivityHandler handles activity and event endpoints.
type ActivityHandler struct {
	activities *service.ActivityService
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// Register sets up activity and event routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	activities := router.Group("/activities")
	activities.Get("/", h.List)
	activities.Post("/", h.Create)
	activities.Get("/:id", h.Detail)
	activities.Put("/:id", h.Update)
	activities.Delete("/:id", h.Delete)
	activities.Get("/:id/events", h.ListEvents)
	activities.Post("/:id/events", h.CreateEvent)

	events := router.Group("/events")
	events.Patch("/:id", h.UpdateEvent)
	events.Delete("/:id", h.DeleteEvent)
}

// List returns the user's activities with event counts.
func (h *ActivityHandler) List(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.activities.List(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"activities": list, "count": len(list)})
}

// Create stores a new activity.
func (h *ActivityHandler) Create(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body domain.ActivityInput
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	a, err := h.activities.Create(c.Context(), uid, body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

// Detail returns an activity with its events.
func (h *ActivityHandler) Detail(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	d, err := h.activities.Detail(c.Context(), uid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(d)
}

// Update replaces an activity.
func (h *ActivityHandler) Update(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body domain.ActivityInput
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	a, err := h.activities.Update(c.Context(), uid, id, body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(a)
}

// Delete removes an activity with its events and embeddings.
func (h *ActivityHandler) Delete(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.activities.Delete(c.Context(), uid, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListEvents returns an activity's events.
func (h *ActivityHandler) ListEvents(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	events, err := h.activities.ListEvents(c.Context(), uid, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"events": events, "count": len(events)})
}

// CreateEvent adds an event to an activity.
func (h *ActivityHandler) CreateEvent(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body domain.EventInput
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	ev, err := h.activities.CreateEvent(c.Context(), uid, id, body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ev)
}

// UpdateEvent applies a partial update and returns the new updated_at.
func (h *ActivityHandler) UpdateEvent(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body domain.EventPatch
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	ev, err := h.activities.UpdateEvent(c.Context(), uid, id, body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": ev.ID, "updated_at": ev.UpdatedAt, "event": ev})
}

// DeleteEvent removes an event.
func (h *ActivityHandler) DeleteEvent(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.activities.DeleteEvent(c.Context(), uid, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
