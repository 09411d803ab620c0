package handler

import (
	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/service"
	"github.com/gofiber/fiber/v3"
)

// ProfileHandler handles the user's profile.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Register sets up profile routes.
func (h *ProfileHandler) Register(router fiber.Router) {
	router.Get("/profile", h.Get)
	router.Post("/profile", h.Create)
	router.Put("/profile", h.Update)
	router.Delete("/profile", h.Delete)
}

func (h *ProfileHandler) Get(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	p, err := h.profiles.Get(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

func (h *ProfileHandler) Create(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body domain.Profile
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	p, err := h.profiles.Create(c.Context(), uid, body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProfileHandler) Update(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body domain.Profile
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	p, err := h.profiles.Update(c.Context(), uid, body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// Delete removes the profile and everything the user owns.
func (h *ProfileHandler) Delete(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	if err := h.profiles.Delete(c.Context(), uid); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
