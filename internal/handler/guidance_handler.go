package handler

import (
	"github.com/arturoeanton/storyline/internal/port"
	"github.com/arturoeanton/storyline/internal/service"
	"github.com/gofiber/fiber/v3"
)

// GuidanceHandler handles the AI guidance endpoints.
type GuidanceHandler struct {
	guidance *service.GuidanceService
}

// NewGuidanceHandler creates a new guidance handler.
func NewGuidanceHandler(guidance *service.GuidanceService) *GuidanceHandler {
	return &GuidanceHandler{guidance: guidance}
}

// Register sets up guidance routes. Each path runs one strategy.
func (h *GuidanceHandler) Register(router fiber.Router) {
	ai := router.Group("/ai")
	ai.Get("/strategies", h.ListStrategies)
	ai.Post("/analyze", h.run("analyze"))
	ai.Post("/question-guideline", h.run("question_guideline"))
	ai.Post("/recommend", h.run("recommend"))
	ai.Post("/editor-guideline", h.run("editor_guideline"))
}

// ListStrategies returns the registered strategy names.
func (h *GuidanceHandler) ListStrategies(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"strategies": h.guidance.ListStrategies()})
}

func (h *GuidanceHandler) run(strategy string) fiber.Handler {
	return func(c fiber.Ctx) error {
		uid := userID(c)
		if uid == "" {
			return unauthorized(c)
		}
		var req port.GuidanceRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
		req.UserID = uid

		res, err := h.guidance.Run(c.Context(), strategy, req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}
