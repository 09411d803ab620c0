package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/middleware"
	"github.com/arturoeanton/storyline/internal/port"
	"github.com/gofiber/fiber/v3"
)

// respondError maps service errors to status codes.
func respondError(c fiber.Ctx, err error) error {
	var (
		verr *port.ValidationError
		flow *port.FlowError
		up   *port.UpstreamError
		pf   *port.ParseFailure
	)

	switch {
	case errors.As(err, &verr):
		body := fiber.Map{"error": verr.Error()}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, port.ErrNotFound), errors.Is(err, port.ErrStrategyNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.As(err, &flow):
		slog.Error("guidance flow failed", "path", c.Path(), "stage", flow.Stage, "error", flow.Err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "upstream service failed",
			"stage": domain.StageFailed,
			"at":    flow.Stage,
		})
	case errors.As(err, &up), errors.As(err, &pf):
		slog.Error("upstream failure", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream service failed"})
	default:
		slog.Error("request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": port.ErrUnauthorized.Error()})
}

func badBody(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
}

// userID returns the authenticated user id, or "" when there is none.
func userID(c fiber.Ctx) string {
	uc := middleware.GetUserContext(c)
	if uc == nil || uc.UserID == "" {
		return ""
	}
	return uc.UserID
}

func paramID(c fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, port.Invalid(name, "must be a positive integer")
	}
	return id, nil
}
