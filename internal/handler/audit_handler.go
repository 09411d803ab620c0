package handler

import (
	"context"
	"strconv"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/gofiber/fiber/v3"
)

// AuditReader lists a user's audit trail.
type AuditReader interface {
	ListAuditLogs(ctx context.Context, userID string, limit int, action string) ([]domain.AuditLog, error)
}

// AuditHandler handles audit log endpoints.
type AuditHandler struct {
	logs AuditReader
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(logs AuditReader) *AuditHandler {
	return &AuditHandler{logs: logs}
}

// Register sets up audit routes.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("/audit/logs", h.ListLogs)
}

// ListLogs returns the caller's audit logs, optionally filtered by action.
func (h *AuditHandler) ListLogs(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 || limit > 1000 {
		limit = 100
	}

	logs, err := h.logs.ListAuditLogs(c.Context(), uid, limit, c.Query("action"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"logs": logs, "count": len(logs)})
}
