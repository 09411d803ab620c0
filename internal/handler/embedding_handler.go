package handler

import (
	"github.com/arturoeanton/storyline/internal/service"
	"github.com/gofiber/fiber/v3"
)

// EmbeddingHandler exposes sync, status and a debug match endpoint.
type EmbeddingHandler struct {
	embeddings *service.EmbeddingService
	retriever  *service.Retriever
	threshold  float64
	topK       int
}

// NewEmbeddingHandler creates a new embedding handler. threshold and topK are
// used when a match request leaves them out.
func NewEmbeddingHandler(embeddings *service.EmbeddingService, retriever *service.Retriever, threshold float64, topK int) *EmbeddingHandler {
	return &EmbeddingHandler{embeddings: embeddings, retriever: retriever, threshold: threshold, topK: topK}
}

// Register sets up embedding routes.
func (h *EmbeddingHandler) Register(router fiber.Router) {
	emb := router.Group("/embeddings")
	emb.Post("/sync", h.Sync)
	emb.Get("/status", h.Status)
	emb.Post("/match", h.Match)
}

// Sync embeds every new or edited event of the user.
func (h *EmbeddingHandler) Sync(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	res, err := h.embeddings.Sync(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func (h *EmbeddingHandler) Status(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	st, err := h.embeddings.Status(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(st)
}

// Match runs retrieval alone for a question.
func (h *EmbeddingHandler) Match(c fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body struct {
		Question  string   `json:"question"`
		Threshold *float64 `json:"threshold"`
		TopK      int      `json:"top_k"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}
	threshold := h.threshold
	if body.Threshold != nil {
		threshold = *body.Threshold
	}
	topK := h.topK
	if body.TopK != 0 {
		topK = body.TopK
	}

	matches, err := h.retriever.FindMatches(c.Context(), uid, body.Question, threshold, topK)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"matches": matches, "count": len(matches)})
}
