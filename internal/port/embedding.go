package port

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arturoeanton/storyline/internal/domain"
)

// EmbeddingWrite is a persist request. It is either InsertEmbedding or
// UpdateEmbedding.
type EmbeddingWrite interface {
	Mode() string
	Target() (userID string, eventID int64)
}

// InsertEmbedding creates the embedding of an event that has none.
type InsertEmbedding struct {
	UserID          string
	EventID         int64
	Content         string
	Metadata        json.RawMessage
	Vector          []float32
	SourceUpdatedAt time.Time
}

// Mode returns "insert".
func (InsertEmbedding) Mode() string { return "insert" }

// Target returns the owner and event of the write.
func (w InsertEmbedding) Target() (string, int64) { return w.UserID, w.EventID }

// UpdateEmbedding refreshes a stale embedding. SourceUpdatedAt becomes the
// stored updated_at.
type UpdateEmbedding struct {
	UserID          string
	EventID         int64
	Content         string
	Vector          []float32
	SourceUpdatedAt time.Time
}

// Mode returns "update".
func (UpdateEmbedding) Mode() string { return "update" }

// Target returns the owner and event of the write.
func (w UpdateEmbedding) Target() (string, int64) { return w.UserID, w.EventID }

// EmbeddingStore is the vector side of the datastore.
type EmbeddingStore interface {
	// ListEventStates returns every event the user owns with its embedding timestamp.
	ListEventStates(ctx context.Context, userID string) ([]domain.EventState, error)

	// SaveEmbedding applies an insert or update. Zero affected rows is an error.
	SaveEmbedding(ctx context.Context, w EmbeddingWrite) error

	// MatchDocuments runs the owner-scoped nearest-neighbor search.
	MatchDocuments(ctx context.Context, userID string, query []float32, threshold float64, count int) ([]domain.Match, error)
}

// QuestionCache stores the expanded paragraph of a question.
type QuestionCache interface {
	GetQuestion(ctx context.Context, userID string, questionID int64) (*domain.Question, error)
	SetQuestionExplanation(ctx context.Context, questionID int64, explanation string) error
}

// VectorCache memoizes query embeddings per embedding model and text.
// A miss is (nil, false, nil).
type VectorCache interface {
	Get(ctx context.Context, model, text string) ([]float32, bool, error)
	Set(ctx context.Context, model, text string, vector []float32) error
}

// PromptCatalog renders instruction templates by id.
type PromptCatalog interface {
	Render(id string, data any) (string, error)
}

// Prompt template ids.
const (
	TemplateActivityParagraph = "activity_paragraph"
	TemplateQuestionParagraph = "question_paragraph"
	TemplateChatCoach         = "chat_coach"
	TemplateQuestionGuideline = "question_guideline"
	TemplateRecommend         = "recommend"
	TemplateEditorGuideline   = "editor_guideline"
)
