package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
)

// Retriever finds the user's events nearest to an application question.
type Retriever struct {
	expander  *Expander
	embedder  port.Embedder
	store     port.EmbeddingStore
	questions port.QuestionCache
	cache     port.VectorCache
	model     string
}

// NewRetriever creates a retriever. questions and cache may be nil.
func NewRetriever(expander *Expander, embedder port.Embedder, store port.EmbeddingStore, questions port.QuestionCache, cache port.VectorCache, embeddingModel string) *Retriever {
	return &Retriever{
		expander:  expander,
		embedder:  embedder,
		store:     store,
		questions: questions,
		cache:     cache,
		model:     embeddingModel,
	}
}

// FindMatches returns at most topK of the user's events with similarity at
// least threshold, by descending similarity then ascending event id.
func (r *Retriever) FindMatches(ctx context.Context, userID, question string, threshold float64, topK int) ([]domain.Match, error) {
	return r.Match(ctx, port.MatchQuery{UserID: userID, Question: question, Threshold: threshold, TopK: topK})
}

// Match implements port.Matcher. Provider and store failures come back as
// *port.FlowError naming the stage that was not reached.
func (r *Retriever) Match(ctx context.Context, q port.MatchQuery) ([]domain.Match, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	paragraph, err := r.paragraph(ctx, q)
	if err != nil {
		return nil, err
	}

	vector, err := r.embed(ctx, paragraph)
	if err != nil {
		return nil, &port.FlowError{Stage: domain.StageEmbedded, Err: err}
	}

	matches, err := r.store.MatchDocuments(ctx, q.UserID, vector, q.Threshold, q.TopK)
	if err != nil {
		return nil, &port.FlowError{Stage: domain.StageMatched, Err: err}
	}
	return rankMatches(matches, q.Threshold, q.TopK), nil
}

func validateQuery(q port.MatchQuery) error {
	switch {
	case q.UserID == "":
		return port.Invalid("user_id", "is required")
	case strings.TrimSpace(q.Question) == "" && q.QuestionID == 0:
		return port.Invalid("question", "is required")
	case q.TopK <= 0:
		return port.Invalid("top_k", "must be positive")
	case q.Threshold < -1 || q.Threshold > 1:
		return port.Invalid("threshold", "must be between -1 and 1")
	}
	return nil
}

// paragraph expands the question, reusing the explanation stored on the
// question record when the text matches.
func (r *Retriever) paragraph(ctx context.Context, q port.MatchQuery) (string, error) {
	text := strings.TrimSpace(q.Question)

	if q.QuestionID != 0 && r.questions != nil {
		rec, err := r.questions.GetQuestion(ctx, q.UserID, q.QuestionID)
		if err != nil {
			return "", err
		}
		if text == "" {
			text = rec.Text
		}
		if text == strings.TrimSpace(rec.Text) && rec.Explanation != "" {
			return rec.Explanation, nil
		}
		out, err := r.expander.Expand(ctx, port.TemplateQuestionParagraph, text)
		if err != nil {
			return "", &port.FlowError{Stage: domain.StageExpanded, Err: err}
		}
		if text == strings.TrimSpace(rec.Text) {
			if err := r.questions.SetQuestionExplanation(ctx, rec.ID, out); err != nil {
				slog.Warn("cache question explanation failed", "question_id", rec.ID, "error", err)
			}
		}
		return out, nil
	}

	out, err := r.expander.Expand(ctx, port.TemplateQuestionParagraph, text)
	if err != nil {
		return "", &port.FlowError{Stage: domain.StageExpanded, Err: err}
	}
	return out, nil
}

func (r *Retriever) embed(ctx context.Context, text string) ([]float32, error) {
	if r.cache != nil {
		vec, ok, err := r.cache.Get(ctx, r.model, text)
		if err != nil {
			slog.Warn("vector cache get failed", "error", err)
		} else if ok {
			return vec, nil
		}
	}

	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vec) == 0 {
		return nil, errors.New("embed question: empty vector")
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, r.model, text, vec); err != nil {
			slog.Warn("vector cache set failed", "error", err)
		}
	}
	return vec, nil
}

// rankMatches drops matches below threshold, orders by similarity desc then
// event id asc, and keeps the first topK.
func rankMatches(in []domain.Match, threshold float64, topK int) []domain.Match {
	out := make([]domain.Match, 0, len(in))
	for _, m := range in {
		if m.Similarity >= threshold {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].EventID < out[j].EventID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}
