package guidance

import (
	"context"
	"fmt"
	"strings"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
)

// Retrieval bounds of a strategy.
type Retrieval struct {
	Threshold float64
	TopK      int
}

// retrieve runs the matcher for req. Its errors already carry the failed stage.
func retrieve(ctx context.Context, m port.Matcher, r Retrieval, req port.GuidanceRequest) ([]domain.Match, error) {
	return m.Match(ctx, port.MatchQuery{
		UserID:     req.UserID,
		QuestionID: req.QuestionID,
		Question:   req.Question,
		Threshold:  r.Threshold,
		TopK:       r.TopK,
	})
}

// degraded is the result returned when composition fails after matching.
func degraded(strategy string, matches []domain.Match) *port.GuidanceResult {
	return &port.GuidanceResult{
		Strategy: strategy,
		Stage:    domain.StageReturned,
		Degraded: true,
		Matches:  matches,
	}
}

// candidates renders matches as the numbered list given to the model.
func candidates(matches []domain.Match) string {
	if len(matches) == 0 {
		return "(no matching experiences)"
	}
	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. event_id=%d similarity=%.3f\n%s\n\n", i+1, m.EventID, m.Similarity, strings.TrimSpace(m.Content))
	}
	return strings.TrimSpace(b.String())
}
