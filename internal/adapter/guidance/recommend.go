package guidance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
)

// RecommendStrategy asks the model to pick the best events among the matches
// and explain them. Malformed output degrades to the raw matches.
type RecommendStrategy struct {
	matcher   port.Matcher
	gen       port.TextGenerator
	prompts   port.PromptCatalog
	retrieval Retrieval
}

func NewRecommendStrategy(matcher port.Matcher, gen port.TextGenerator, prompts port.PromptCatalog, r Retrieval) *RecommendStrategy {
	return &RecommendStrategy{matcher: matcher, gen: gen, prompts: prompts, retrieval: r}
}

func (s *RecommendStrategy) Name() string { return "recommend" }
func (s *RecommendStrategy) Description() string {
	return "Question analysis, suggested events and a writing tip"
}

func (s *RecommendStrategy) Generate(ctx context.Context, req port.GuidanceRequest) (*port.GuidanceResult, error) {
	matches, err := retrieve(ctx, s.matcher, s.retrieval, req)
	if err != nil {
		return nil, err
	}

	rec, err := s.compose(ctx, req, matches)
	if err != nil {
		slog.Warn("recommendation degraded to matches", "user_id", req.UserID, "question_id", req.QuestionID, "error", err)
		return degraded(s.Name(), matches), nil
	}

	return &port.GuidanceResult{
		Strategy:       s.Name(),
		Stage:          domain.StageReturned,
		Recommendation: rec,
		Matches:        matches,
	}, nil
}

func (s *RecommendStrategy) compose(ctx context.Context, req port.GuidanceRequest, matches []domain.Match) (*domain.Recommendation, error) {
	instructions, err := s.prompts.Render(port.TemplateRecommend, nil)
	if err != nil {
		return nil, err
	}
	input := fmt.Sprintf("Question: %s\n\nCandidates:\n%s", strings.TrimSpace(req.Question), candidates(matches))

	raw, err := s.gen.Complete(ctx, instructions, input)
	if err != nil {
		return nil, err
	}
	return DecodeRecommendation(raw, matches)
}

// DecodeRecommendation strictly decodes model output. Unknown fields,
// trailing data and event ids outside the matches are a *port.ParseFailure.
// A surrounding Markdown code fence is tolerated.
func DecodeRecommendation(raw string, matches []domain.Match) (*domain.Recommendation, error) {
	body := stripFence(raw)

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()

	var rec domain.Recommendation
	if err := dec.Decode(&rec); err != nil {
		return nil, &port.ParseFailure{Raw: raw, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &port.ParseFailure{Raw: raw, Err: errors.New("trailing data after JSON object")}
	}

	allowed := make(map[int64]bool, len(matches))
	for _, m := range matches {
		allowed[m.EventID] = true
	}
	for _, ev := range rec.SuggestedEvents {
		if !allowed[ev.EventID] {
			return nil, &port.ParseFailure{Raw: raw, Err: fmt.Errorf("event_id %d is not a candidate", ev.EventID)}
		}
	}
	if rec.SuggestedEvents == nil {
		rec.SuggestedEvents = []domain.SuggestedEvent{}
	}
	return &rec, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
