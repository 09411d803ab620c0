package guidance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
)

// GuidelineStrategy writes Markdown advice for a question, grounded on the
// user's matching events. One instance per template.
type GuidelineStrategy struct {
	name         string
	description  string
	templateID   string
	requireDraft bool
	matcher      port.Matcher
	gen          port.TextGenerator
	prompts      port.PromptCatalog
	retrieval    Retrieval
}

// NewQuestionGuidelineStrategy explains what a question asks for.
func NewQuestionGuidelineStrategy(matcher port.Matcher, gen port.TextGenerator, prompts port.PromptCatalog, r Retrieval) *GuidelineStrategy {
	return &GuidelineStrategy{
		name:        "question_guideline",
		description: "Writing guideline for an application question",
		templateID:  port.TemplateQuestionGuideline,
		matcher:     matcher,
		gen:         gen,
		prompts:     prompts,
		retrieval:   r,
	}
}

// NewEditorGuidelineStrategy reviews a draft answer.
func NewEditorGuidelineStrategy(matcher port.Matcher, gen port.TextGenerator, prompts port.PromptCatalog, r Retrieval) *GuidelineStrategy {
	return &GuidelineStrategy{
		name:         "editor_guideline",
		description:  "Editing advice for a draft answer",
		templateID:   port.TemplateEditorGuideline,
		requireDraft: true,
		matcher:      matcher,
		gen:          gen,
		prompts:      prompts,
		retrieval:    r,
	}
}

func (s *GuidelineStrategy) Name() string        { return s.name }
func (s *GuidelineStrategy) Description() string { return s.description }

func (s *GuidelineStrategy) Generate(ctx context.Context, req port.GuidanceRequest) (*port.GuidanceResult, error) {
	if s.requireDraft && strings.TrimSpace(req.Draft) == "" {
		return nil, port.Invalid("draft", "is required")
	}

	matches, err := retrieve(ctx, s.matcher, s.retrieval, req)
	if err != nil {
		return nil, err
	}

	content, err := s.compose(ctx, req, matches)
	if err != nil {
		slog.Warn("guideline degraded to matches", "strategy", s.name, "user_id", req.UserID, "error", err)
		return degraded(s.name, matches), nil
	}

	return &port.GuidanceResult{
		Strategy: s.name,
		Stage:    domain.StageReturned,
		Content:  content,
		Matches:  matches,
	}, nil
}

func (s *GuidelineStrategy) compose(ctx context.Context, req port.GuidanceRequest, matches []domain.Match) (string, error) {
	instructions, err := s.prompts.Render(s.templateID, nil)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", strings.TrimSpace(req.Question))
	if draft := strings.TrimSpace(req.Draft); draft != "" {
		fmt.Fprintf(&b, "Draft:\n%s\n\n", draft)
	}
	fmt.Fprintf(&b, "The applicant's related experiences:\n%s", candidates(matches))

	out, err := s.gen.Complete(ctx, instructions, b.String())
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", port.ErrEmptyParagraph
	}
	return out, nil
}
