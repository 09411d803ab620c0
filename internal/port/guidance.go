package port

import (
	"context"
	"fmt"
	"sort"

	"github.com/arturoeanton/storyline/internal/domain"
)

// GuidanceStrategy produces one kind of AI guidance for an application
// question (guideline, recommendation, fit analysis, editing advice).
type GuidanceStrategy interface {
	// Name returns the unique name of this strategy (e.g. "recommend").
	Name() string

	// Description returns a human-readable description of the guidance.
	Description() string

	// Generate runs the strategy for one question.
	Generate(ctx context.Context, req GuidanceRequest) (*GuidanceResult, error)
}

// GuidanceRequest contains everything a strategy needs.
type GuidanceRequest struct {
	UserID        string `json:"user_id"`
	ApplicationID int64  `json:"application_id,omitempty"`
	QuestionID    int64  `json:"question_id,omitempty"`
	Question      string `json:"question"`
	Draft         string `json:"draft,omitempty"`
}

// GuidanceResult holds the output of a strategy. Degraded is set when
// composition failed and only retrieval results are returned.
type GuidanceResult struct {
	Strategy       string                 `json:"strategy"`
	Stage          domain.FlowStage       `json:"stage"`
	Degraded       bool                   `json:"degraded"`
	Content        string                 `json:"content,omitempty"`
	Recommendation *domain.Recommendation `json:"recommendation,omitempty"`
	Abilities      []domain.Ability       `json:"ability_list,omitempty"`
	Activities     []domain.ActivityFit   `json:"activity_list,omitempty"`
	Matches        []domain.Match         `json:"matches,omitempty"`
}

// MatchQuery is a retrieval request. A non-zero QuestionID lets the
// retriever reuse the stored question paragraph.
type MatchQuery struct {
	UserID     string
	QuestionID int64
	Question   string
	Threshold  float64
	TopK       int
}

// Matcher retrieves the user's events closest to a question.
type Matcher interface {
	Match(ctx context.Context, q MatchQuery) ([]domain.Match, error)
}

// FlowError is a guidance failure at a given stage.
type FlowError struct {
	Stage domain.FlowStage
	Err   error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("guidance failed at %s: %v", e.Stage, e.Err)
}

func (e *FlowError) Unwrap() error { return e.Err }

// GuidanceEngine dispatches to registered strategies.
type GuidanceEngine struct {
	strategies map[string]GuidanceStrategy
}

// NewGuidanceEngine creates a new engine with the given strategies.
func NewGuidanceEngine(strategies ...GuidanceStrategy) *GuidanceEngine {
	m := make(map[string]GuidanceStrategy, len(strategies))
	for _, s := range strategies {
		m[s.Name()] = s
	}
	return &GuidanceEngine{strategies: m}
}

// Run executes the named strategy.
func (e *GuidanceEngine) Run(ctx context.Context, strategyName string, req GuidanceRequest) (*GuidanceResult, error) {
	s, ok := e.strategies[strategyName]
	if !ok {
		return nil, ErrStrategyNotFound
	}
	return s.Generate(ctx, req)
}

// AvailableStrategies returns the names of all registered strategies, sorted.
func (e *GuidanceEngine) AvailableStrategies() []string {
	names := make([]string, 0, len(e.strategies))
	for name := range e.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
