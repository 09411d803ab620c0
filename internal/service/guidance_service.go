package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arturoeanton/storyline/internal/port"
)

// GuidanceService runs the AI guidance strategies for application questions.
type GuidanceService struct {
	engine    *port.GuidanceEngine
	questions port.QuestionCache
}

// NewGuidanceService creates a guidance service. questions resolves the
// text of a request that only names a question id; it may be nil.
func NewGuidanceService(engine *port.GuidanceEngine, questions port.QuestionCache) *GuidanceService {
	return &GuidanceService{engine: engine, questions: questions}
}

// Run executes one strategy. Failures before composition are returned as
// *port.FlowError; a failed composition comes back as a degraded result.
func (s *GuidanceService) Run(ctx context.Context, strategyName string, req port.GuidanceRequest) (*port.GuidanceResult, error) {
	if err := s.resolveQuestion(ctx, &req); err != nil {
		return nil, err
	}

	slog.Info("running guidance strategy", "strategy", strategyName, "user_id", req.UserID, "question_id", req.QuestionID)
	result, err := s.engine.Run(ctx, strategyName, req)
	if err != nil {
		var flow *port.FlowError
		if errors.As(err, &flow) {
			slog.Error("guidance failed", "strategy", strategyName, "stage", flow.Stage, "error", flow.Err)
		}
		return nil, fmt.Errorf("run strategy %s: %w", strategyName, err)
	}
	return result, nil
}

// ListStrategies returns the available strategy names.
func (s *GuidanceService) ListStrategies() []string {
	return s.engine.AvailableStrategies()
}

func (s *GuidanceService) resolveQuestion(ctx context.Context, req *port.GuidanceRequest) error {
	req.Question = strings.TrimSpace(req.Question)
	if req.Question != "" {
		return nil
	}
	if req.QuestionID == 0 || s.questions == nil {
		return port.Invalid("question", "is required")
	}
	q, err := s.questions.GetQuestion(ctx, req.UserID, req.QuestionID)
	if err != nil {
		return err
	}
	req.Question = q.Text
	return nil
}

