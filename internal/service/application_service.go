package service

import (
	"context"
	"strings"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
)

// ApplicationService validates and stores applications, questions and the
// events kept for each question.
type ApplicationService struct {
	repo port.ApplicationRepository
}

// NewApplicationService creates a new application service.
func NewApplicationService(repo port.ApplicationRepository) *ApplicationService {
	return &ApplicationService{repo: repo}
}

// List returns the user's applications.
func (s *ApplicationService) List(ctx context.Context, userID string) ([]domain.Application, error) {
	return s.repo.ListApplications(ctx, userID)
}

// Create stores an application with its questions.
func (s *ApplicationService) Create(ctx context.Context, userID string, in domain.ApplicationInput) (*domain.Application, error) {
	for i := range in.Questions {
		if err := validateQuestion(&in.Questions[i]); err != nil {
			return nil, err
		}
	}
	return s.repo.CreateApplication(ctx, userID, in)
}

// Get returns an application with its questions.
func (s *ApplicationService) Get(ctx context.Context, userID string, applicationID int64) (*domain.Application, error) {
	return s.repo.GetApplication(ctx, userID, applicationID)
}

// Update edits the application fields.
func (s *ApplicationService) Update(ctx context.Context, userID string, applicationID int64, in domain.ApplicationInput) (*domain.Application, error) {
	return s.repo.UpdateApplication(ctx, userID, applicationID, in)
}

// Delete removes an application with its questions.
func (s *ApplicationService) Delete(ctx context.Context, userID string, applicationID int64) error {
	return s.repo.DeleteApplication(ctx, userID, applicationID)
}

// AddQuestion appends a question to an application.
func (s *ApplicationService) AddQuestion(ctx context.Context, userID string, applicationID int64, in domain.QuestionInput) (*domain.Question, error) {
	if err := validateQuestion(&in); err != nil {
		return nil, err
	}
	return s.repo.AddQuestion(ctx, userID, applicationID, in)
}

// UpdateQuestion edits a question.
func (s *ApplicationService) UpdateQuestion(ctx context.Context, userID string, questionID int64, in domain.QuestionInput) (*domain.Question, error) {
	if err := validateQuestion(&in); err != nil {
		return nil, err
	}
	return s.repo.UpdateQuestion(ctx, userID, questionID, in)
}

// DeleteQuestion removes a question.
func (s *ApplicationService) DeleteQuestion(ctx context.Context, userID string, questionID int64) error {
	return s.repo.DeleteQuestion(ctx, userID, questionID)
}

// ListSuggestions returns the events kept for a question.
func (s *ApplicationService) ListSuggestions(ctx context.Context, userID string, questionID int64) ([]domain.Suggestion, error) {
	if _, err := s.repo.GetQuestion(ctx, userID, questionID); err != nil {
		return nil, err
	}
	return s.repo.ListSuggestions(ctx, userID, questionID, 0)
}

// SaveSuggestion keeps an event for a question. Saving it twice is a no-op.
func (s *ApplicationService) SaveSuggestion(ctx context.Context, userID string, questionID, eventID int64) (*domain.Suggestion, error) {
	if eventID <= 0 {
		return nil, port.Invalid("event_id", "is required")
	}
	return s.repo.CreateSuggestion(ctx, userID, questionID, eventID)
}

// DeleteSuggestion removes a kept event.
func (s *ApplicationService) DeleteSuggestion(ctx context.Context, userID string, suggestionID int64) error {
	return s.repo.DeleteSuggestion(ctx, userID, suggestionID)
}

func validateQuestion(in *domain.QuestionInput) error {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return port.Invalid("question", "is required")
	}
	if in.MaxLength < 0 {
		return port.Invalid("max_length", "cannot be negative")
	}
	return nil
}
