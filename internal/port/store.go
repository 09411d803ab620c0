package port

import (
	"context"

	"github.com/arturoeanton/storyline/internal/domain"
)

// All repository methods are scoped by the owning user. A row that exists
// but belongs to another user is reported as ErrNotFound.

// ActivityRepository stores activities and their events.
type ActivityRepository interface {
	ListActivities(ctx context.Context, userID string) ([]domain.ActivitySummary, error)
	CreateActivity(ctx context.Context, userID string, in domain.ActivityInput) (*domain.Activity, error)
	GetActivityDetail(ctx context.Context, userID string, activityID int64) (*domain.ActivityDetail, error)
	UpdateActivity(ctx context.Context, userID string, activityID int64, in domain.ActivityInput) (*domain.Activity, error)
	DeleteActivity(ctx context.Context, userID string, activityID int64) error

	ListEvents(ctx context.Context, userID string, activityID int64) ([]domain.Event, error)
	CreateEvent(ctx context.Context, userID string, activityID int64, in domain.EventInput) (*domain.Event, error)
	UpdateEvent(ctx context.Context, userID string, eventID int64, patch domain.EventPatch) (*domain.Event, error)
	DeleteEvent(ctx context.Context, userID string, eventID int64) error
}

// ProfileRepository stores the one profile per user.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
	DeleteProfile(ctx context.Context, userID string) error
}

// ApplicationRepository stores applications, their questions and the
// suggestions kept for each question.
type ApplicationRepository interface {
	ListApplications(ctx context.Context, userID string) ([]domain.Application, error)
	CreateApplication(ctx context.Context, userID string, in domain.ApplicationInput) (*domain.Application, error)
	GetApplication(ctx context.Context, userID string, applicationID int64) (*domain.Application, error)
	UpdateApplication(ctx context.Context, userID string, applicationID int64, in domain.ApplicationInput) (*domain.Application, error)
	DeleteApplication(ctx context.Context, userID string, applicationID int64) error

	AddQuestion(ctx context.Context, userID string, applicationID int64, in domain.QuestionInput) (*domain.Question, error)
	GetQuestion(ctx context.Context, userID string, questionID int64) (*domain.Question, error)
	UpdateQuestion(ctx context.Context, userID string, questionID int64, in domain.QuestionInput) (*domain.Question, error)
	DeleteQuestion(ctx context.Context, userID string, questionID int64) error

	ListSuggestions(ctx context.Context, userID string, questionID int64, limit int) ([]domain.Suggestion, error)
	CreateSuggestion(ctx context.Context, userID string, questionID, eventID int64) (*domain.Suggestion, error)
	DeleteSuggestion(ctx context.Context, userID string, suggestionID int64) error
}

// ChatRepository stores chat sessions and messages.
type ChatRepository interface {
	ListSessions(ctx context.Context, userID string) ([]domain.ChatSession, error)
	CountSessions(ctx context.Context, userID string) (int, error)
	CreateSession(ctx context.Context, s *domain.ChatSession) (*domain.ChatSession, error)
	GetSession(ctx context.Context, userID string, sessionID int64) (*domain.ChatSession, error)
	RenameSession(ctx context.Context, userID string, sessionID int64, title string) (*domain.ChatSession, error)
	DeleteSession(ctx context.Context, userID string, sessionID int64) error

	// ListMessages returns messages oldest first. limit > 0 keeps the most recent ones.
	ListMessages(ctx context.Context, sessionID int64, limit int) ([]domain.ChatMessage, error)
	// AddMessage appends a message and bumps the session's updated_at.
	AddMessage(ctx context.Context, sessionID int64, role, content string) (*domain.ChatMessage, error)
}
