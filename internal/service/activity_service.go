package service

import (
	"context"
	"strings"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
)

// ActivityService validates and stores activities and their events.
type ActivityService struct {
	repo port.ActivityRepository
}

// NewActivityService creates a new activity service.
func NewActivityService(repo port.ActivityRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

// List returns the user's activities with event counts and recent events.
func (s *ActivityService) List(ctx context.Context, userID string) ([]domain.ActivitySummary, error) {
	return s.repo.ListActivities(ctx, userID)
}

// Create stores a new activity.
func (s *ActivityService) Create(ctx context.Context, userID string, in domain.ActivityInput) (*domain.Activity, error) {
	if err := validateActivity(&in); err != nil {
		return nil, err
	}
	return s.repo.CreateActivity(ctx, userID, in)
}

// Detail returns an activity with all its events and records the visit.
func (s *ActivityService) Detail(ctx context.Context, userID string, activityID int64) (*domain.ActivityDetail, error) {
	return s.repo.GetActivityDetail(ctx, userID, activityID)
}

// Update replaces an activity. Its events become stale for embedding.
func (s *ActivityService) Update(ctx context.Context, userID string, activityID int64, in domain.ActivityInput) (*domain.Activity, error) {
	if err := validateActivity(&in); err != nil {
		return nil, err
	}
	return s.repo.UpdateActivity(ctx, userID, activityID, in)
}

// Delete removes an activity with its events and their embeddings.
func (s *ActivityService) Delete(ctx context.Context, userID string, activityID int64) error {
	return s.repo.DeleteActivity(ctx, userID, activityID)
}

// ListEvents returns the events of an owned activity.
func (s *ActivityService) ListEvents(ctx context.Context, userID string, activityID int64) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx, userID, activityID)
}

// CreateEvent adds an event to an owned activity.
func (s *ActivityService) CreateEvent(ctx context.Context, userID string, activityID int64, in domain.EventInput) (*domain.Event, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, port.Invalid("event_name", "is required")
	}
	if err := validateContribution(in.Contribution); err != nil {
		return nil, err
	}
	if err := validatePeriod(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}
	return s.repo.CreateEvent(ctx, userID, activityID, in)
}

// UpdateEvent applies a partial update. The event's updated_at moves forward.
func (s *ActivityService) UpdateEvent(ctx context.Context, userID string, eventID int64, patch domain.EventPatch) (*domain.Event, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, port.Invalid("event_name", "cannot be blank")
	}
	if patch.Contribution != nil {
		if err := validateContribution(*patch.Contribution); err != nil {
			return nil, err
		}
	}
	if err := validatePeriod(patch.StartDate, patch.EndDate); err != nil {
		return nil, err
	}
	return s.repo.UpdateEvent(ctx, userID, eventID, patch)
}

// DeleteEvent removes an event and its embedding.
func (s *ActivityService) DeleteEvent(ctx context.Context, userID string, eventID int64) error {
	return s.repo.DeleteEvent(ctx, userID, eventID)
}

func validateActivity(in *domain.ActivityInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return port.Invalid("activity_name", "is required")
	}
	keywords := in.Keywords[:0:0]
	for _, k := range in.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	in.Keywords = keywords
	return validatePeriod(in.StartDate, in.EndDate)
}

func validateContribution(c int) error {
	if c < 0 || c > 100 {
		return port.Invalid("contribution", "must be between 0 and 100")
	}
	return nil
}

func validatePeriod(start, end *domain.Date) error {
	if start != nil && end != nil && end.Before(start.Time) {
		return port.Invalid("end_date", "is before start_date")
	}
	return nil
}
