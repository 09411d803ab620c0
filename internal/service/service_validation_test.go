package service

import (
	"context"
	"testing"
	"time"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memProfiles struct {
	port.ProfileRepository
	saved *domain.Profile
}

func (m *memProfiles) CreateProfile(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	m.saved = p
	return p, nil
}

func (m *memProfiles) UpdateProfile(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	m.saved = p
	return p, nil
}

func TestProfileValidation(t *testing.T) {
	repo := &memProfiles{}
	svc := NewProfileService(repo)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    domain.Profile
		field string
	}{
		{"blank name", domain.Profile{Name: "  "}, "name"},
		{"year too small", domain.Profile{Name: "Kim", GraduationYear: 1850}, "graduation_year"},
		{"year too large", domain.Profile{Name: "Kim", GraduationYear: 3000}, "graduation_year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "alice", tt.in)
			var verr *port.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Nil(t, repo.saved)
}

func TestProfileCreateSetsOwner(t *testing.T) {
	repo := &memProfiles{}
	svc := NewProfileService(repo)

	p, err := svc.Update(context.Background(), "alice", domain.Profile{UserID: "mallory", Name: " Kim ", GraduationYear: 2026})
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserID)
	assert.Equal(t, "Kim", p.Name)
}

type recordingApps struct {
	port.ApplicationRepository
	created   *domain.ApplicationInput
	questions map[int64]string
	saved     []int64
}

func (r *recordingApps) CreateApplication(_ context.Context, userID string, in domain.ApplicationInput) (*domain.Application, error) {
	r.created = &in
	return &domain.Application{ID: 1, UserID: userID, CreatedAt: time.Now()}, nil
}

func (r *recordingApps) GetQuestion(_ context.Context, _ string, id int64) (*domain.Question, error) {
	text, ok := r.questions[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &domain.Question{ID: id, Text: text}, nil
}

func (r *recordingApps) ListSuggestions(_ context.Context, _ string, questionID int64, limit int) ([]domain.Suggestion, error) {
	return []domain.Suggestion{{QuestionID: questionID}}, nil
}

func (r *recordingApps) CreateSuggestion(_ context.Context, _ string, questionID, eventID int64) (*domain.Suggestion, error) {
	r.saved = append(r.saved, eventID)
	return &domain.Suggestion{QuestionID: questionID, EventID: eventID}, nil
}

func TestApplicationCreateValidatesQuestions(t *testing.T) {
	repo := &recordingApps{}
	svc := NewApplicationService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", domain.ApplicationInput{
		Position:  "Backend intern",
		Questions: []domain.QuestionInput{{Text: "Why us?"}, {Text: " "}},
	})
	var verr *port.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "question", verr.Field)
	assert.Nil(t, repo.created)

	_, err = svc.Create(ctx, "alice", domain.ApplicationInput{
		Questions: []domain.QuestionInput{{Text: "  Why us?  ", MaxLength: 500}},
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "Why us?", repo.created.Questions[0].Text)

	_, err = svc.AddQuestion(ctx, "alice", 1, domain.QuestionInput{Text: "q", MaxLength: -1})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "max_length", verr.Field)
}

func TestSuggestions(t *testing.T) {
	repo := &recordingApps{questions: map[int64]string{5: "협업 경험"}}
	svc := NewApplicationService(repo)
	ctx := context.Background()

	_, err := svc.ListSuggestions(ctx, "alice", 9)
	assert.ErrorIs(t, err, port.ErrNotFound)

	list, err := svc.ListSuggestions(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.SaveSuggestion(ctx, "alice", 5, 0)
	assert.ErrorIs(t, err, port.ErrValidation)

	sg, err := svc.SaveSuggestion(ctx, "alice", 5, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(11), sg.EventID)
	assert.Equal(t, []int64{11}, repo.saved)
}

func TestActivityPeriodValidation(t *testing.T) {
	svc := NewActivityService(nil)
	start := domain.Date{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	end := domain.Date{Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}

	_, err := svc.Create(context.Background(), "alice", domain.ActivityInput{Name: "club", StartDate: &start, EndDate: &end})
	var verr *port.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end_date", verr.Field)

	_, err = svc.CreateEvent(context.Background(), "alice", 1, domain.EventInput{Name: "final", Contribution: -5})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "contribution", verr.Field)
}
