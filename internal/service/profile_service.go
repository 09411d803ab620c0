package service

import (
	"context"
	"strings"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
)

// ProfileService manages the one profile per user.
type ProfileService struct {
	repo port.ProfileRepository
}

// NewProfileService creates a new profile service.
func NewProfileService(repo port.ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// Get returns the user's profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// Create stores the profile, replacing the placeholder created alongside a
// user's first activity or application.
func (s *ProfileService) Create(ctx context.Context, userID string, in domain.Profile) (*domain.Profile, error) {
	if err := validateProfile(&in); err != nil {
		return nil, err
	}
	in.UserID = userID
	return s.repo.CreateProfile(ctx, &in)
}

// Update edits an existing profile.
func (s *ProfileService) Update(ctx context.Context, userID string, in domain.Profile) (*domain.Profile, error) {
	if err := validateProfile(&in); err != nil {
		return nil, err
	}
	in.UserID = userID
	return s.repo.UpdateProfile(ctx, &in)
}

// Delete removes the profile and everything the user owns.
func (s *ProfileService) Delete(ctx context.Context, userID string) error {
	return s.repo.DeleteProfile(ctx, userID)
}

func validateProfile(p *domain.Profile) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return port.Invalid("name", "is required")
	}
	if p.GraduationYear != 0 && (p.GraduationYear < 1900 || p.GraduationYear > 2200) {
		return port.Invalid("graduation_year", "is out of range")
	}
	return nil
}
