package store

import (
	"context"
	"fmt"

	"github.com/arturoeanton/storyline/internal/domain"
)

const profileColumns = `user_id, name, university, major, graduation_year, field_of_interest, created_at, updated_at`

func scanProfile(row scanner) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.UserID, &p.Name, &p.University, &p.Major, &p.GraduationYear,
		&p.FieldOfInterest, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile returns the user's profile.
func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profile WHERE user_id = $1`, userID))
	if err != nil {
		return nil, notFound("get profile", err)
	}
	return p, nil
}

// CreateProfile inserts the profile, filling in a placeholder row if one exists.
func (s *PostgresStore) CreateProfile(ctx context.Context, in *domain.Profile) (*domain.Profile, error) {
	query := `INSERT INTO profile (user_id, name, university, major, graduation_year, field_of_interest)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (user_id) DO UPDATE SET
	              name = EXCLUDED.name,
	              university = EXCLUDED.university,
	              major = EXCLUDED.major,
	              graduation_year = EXCLUDED.graduation_year,
	              field_of_interest = EXCLUDED.field_of_interest,
	              updated_at = NOW()
	          RETURNING ` + profileColumns
	p, err := scanProfile(s.db.QueryRowContext(ctx, query,
		in.UserID, in.Name, in.University, in.Major, in.GraduationYear, in.FieldOfInterest))
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

// UpdateProfile replaces an existing profile's fields.
func (s *PostgresStore) UpdateProfile(ctx context.Context, in *domain.Profile) (*domain.Profile, error) {
	query := `UPDATE profile SET name = $2, university = $3, major = $4, graduation_year = $5,
	              field_of_interest = $6, updated_at = NOW()
	          WHERE user_id = $1
	          RETURNING ` + profileColumns
	p, err := scanProfile(s.db.QueryRowContext(ctx, query,
		in.UserID, in.Name, in.University, in.Major, in.GraduationYear, in.FieldOfInterest))
	if err != nil {
		return nil, notFound("update profile", err)
	}
	return p, nil
}

// DeleteProfile removes the profile and, by cascade, everything the user owns.
func (s *PostgresStore) DeleteProfile(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profile WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return expectOne("delete profile", res)
}
