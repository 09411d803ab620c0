package domain

import "time"

// Profile holds the user's academic background. One per user.
type Profile struct {
	UserID          string    `json:"user_id"           db:"user_id"`
	Name            string    `json:"name"              db:"name"`
	University      string    `json:"university"        db:"university"`
	Major           string    `json:"major"             db:"major"`
	GraduationYear  int       `json:"graduation_year"   db:"graduation_year"`
	FieldOfInterest string    `json:"field_of_interest" db:"field_of_interest"`
	CreatedAt       time.Time `json:"created_at"        db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"        db:"updated_at"`
}
