package domain

import "time"

// Application is a job or school application the user is writing for.
type Application struct {
	ID        int64      `json:"id"         db:"id"`
	UserID    string     `json:"user_id"    db:"user_id"`
	Category  string     `json:"category"   db:"category"`
	Position  string     `json:"position"   db:"position"`
	Notice    string     `json:"notice"     db:"notice"`
	Questions []Question `json:"questions,omitempty"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Question is an essay prompt belonging to an application.
// Explanation caches the expanded paragraph used for retrieval.
type Question struct {
	ID            int64     `json:"id"                   db:"id"`
	ApplicationID int64     `json:"application_id"       db:"application_id"`
	Text          string    `json:"question"             db:"question"`
	MaxLength     int       `json:"max_length"           db:"max_length"`
	Explanation   string    `json:"question_explanation" db:"question_explanation"`
	CreatedAt     time.Time `json:"created_at"           db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"           db:"updated_at"`
}

// Suggestion records an event the user kept for a question.
type Suggestion struct {
	ID         int64     `json:"id"          db:"id"`
	QuestionID int64     `json:"question_id" db:"question_id"`
	EventID    int64     `json:"event_id"    db:"event_id"`
	Activity   string    `json:"activity"    db:"activity"`
	Event      *Event    `json:"event,omitempty"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// ApplicationInput carries the user-editable application fields.
type ApplicationInput struct {
	Category  string          `json:"category"`
	Position  string          `json:"position"`
	Notice    string          `json:"notice"`
	Questions []QuestionInput `json:"questions"`
}

// QuestionInput carries the user-editable question fields.
type QuestionInput struct {
	Text      string `json:"question"`
	MaxLength int    `json:"max_length"`
}
