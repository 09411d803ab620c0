package domain

import "time"

// ChatSession is an essay-coaching conversation tied to one question.
type ChatSession struct {
	ID            int64     `json:"id"             db:"id"`
	UserID        string    `json:"user_id"        db:"user_id"`
	ApplicationID int64     `json:"application_id" db:"application_id"`
	QuestionID    int64     `json:"question_id"    db:"question_id"`
	Title         string    `json:"title"          db:"title"`
	MessageCount  int       `json:"message_count"`
	CreatedAt     time.Time `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"     db:"updated_at"`
}

// ChatMessage is one turn in a chat session.
type ChatMessage struct {
	ID        int64     `json:"id"         db:"id"`
	SessionID int64     `json:"session_id" db:"session_id"`
	Role      string    `json:"role"       db:"role"` // user, assistant
	Content   string    `json:"content"    db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)
