package domain

import "time"

// Activity is a user-logged extracurricular or professional experience.
// It groups one or more STAR events.
type Activity struct {
	ID          int64      `json:"id"            db:"id"`
	UserID      string     `json:"user_id"       db:"user_id"`
	Name        string     `json:"activity_name" db:"activity_name"`
	Category    string     `json:"category"      db:"category"`
	Position    string     `json:"position"      db:"position"`
	Keywords    []string   `json:"keywords"      db:"keywords"`
	Description string     `json:"description"   db:"description"`
	Favorite    bool       `json:"favorite"      db:"favorite"`
	StartDate   *Date      `json:"start_date"    db:"start_date"`
	EndDate     *Date      `json:"end_date"      db:"end_date"`
	LastVisit   *time.Time `json:"last_visit"    db:"last_visit"`
	CreatedAt   time.Time  `json:"created_at"    db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"    db:"updated_at"`
}

// Event is a single STAR-structured experience under an activity.
// It is the unit of embedding.
type Event struct {
	ID           int64     `json:"id"           db:"id"`
	ActivityID   int64     `json:"activity_id"  db:"activity_id"`
	Name         string    `json:"event_name"   db:"event_name"`
	Situation    string    `json:"situation"    db:"situation"`
	Task         string    `json:"task"         db:"task"`
	Action       string    `json:"action"       db:"action"`
	Result       string    `json:"result"       db:"result"`
	Contribution int       `json:"contribution" db:"contribution"`
	StartDate    *Date     `json:"start_date"   db:"start_date"`
	EndDate      *Date     `json:"end_date"     db:"end_date"`
	CreatedAt    time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"   db:"updated_at"`
}

// ActivitySummary is the list view of an activity.
type ActivitySummary struct {
	Activity
	EventCount   int     `json:"event_count"`
	RecentEvents []Event `json:"recent_events"`
}

// ActivityDetail is an activity with all of its events.
type ActivityDetail struct {
	Activity
	Events []Event `json:"events"`
}

// ActivityInput carries the user-editable activity fields.
type ActivityInput struct {
	Name        string   `json:"activity_name"`
	Category    string   `json:"category"`
	Position    string   `json:"position"`
	Keywords    []string `json:"keywords"`
	Description string   `json:"description"`
	Favorite    bool     `json:"favorite"`
	StartDate   *Date    `json:"start_date"`
	EndDate     *Date    `json:"end_date"`
}

// EventInput carries the user-editable event fields.
type EventInput struct {
	Name         string `json:"event_name"`
	Situation    string `json:"situation"`
	Task         string `json:"task"`
	Action       string `json:"action"`
	Result       string `json:"result"`
	Contribution int    `json:"contribution"`
	StartDate    *Date  `json:"start_date"`
	EndDate      *Date  `json:"end_date"`
}

// RecentEventsPerActivity caps the events embedded in an activity list entry.
const RecentEventsPerActivity = 3

// EventPatch is a partial event update. Nil fields are left unchanged.
type EventPatch struct {
	Name         *string `json:"event_name"`
	Situation    *string `json:"situation"`
	Task         *string `json:"task"`
	Action       *string `json:"action"`
	Result       *string `json:"result"`
	Contribution *int    `json:"contribution"`
	StartDate    *Date   `json:"start_date"`
	EndDate      *Date   `json:"end_date"`
}
