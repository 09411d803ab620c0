package domain

import (
	"encoding/json"
	"time"
)

// EmbeddingRecord is the stored vector for one event.
// At most one exists per event id.
type EmbeddingRecord struct {
	ID        int64           `json:"id"         db:"id"`
	UserID    string          `json:"user_id"    db:"user_id"`
	EventID   *int64          `json:"event_id"   db:"event_id"`
	Metadata  json.RawMessage `json:"metadata"   db:"metadata"`
	Content   string          `json:"content"    db:"content"`
	Vector    []float32       `json:"-"          db:"embedding"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// EventState is one row of the tracker read: an owned event, its parent
// activity, and the timestamp of its embedding if one exists.
type EventState struct {
	Activity           Activity
	Event              Event
	EmbeddingUpdatedAt *time.Time
}

// SyncPlan lists the events that need an embedding written.
// NeedsInsert and NeedsUpdate are disjoint.
type SyncPlan struct {
	NeedsInsert []EventState `json:"needs_insert"`
	NeedsUpdate []EventState `json:"needs_update"`
}

// Empty reports whether there is nothing to sync.
func (p SyncPlan) Empty() bool {
	return len(p.NeedsInsert) == 0 && len(p.NeedsUpdate) == 0
}

// InsertIDs returns the event ids in NeedsInsert.
func (p SyncPlan) InsertIDs() []int64 { return eventIDs(p.NeedsInsert) }

// UpdateIDs returns the event ids in NeedsUpdate.
func (p SyncPlan) UpdateIDs() []int64 { return eventIDs(p.NeedsUpdate) }

func eventIDs(states []EventState) []int64 {
	ids := make([]int64, len(states))
	for i, s := range states {
		ids[i] = s.Event.ID
	}
	return ids
}

// SyncResult summarizes a batch embedding run.
type SyncResult struct {
	RunID       string `json:"run_id"`
	Generated   int    `json:"generated"`
	Failed      int    `json:"failed"`
	NothingToDo bool   `json:"nothing_to_do"`
}

// Match is one nearest-neighbor hit returned by the retriever.
type Match struct {
	EmbeddingID int64   `json:"id"`
	EventID     int64   `json:"event_id"`
	Content     string  `json:"content"`
	Similarity  float64 `json:"similarity"`
}

// EmbeddingStatus counts the user's events by embedding state.
type EmbeddingStatus struct {
	Events      int `json:"events"`
	Fresh       int `json:"fresh"`
	NeedsInsert int `json:"needs_insert"`
	NeedsUpdate int `json:"needs_update"`
}
