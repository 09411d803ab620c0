package service

import (
	"context"
	"fmt"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
)

// Tracker decides which of a user's events need their embedding written.
// It reads only.
type Tracker struct {
	store port.EmbeddingStore
}

// NewTracker creates a tracker over the embedding store.
func NewTracker(store port.EmbeddingStore) *Tracker {
	return &Tracker{store: store}
}

// Plan loads the user's events with their embedding timestamps and classifies them.
func (t *Tracker) Plan(ctx context.Context, userID string) (domain.SyncPlan, error) {
	states, err := t.store.ListEventStates(ctx, userID)
	if err != nil {
		return domain.SyncPlan{}, fmt.Errorf("list event states: %w", err)
	}
	return ClassifyEvents(states), nil
}

// Status counts the user's events by embedding state.
func (t *Tracker) Status(ctx context.Context, userID string) (*domain.EmbeddingStatus, error) {
	states, err := t.store.ListEventStates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list event states: %w", err)
	}
	plan := ClassifyEvents(states)
	return &domain.EmbeddingStatus{
		Events:      len(states),
		Fresh:       len(states) - len(plan.NeedsInsert) - len(plan.NeedsUpdate),
		NeedsInsert: len(plan.NeedsInsert),
		NeedsUpdate: len(plan.NeedsUpdate),
	}, nil
}

// ClassifyEvents puts an event with no embedding in NeedsInsert and an event
// edited strictly after its embedding in NeedsUpdate. Equal timestamps count
// as fresh. Input order is preserved.
func ClassifyEvents(states []domain.EventState) domain.SyncPlan {
	plan := domain.SyncPlan{
		NeedsInsert: []domain.EventState{},
		NeedsUpdate: []domain.EventState{},
	}
	for _, st := range states {
		switch {
		case st.EmbeddingUpdatedAt == nil:
			plan.NeedsInsert = append(plan.NeedsInsert, st)
		case st.Event.UpdatedAt.After(*st.EmbeddingUpdatedAt):
			plan.NeedsUpdate = append(plan.NeedsUpdate, st)
		}
	}
	return plan
}
