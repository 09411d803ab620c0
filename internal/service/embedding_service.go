package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
	"github.com/google/uuid"
)

// EmbeddingService keeps event embeddings in sync with their source rows.
type EmbeddingService struct {
	tracker  *Tracker
	expander *Expander
	embedder port.Embedder
	store    port.EmbeddingStore
}

// NewEmbeddingService creates the embedding generator.
func NewEmbeddingService(tracker *Tracker, expander *Expander, embedder port.Embedder, store port.EmbeddingStore) *EmbeddingService {
	return &EmbeddingService{tracker: tracker, expander: expander, embedder: embedder, store: store}
}

// Status reports how many of the user's events are fresh or pending.
func (s *EmbeddingService) Status(ctx context.Context, userID string) (*domain.EmbeddingStatus, error) {
	return s.tracker.Status(ctx, userID)
}

// Sync writes embeddings for every event the tracker flags. A failing event
// is logged and counted and does not stop the others.
func (s *EmbeddingService) Sync(ctx context.Context, userID string) (*domain.SyncResult, error) {
	if userID == "" {
		return nil, port.Invalid("user_id", "is required")
	}

	result := &domain.SyncResult{RunID: uuid.NewString()}
	log := slog.With("run_id", result.RunID, "user_id", userID)

	plan, err := s.tracker.Plan(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("plan sync: %w", err)
	}
	if plan.Empty() {
		log.Info("embedding sync: nothing to do")
		result.NothingToDo = true
		return result, nil
	}

	log.Info("embedding sync started", "inserts", len(plan.NeedsInsert), "updates", len(plan.NeedsUpdate))

	for _, job := range groupByActivity(plan) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.Generate(ctx, job.state, job.insert); err != nil {
			result.Failed++
			log.Error("embedding failed",
				"activity_id", job.state.Activity.ID,
				"event_id", job.state.Event.ID,
				"insert", job.insert,
				"error", err,
			)
			continue
		}
		result.Generated++
	}

	log.Info("embedding sync finished", "generated", result.Generated, "failed", result.Failed)
	return result, nil
}

// Generate runs materialize, embed and persist for one event.
func (s *EmbeddingService) Generate(ctx context.Context, st domain.EventState, insert bool) error {
	paragraph, err := s.expander.Paragraph(ctx, st.Activity, st.Event)
	if err != nil {
		return err
	}
	vector, err := s.embedder.Embed(ctx, paragraph)
	if err != nil {
		return fmt.Errorf("embed event %d: %w", st.Event.ID, err)
	}
	return s.store.SaveEmbedding(ctx, buildWrite(st, paragraph, vector, insert))
}

func buildWrite(st domain.EventState, paragraph string, vector []float32, insert bool) port.EmbeddingWrite {
	content := StoredContent(st.Activity, st.Event, paragraph)
	if !insert {
		return port.UpdateEmbedding{
			UserID:          st.Activity.UserID,
			EventID:         st.Event.ID,
			Content:         content,
			Vector:          vector,
			SourceUpdatedAt: st.Event.UpdatedAt,
		}
	}
	meta, _ := json.Marshal(map[string]any{
		"activity_id":   st.Activity.ID,
		"activity_name": st.Activity.Name,
		"event_name":    st.Event.Name,
	})
	return port.InsertEmbedding{
		UserID:          st.Activity.UserID,
		EventID:         st.Event.ID,
		Content:         content,
		Metadata:        meta,
		Vector:          vector,
		SourceUpdatedAt: st.Event.UpdatedAt,
	}
}

type syncJob struct {
	state  domain.EventState
	insert bool
}

// groupByActivity orders the plan by activity then event so one activity's
// events are processed together.
func groupByActivity(plan domain.SyncPlan) []syncJob {
	jobs := make([]syncJob, 0, len(plan.NeedsInsert)+len(plan.NeedsUpdate))
	for _, st := range plan.NeedsInsert {
		jobs = append(jobs, syncJob{state: st, insert: true})
	}
	for _, st := range plan.NeedsUpdate {
		jobs = append(jobs, syncJob{state: st})
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		a, b := jobs[i].state, jobs[j].state
		if a.Activity.ID != b.Activity.ID {
			return a.Activity.ID < b.Activity.ID
		}
		return a.Event.ID < b.Event.ID
	})
	return jobs
}
