package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// VectorStore handles pgvector-specific operations for event embeddings.
type VectorStore struct {
	store     *PostgresStore
	dimension int
}

// NewVectorStore creates a vector store backed by the given Postgres store.
func NewVectorStore(store *PostgresStore, dimension int) *VectorStore {
	return &VectorStore{store: store, dimension: dimension}
}

// ListEventStates returns every event the user owns, its activity, and the
// updated_at of its embedding when there is one.
func (v *VectorStore) ListEventStates(ctx context.Context, userID string) ([]domain.EventState, error) {
	query := `SELECT ` + activityColumns + `, ` + eventColumns + `, emb.updated_at
	          FROM event ev
	          JOIN activity a ON a.id = ev.activity_id
	          LEFT JOIN activity_embedding emb ON emb.event_id = ev.id
	          WHERE a.user_id = $1
	          ORDER BY a.id, ev.id`

	rows, err := v.store.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list event states: %w", err)
	}
	defer rows.Close()

	states := []domain.EventState{}
	for rows.Next() {
		var (
			st  domain.EventState
			emb sql.NullTime
			a   = &st.Activity
			e   = &st.Event
		)
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Name, &a.Category, &a.Position, pq.Array(&a.Keywords),
			&a.Description, &a.Favorite, &a.StartDate, &a.EndDate, &a.LastVisit, &a.CreatedAt, &a.UpdatedAt,
			&e.ID, &e.ActivityID, &e.Name, &e.Situation, &e.Task, &e.Action,
			&e.Result, &e.Contribution, &e.StartDate, &e.EndDate, &e.CreatedAt, &e.UpdatedAt,
			&emb,
		); err != nil {
			return nil, fmt.Errorf("scan event state: %w", err)
		}
		if a.Keywords == nil {
			a.Keywords = []string{}
		}
		if emb.Valid {
			t := emb.Time
			st.EmbeddingUpdatedAt = &t
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

// Both writes go through the same conditional upsert on event_id, so two
// concurrent syncs of one event leave exactly one row with the newest stamp.
const upsertEmbedding = `INSERT INTO activity_embedding AS emb (user_id, event_id, metadata, content, embedding, updated_at)
	SELECT $1, ev.id, $3::jsonb, $4, $5, $6
	FROM event ev JOIN activity a ON a.id = ev.activity_id
	WHERE ev.id = $2 AND a.user_id = $1
	ON CONFLICT (event_id) DO UPDATE SET
	    content = EXCLUDED.content,
	    embedding = EXCLUDED.embedding,
	    updated_at = EXCLUDED.updated_at%s
	WHERE emb.updated_at < EXCLUDED.updated_at`

// SaveEmbedding persists an insert or update. It reports a
// *port.PersistenceError when no row was written, which covers an event that
// vanished or an embedding that is already as new as the source.
func (v *VectorStore) SaveEmbedding(ctx context.Context, w port.EmbeddingWrite) error {
	var (
		query    string
		args     []any
		vector   []float32
		metadata = []byte("{}")
	)

	switch w := w.(type) {
	case port.InsertEmbedding:
		if len(w.Metadata) > 0 {
			metadata = w.Metadata
		}
		vector = w.Vector
		query = fmt.Sprintf(upsertEmbedding, ",\n\t    metadata = EXCLUDED.metadata")
		args = []any{w.UserID, w.EventID, string(metadata), w.Content, pgvector.NewVector(w.Vector), w.SourceUpdatedAt}
	case port.UpdateEmbedding:
		vector = w.Vector
		query = fmt.Sprintf(upsertEmbedding, "")
		args = []any{w.UserID, w.EventID, string(metadata), w.Content, pgvector.NewVector(w.Vector), w.SourceUpdatedAt}
	default:
		return fmt.Errorf("save embedding: unsupported write %T", w)
	}

	_, eventID := w.Target()
	if v.dimension > 0 && len(vector) != v.dimension {
		return &port.PersistenceError{
			Op:      w.Mode(),
			EventID: eventID,
			Err:     fmt.Errorf("vector has %d dimensions, want %d", len(vector), v.dimension),
		}
	}

	res, err := v.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return &port.PersistenceError{Op: w.Mode(), EventID: eventID, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &port.PersistenceError{Op: w.Mode(), EventID: eventID, Err: err}
	}
	if n == 0 {
		return &port.PersistenceError{Op: w.Mode(), EventID: eventID, Err: port.ErrNoRowsAffected}
	}
	return nil
}

// MatchDocuments runs match_documents for the user's embeddings.
func (v *VectorStore) MatchDocuments(ctx context.Context, userID string, query []float32, threshold float64, count int) ([]domain.Match, error) {
	rows, err := v.store.db.QueryContext(ctx,
		`SELECT id, event_id, content, similarity FROM match_documents($1, $2, $3, $4)`,
		pgvector.NewVector(query), threshold, count, userID)
	if err != nil {
		return nil, fmt.Errorf("match documents: %w", err)
	}
	defer rows.Close()

	matches := []domain.Match{}
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.EmbeddingID, &m.EventID, &m.Content, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// GetQuestion implements port.QuestionCache.
func (v *VectorStore) GetQuestion(ctx context.Context, userID string, questionID int64) (*domain.Question, error) {
	return v.store.GetQuestion(ctx, userID, questionID)
}

// SetQuestionExplanation implements port.QuestionCache.
func (v *VectorStore) SetQuestionExplanation(ctx context.Context, questionID int64, explanation string) error {
	return v.store.SetQuestionExplanation(ctx, questionID, explanation)
}
