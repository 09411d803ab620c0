package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 3

// openTestStore connects to TEST_DATABASE_URL, which must point at a
// database with the pgvector extension available. The schema is created
// with testDimension, so use a database that has not been migrated with
// another dimension.
func openTestStore(t *testing.T) (*PostgresStore, *VectorStore) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pg, err := NewPostgresStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Close() })

	require.NoError(t, pg.Migrate(context.Background(), testDimension))
	return pg, NewVectorStore(pg, testDimension)
}

func seed(t *testing.T, pg *PostgresStore, userID string) (*domain.Activity, *domain.Event) {
	t.Helper()
	ctx := context.Background()
	a, err := pg.CreateActivity(ctx, userID, domain.ActivityInput{
		Name:     "Robotics club",
		Keywords: []string{"협업", "리더십"},
	})
	require.NoError(t, err)
	ev, err := pg.CreateEvent(ctx, userID, a.ID, domain.EventInput{Name: "Regional final", Contribution: 40})
	require.NoError(t, err)
	return a, ev
}

func TestEmbeddingLifecycle(t *testing.T) {
	pg, vs := openTestStore(t)
	ctx := context.Background()
	alice := "alice-" + uuid.NewString()
	t.Cleanup(func() { _ = pg.DeleteProfile(context.Background(), alice) })

	a, ev := seed(t, pg, alice)

	states, err := vs.ListEventStates(ctx, alice)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Nil(t, states[0].EmbeddingUpdatedAt)
	assert.Equal(t, []string{"협업", "리더십"}, states[0].Activity.Keywords)

	meta, _ := json.Marshal(map[string]any{"activity_id": a.ID})
	require.NoError(t, vs.SaveEmbedding(ctx, port.InsertEmbedding{
		UserID:          alice,
		EventID:         ev.ID,
		Content:         "Name: Robotics club",
		Metadata:        meta,
		Vector:          []float32{1, 0, 0},
		SourceUpdatedAt: ev.UpdatedAt,
	}))

	states, err = vs.ListEventStates(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, states[0].EmbeddingUpdatedAt)
	assert.WithinDuration(t, ev.UpdatedAt, *states[0].EmbeddingUpdatedAt, time.Millisecond)

	err = vs.SaveEmbedding(ctx, port.UpdateEmbedding{
		UserID:          alice,
		EventID:         ev.ID,
		Content:         "stale",
		Vector:          []float32{0, 1, 0},
		SourceUpdatedAt: ev.UpdatedAt,
	})
	var perr *port.PersistenceError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.ErrorIs(t, err, port.ErrNoRowsAffected)

	matches, err := vs.MatchDocuments(ctx, alice, []float32{1, 0, 0}, 0, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, ev.ID, matches[0].EventID)
	assert.Equal(t, "Name: Robotics club", matches[0].Content)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
}

func TestEmbeddingsAreScopedToOwner(t *testing.T) {
	pg, vs := openTestStore(t)
	ctx := context.Background()
	alice := "alice-" + uuid.NewString()
	bob := "bob-" + uuid.NewString()
	t.Cleanup(func() {
		_ = pg.DeleteProfile(context.Background(), alice)
		_ = pg.DeleteProfile(context.Background(), bob)
	})

	_, ev := seed(t, pg, alice)
	seed(t, pg, bob)

	err := vs.SaveEmbedding(ctx, port.InsertEmbedding{
		UserID:          bob,
		EventID:         ev.ID,
		Content:         "not bob's",
		Metadata:        json.RawMessage(`{}`),
		Vector:          []float32{1, 0, 0},
		SourceUpdatedAt: ev.UpdatedAt,
	})
	assert.ErrorIs(t, err, port.ErrNoRowsAffected)

	require.NoError(t, vs.SaveEmbedding(ctx, port.InsertEmbedding{
		UserID:          alice,
		EventID:         ev.ID,
		Content:         "alice",
		Metadata:        json.RawMessage(`{}`),
		Vector:          []float32{1, 0, 0},
		SourceUpdatedAt: ev.UpdatedAt,
	}))

	matches, err := vs.MatchDocuments(ctx, bob, []float32{1, 0, 0}, -1, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = pg.GetActivityDetail(ctx, bob, ev.ActivityID)
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestDeleteCascades(t *testing.T) {
	pg, vs := openTestStore(t)
	ctx := context.Background()
	alice := "alice-" + uuid.NewString()
	t.Cleanup(func() { _ = pg.DeleteProfile(context.Background(), alice) })

	a, ev := seed(t, pg, alice)
	require.NoError(t, vs.SaveEmbedding(ctx, port.InsertEmbedding{
		UserID:          alice,
		EventID:         ev.ID,
		Content:         "alice",
		Metadata:        json.RawMessage(`{}`),
		Vector:          []float32{0, 0, 1},
		SourceUpdatedAt: ev.UpdatedAt,
	}))

	require.NoError(t, pg.DeleteActivity(ctx, alice, a.ID))

	states, err := vs.ListEventStates(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, states)

	matches, err := vs.MatchDocuments(ctx, alice, []float32{0, 0, 1}, -1, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	var n int
	require.NoError(t, pg.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_embedding WHERE event_id = $1`, ev.ID).Scan(&n))
	assert.Zero(t, n)
}

func TestEventEditMakesEmbeddingStale(t *testing.T) {
	pg, vs := openTestStore(t)
	ctx := context.Background()
	alice := "alice-" + uuid.NewString()
	t.Cleanup(func() { _ = pg.DeleteProfile(context.Background(), alice) })

	_, ev := seed(t, pg, alice)
	require.NoError(t, vs.SaveEmbedding(ctx, port.InsertEmbedding{
		UserID:          alice,
		EventID:         ev.ID,
		Content:         "v1",
		Metadata:        json.RawMessage(`{}`),
		Vector:          []float32{1, 0, 0},
		SourceUpdatedAt: ev.UpdatedAt,
	}))

	result := "won the final"
	edited, err := pg.UpdateEvent(ctx, alice, ev.ID, domain.EventPatch{Result: &result})
	require.NoError(t, err)
	assert.True(t, edited.UpdatedAt.After(ev.UpdatedAt))

	states, err := vs.ListEventStates(ctx, alice)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.True(t, states[0].Event.UpdatedAt.After(*states[0].EmbeddingUpdatedAt))
}
