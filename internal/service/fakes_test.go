package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/arturoeanton/storyline/internal/port"
)

type storedEmbedding struct {
	userID    string
	content   string
	metadata  []byte
	vector    []float32
	updatedAt time.Time
}

// memStore is an in-memory port.EmbeddingStore with the same conditional
// upsert and owner scoping as the Postgres one.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	activities map[int64]domain.Activity
	events     map[int64]domain.Event
	embeddings map[int64]*storedEmbedding
	ids        map[int64]int64
	matchErr   error
	saves      int
}

func newMemStore() *memStore {
	return &memStore{
		activities: map[int64]domain.Activity{},
		events:     map[int64]domain.Event{},
		embeddings: map[int64]*storedEmbedding{},
		ids:        map[int64]int64{},
	}
}

func (m *memStore) addActivity(id int64, userID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities[id] = domain.Activity{ID: id, UserID: userID, Name: name, Keywords: []string{"협업", "리더십"}}
}

func (m *memStore) addEvent(id, activityID int64, name string, updatedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[id] = domain.Event{
		ID: id, ActivityID: activityID, Name: name,
		Situation: "situation " + name, Action: "action " + name, Result: "result " + name,
		UpdatedAt: updatedAt,
	}
}

func (m *memStore) touchEvent(id int64, updatedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := m.events[id]
	ev.UpdatedAt = updatedAt
	m.events[id] = ev
}

func (m *memStore) putEmbedding(userID string, eventID int64, vector []float32, updatedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.ids[eventID] = m.nextID
	m.embeddings[eventID] = &storedEmbedding{userID: userID, content: fmt.Sprintf("Name: event %d", eventID), vector: vector, updatedAt: updatedAt}
}

func (m *memStore) embedding(eventID int64) *storedEmbedding {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embeddings[eventID]
}

func (m *memStore) ListEventStates(_ context.Context, userID string) ([]domain.EventState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var states []domain.EventState
	for _, ev := range m.events {
		a := m.activities[ev.ActivityID]
		if a.UserID != userID {
			continue
		}
		st := domain.EventState{Activity: a, Event: ev}
		if e, ok := m.embeddings[ev.ID]; ok {
			t := e.updatedAt
			st.EmbeddingUpdatedAt = &t
		}
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Event.ID < states[j].Event.ID })
	return states, nil
}

func (m *memStore) SaveEmbedding(_ context.Context, w port.EmbeddingWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++

	userID, eventID := w.Target()
	var content string
	var vector []float32
	var stamp time.Time
	var meta []byte
	switch w := w.(type) {
	case port.InsertEmbedding:
		content, vector, stamp, meta = w.Content, w.Vector, w.SourceUpdatedAt, w.Metadata
	case port.UpdateEmbedding:
		content, vector, stamp = w.Content, w.Vector, w.SourceUpdatedAt
	}

	ev, ok := m.events[eventID]
	if !ok || m.activities[ev.ActivityID].UserID != userID {
		return &port.PersistenceError{Op: w.Mode(), EventID: eventID, Err: port.ErrNoRowsAffected}
	}
	if cur, ok := m.embeddings[eventID]; ok {
		if !cur.updatedAt.Before(stamp) {
			return &port.PersistenceError{Op: w.Mode(), EventID: eventID, Err: port.ErrNoRowsAffected}
		}
		cur.content, cur.vector, cur.updatedAt = content, vector, stamp
		return nil
	}
	m.nextID++
	m.ids[eventID] = m.nextID
	m.embeddings[eventID] = &storedEmbedding{userID: userID, content: content, metadata: meta, vector: vector, updatedAt: stamp}
	return nil
}

func (m *memStore) MatchDocuments(_ context.Context, userID string, query []float32, threshold float64, count int) ([]domain.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.matchErr != nil {
		return nil, m.matchErr
	}
	var out []domain.Match
	for eventID, e := range m.embeddings {
		if e.userID != userID {
			continue
		}
		sim := cosine(query, e.vector)
		if sim < threshold {
			continue
		}
		out = append(out, domain.Match{EmbeddingID: m.ids[eventID], EventID: eventID, Content: e.content, Similarity: sim})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].EventID < out[j].EventID
	})
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// fakeGen answers Complete with "expanded: <input>" unless complete is set.
type fakeGen struct {
	mu       sync.Mutex
	calls    int
	complete func(instructions, input string) (string, error)
	chat     func(turns []port.ChatTurn) (string, error)
	lastChat []port.ChatTurn
}

func (g *fakeGen) ModelName() string { return "fake-chat" }

func (g *fakeGen) Complete(_ context.Context, instructions, input string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.complete != nil {
		return g.complete(instructions, input)
	}
	return "expanded: " + input, nil
}

func (g *fakeGen) Chat(_ context.Context, turns []port.ChatTurn) (string, error) {
	g.mu.Lock()
	g.lastChat = turns
	g.mu.Unlock()
	if g.chat != nil {
		return g.chat(turns)
	}
	return "coach reply", nil
}

func (g *fakeGen) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// fakeEmbedder returns vectors[text], or [1, 0] for unknown text.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0}, nil
}

// fakePrompts renders every template as "instructions for <id>" plus the
// current question when data carries one.
type fakePrompts struct {
	missing map[string]bool
}

func (p fakePrompts) Render(id string, data any) (string, error) {
	if p.missing[id] {
		return "", fmt.Errorf("%w: %s", port.ErrTemplateNotFound, id)
	}
	out := "instructions for " + id
	if c, ok := data.(coachPrompt); ok {
		var b strings.Builder
		b.WriteString(out)
		b.WriteString("\nquestion: " + c.CurrentQuestion)
		for _, s := range c.Suggestions {
			b.WriteString("\nevent: " + s.EventName)
		}
		out = b.String()
	}
	return out, nil
}

// fakeQuestions is a port.QuestionCache.
type fakeQuestions struct {
	mu        sync.Mutex
	questions map[int64]*domain.Question
	owners    map[int64]string
	writes    int
}

func (q *fakeQuestions) GetQuestion(_ context.Context, userID string, id int64) (*domain.Question, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	rec, ok := q.questions[id]
	if !ok || q.owners[id] != userID {
		return nil, fmt.Errorf("get question: %w", port.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (q *fakeQuestions) SetQuestionExplanation(_ context.Context, id int64, text string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.writes++
	q.questions[id].Explanation = text
	return nil
}

// memCache is a port.VectorCache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]float32
	hits int
}

func (c *memCache) Get(_ context.Context, model, text string) ([]float32, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[model+"|"+text]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, model, text string, v []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string][]float32{}
	}
	c.data[model+"|"+text] = v
	return nil
}
