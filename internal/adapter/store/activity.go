package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/arturoeanton/storyline/internal/domain"
	"github.com/lib/pq"
)

const activityColumns = `a.id, a.user_id, a.activity_name, a.category, a.position, a.keywords,
	a.description, a.favorite, a.start_date, a.end_date, a.last_visit, a.created_at, a.updated_at`

const eventColumns = `ev.id, ev.activity_id, ev.event_name, ev.situation, ev.task, ev.action,
	ev.result, ev.contribution, ev.start_date, ev.end_date, ev.created_at, ev.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(row scanner, extra ...any) (*domain.Activity, error) {
	var a domain.Activity
	dest := []any{
		&a.ID, &a.UserID, &a.Name, &a.Category, &a.Position, pq.Array(&a.Keywords),
		&a.Description, &a.Favorite, &a.StartDate, &a.EndDate, &a.LastVisit, &a.CreatedAt, &a.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if a.Keywords == nil {
		a.Keywords = []string{}
	}
	return &a, nil
}

func scanEvent(row scanner, extra ...any) (*domain.Event, error) {
	var e domain.Event
	dest := []any{
		&e.ID, &e.ActivityID, &e.Name, &e.Situation, &e.Task, &e.Action,
		&e.Result, &e.Contribution, &e.StartDate, &e.EndDate, &e.CreatedAt, &e.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &e, nil
}

func keywords(k []string) any {
	if k == nil {
		k = []string{}
	}
	return pq.Array(k)
}

// --- Activities ---

// ListActivities returns the user's activities, newest first, each with its
// event count and most recent events.
func (s *PostgresStore) ListActivities(ctx context.Context, userID string) ([]domain.ActivitySummary, error) {
	query := `SELECT ` + activityColumns + `,
	                 (SELECT COUNT(*) FROM event c WHERE c.activity_id = a.id) AS event_count
	          FROM activity a
	          WHERE a.user_id = $1
	          ORDER BY a.favorite DESC, a.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	summaries := []domain.ActivitySummary{}
	index := map[int64]int{}
	for rows.Next() {
		var count int
		a, err := scanActivity(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		index[a.ID] = len(summaries)
		summaries = append(summaries, domain.ActivitySummary{Activity: *a, EventCount: count, RecentEvents: []domain.Event{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	if len(summaries) == 0 {
		return summaries, nil
	}

	recent := `SELECT ` + eventColumns + `
	           FROM (SELECT e.*, ROW_NUMBER() OVER (PARTITION BY e.activity_id ORDER BY e.created_at DESC, e.id DESC) AS rn
	                 FROM event e JOIN activity a ON a.id = e.activity_id
	                 WHERE a.user_id = $1) ev
	           WHERE ev.rn <= $2
	           ORDER BY ev.activity_id, ev.rn`

	evRows, err := s.db.QueryContext(ctx, recent, userID, domain.RecentEventsPerActivity)
	if err != nil {
		return nil, fmt.Errorf("list recent events: %w", err)
	}
	defer evRows.Close()

	for evRows.Next() {
		e, err := scanEvent(evRows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if i, ok := index[e.ActivityID]; ok {
			summaries[i].RecentEvents = append(summaries[i].RecentEvents, *e)
		}
	}
	return summaries, evRows.Err()
}

// CreateActivity inserts an activity owned by userID.
func (s *PostgresStore) CreateActivity(ctx context.Context, userID string, in domain.ActivityInput) (*domain.Activity, error) {
	var created *domain.Activity
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureProfile(ctx, tx, userID); err != nil {
			return err
		}
		query := `INSERT INTO activity AS a (user_id, activity_name, category, position, keywords, description, favorite, start_date, end_date)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		          RETURNING ` + activityColumns
		a, err := scanActivity(tx.QueryRowContext(ctx, query,
			userID, in.Name, in.Category, in.Position, keywords(in.Keywords),
			in.Description, in.Favorite, in.StartDate, in.EndDate,
		))
		if err != nil {
			return fmt.Errorf("create activity: %w", err)
		}
		created = a
		return nil
	})
	return created, err
}

// GetActivityDetail loads an activity with its events through the
// get_activity_detail procedure, which also stamps last_visit.
func (s *PostgresStore) GetActivityDetail(ctx context.Context, userID string, activityID int64) (*domain.ActivityDetail, error) {
	var raw []byte
	if err := s.db.QueryRowContext(ctx, `SELECT get_activity_detail($1, $2)`, activityID, userID).Scan(&raw); err != nil {
		return nil, notFound("get activity detail", err)
	}
	if raw == nil {
		return nil, notFound("get activity detail", sql.ErrNoRows)
	}

	var d domain.ActivityDetail
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode activity detail: %w", err)
	}
	if d.Keywords == nil {
		d.Keywords = []string{}
	}
	if d.Events == nil {
		d.Events = []domain.Event{}
	}
	return &d, nil
}

// UpdateActivity replaces the activity's fields and bumps updated_at of every
// child event so their embeddings become stale.
func (s *PostgresStore) UpdateActivity(ctx context.Context, userID string, activityID int64, in domain.ActivityInput) (*domain.Activity, error) {
	var updated *domain.Activity
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE activity a SET
		              activity_name = $3, category = $4, position = $5, keywords = $6,
		              description = $7, favorite = $8, start_date = $9, end_date = $10,
		              updated_at = NOW()
		          WHERE a.id = $1 AND a.user_id = $2
		          RETURNING ` + activityColumns
		a, err := scanActivity(tx.QueryRowContext(ctx, query,
			activityID, userID, in.Name, in.Category, in.Position, keywords(in.Keywords),
			in.Description, in.Favorite, in.StartDate, in.EndDate,
		))
		if err != nil {
			return notFound("update activity", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE event SET updated_at = NOW() WHERE activity_id = $1`, activityID,
		); err != nil {
			return fmt.Errorf("touch events: %w", err)
		}
		updated = a
		return nil
	})
	return updated, err
}

// DeleteActivity removes the activity. Events and embeddings cascade.
func (s *PostgresStore) DeleteActivity(ctx context.Context, userID string, activityID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activity WHERE id = $1 AND user_id = $2`, activityID, userID)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return expectOne("delete activity", res)
}

// --- Events ---

// ListEvents returns the events of an owned activity, newest first.
func (s *PostgresStore) ListEvents(ctx context.Context, userID string, activityID int64) ([]domain.Event, error) {
	var owned bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM activity WHERE id = $1 AND user_id = $2)`, activityID, userID,
	).Scan(&owned); err != nil {
		return nil, fmt.Errorf("check activity: %w", err)
	}
	if !owned {
		return nil, notFound("list events", sql.ErrNoRows)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM event ev WHERE ev.activity_id = $1 ORDER BY ev.created_at DESC, ev.id DESC`,
		activityID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// CreateEvent inserts an event under an owned activity.
func (s *PostgresStore) CreateEvent(ctx context.Context, userID string, activityID int64, in domain.EventInput) (*domain.Event, error) {
	query := `INSERT INTO event AS ev (activity_id, event_name, situation, task, action, result, contribution, start_date, end_date)
	          SELECT a.id, $3, $4, $5, $6, $7, $8, $9, $10
	          FROM activity a WHERE a.id = $1 AND a.user_id = $2
	          RETURNING ` + eventColumns
	e, err := scanEvent(s.db.QueryRowContext(ctx, query,
		activityID, userID, in.Name, in.Situation, in.Task, in.Action, in.Result,
		in.Contribution, in.StartDate, in.EndDate,
	))
	if err != nil {
		return nil, notFound("create event", err)
	}
	return e, nil
}

// UpdateEvent applies a partial update and bumps updated_at.
func (s *PostgresStore) UpdateEvent(ctx context.Context, userID string, eventID int64, p domain.EventPatch) (*domain.Event, error) {
	query := `UPDATE event ev SET
	              event_name   = COALESCE($3, ev.event_name),
	              situation    = COALESCE($4, ev.situation),
	              task         = COALESCE($5, ev.task),
	              action       = COALESCE($6, ev.action),
	              result       = COALESCE($7, ev.result),
	              contribution = COALESCE($8, ev.contribution),
	              start_date   = COALESCE($9::date, ev.start_date),
	              end_date     = COALESCE($10::date, ev.end_date),
	              updated_at   = NOW()
	          FROM activity a
	          WHERE ev.id = $1 AND a.id = ev.activity_id AND a.user_id = $2
	          RETURNING ` + eventColumns
	e, err := scanEvent(s.db.QueryRowContext(ctx, query,
		eventID, userID, p.Name, p.Situation, p.Task, p.Action, p.Result,
		p.Contribution, p.StartDate, p.EndDate,
	))
	if err != nil {
		return nil, notFound("update event", err)
	}
	return e, nil
}

// DeleteEvent removes an owned event. Its embedding cascades.
func (s *PostgresStore) DeleteEvent(ctx context.Context, userID string, eventID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM event ev USING activity a
		 WHERE ev.id = $1 AND a.id = ev.activity_id AND a.user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return expectOne("delete event", res)
}
