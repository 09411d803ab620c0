package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arturoeanton/storyline/internal/domain"
)

const applicationColumns = `ap.id, ap.user_id, ap.category, ap.position, ap.notice, ap.created_at, ap.updated_at`

const questionColumns = `q.id, q.application_id, q.question, q.max_length, q.question_explanation, q.created_at, q.updated_at`

func scanApplication(row scanner) (*domain.Application, error) {
	var a domain.Application
	if err := row.Scan(&a.ID, &a.UserID, &a.Category, &a.Position, &a.Notice, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanQuestion(row scanner) (*domain.Question, error) {
	var q domain.Question
	if err := row.Scan(&q.ID, &q.ApplicationID, &q.Text, &q.MaxLength, &q.Explanation, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

// --- Applications ---

// ListApplications returns the user's applications, newest first.
func (s *PostgresStore) ListApplications(ctx context.Context, userID string) ([]domain.Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM application ap WHERE ap.user_id = $1 ORDER BY ap.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// CreateApplication inserts an application with its questions.
func (s *PostgresStore) CreateApplication(ctx context.Context, userID string, in domain.ApplicationInput) (*domain.Application, error) {
	var created *domain.Application
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureProfile(ctx, tx, userID); err != nil {
			return err
		}
		a, err := scanApplication(tx.QueryRowContext(ctx,
			`INSERT INTO application AS ap (user_id, category, position, notice)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+applicationColumns,
			userID, in.Category, in.Position, in.Notice))
		if err != nil {
			return fmt.Errorf("create application: %w", err)
		}

		a.Questions = make([]domain.Question, 0, len(in.Questions))
		for _, qi := range in.Questions {
			q, err := insertQuestion(ctx, tx, a.ID, qi)
			if err != nil {
				return err
			}
			a.Questions = append(a.Questions, *q)
		}
		created = a
		return nil
	})
	return created, err
}

func insertQuestion(ctx context.Context, tx *sql.Tx, applicationID int64, in domain.QuestionInput) (*domain.Question, error) {
	q, err := scanQuestion(tx.QueryRowContext(ctx,
		`INSERT INTO question_list AS q (application_id, question, max_length)
		 VALUES ($1, $2, $3)
		 RETURNING `+questionColumns,
		applicationID, in.Text, in.MaxLength))
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// GetApplication returns an owned application with its questions.
func (s *PostgresStore) GetApplication(ctx context.Context, userID string, applicationID int64) (*domain.Application, error) {
	a, err := scanApplication(s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM application ap WHERE ap.id = $1 AND ap.user_id = $2`,
		applicationID, userID))
	if err != nil {
		return nil, notFound("get application", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM question_list q WHERE q.application_id = $1 ORDER BY q.id`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	a.Questions = []domain.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		a.Questions = append(a.Questions, *q)
	}
	return a, rows.Err()
}

// UpdateApplication replaces the application's own fields. Questions are
// edited through their own endpoints.
func (s *PostgresStore) UpdateApplication(ctx context.Context, userID string, applicationID int64, in domain.ApplicationInput) (*domain.Application, error) {
	a, err := scanApplication(s.db.QueryRowContext(ctx,
		`UPDATE application ap SET category = $3, position = $4, notice = $5, updated_at = NOW()
		 WHERE ap.id = $1 AND ap.user_id = $2
		 RETURNING `+applicationColumns,
		applicationID, userID, in.Category, in.Position, in.Notice))
	if err != nil {
		return nil, notFound("update application", err)
	}
	return a, nil
}

// DeleteApplication removes the application with its questions and suggestions.
func (s *PostgresStore) DeleteApplication(ctx context.Context, userID string, applicationID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM application WHERE id = $1 AND user_id = $2`, applicationID, userID)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return expectOne("delete application", res)
}

// --- Questions ---

// AddQuestion appends a question to an owned application.
func (s *PostgresStore) AddQuestion(ctx context.Context, userID string, applicationID int64, in domain.QuestionInput) (*domain.Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`INSERT INTO question_list AS q (application_id, question, max_length)
		 SELECT ap.id, $3, $4 FROM application ap WHERE ap.id = $1 AND ap.user_id = $2
		 RETURNING `+questionColumns,
		applicationID, userID, in.Text, in.MaxLength))
	if err != nil {
		return nil, notFound("add question", err)
	}
	return q, nil
}

// GetQuestion returns a question whose application the user owns.
func (s *PostgresStore) GetQuestion(ctx context.Context, userID string, questionID int64) (*domain.Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+`
		 FROM question_list q JOIN application ap ON ap.id = q.application_id
		 WHERE q.id = $1 AND ap.user_id = $2`,
		questionID, userID))
	if err != nil {
		return nil, notFound("get question", err)
	}
	return q, nil
}

// UpdateQuestion edits the question text and limit. Changing the text clears
// the cached explanation.
func (s *PostgresStore) UpdateQuestion(ctx context.Context, userID string, questionID int64, in domain.QuestionInput) (*domain.Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`UPDATE question_list q SET
		     question_explanation = CASE WHEN q.question = $3 THEN q.question_explanation ELSE '' END,
		     question = $3, max_length = $4, updated_at = NOW()
		 FROM application ap
		 WHERE q.id = $1 AND ap.id = q.application_id AND ap.user_id = $2
		 RETURNING `+questionColumns,
		questionID, userID, in.Text, in.MaxLength))
	if err != nil {
		return nil, notFound("update question", err)
	}
	return q, nil
}

// DeleteQuestion removes an owned question.
func (s *PostgresStore) DeleteQuestion(ctx context.Context, userID string, questionID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM question_list q USING application ap
		 WHERE q.id = $1 AND ap.id = q.application_id AND ap.user_id = $2`, questionID, userID)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return expectOne("delete question", res)
}

// SetQuestionExplanation caches the expanded paragraph of a question.
func (s *PostgresStore) SetQuestionExplanation(ctx context.Context, questionID int64, explanation string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE question_list SET question_explanation = $2 WHERE id = $1`, questionID, explanation)
	if err != nil {
		return fmt.Errorf("set question explanation: %w", err)
	}
	return nil
}

// --- Suggestions ---

// ListSuggestions returns the events kept for a question, oldest first.
// limit <= 0 returns all of them.
func (s *PostgresStore) ListSuggestions(ctx context.Context, userID string, questionID int64, limit int) ([]domain.Suggestion, error) {
	query := `SELECT sg.id, sg.question_id, sg.event_id, sg.activity, sg.created_at, ` + eventColumns + `
	          FROM event_suggestion sg
	          JOIN question_list q ON q.id = sg.question_id
	          JOIN application ap ON ap.id = q.application_id
	          JOIN event ev ON ev.id = sg.event_id
	          WHERE sg.question_id = $1 AND ap.user_id = $2
	          ORDER BY sg.created_at, sg.id`
	args := []any{questionID, userID}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	out := []domain.Suggestion{}
	for rows.Next() {
		var sg domain.Suggestion
		ev, err := scanSuggestionRow(rows, &sg)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		sg.Event = ev
		out = append(out, sg)
	}
	return out, rows.Err()
}

func scanSuggestionRow(row scanner, sg *domain.Suggestion) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(&sg.ID, &sg.QuestionID, &sg.EventID, &sg.Activity, &sg.CreatedAt,
		&e.ID, &e.ActivityID, &e.Name, &e.Situation, &e.Task, &e.Action,
		&e.Result, &e.Contribution, &e.StartDate, &e.EndDate, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateSuggestion keeps an owned event for an owned question. The activity
// name is denormalized from the event's activity.
func (s *PostgresStore) CreateSuggestion(ctx context.Context, userID string, questionID, eventID int64) (*domain.Suggestion, error) {
	var sg domain.Suggestion
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO event_suggestion (question_id, event_id, activity)
		 SELECT q.id, ev.id, a.activity_name
		 FROM question_list q
		 JOIN application ap ON ap.id = q.application_id AND ap.user_id = $3
		 CROSS JOIN event ev
		 JOIN activity a ON a.id = ev.activity_id AND a.user_id = $3
		 WHERE q.id = $1 AND ev.id = $2
		 ON CONFLICT (question_id, event_id) DO UPDATE SET activity = EXCLUDED.activity
		 RETURNING id, question_id, event_id, activity, created_at`,
		questionID, eventID, userID,
	).Scan(&sg.ID, &sg.QuestionID, &sg.EventID, &sg.Activity, &sg.CreatedAt)
	if err != nil {
		return nil, notFound("create suggestion", err)
	}
	return &sg, nil
}

// DeleteSuggestion removes a suggestion on an owned question.
func (s *PostgresStore) DeleteSuggestion(ctx context.Context, userID string, suggestionID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM event_suggestion sg USING question_list q, application ap
		 WHERE sg.id = $1 AND q.id = sg.question_id AND ap.id = q.application_id AND ap.user_id = $2`,
		suggestionID, userID)
	if err != nil {
		return fmt.Errorf("delete suggestion: %w", err)
	}
	return expectOne("delete suggestion", res)
}
