package store

import (
	"context"
	"fmt"

	"github.com/arturoeanton/storyline/internal/domain"
)

const sessionColumns = `cs.id, cs.user_id, cs.application_id, cs.question_id, cs.title, cs.created_at, cs.updated_at,
	(SELECT COUNT(*) FROM chat_message m WHERE m.session_id = cs.id)`

func scanSession(row scanner) (*domain.ChatSession, error) {
	var cs domain.ChatSession
	err := row.Scan(&cs.ID, &cs.UserID, &cs.ApplicationID, &cs.QuestionID, &cs.Title,
		&cs.CreatedAt, &cs.UpdatedAt, &cs.MessageCount)
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

// ListSessions returns the user's sessions, most recently active first.
func (s *PostgresStore) ListSessions(ctx context.Context, userID string) ([]domain.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM chat_session cs WHERE cs.user_id = $1 ORDER BY cs.updated_at DESC, cs.id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.ChatSession{}
	for rows.Next() {
		cs, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *cs)
	}
	return sessions, rows.Err()
}

// CountSessions returns how many sessions the user has.
func (s *PostgresStore) CountSessions(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_session WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// CreateSession opens a session on a question the user owns.
func (s *PostgresStore) CreateSession(ctx context.Context, in *domain.ChatSession) (*domain.ChatSession, error) {
	cs, err := scanSession(s.db.QueryRowContext(ctx,
		`INSERT INTO chat_session AS cs (user_id, application_id, question_id, title)
		 SELECT ap.user_id, ap.id, q.id, $4
		 FROM question_list q JOIN application ap ON ap.id = q.application_id
		 WHERE ap.id = $2 AND q.id = $3 AND ap.user_id = $1
		 RETURNING `+sessionColumns,
		in.UserID, in.ApplicationID, in.QuestionID, in.Title))
	if err != nil {
		return nil, notFound("create session", err)
	}
	return cs, nil
}

// GetSession returns an owned session.
func (s *PostgresStore) GetSession(ctx context.Context, userID string, sessionID int64) (*domain.ChatSession, error) {
	cs, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM chat_session cs WHERE cs.id = $1 AND cs.user_id = $2`,
		sessionID, userID))
	if err != nil {
		return nil, notFound("get session", err)
	}
	return cs, nil
}

// RenameSession changes the session title.
func (s *PostgresStore) RenameSession(ctx context.Context, userID string, sessionID int64, title string) (*domain.ChatSession, error) {
	cs, err := scanSession(s.db.QueryRowContext(ctx,
		`UPDATE chat_session cs SET title = $3, updated_at = NOW()
		 WHERE cs.id = $1 AND cs.user_id = $2
		 RETURNING `+sessionColumns,
		sessionID, userID, title))
	if err != nil {
		return nil, notFound("rename session", err)
	}
	return cs, nil
}

// DeleteSession removes the session and its messages.
func (s *PostgresStore) DeleteSession(ctx context.Context, userID string, sessionID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_session WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return expectOne("delete session", res)
}

// ListMessages returns the session's messages oldest first. With limit > 0
// only the most recent limit messages are returned.
func (s *PostgresStore) ListMessages(ctx context.Context, sessionID int64, limit int) ([]domain.ChatMessage, error) {
	query := `SELECT id, session_id, role, content, created_at FROM chat_message
	          WHERE session_id = $1 ORDER BY created_at, id`
	args := []any{sessionID}
	if limit > 0 {
		query = `SELECT * FROM (
		             SELECT id, session_id, role, content, created_at FROM chat_message
		             WHERE session_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2
		         ) recent ORDER BY created_at, id`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := []domain.ChatMessage{}
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// AddMessage appends a message and bumps the session's updated_at.
func (s *PostgresStore) AddMessage(ctx context.Context, sessionID int64, role, content string) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	err := s.db.QueryRowContext(ctx,
		`WITH touched AS (
		     UPDATE chat_session SET updated_at = NOW() WHERE id = $1 RETURNING id
		 )
		 INSERT INTO chat_message (session_id, role, content)
		 SELECT id, $2, $3 FROM touched
		 RETURNING id, session_id, role, content, created_at`,
		sessionID, role, content,
	).Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, notFound("add message", err)
	}
	return &m, nil
}
