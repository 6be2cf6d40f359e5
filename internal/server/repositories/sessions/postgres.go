// Package sessions provides the PostgreSQL-backed repository for chat
// session aggregates (title, message count, activity timestamps).
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hassankhurram/chatbot-gemini/internal/common"
	"github.com/hassankhurram/chatbot-gemini/internal/dbx"
	"github.com/hassankhurram/chatbot-gemini/internal/server/models"
)

// PostgresRepository implements session storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new session for a user with a message count of one.
func (r *PostgresRepository) Create(ctx context.Context, session *models.ChatSession) (*models.ChatSession, error) {
	query := `
		INSERT INTO sessions (user_id, title, message_count)
		VALUES ($1, $2, 1)
		RETURNING id, message_count, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, session.UserID, session.Title).
		Scan(&session.ID, &session.MessageCount, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return session, nil
}

// GetLatest returns the most recently updated session for userID, or
// common.ErrorNotFound when the user has none.
func (r *PostgresRepository) GetLatest(ctx context.Context, userID string) (*models.ChatSession, error) {
	query := `
		SELECT id, user_id, title, message_count, created_at, updated_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`
	session := &models.ChatSession{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&session.ID, &session.UserID, &session.Title,
			&session.MessageCount, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return session, nil
}

// Touch increments the session's message count and refreshes its
// updated_at timestamp. The count only ever grows.
func (r *PostgresRepository) Touch(ctx context.Context, id string) error {
	query := `
		UPDATE sessions
		SET message_count = message_count + 1, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
