// Package messages provides the PostgreSQL-backed repository for chat
// messages. Messages are append-only: they are inserted once per turn and
// never updated or deleted.
package messages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hassankhurram/chatbot-gemini/internal/dbx"
	"github.com/hassankhurram/chatbot-gemini/internal/server/models"
)

// PostgresRepository implements message storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// nowFn is a seam for tests that assert on the stamped timestamp.
var nowFn = time.Now

// Insert appends a message record. The ID is generated here and CreatedAt is
// always stamped with the current server time; any caller-supplied values
// for either field are discarded.
func (r *PostgresRepository) Insert(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error) {
	message.ID = uuid.NewString()
	message.CreatedAt = nowFn().UTC()

	var attachments []byte
	if len(message.Attachments) > 0 {
		var err error
		attachments, err = json.Marshal(message.Attachments)
		if err != nil {
			return nil, fmt.Errorf("attachment encoding error: %w", err)
		}
	}

	query := `
		INSERT INTO messages (id, user_id, username, content, role, attachments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		message.ID, message.UserID, message.Username, message.Content,
		message.Role, attachments, message.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return message, nil
}

// ListRecent returns up to limit most recent messages for userID, newest
// first. An empty result is not an error.
func (r *PostgresRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, user_id, username, content, role, attachments, created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.ChatMessage, 0)
	for rows.Next() {
		message := &models.ChatMessage{}
		var attachments []byte
		err := rows.Scan(&message.ID, &message.UserID, &message.Username,
			&message.Content, &message.Role, &attachments, &message.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if len(attachments) > 0 {
			if err := json.Unmarshal(attachments, &message.Attachments); err != nil {
				return nil, fmt.Errorf("attachment decoding error: %w", err)
			}
		}
		result = append(result, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
