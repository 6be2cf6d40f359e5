package repomanager

import (
	"context"
	"database/sql"

	"github.com/hassankhurram/chatbot-gemini/internal/dbx"
	"github.com/hassankhurram/chatbot-gemini/internal/server/repositories/messages"
	"github.com/hassankhurram/chatbot-gemini/internal/server/repositories/sessions"
	"github.com/hassankhurram/chatbot-gemini/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, so a
// service can run several repositories inside one transaction, and exposes a
// schema migration hook.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Messages(db dbx.DBTX) messages.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
