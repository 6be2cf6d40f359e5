// Package cli implements the interactive terminal client: a small REPL over
// the backend's HTTP API with a file-backed login session.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/hassankhurram/chatbot-gemini/internal/client/api"
	"github.com/hassankhurram/chatbot-gemini/internal/client/config"
	"github.com/hassankhurram/chatbot-gemini/internal/client/session"
)

// SessionStore is the persistence surface the CLI needs for login state.
// session.FileStore satisfies it; tests can provide an in-memory stub.
type SessionStore interface {
	Get() (*session.Session, bool)
	Set(sess *session.Session) error
	Clear() error
}

type App struct {
	config  *config.Config
	client  api.Client
	store   SessionStore
	session *session.Session
	// turns is the conversation relayed to the engine, rebuilt per login.
	turns []api.TurnMessage
	// pending holds uploaded attachments waiting for the next message.
	pending []api.Attachment
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	client := api.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	store := session.NewFileStore(c.SessionFile)

	app := &App{
		config: c,
		client: client,
		store:  store,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	// Restore a previous login if one is saved and still valid.
	if sess, ok := store.Get(); ok && !sess.Expired() {
		app.session = sess
	}

	return app, nil
}

func (a *App) isLoggedIn() bool {
	return a.session != nil && !a.session.Expired()
}

// dropSession forgets the login both in memory and on disk. Used on logout
// and when the server rejects the saved token.
func (a *App) dropSession() {
	a.session = nil
	a.turns = nil
	a.pending = nil
	_ = a.store.Clear()
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}
