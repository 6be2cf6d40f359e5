// Package session persists the CLI's login state between runs: one token,
// the user it belongs to, and its expiry, stored as a small JSON file.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/hassankhurram/chatbot-gemini/internal/client/api"
)

// Session is the saved login state.
type Session struct {
	Token     string    `json:"token"`
	User      api.User  `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the token's lifetime has passed.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// FileStore keeps at most one session in a file. A missing or unreadable
// file is treated as "not logged in", never as an error: the worst outcome
// of a corrupt session file should be having to log in again.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get returns the saved session, or ok=false if there is none.
func (s *FileStore) Get() (*Session, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, false
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, false
	}
	if sess.Token == "" {
		return nil, false
	}
	return &sess, true
}

// Set saves the session, creating the parent directory if needed. The file
// holds a bearer token, so it is written owner-only.
func (s *FileStore) Set(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes the saved session. Clearing an absent session is not an
// error.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
