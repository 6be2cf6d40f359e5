package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the chat CLI.
//
// Fields:
//   - ServerURL: base URL of the backend HTTP API.
//   - SessionFile: path of the file holding the saved login session.
//   - HistoryLimit: how many messages the history command fetches.
//   - RequestTimeout: deadline for non-streaming API calls.
type Config struct {
	ServerURL      string
	SessionFile    string
	HistoryLimit   int
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults. The session file lives
// under the user's home directory; if that cannot be resolved, the current
// directory is used instead.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.HistoryLimit = 50
	c.RequestTimeout = 30 * time.Second

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	c.SessionFile = filepath.Join(home, ".gemini-chat", "session.json")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
