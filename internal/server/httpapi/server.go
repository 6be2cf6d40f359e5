// Package httpapi exposes the chat server over HTTP: login, history,
// the streaming chat relay, and attachment presigning.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/hassankhurram/chatbot-gemini/internal/logging"
	"github.com/hassankhurram/chatbot-gemini/internal/server/models"
	"github.com/hassankhurram/chatbot-gemini/internal/server/services"
)

// AuthService is the authentication surface the HTTP layer depends on.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}

// ChatService is the conversation surface the HTTP layer depends on.
type ChatService interface {
	History(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error)
	Relay(ctx context.Context, user *models.User, turns []services.TurnMessage, onChunk func(chunk string) error) error
}

// AttachmentService issues presigned upload and download URLs.
type AttachmentService interface {
	GetPresignedPutUrl(ctx context.Context) (string, string, error)
	GetPresignedGetUrl(ctx context.Context, key string) (string, error)
}

type HTTPServer struct {
	address        string
	auth           AuthService
	chat           ChatService
	attachments    AttachmentService
	logger         logging.Logger
	requestTimeout time.Duration
}

func NewHTTPServer(address string, l logging.Logger, as AuthService, cs ChatService, ats AttachmentService, requestTimeout time.Duration) *HTTPServer {
	return &HTTPServer{
		address:        address,
		logger:         l.With("module", "http_server"),
		auth:           as,
		chat:           cs,
		attachments:    ats,
		requestTimeout: requestTimeout,
	}
}

// Handler builds the route table. Split out of Run so tests can drive the
// mux through httptest.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/chat/history", s.withAuth(s.handleHistory))
	mux.HandleFunc("POST /api/chat", s.withAuth(s.handleChat))
	mux.HandleFunc("POST /api/attachments/presign", s.withAuth(s.handlePresign))

	return mux
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
