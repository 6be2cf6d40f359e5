// Package server initializes and runs the chat application server.
// It opens the database, applies migrations, seeds the default account,
// wires the services together and starts the HTTP server with graceful
// shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/hassankhurram/chatbot-gemini/internal/logging"
	"github.com/hassankhurram/chatbot-gemini/internal/server/config"
	"github.com/hassankhurram/chatbot-gemini/internal/server/httpapi"
	"github.com/hassankhurram/chatbot-gemini/internal/server/llm"
	"github.com/hassankhurram/chatbot-gemini/internal/server/repositories/repomanager"
	"github.com/hassankhurram/chatbot-gemini/internal/server/services"
)

type App struct {
	config            *config.Config
	logger            logging.Logger
	db                *sql.DB
	repoManager       repomanager.RepositoryManager
	authService       *services.AuthService
	chatService       *services.ChatService
	attachmentService *services.AttachmentService
}

func NewApp(c *config.Config) (*App, error) {

	s := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(s)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager()
	if err != nil {
		return nil, fmt.Errorf("repository init error: %w", err)
	}

	engine := llm.NewOpenAI(c.LLMAPIKey, c.LLMBaseURL, c.LLMModel)

	as := services.NewAuthService(db, rm, c)
	cs := services.NewChatService(db, rm, engine)
	ats := services.NewAttachmentService(c)

	return &App{
		config:            c,
		logger:            logger,
		db:                db,
		repoManager:       rm,
		authService:       as,
		chatService:       cs,
		attachmentService: ats,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) initStorage(ctx context.Context) error {

	if err := app.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}

	if err := app.repoManager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	if err := app.authService.EnsureSeedUser(ctx, app.config); err != nil {
		return fmt.Errorf("seed user error: %w", err)
	}

	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger,
		app.authService, app.chatService, app.attachmentService,
		app.config.RequestTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.initStorage(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		return
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
