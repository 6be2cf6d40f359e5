// Package services contains server-side business logic. This file implements
// AuthService: password login and stateless token verification.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hassankhurram/chatbot-gemini/internal/common"
	"github.com/hassankhurram/chatbot-gemini/internal/server/auth"
	"github.com/hassankhurram/chatbot-gemini/internal/server/config"
	"github.com/hassankhurram/chatbot-gemini/internal/server/models"
	"github.com/hassankhurram/chatbot-gemini/internal/server/repositories/repomanager"
)

// LoginResult is what a successful login returns to the client: the user
// record (password hash never serialized), the bearer token, and its expiry.
type LoginResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type AuthService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Login verifies the username/password pair and issues a signed token valid
// for the configured duration. An unknown username and a wrong password both
// return common.ErrorInvalidCredentials; the caller must not be able to tell
// which field was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	if !auth.CheckPassword(user.PasswordHash, []byte(password)) {
		return nil, common.ErrorInvalidCredentials
	}

	token, expiresAt, err := auth.GenerateToken(user.ID, user.Username, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// VerifyToken returns the user a valid token refers to. For any malformed,
// expired, or forged token, and for a well-formed token whose user no longer
// exists, it returns (nil, nil) rather than an error; a non-nil error means
// the lookup itself failed.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {

	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, nil
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, common.ErrorInternal
	}

	return user, nil
}

// EnsureSeedUser creates the configured admin user if it does not exist yet.
// This mirrors the out-of-band provisioning step: there is no self-service
// registration endpoint.
func (s *AuthService) EnsureSeedUser(ctx context.Context, cfg *config.Config) error {

	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	hash, err := auth.HashPassword([]byte(cfg.AdminPassword))
	if err != nil {
		return err
	}

	_, err = repo.Create(ctx, &models.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		Name:         cfg.AdminName,
		PasswordHash: hash,
	})
	return err
}
