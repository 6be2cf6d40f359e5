package sessions

import (
	"context"

	"github.com/hassankhurram/chatbot-gemini/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.ChatSession) (*models.ChatSession, error)
	GetLatest(ctx context.Context, userID string) (*models.ChatSession, error)
	Touch(ctx context.Context, id string) error
}
