package messages

import (
	"context"

	"github.com/hassankhurram/chatbot-gemini/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error)
}
