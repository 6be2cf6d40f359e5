package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hassankhurram/chatbot-gemini/internal/common"
	"github.com/hassankhurram/chatbot-gemini/internal/dbx"
	"github.com/hassankhurram/chatbot-gemini/internal/server/llm"
	"github.com/hassankhurram/chatbot-gemini/internal/server/models"
	"github.com/hassankhurram/chatbot-gemini/internal/server/repositories/repomanager"
)

// DefaultHistoryLimit is the number of messages returned when the caller
// does not specify a limit.
const DefaultHistoryLimit = 50

// TurnMessage is one entry of the conversation submitted by the client.
type TurnMessage struct {
	Role        string              `json:"role"`
	Content     string              `json:"content"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

// ChatService orchestrates conversational turns: persisting messages,
// relaying streamed engine output, and maintaining session aggregates.
type ChatService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	engine      llm.Client
}

func NewChatService(db *sql.DB, m repomanager.RepositoryManager, engine llm.Client) *ChatService {
	return &ChatService{db: db, repomanager: m, engine: engine}
}

// SaveMessage appends one message and updates the owner's session aggregate
// in the same transaction: the latest session is touched, or one is created
// lazily if the user has none. The stored record, with its generated ID and
// server-stamped timestamp, is returned.
func (s *ChatService) SaveMessage(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error) {

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Messages(tx).Insert(ctx, message); err != nil {
			return err
		}

		sessionRepo := s.repomanager.Sessions(tx)
		session, err := sessionRepo.GetLatest(ctx, message.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				_, err = sessionRepo.Create(ctx, &models.ChatSession{UserID: message.UserID, Title: "New Chat"})
				return err
			}
			return err
		}
		return sessionRepo.Touch(ctx, session.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("error saving message: %w", err)
	}

	return message, nil
}

// History returns up to limit messages for userID in ascending chronological
// order (oldest first). It fetches the most recent limit records in
// descending order and reverses them. A user with no messages gets an empty
// slice, not an error. Non-positive limits fall back to DefaultHistoryLimit.
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	result, err := s.repomanager.Messages(s.db).ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error loading history: %w", err)
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result, nil
}

// Relay orchestrates one conversational turn for an authenticated user.
//
// If the final entry of turns has the user role it is persisted immediately,
// before the engine is contacted, so the human input survives an engine
// failure. The engine's streamed chunks are then forwarded to onChunk in
// production order. When onChunk reports that the consumer is gone, the
// relay stops forwarding but keeps draining so a gracefully completed
// response is still persisted. The assembled reply is stored as a single
// assistant-role message attributed to the fixed assistant display name.
// If the engine call fails or is aborted, no assistant message is persisted
// and the already-saved user message is not rolled back.
func (s *ChatService) Relay(ctx context.Context, user *models.User, turns []TurnMessage, onChunk func(chunk string) error) error {

	if len(turns) == 0 {
		return fmt.Errorf("%w: empty message list", common.ErrorValidation)
	}

	if last := turns[len(turns)-1]; last.Role == models.RoleUser {
		_, err := s.SaveMessage(ctx, &models.ChatMessage{
			UserID:      user.ID,
			Username:    user.Username,
			Content:     last.Content,
			Role:        models.RoleUser,
			Attachments: last.Attachments,
		})
		if err != nil {
			return err
		}
	}

	engineMsgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		engineMsgs = append(engineMsgs, llm.Message{Role: t.Role, Content: t.Content})
	}

	stream, err := s.engine.Stream(ctx, engineMsgs)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorUpstream, err)
	}

	var assembled []byte
	consumerGone := false

	for chunk := range stream {
		if chunk.Err != nil {
			return fmt.Errorf("%w: %v", common.ErrorUpstream, chunk.Err)
		}
		assembled = append(assembled, chunk.Content...)
		if !consumerGone {
			if err := onChunk(chunk.Content); err != nil {
				consumerGone = true
			}
		}
	}

	// The engine completed gracefully; persist the reply even if the
	// consumer disconnected mid-stream. The request context may already be
	// cancelled at this point.
	_, err = s.SaveMessage(context.WithoutCancel(ctx), &models.ChatMessage{
		UserID:   user.ID,
		Username: common.AssistantDisplayName,
		Content:  string(assembled),
		Role:     models.RoleAssistant,
	})
	if err != nil {
		return err
	}

	return nil
}
