package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hassankhurram/chatbot-gemini/internal/common"
	"github.com/hassankhurram/chatbot-gemini/internal/server/models"
	"github.com/hassankhurram/chatbot-gemini/internal/server/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := s.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			// Deliberately generic: never reveal which field was wrong.
			writeError(w, http.StatusUnauthorized, common.ErrorInvalidCredentials.Error())
			return
		}
		s.logger.Error(ctx, err.Error())
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.logger.Info(ctx, "User logged in", "username", req.Username)
	writeJSON(w, http.StatusOK, result)
}

type historyResponse struct {
	Messages []*models.ChatMessage `json:"messages"`
}

func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	user, ok := userFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	result, err := s.chat.History(ctx, user.ID, limit)
	if err != nil {
		s.logger.Error(ctx, err.Error())
		writeError(w, http.StatusInternalServerError, "failed to fetch chat history")
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Messages: result})
}

type chatRequest struct {
	Messages []services.TurnMessage `json:"messages"`
}

// handleChat relays one conversational turn, streaming the engine's reply to
// the caller incrementally. Chunks are flushed as they arrive so the client
// sees output before the reply is complete.
func (s *HTTPServer) handleChat(w http.ResponseWriter, r *http.Request) {

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	user, ok := userFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	flusher, _ := w.(http.Flusher)
	streamed := false

	err := s.chat.Relay(ctx, user, req.Messages, func(chunk string) error {
		if !streamed {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.WriteHeader(http.StatusOK)
			streamed = true
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		// Once chunks have been written the status line is gone; all we can
		// do is log and stop.
		if streamed {
			s.logger.Error(ctx, err.Error())
			return
		}
		if errors.Is(err, common.ErrorValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error(ctx, err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !streamed {
		// Empty reply: still report success.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}

type presignResponse struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	DownloadURL string `json:"downloadUrl"`
}

func (s *HTTPServer) handlePresign(w http.ResponseWriter, r *http.Request) {

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	if _, ok := userFromContext(ctx); !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	key, url, err := s.attachments.GetPresignedPutUrl(ctx)
	if err != nil {
		s.logger.Error(ctx, err.Error())
		writeError(w, http.StatusInternalServerError, "failed to presign upload")
		return
	}

	downloadURL, err := s.attachments.GetPresignedGetUrl(ctx, key)
	if err != nil {
		s.logger.Error(ctx, err.Error())
		writeError(w, http.StatusInternalServerError, "failed to presign download")
		return
	}

	writeJSON(w, http.StatusOK, presignResponse{Key: key, URL: url, DownloadURL: downloadURL})
}
