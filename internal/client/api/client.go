// Package api implements the HTTP client for the chat backend: login,
// history, and the streaming chat relay.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hassankhurram/chatbot-gemini/internal/common"
)

// User mirrors the identity record the server returns on login.
type User struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Avatar   *string `json:"avatar,omitempty"`
}

// LoginResult is the server's response to a successful login.
type LoginResult struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Attachment is a file reference carried with a message.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	URL         string `json:"url"`
}

// Message is one stored turn of conversation as the server reports it.
type Message struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Content     string       `json:"content"`
	Role        string       `json:"role"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// TurnMessage is one turn of the conversation sent to the chat endpoint.
type TurnMessage struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// PresignResult holds everything needed to upload one attachment: the
// storage key, the URL to PUT the payload to, and the URL the stored message
// can reference for download.
type PresignResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	DownloadURL string `json:"downloadUrl"`
}

// Client defines the API operations the CLI needs.
type Client interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	History(ctx context.Context, token string, limit int) ([]Message, error)
	Chat(ctx context.Context, token string, turns []TurnMessage, onChunk func(chunk string) error) error
	Presign(ctx context.Context, token string) (*PresignResult, error)
	Status(ctx context.Context) error
}

// HTTPClient is the concrete Client talking JSON over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a client for the given base URL. The timeout applies
// to non-streaming calls only; the chat stream runs until the server closes
// the response or the context is cancelled.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// decodeError turns a non-2xx response into a sentinel error where the
// status has a known meaning, falling back to the server-provided message.
func decodeError(resp *http.Response) error {
	var er errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&er)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if er.Error == common.ErrorInvalidCredentials.Error() {
			return common.ErrorInvalidCredentials
		}
		return common.ErrorUnauthorized
	default:
		if er.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, er.Error)
		}
		return fmt.Errorf("server error (%d)", resp.StatusCode)
	}
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*LoginResult, error) {

	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var result LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	return &result, nil
}

type historyResponse struct {
	Messages []Message `json:"messages"`
}

func (c *HTTPClient) History(ctx context.Context, token string, limit int) ([]Message, error) {

	url := c.baseURL + "/api/chat/history"
	if limit > 0 {
		url += "?limit=" + strconv.Itoa(limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var result historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	return result.Messages, nil
}

// Chat sends the conversation turns and streams the reply back through
// onChunk as the bytes arrive. The per-client timeout is bypassed here so a
// long reply is not cut off mid-stream; cancellation is the context's job.
func (c *HTTPClient) Chat(ctx context.Context, token string, turns []TurnMessage, onChunk func(chunk string) error) error {

	body, err := json.Marshal(map[string]any{"messages": turns})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	streamClient := &http.Client{Transport: c.client.Transport}

	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if cbErr := onChunk(string(buf[:n])); cbErr != nil {
				return cbErr
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}
	}
}

func (c *HTTPClient) Presign(ctx context.Context, token string) (*PresignResult, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/attachments/presign", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var result PresignResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	return &result, nil
}

func (c *HTTPClient) Status(ctx context.Context) error {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}
