package models

import "time"

// Message roles. A stored message is either a human turn or an engine reply.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Attachment is a file reference carried with a message. The server stores
// only metadata; the payload lives in object storage behind the URL.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	URL         string `json:"url"`
}

// ChatMessage is one turn of conversation. Messages are immutable after
// creation; CreatedAt is always stamped by the server.
type ChatMessage struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Username    string       `json:"username"`
	Content     string       `json:"content"`
	Role        string       `json:"role"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"timestamp"`
}
