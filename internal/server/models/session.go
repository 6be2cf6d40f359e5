package models

import "time"

// ChatSession is a metadata aggregate over a user's messages. It is created
// lazily on the first message and touched on every subsequent one;
// MessageCount only ever grows.
type ChatSession struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
