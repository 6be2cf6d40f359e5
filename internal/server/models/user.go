// Package models defines the persisted entities of the chat server.
package models

import "time"

// User is an identity record. Users are provisioned out of band (seed
// migration or ops tooling); the application itself never deletes them.
//
// PasswordHash is a bcrypt hash and is never serialized.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Avatar       *string    `json:"avatar,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}
