package models

import "github.com/google/uuid"

// Member is an account row. Password holds the argon2id hash once stored.
type Member struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Nickname string    `json:"nickname"`

	IsGuest bool `json:"is_guest"`
}
