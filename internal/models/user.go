package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID   `json:"_id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	ThoughtIDs   []uuid.UUID `json:"-"`
	FriendIDs    []uuid.UUID `json:"-"`
	CreatedAt    time.Time   `json:"createdAt"`

	// Thoughts and Friends are only filled in by population.
	Thoughts []Thought `json:"thoughts"`
	Friends  []User    `json:"friends"`
}

// FriendCount counts stored friend ids, populated or not.
func (u *User) FriendCount() int {
	return len(u.FriendIDs)
}

// Public returns a copy without credential material.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
}

// Identity is the set of claims carried by an auth token.
type Identity struct {
	ID       uuid.UUID `json:"_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// Auth is returned by registration and login.
type Auth struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
