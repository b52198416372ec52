package models

import (
	"time"

	"github.com/google/uuid"
)

// Reaction lives inside its Thought and has no collection of its own.
type Reaction struct {
	ID           uuid.UUID `json:"reactionId"`
	ReactionBody string    `json:"reactionBody"`
	Username     string    `json:"username"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateReactionParams struct {
	ReactionBody string
	Username     string
}
