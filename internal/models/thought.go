package models

import (
	"time"

	"github.com/google/uuid"
)

type Thought struct {
	ID          uuid.UUID  `json:"_id"`
	ThoughtText string     `json:"thoughtText"`
	Username    string     `json:"username"`
	CreatedAt   time.Time  `json:"createdAt"`
	Reactions   []Reaction `json:"reactions"`
}

func (t *Thought) ReactionCount() int {
	return len(t.Reactions)
}

type CreateThoughtParams struct {
	ThoughtText string
	Username    string
}

// ThoughtFilter narrows a thought listing. A nil Username matches all.
type ThoughtFilter struct {
	Username *string
}
