package mongostore

import (
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/thoughtwall/internal/models"
)

const (
	usersCollection    = "users"
	thoughtsCollection = "thoughts"
)

// Ids are stored as canonical uuid strings so both backends share one id space.
type userDocument struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"username"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password,omitempty"`
	Thoughts  []string  `bson:"thoughts"`
	Friends   []string  `bson:"friends"`
	CreatedAt time.Time `bson:"createdAt"`
	Version   int       `bson:"__v"`
}

type thoughtDocument struct {
	ID          string             `bson:"_id"`
	ThoughtText string             `bson:"thoughtText"`
	Username    string             `bson:"username"`
	CreatedAt   time.Time          `bson:"createdAt"`
	Reactions   []reactionDocument `bson:"reactions"`
	Version     int                `bson:"__v"`
}

type reactionDocument struct {
	ReactionID   string    `bson:"reactionId"`
	ReactionBody string    `bson:"reactionBody"`
	Username     string    `bson:"username"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func (d userDocument) toModel() models.User {
	return models.User{
		ID:           parseID(d.ID),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		ThoughtIDs:   parseIDs(d.Thoughts),
		FriendIDs:    parseIDs(d.Friends),
		CreatedAt:    d.CreatedAt,
	}
}

func (d thoughtDocument) toModel() models.Thought {
	reactions := make([]models.Reaction, 0, len(d.Reactions))
	for _, r := range d.Reactions {
		reactions = append(reactions, models.Reaction{
			ID:           parseID(r.ReactionID),
			ReactionBody: r.ReactionBody,
			Username:     r.Username,
			CreatedAt:    r.CreatedAt,
		})
	}
	return models.Thought{
		ID:          parseID(d.ID),
		ThoughtText: d.ThoughtText,
		Username:    d.Username,
		CreatedAt:   d.CreatedAt,
		Reactions:   reactions,
	}
}

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// parseIDs skips entries that are not uuids; they can never resolve.
func parseIDs(values []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		if id, err := uuid.Parse(v); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
