package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/thoughtwall/internal/models"
)

// UserStore is the user collection. Single-document finds return nil, nil
// when nothing matches. Only FindCredentialsByEmail returns PasswordHash.
type UserStore interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindCredentialsByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	AppendThought(ctx context.Context, userID, thoughtID uuid.UUID) error
	AddFriend(ctx context.Context, userID, friendID uuid.UUID) (*models.User, error)
}

// ThoughtStore is the thought collection; reactions are embedded.
type ThoughtStore interface {
	Create(ctx context.Context, params models.CreateThoughtParams) (*models.Thought, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Thought, error)
	Find(ctx context.Context, filter models.ThoughtFilter) ([]models.Thought, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Thought, error)
	AppendReaction(ctx context.Context, thoughtID uuid.UUID, params models.CreateReactionParams) (*models.Thought, error)
}

// AuthoredThoughtCreator is implemented by thought stores that can create a
// thought and link it to its author atomically.
type AuthoredThoughtCreator interface {
	CreateAuthored(ctx context.Context, authorID uuid.UUID, params models.CreateThoughtParams) (*models.Thought, error)
}

// Populator replaces stored id lists with the referenced documents. Ids
// that no longer resolve are dropped; stored order is kept.
type Populator struct {
	users    UserStore
	thoughts ThoughtStore
}

func NewPopulator(users UserStore, thoughts ThoughtStore) *Populator {
	return &Populator{users: users, thoughts: thoughts}
}

// Populate fills Thoughts and Friends on every user with two batch reads.
func (p *Populator) Populate(ctx context.Context, users []models.User) error {
	if err := p.populateThoughts(ctx, users); err != nil {
		return err
	}
	return p.PopulateFriends(ctx, users)
}

func (p *Populator) PopulateFriends(ctx context.Context, users []models.User) error {
	ids := collectIDs(users, func(u *models.User) []uuid.UUID { return u.FriendIDs })
	if len(ids) == 0 {
		for i := range users {
			users[i].Friends = []models.User{}
		}
		return nil
	}

	friends, err := p.users.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("populating friends: %w", err)
	}
	byID := make(map[uuid.UUID]models.User, len(friends))
	for _, f := range friends {
		byID[f.ID] = f.Public()
	}

	for i := range users {
		users[i].Friends = make([]models.User, 0, len(users[i].FriendIDs))
		for _, id := range users[i].FriendIDs {
			if f, ok := byID[id]; ok {
				users[i].Friends = append(users[i].Friends, f)
			}
		}
	}
	return nil
}

func (p *Populator) populateThoughts(ctx context.Context, users []models.User) error {
	ids := collectIDs(users, func(u *models.User) []uuid.UUID { return u.ThoughtIDs })
	if len(ids) == 0 {
		for i := range users {
			users[i].Thoughts = []models.Thought{}
		}
		return nil
	}

	thoughts, err := p.thoughts.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("populating thoughts: %w", err)
	}
	byID := make(map[uuid.UUID]models.Thought, len(thoughts))
	for _, t := range thoughts {
		byID[t.ID] = t
	}

	for i := range users {
		users[i].Thoughts = make([]models.Thought, 0, len(users[i].ThoughtIDs))
		for _, id := range users[i].ThoughtIDs {
			if t, ok := byID[id]; ok {
				users[i].Thoughts = append(users[i].Thoughts, t)
			}
		}
	}
	return nil
}

func collectIDs(users []models.User, field func(*models.User) []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for i := range users {
		for _, id := range field(&users[i]) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
