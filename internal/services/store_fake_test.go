package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/thoughtwall/internal/models"
)

var errDuplicate = errors.New("duplicate key")

// memUsers and memThoughts mimic the document store: atomic per call,
// nil results for misses, credentials only via FindCredentialsByEmail.
type memUsers struct {
	docs      map[uuid.UUID]*models.User
	order     []uuid.UUID
	writes    int
	appendErr error
}

func newMemUsers() *memUsers {
	return &memUsers{docs: map[uuid.UUID]*models.User{}}
}

func (m *memUsers) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	for _, u := range m.docs {
		if u.Username == params.Username || u.Email == params.Email {
			return nil, errDuplicate
		}
	}
	m.writes++
	u := &models.User{
		ID:           uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		ThoughtIDs:   []uuid.UUID{},
		FriendIDs:    []uuid.UUID{},
		CreatedAt:    time.Now(),
	}
	m.docs[u.ID] = u
	m.order = append(m.order, u.ID)
	out := u.Public()
	return &out, nil
}

func (m *memUsers) copyOf(u *models.User) *models.User {
	out := u.Public()
	out.ThoughtIDs = append([]uuid.UUID{}, u.ThoughtIDs...)
	out.FriendIDs = append([]uuid.UUID{}, u.FriendIDs...)
	return &out
}

func (m *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := m.docs[id]; ok {
		return m.copyOf(u), nil
	}
	return nil, nil
}

func (m *memUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.docs {
		if u.Username == username {
			return m.copyOf(u), nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindCredentialsByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.docs {
		if u.Email == email {
			out := m.copyOf(u)
			out.PasswordHash = u.PasswordHash
			return out, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindAll(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	for _, id := range m.order {
		users = append(users, *m.copyOf(m.docs[id]))
	}
	return users, nil
}

func (m *memUsers) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	users := []models.User{}
	for _, id := range ids {
		if u, ok := m.docs[id]; ok {
			users = append(users, *m.copyOf(u))
		}
	}
	return users, nil
}

func (m *memUsers) AppendThought(ctx context.Context, userID, thoughtID uuid.UUID) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	u, ok := m.docs[userID]
	if !ok {
		return ErrUserNotFound
	}
	m.writes++
	u.ThoughtIDs = append(u.ThoughtIDs, thoughtID)
	return nil
}

func (m *memUsers) AddFriend(ctx context.Context, userID, friendID uuid.UUID) (*models.User, error) {
	u, ok := m.docs[userID]
	if !ok {
		return nil, nil
	}
	m.writes++
	for _, id := range u.FriendIDs {
		if id == friendID {
			return m.copyOf(u), nil
		}
	}
	u.FriendIDs = append(u.FriendIDs, friendID)
	return m.copyOf(u), nil
}

type memThoughts struct {
	docs    map[uuid.UUID]*models.Thought
	writes  int
	deleted []uuid.UUID
	clock   time.Time
}

func newMemThoughts() *memThoughts {
	return &memThoughts{
		docs:  map[uuid.UUID]*models.Thought{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memThoughts) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memThoughts) Create(ctx context.Context, params models.CreateThoughtParams) (*models.Thought, error) {
	m.writes++
	t := &models.Thought{
		ID:          uuid.New(),
		ThoughtText: params.ThoughtText,
		Username:    params.Username,
		CreatedAt:   m.tick(),
		Reactions:   []models.Reaction{},
	}
	m.docs[t.ID] = t
	out := *t
	return &out, nil
}

func (m *memThoughts) Delete(ctx context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	delete(m.docs, id)
	return nil
}

func (m *memThoughts) FindByID(ctx context.Context, id uuid.UUID) (*models.Thought, error) {
	if t, ok := m.docs[id]; ok {
		out := *t
		return &out, nil
	}
	return nil, nil
}

func (m *memThoughts) Find(ctx context.Context, filter models.ThoughtFilter) ([]models.Thought, error) {
	thoughts := []models.Thought{}
	for _, t := range m.docs {
		if filter.Username != nil && t.Username != *filter.Username {
			continue
		}
		thoughts = append(thoughts, *t)
	}
	sort.Slice(thoughts, func(i, j int) bool {
		return thoughts[i].CreatedAt.After(thoughts[j].CreatedAt)
	})
	return thoughts, nil
}

func (m *memThoughts) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Thought, error) {
	thoughts := []models.Thought{}
	for _, id := range ids {
		if t, ok := m.docs[id]; ok {
			thoughts = append(thoughts, *t)
		}
	}
	return thoughts, nil
}

func (m *memThoughts) AppendReaction(ctx context.Context, thoughtID uuid.UUID, params models.CreateReactionParams) (*models.Thought, error) {
	t, ok := m.docs[thoughtID]
	if !ok {
		return nil, nil
	}
	m.writes++
	t.Reactions = append(t.Reactions, models.Reaction{
		ID:           uuid.New(),
		ReactionBody: params.ReactionBody,
		Username:     params.Username,
		CreatedAt:    m.tick(),
	})
	out := *t
	return &out, nil
}
