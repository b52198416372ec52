package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/thoughtwall/internal/logging"
	"github.com/HammerMeetNail/thoughtwall/internal/models"
)

// TokenIssuer signs identity tokens for freshly authenticated users.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

type UserArgs struct {
	Username string
}

type ThoughtsArgs struct {
	Username *string
}

type ThoughtArgs struct {
	ID string
}

type AddUserArgs struct {
	Username string
	Email    string
	Password string
}

type LoginArgs struct {
	Email    string
	Password string
}

type AddThoughtArgs struct {
	ThoughtText string
	// Username is accepted for compatibility and ignored; the author is
	// always the caller.
	Username string
}

type AddReactionArgs struct {
	ThoughtID    string
	ReactionBody string
}

type AddFriendArgs struct {
	FriendID string
}

// Resolver implements every named query and mutation. Each call is
// independent; identity comes from the request context.
type Resolver struct {
	users     UserStore
	thoughts  ThoughtStore
	tokens    TokenIssuer
	populator *Populator
}

func NewResolver(users UserStore, thoughts ThoughtStore, tokens TokenIssuer) *Resolver {
	return &Resolver{
		users:     users,
		thoughts:  thoughts,
		tokens:    tokens,
		populator: NewPopulator(users, thoughts),
	}
}

func (r *Resolver) Me(ctx context.Context) (*models.User, error) {
	identity := IdentityFromContext(ctx)
	if identity == nil {
		return nil, ErrNotLoggedIn
	}

	user, err := r.users.FindByID(ctx, identity.ID)
	if err != nil || user == nil {
		return nil, err
	}
	return r.populateOne(ctx, user)
}

func (r *Resolver) Users(ctx context.Context) ([]models.User, error) {
	users, err := r.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.populator.Populate(ctx, users); err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].Public()
	}
	return users, nil
}

func (r *Resolver) User(ctx context.Context, args UserArgs) (*models.User, error) {
	user, err := r.users.FindByUsername(ctx, args.Username)
	if err != nil || user == nil {
		return nil, err
	}
	return r.populateOne(ctx, user)
}

func (r *Resolver) Thoughts(ctx context.Context, args ThoughtsArgs) ([]models.Thought, error) {
	filter := models.ThoughtFilter{}
	if args.Username != nil && *args.Username != "" {
		filter.Username = args.Username
	}
	return r.thoughts.Find(ctx, filter)
}

func (r *Resolver) Thought(ctx context.Context, args ThoughtArgs) (*models.Thought, error) {
	id, err := uuid.Parse(args.ID)
	if err != nil {
		// An id that cannot exist matches nothing.
		return nil, nil
	}
	return r.thoughts.FindByID(ctx, id)
}

func (r *Resolver) AddUser(ctx context.Context, args AddUserArgs) (*models.Auth, error) {
	params := models.CreateUserParams{Username: args.Username, Email: args.Email}
	if err := params.Normalize(args.Password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(args.Password)
	if err != nil {
		return nil, err
	}
	params.PasswordHash = hash

	user, err := r.users.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	return r.authPayload(user)
}

func (r *Resolver) Login(ctx context.Context, args LoginArgs) (*models.Auth, error) {
	user, err := r.users.FindCredentialsByEmail(ctx, models.NormalizeEmail(args.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrIncorrectCredentials
	}
	if !checkPassword(user.PasswordHash, args.Password) {
		return nil, ErrIncorrectCredentials
	}

	return r.authPayload(user)
}

func (r *Resolver) AddThought(ctx context.Context, args AddThoughtArgs) (*models.Thought, error) {
	identity, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	params := models.CreateThoughtParams{
		ThoughtText: args.ThoughtText,
		Username:    identity.Username,
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if creator, ok := r.thoughts.(AuthoredThoughtCreator); ok {
		return creator.CreateAuthored(ctx, identity.ID, params)
	}

	thought, err := r.thoughts.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := r.users.AppendThought(ctx, identity.ID, thought.ID); err != nil {
		if delErr := r.thoughts.Delete(ctx, thought.ID); delErr != nil {
			logging.Error("Failed to remove orphaned thought", map[string]interface{}{
				"error":      delErr.Error(),
				"thought_id": thought.ID.String(),
				"user_id":    identity.ID.String(),
			})
		}
		return nil, fmt.Errorf("linking thought to author: %w", err)
	}

	return thought, nil
}

func (r *Resolver) AddReaction(ctx context.Context, args AddReactionArgs) (*models.Thought, error) {
	identity, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	params := models.CreateReactionParams{
		ReactionBody: args.ReactionBody,
		Username:     identity.Username,
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	thoughtID, err := uuid.Parse(args.ThoughtID)
	if err != nil {
		return nil, nil
	}
	return r.thoughts.AppendReaction(ctx, thoughtID, params)
}

func (r *Resolver) AddFriend(ctx context.Context, args AddFriendArgs) (*models.User, error) {
	identity, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	friendID, err := uuid.Parse(args.FriendID)
	if err != nil {
		return nil, &models.ValidationError{Field: "friendId", Message: "is not a valid id"}
	}
	if friendID == identity.ID {
		return nil, ErrCannotFriendSelf
	}

	user, err := r.users.AddFriend(ctx, identity.ID, friendID)
	if err != nil || user == nil {
		return nil, err
	}

	users := []models.User{*user}
	if err := r.populator.PopulateFriends(ctx, users); err != nil {
		return nil, err
	}
	result := users[0].Public()
	return &result, nil
}

func (r *Resolver) populateOne(ctx context.Context, user *models.User) (*models.User, error) {
	users := []models.User{*user}
	if err := r.populator.Populate(ctx, users); err != nil {
		return nil, err
	}
	result := users[0].Public()
	return &result, nil
}

func (r *Resolver) authPayload(user *models.User) (*models.Auth, error) {
	token, err := r.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &models.Auth{Token: token, User: &public}, nil
}
