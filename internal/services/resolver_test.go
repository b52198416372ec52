package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/HammerMeetNail/thoughtwall/internal/models"
)

type resolverFixture struct {
	resolver *Resolver
	users    *memUsers
	thoughts *memThoughts
	tokens   *TokenService
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	orig := bcryptCost
	bcryptCost = bcrypt.MinCost
	t.Cleanup(func() { bcryptCost = orig })

	users := newMemUsers()
	thoughts := newMemThoughts()
	tokens := newTestTokenService()
	return &resolverFixture{
		resolver: NewResolver(users, thoughts, tokens),
		users:    users,
		thoughts: thoughts,
		tokens:   tokens,
	}
}

func (f *resolverFixture) register(t *testing.T, username string) (*models.Auth, context.Context) {
	t.Helper()
	auth, err := f.resolver.AddUser(context.Background(), AddUserArgs{
		Username: username,
		Email:    username + "@x.com",
		Password: "pw123",
	})
	if err != nil {
		t.Fatalf("registering %s: %v", username, err)
	}
	identity, err := f.tokens.Verify(auth.Token)
	if err != nil {
		t.Fatalf("verifying token for %s: %v", username, err)
	}
	return auth, WithIdentity(context.Background(), identity)
}

func TestResolver_IdentityRequiredOperationsRejectAnonymous(t *testing.T) {
	f := newResolverFixture(t)
	auth, _ := f.register(t, "alice")
	thought, _ := f.thoughts.Create(context.Background(), models.CreateThoughtParams{ThoughtText: "hi", Username: "alice"})

	usersBefore, thoughtsBefore := f.users.writes, f.thoughts.writes
	ctx := context.Background()

	if _, err := f.resolver.Me(ctx); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("me: expected unauthenticated, got %v", err)
	}
	if _, err := f.resolver.AddThought(ctx, AddThoughtArgs{ThoughtText: "x"}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("addThought: expected unauthenticated, got %v", err)
	}
	if _, err := f.resolver.AddReaction(ctx, AddReactionArgs{ThoughtID: thought.ID.String(), ReactionBody: "x"}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("addReaction: expected unauthenticated, got %v", err)
	}
	if _, err := f.resolver.AddFriend(ctx, AddFriendArgs{FriendID: auth.User.ID.String()}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("addFriend: expected unauthenticated, got %v", err)
	}

	if f.users.writes != usersBefore || f.thoughts.writes != thoughtsBefore {
		t.Fatal("expected no storage mutation for anonymous calls")
	}
}

func TestResolver_MeUsesNotLoggedInMessage(t *testing.T) {
	f := newResolverFixture(t)

	_, err := f.resolver.Me(context.Background())
	if err == nil || err.Error() != "Not logged in" {
		t.Fatalf("expected 'Not logged in', got %v", err)
	}
}

func TestResolver_LoginFailuresAreIndistinguishable(t *testing.T) {
	f := newResolverFixture(t)
	f.register(t, "alice")

	_, wrongPassword := f.resolver.Login(context.Background(), LoginArgs{Email: "alice@x.com", Password: "nope!"})
	_, unknownEmail := f.resolver.Login(context.Background(), LoginArgs{Email: "ghost@x.com", Password: "pw123"})

	if !errors.Is(wrongPassword, ErrIncorrectCredentials) || !errors.Is(unknownEmail, ErrIncorrectCredentials) {
		t.Fatalf("expected incorrect credentials, got %v / %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("expected identical messages, got %q and %q", wrongPassword, unknownEmail)
	}
}

func TestResolver_AddUserThenLoginRoundTrip(t *testing.T) {
	f := newResolverFixture(t)
	created, _ := f.register(t, "alice")

	if created.User.PasswordHash != "" {
		t.Fatal("expected password hash to be hidden")
	}

	auth, err := f.resolver.Login(context.Background(), LoginArgs{Email: "alice@x.com", Password: "pw123"})
	if err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	if auth.User.PasswordHash != "" {
		t.Fatal("expected password hash to be hidden after login")
	}

	identity, err := f.tokens.Verify(auth.Token)
	if err != nil {
		t.Fatalf("expected token to verify: %v", err)
	}
	if identity.Username != "alice" || identity.Email != "alice@x.com" || identity.ID != created.User.ID {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestResolver_LoginMatchesEmailAsRegistered(t *testing.T) {
	f := newResolverFixture(t)

	created, err := f.resolver.AddUser(context.Background(), AddUserArgs{
		Username: "alice",
		Email:    " alice@x.com ",
		Password: "pw123",
	})
	if err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	for _, email := range []string{" alice@x.com ", "alice@x.com", "\talice@x.com\n"} {
		auth, err := f.resolver.Login(context.Background(), LoginArgs{Email: email, Password: "pw123"})
		if err != nil {
			t.Fatalf("login with %q: %v", email, err)
		}
		if auth.User.ID != created.User.ID {
			t.Fatalf("login with %q returned a different user", email)
		}
	}
}

func TestResolver_AddUserValidatesAndPropagatesDuplicates(t *testing.T) {
	f := newResolverFixture(t)
	f.register(t, "alice")

	_, err := f.resolver.AddUser(context.Background(), AddUserArgs{Username: "alice", Email: "alice@x.com", Password: "pw123"})
	if !errors.Is(err, errDuplicate) {
		t.Fatalf("expected storage duplicate error, got %v", err)
	}

	_, err = f.resolver.AddUser(context.Background(), AddUserArgs{Username: "bob", Email: "bob", Password: "pw123"})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolver_AddThoughtForcesAuthor(t *testing.T) {
	f := newResolverFixture(t)
	auth, ctx := f.register(t, "alice")

	thought, err := f.resolver.AddThought(ctx, AddThoughtArgs{ThoughtText: "hello", Username: "mallory"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if thought.Username != "alice" {
		t.Fatalf("expected author alice, got %q", thought.Username)
	}

	stored, _ := f.users.FindByID(context.Background(), auth.User.ID)
	if len(stored.ThoughtIDs) != 1 || stored.ThoughtIDs[0] != thought.ID {
		t.Fatalf("expected thought id appended, got %v", stored.ThoughtIDs)
	}
}

func TestResolver_AddThoughtCompensatesFailedLink(t *testing.T) {
	f := newResolverFixture(t)
	_, ctx := f.register(t, "alice")
	f.users.appendErr = errors.New("write conflict")

	_, err := f.resolver.AddThought(ctx, AddThoughtArgs{ThoughtText: "hello"})
	if err == nil {
		t.Fatal("expected link failure")
	}
	if len(f.thoughts.deleted) != 1 {
		t.Fatalf("expected orphaned thought to be deleted, got %v", f.thoughts.deleted)
	}
	all, _ := f.resolver.Thoughts(context.Background(), ThoughtsArgs{})
	if len(all) != 0 {
		t.Fatalf("expected no thoughts left, got %d", len(all))
	}
}

func TestResolver_AddFriendIsIdempotent(t *testing.T) {
	f := newResolverFixture(t)
	_, ctx := f.register(t, "alice")
	bob, _ := f.register(t, "bob")

	for i := 0; i < 2; i++ {
		user, err := f.resolver.AddFriend(ctx, AddFriendArgs{FriendID: bob.User.ID.String()})
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if len(user.FriendIDs) != 1 || user.FriendIDs[0] != bob.User.ID {
			t.Fatalf("call %d: unexpected friend ids %v", i, user.FriendIDs)
		}
		if len(user.Friends) != 1 || user.Friends[0].Username != "bob" {
			t.Fatalf("call %d: expected bob populated, got %+v", i, user.Friends)
		}
	}
}

func TestResolver_AddFriendRejectsSelfAndBadIDs(t *testing.T) {
	f := newResolverFixture(t)
	alice, ctx := f.register(t, "alice")

	if _, err := f.resolver.AddFriend(ctx, AddFriendArgs{FriendID: alice.User.ID.String()}); !errors.Is(err, ErrCannotFriendSelf) {
		t.Fatalf("expected ErrCannotFriendSelf, got %v", err)
	}
	if _, err := f.resolver.AddFriend(ctx, AddFriendArgs{FriendID: "zzz"}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolver_AddFriendDanglingIDIsOmittedOnPopulate(t *testing.T) {
	f := newResolverFixture(t)
	_, ctx := f.register(t, "alice")
	ghost := uuid.New()

	user, err := f.resolver.AddFriend(ctx, AddFriendArgs{FriendID: ghost.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(user.FriendIDs) != 1 {
		t.Fatalf("expected id stored, got %v", user.FriendIDs)
	}
	if len(user.Friends) != 0 {
		t.Fatalf("expected dangling friend to be omitted, got %+v", user.Friends)
	}
	if user.FriendCount() != 1 {
		t.Fatalf("expected friend count 1, got %d", user.FriendCount())
	}
}

func TestResolver_UserMissingIsNil(t *testing.T) {
	f := newResolverFixture(t)

	user, err := f.resolver.User(context.Background(), UserArgs{Username: "nobody"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil, got %+v", user)
	}
}

func TestResolver_ThoughtMissingOrMalformedIsNil(t *testing.T) {
	f := newResolverFixture(t)

	for _, id := range []string{uuid.NewString(), "not-an-id"} {
		thought, err := f.resolver.Thought(context.Background(), ThoughtArgs{ID: id})
		if err != nil || thought != nil {
			t.Fatalf("id %q: expected nil, nil; got %+v, %v", id, thought, err)
		}
	}
}

func TestResolver_AddReactionMissingThoughtIsNil(t *testing.T) {
	f := newResolverFixture(t)
	_, ctx := f.register(t, "alice")

	thought, err := f.resolver.AddReaction(ctx, AddReactionArgs{ThoughtID: uuid.NewString(), ReactionBody: "nice"})
	if err != nil || thought != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", thought, err)
	}
}

func TestResolver_ThoughtsScenario(t *testing.T) {
	f := newResolverFixture(t)
	_, alice := f.register(t, "alice")
	_, bob := f.register(t, "bob")

	created, err := f.resolver.AddThought(alice, AddThoughtArgs{ThoughtText: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := f.resolver.Thoughts(context.Background(), ThoughtsArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 || all[0].Username != "alice" || all[0].ThoughtText != "hello" {
		t.Fatalf("unexpected thoughts: %+v", all)
	}

	if _, err := f.resolver.AddReaction(bob, AddReactionArgs{ThoughtID: created.ID.String(), ReactionBody: "nice"}); err != nil {
		t.Fatalf("unexpected reaction error: %v", err)
	}

	got, err := f.resolver.Thought(context.Background(), ThoughtArgs{ID: created.ID.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Reactions) != 1 || got.Reactions[0].ReactionBody != "nice" || got.Reactions[0].Username != "bob" {
		t.Fatalf("unexpected reactions: %+v", got.Reactions)
	}
}

func TestResolver_ThoughtsFilterAndOrder(t *testing.T) {
	f := newResolverFixture(t)
	_, alice := f.register(t, "alice")
	_, bob := f.register(t, "bob")

	first, _ := f.resolver.AddThought(alice, AddThoughtArgs{ThoughtText: "first"})
	f.resolver.AddThought(bob, AddThoughtArgs{ThoughtText: "bob's"})
	second, _ := f.resolver.AddThought(alice, AddThoughtArgs{ThoughtText: "second"})

	username := "alice"
	got, err := f.resolver.Thoughts(context.Background(), ThoughtsArgs{Username: &username})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("expected alice's thoughts newest first, got %+v", got)
	}

	empty := ""
	all, _ := f.resolver.Thoughts(context.Background(), ThoughtsArgs{Username: &empty})
	if len(all) != 3 {
		t.Fatalf("expected empty username to list all, got %d", len(all))
	}
}

func TestResolver_MePopulatesThoughtsAndFriends(t *testing.T) {
	f := newResolverFixture(t)
	_, alice := f.register(t, "alice")
	bob, _ := f.register(t, "bob")

	f.resolver.AddThought(alice, AddThoughtArgs{ThoughtText: "one"})
	f.resolver.AddThought(alice, AddThoughtArgs{ThoughtText: "two"})
	f.resolver.AddFriend(alice, AddFriendArgs{FriendID: bob.User.ID.String()})

	me, err := f.resolver.Me(alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(me.Thoughts) != 2 || me.Thoughts[0].ThoughtText != "one" || me.Thoughts[1].ThoughtText != "two" {
		t.Fatalf("expected thoughts in authored order, got %+v", me.Thoughts)
	}
	if len(me.Friends) != 1 || me.Friends[0].ID != bob.User.ID {
		t.Fatalf("expected bob as friend, got %+v", me.Friends)
	}

	all, err := f.resolver.Users(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || len(all[0].Thoughts) != 2 || len(all[1].Thoughts) != 0 {
		t.Fatalf("unexpected users: %+v", all)
	}
}
