package graph

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/HammerMeetNail/thoughtwall/internal/models"
	"github.com/HammerMeetNail/thoughtwall/internal/services"
)

// Resolver is the operation surface the schema dispatches to.
type Resolver interface {
	Me(ctx context.Context) (*models.User, error)
	Users(ctx context.Context) ([]models.User, error)
	User(ctx context.Context, args services.UserArgs) (*models.User, error)
	Thoughts(ctx context.Context, args services.ThoughtsArgs) ([]models.Thought, error)
	Thought(ctx context.Context, args services.ThoughtArgs) (*models.Thought, error)
	AddUser(ctx context.Context, args services.AddUserArgs) (*models.Auth, error)
	Login(ctx context.Context, args services.LoginArgs) (*models.Auth, error)
	AddThought(ctx context.Context, args services.AddThoughtArgs) (*models.Thought, error)
	AddReaction(ctx context.Context, args services.AddReactionArgs) (*models.Thought, error)
	AddFriend(ctx context.Context, args services.AddFriendArgs) (*models.User, error)
}

// Request is the JSON body accepted on the GraphQL endpoint.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

type Schema struct {
	schema graphql.Schema
}

func NewSchema(resolver Resolver) (*Schema, error) {
	types := newTypes()

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType(types, resolver),
		Mutation: mutationType(types, resolver),
	})
	if err != nil {
		return nil, fmt.Errorf("building schema: %w", err)
	}
	return &Schema{schema: schema}, nil
}

// Execute runs one request. Field errors are reported in the result, never
// returned.
func (s *Schema) Execute(ctx context.Context, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

type objectTypes struct {
	user     *graphql.Object
	thought  *graphql.Object
	reaction *graphql.Object
	auth     *graphql.Object
}

func newTypes() *objectTypes {
	reaction := graphql.NewObject(graphql.ObjectConfig{
		Name: "Reaction",
		Fields: graphql.Fields{
			"reactionId": &graphql.Field{Type: graphql.ID},
			// _id aliases reactionId for clients that query reactions like
			// the other document types.
			"_id": &graphql.Field{
				Type: graphql.ID,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if r := sourceReaction(p.Source); r != nil {
						return r.ID.String(), nil
					}
					return nil, nil
				},
			},
			"reactionBody": &graphql.Field{Type: graphql.String},
			"createdAt":    &graphql.Field{Type: graphql.DateTime},
			"username":     &graphql.Field{Type: graphql.String},
		},
	})

	thought := graphql.NewObject(graphql.ObjectConfig{
		Name: "Thought",
		Fields: graphql.Fields{
			"_id":         &graphql.Field{Type: graphql.ID},
			"thoughtText": &graphql.Field{Type: graphql.String},
			"createdAt":   &graphql.Field{Type: graphql.DateTime},
			"username":    &graphql.Field{Type: graphql.String},
			"reactionCount": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if t := sourceThought(p.Source); t != nil {
						return t.ReactionCount(), nil
					}
					return nil, nil
				},
			},
			"reactions": &graphql.Field{Type: graphql.NewList(reaction)},
		},
	})

	user := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"_id":      &graphql.Field{Type: graphql.ID},
			"username": &graphql.Field{Type: graphql.String},
			"email":    &graphql.Field{Type: graphql.String},
			"friendCount": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if u := sourceUser(p.Source); u != nil {
						return u.FriendCount(), nil
					}
					return nil, nil
				},
			},
			"thoughts": &graphql.Field{Type: graphql.NewList(thought)},
		},
	})
	user.AddFieldConfig("friends", &graphql.Field{Type: graphql.NewList(user)})

	auth := graphql.NewObject(graphql.ObjectConfig{
		Name: "Auth",
		Fields: graphql.Fields{
			"token": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"user":  &graphql.Field{Type: user},
		},
	})

	return &objectTypes{user: user, thought: thought, reaction: reaction, auth: auth}
}

func queryType(t *objectTypes, r Resolver) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type: t.user,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.Me(p.Context))
				},
			},
			"users": &graphql.Field{
				Type: graphql.NewList(t.user),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.Users(p.Context)
				},
			},
			"user": &graphql.Field{
				Type: t.user,
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.User(p.Context, services.UserArgs{Username: stringArg(p, "username")}))
				},
			},
			"thoughts": &graphql.Field{
				Type: graphql.NewList(t.thought),
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					args := services.ThoughtsArgs{}
					if username, ok := p.Args["username"].(string); ok {
						args.Username = &username
					}
					return r.Thoughts(p.Context, args)
				},
			},
			"thought": &graphql.Field{
				Type: t.thought,
				Args: graphql.FieldConfigArgument{
					"_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.Thought(p.Context, services.ThoughtArgs{ID: stringArg(p, "_id")}))
				},
			},
		},
	})
}

func mutationType(t *objectTypes, r Resolver) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addUser": &graphql.Field{
				Type: t.auth,
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.AddUser(p.Context, services.AddUserArgs{
						Username: stringArg(p, "username"),
						Email:    stringArg(p, "email"),
						Password: stringArg(p, "password"),
					}))
				},
			},
			"login": &graphql.Field{
				Type: t.auth,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.Login(p.Context, services.LoginArgs{
						Email:    stringArg(p, "email"),
						Password: stringArg(p, "password"),
					}))
				},
			},
			"addThought": &graphql.Field{
				Type: t.thought,
				Args: graphql.FieldConfigArgument{
					"thoughtText": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"username":    &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.AddThought(p.Context, services.AddThoughtArgs{
						ThoughtText: stringArg(p, "thoughtText"),
						Username:    stringArg(p, "username"),
					}))
				},
			},
			"addReaction": &graphql.Field{
				Type: t.thought,
				Args: graphql.FieldConfigArgument{
					"thoughtId":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"reactionBody": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.AddReaction(p.Context, services.AddReactionArgs{
						ThoughtID:    stringArg(p, "thoughtId"),
						ReactionBody: stringArg(p, "reactionBody"),
					}))
				},
			},
			"addFriend": &graphql.Field{
				Type: t.user,
				Args: graphql.FieldConfigArgument{
					"friendId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.AddFriend(p.Context, services.AddFriendArgs{
						FriendID: stringArg(p, "friendId"),
					}))
				},
			},
		},
	})
}

func stringArg(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

// nullable turns a typed nil pointer into an untyped nil so the field
// resolves to null.
func nullable[T any](v *T, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v, nil
}

func sourceUser(src interface{}) *models.User {
	switch u := src.(type) {
	case *models.User:
		return u
	case models.User:
		return &u
	}
	return nil
}

func sourceThought(src interface{}) *models.Thought {
	switch t := src.(type) {
	case *models.Thought:
		return t
	case models.Thought:
		return &t
	}
	return nil
}

func sourceReaction(src interface{}) *models.Reaction {
	switch r := src.(type) {
	case *models.Reaction:
		return r
	case models.Reaction:
		return &r
	}
	return nil
}
