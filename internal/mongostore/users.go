package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HammerMeetNail/thoughtwall/internal/models"
	"github.com/HammerMeetNail/thoughtwall/internal/services"
)

// publicUserProjection strips credentials and the version marker.
var publicUserProjection = bson.M{"password": 0, "__v": 0}

var _ services.UserStore = (*UserStore)(nil)

type UserStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(usersCollection), now: time.Now}
}

func (s *UserStore) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	doc := userDocument{
		ID:        uuid.NewString(),
		Username:  params.Username,
		Email:     params.Email,
		Password:  params.PasswordHash,
		Thoughts:  []string{},
		Friends:   []string{},
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	doc.Password = ""
	user := doc.toModel()
	return &user, nil
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()}, publicUserProjection)
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username}, publicUserProjection)
}

func (s *UserStore) FindCredentialsByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email}, bson.M{"__v": 0})
}

func (s *UserStore) FindAll(ctx context.Context) ([]models.User, error) {
	return s.find(ctx, bson.M{})
}

func (s *UserStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}})
}

func (s *UserStore) AppendThought(ctx context.Context, userID, thoughtID uuid.UUID) error {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID.String()},
		bson.M{"$push": bson.M{"thoughts": thoughtID.String()}},
	)
	if err != nil {
		return fmt.Errorf("appending thought: %w", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) AddFriend(ctx context.Context, userID, friendID uuid.UUID) (*models.User, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(publicUserProjection)

	var doc userDocument
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID.String()},
		bson.M{"$addToSet": bson.M{"friends": friendID.String()}},
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("adding friend: %w", err)
	}

	user := doc.toModel()
	return &user, nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M, projection bson.M) (*models.User, error) {
	var doc userDocument
	err := s.coll.FindOne(ctx, filter, options.FindOne().SetProjection(projection)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	user := doc.toModel()
	return &user, nil
}

func (s *UserStore) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	opts := options.Find().
		SetProjection(publicUserProjection).
		SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}

	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toModel())
	}
	return users, nil
}
