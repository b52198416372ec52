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

var thoughtProjection = bson.M{"__v": 0}

var _ services.ThoughtStore = (*ThoughtStore)(nil)

type ThoughtStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewThoughtStore(db *mongo.Database) *ThoughtStore {
	return &ThoughtStore{coll: db.Collection(thoughtsCollection), now: time.Now}
}

func (s *ThoughtStore) Create(ctx context.Context, params models.CreateThoughtParams) (*models.Thought, error) {
	doc := thoughtDocument{
		ID:          uuid.NewString(),
		ThoughtText: params.ThoughtText,
		Username:    params.Username,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
		Reactions:   []reactionDocument{},
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating thought: %w", err)
	}

	thought := doc.toModel()
	return &thought, nil
}

func (s *ThoughtStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return fmt.Errorf("deleting thought: %w", err)
	}
	return nil
}

func (s *ThoughtStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Thought, error) {
	var doc thoughtDocument
	err := s.coll.FindOne(ctx,
		bson.M{"_id": id.String()},
		options.FindOne().SetProjection(thoughtProjection),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting thought: %w", err)
	}
	thought := doc.toModel()
	return &thought, nil
}

func (s *ThoughtStore) Find(ctx context.Context, filter models.ThoughtFilter) ([]models.Thought, error) {
	query := bson.M{}
	if filter.Username != nil {
		query["username"] = *filter.Username
	}
	return s.find(ctx, query)
}

func (s *ThoughtStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Thought, error) {
	if len(ids) == 0 {
		return []models.Thought{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}})
}

func (s *ThoughtStore) AppendReaction(ctx context.Context, thoughtID uuid.UUID, params models.CreateReactionParams) (*models.Thought, error) {
	reaction := reactionDocument{
		ReactionID:   uuid.NewString(),
		ReactionBody: params.ReactionBody,
		Username:     params.Username,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(thoughtProjection)

	var doc thoughtDocument
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": thoughtID.String()},
		bson.M{"$push": bson.M{"reactions": reaction}},
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("adding reaction: %w", err)
	}

	thought := doc.toModel()
	return &thought, nil
}

func (s *ThoughtStore) find(ctx context.Context, filter bson.M) ([]models.Thought, error) {
	opts := options.Find().
		SetProjection(thoughtProjection).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing thoughts: %w", err)
	}

	var docs []thoughtDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding thoughts: %w", err)
	}

	thoughts := make([]models.Thought, 0, len(docs))
	for _, d := range docs {
		thoughts = append(thoughts, d.toModel())
	}
	return thoughts, nil
}
