package identity

import (
	"context"
	"errors"
	"fmt"
	"staybook/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Users"

var ErrInvalidID = errors.New("invalid user ID format")

type mongoUserStore struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserStore(cfg *config.Config) UserStore {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserStore{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (s *mongoUserStore) Exists(ctx context.Context, userID string) (bool, error) {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidID, userID)
	}

	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}
