package stores

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"questmatch/app/models"
)

// MongoMatchStore persists created matches in a MongoDB collection.
// Matches are insert-only from the queue subsystem's perspective; the
// delete path exists only to roll back a partially committed match.
type MongoMatchStore struct {
	collection *mongo.Collection
}

// NewMongoMatchStore creates a match store over the given collection
func NewMongoMatchStore(collection *mongo.Collection) *MongoMatchStore {
	return &MongoMatchStore{collection: collection}
}

// Insert stores a new match
func (s *MongoMatchStore) Insert(match *models.Match) error {
	_, err := s.collection.InsertOne(context.Background(), match)
	if err != nil {
		return fmt.Errorf("failed to insert match %s: %v", match.ID, err)
	}
	return nil
}

// Delete removes a match row (rollback only)
func (s *MongoMatchStore) Delete(id string) error {
	_, err := s.collection.DeleteOne(context.Background(), bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete match %s: %v", id, err)
	}
	return nil
}

// FindByID returns the match or models.ErrMatchNotFound
func (s *MongoMatchStore) FindByID(id string) (*models.Match, error) {
	var match models.Match
	err := s.collection.FindOne(context.Background(), bson.M{"id": id}).Decode(&match)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find match %s: %v", id, err)
	}
	return &match, nil
}

// CountCreatedSince counts matches created at or after the given time
func (s *MongoMatchStore) CountCreatedSince(t time.Time) (int64, error) {
	count, err := s.collection.CountDocuments(context.Background(), bson.M{
		"created_at": bson.M{"$gte": t},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %v", err)
	}
	return count, nil
}
