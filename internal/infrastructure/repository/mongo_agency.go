package repository

import (
	"context"
	"fmt"
	"time"

	"storefront-notify-relay/internal/domain"
	"storefront-notify-relay/internal/ports"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAgencyRepository implements AgencyRepository using MongoDB.
type MongoAgencyRepository struct {
	collection *mongo.Collection
}

// NewMongoAgencyRepository creates a new MongoDB agency repository.
func NewMongoAgencyRepository(db *mongo.Database) ports.AgencyRepository {
	return &MongoAgencyRepository{
		collection: db.Collection("agencies"),
	}
}

// Create inserts a new agency.
func (r *MongoAgencyRepository) Create(ctx context.Context, agency *domain.Agency) error {
	if agency.ID == "" {
		agency.ID = uuid.NewString()
	}
	if agency.CreatedAt.IsZero() {
		agency.CreatedAt = time.Now()
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "api_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = r.collection.Indexes().CreateOne(ctx, indexModel)

	_, err := r.collection.InsertOne(ctx, agency)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to create agency: %w", err)
	}
	return nil
}

// GetByAPIKey retrieves an active agency by its API key.
func (r *MongoAgencyRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Agency, error) {
	var agency domain.Agency
	err := r.collection.FindOne(ctx, bson.M{"api_key": apiKey, "active": true}).Decode(&agency)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agency: %w", err)
	}
	return &agency, nil
}

// List retrieves all agencies, newest first.
func (r *MongoAgencyRepository) List(ctx context.Context) ([]*domain.Agency, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list agencies: %w", err)
	}
	defer cursor.Close(ctx)

	var agencies []*domain.Agency
	for cursor.Next(ctx) {
		var agency domain.Agency
		if err := cursor.Decode(&agency); err != nil {
			return nil, fmt.Errorf("failed to decode agency: %w", err)
		}
		agencies = append(agencies, &agency)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return agencies, nil
}

// Reset deletes all agencies.
func (r *MongoAgencyRepository) Reset(ctx context.Context) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to reset agencies: %w", err)
	}
	return nil
}
