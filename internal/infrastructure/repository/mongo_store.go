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

// MongoStoreRepository implements StoreRepository using MongoDB.
type MongoStoreRepository struct {
	collection *mongo.Collection
}

// NewMongoStoreRepository creates a new MongoDB store repository.
func NewMongoStoreRepository(db *mongo.Database) ports.StoreRepository {
	return &MongoStoreRepository{
		collection: db.Collection("stores"),
	}
}

// Create inserts a new store. The unique indexes on integration_id and
// link_code enforce the registry's uniqueness invariants.
func (r *MongoStoreRepository) Create(ctx context.Context, store *domain.Store) error {
	if store.ID == "" {
		store.ID = uuid.NewString()
	}
	if store.CreatedAt.IsZero() {
		store.CreatedAt = time.Now()
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "integration_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "link_code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = r.collection.Indexes().CreateMany(ctx, indexes)

	_, err := r.collection.InsertOne(ctx, store)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	return nil
}

// GetByIntegrationID retrieves the active store for an integration ID.
func (r *MongoStoreRepository) GetByIntegrationID(ctx context.Context, integrationID string) (*domain.Store, error) {
	return r.findOne(ctx, bson.M{"integration_id": integrationID, "active": true})
}

// GetByLinkCode retrieves the active store for a link code.
func (r *MongoStoreRepository) GetByLinkCode(ctx context.Context, linkCode string) (*domain.Store, error) {
	return r.findOne(ctx, bson.M{"link_code": linkCode, "active": true})
}

// GetByID retrieves a store by its ID.
func (r *MongoStoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoStoreRepository) findOne(ctx context.Context, filter bson.M) (*domain.Store, error) {
	var store domain.Store
	err := r.collection.FindOne(ctx, filter).Decode(&store)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return &store, nil
}

// List retrieves all active stores, newest first.
func (r *MongoStoreRepository) List(ctx context.Context) ([]*domain.Store, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer cursor.Close(ctx)

	var stores []*domain.Store
	for cursor.Next(ctx) {
		var store domain.Store
		if err := cursor.Decode(&store); err != nil {
			return nil, fmt.Errorf("failed to decode store: %w", err)
		}
		stores = append(stores, &store)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return stores, nil
}

// Reset deletes all stores.
func (r *MongoStoreRepository) Reset(ctx context.Context) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to reset stores: %w", err)
	}
	return nil
}
