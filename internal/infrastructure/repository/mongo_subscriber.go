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

// MongoSubscriberRepository implements SubscriberRepository using MongoDB.
type MongoSubscriberRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriberRepository creates a new MongoDB subscriber repository.
func NewMongoSubscriberRepository(db *mongo.Database) ports.SubscriberRepository {
	return &MongoSubscriberRepository{
		collection: db.Collection("subscribers"),
	}
}

// Upsert writes the binding for a chat ID. The unique index on chat_id
// keeps one row per chat identity; an existing row is overwritten in
// place so the original binding timestamp survives a re-link.
func (r *MongoSubscriberRepository) Upsert(ctx context.Context, sub *domain.Subscriber) (bool, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "chat_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = r.collection.Indexes().CreateOne(ctx, indexModel)

	filter := bson.M{"chat_id": sub.ChatID}
	update := bson.M{
		"$set": bson.M{
			"store_id":   sub.StoreID,
			"first_name": sub.FirstName,
			"last_name":  sub.LastName,
			"username":   sub.Username,
			"active":     true,
		},
		"$setOnInsert": bson.M{
			"_id":        sub.ID,
			"chat_id":    sub.ChatID,
			"created_at": sub.CreatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	return result.UpsertedCount == 1, nil
}

// GetByChatID retrieves the active binding for a chat ID.
func (r *MongoSubscriberRepository) GetByChatID(ctx context.Context, chatID string) (*domain.Subscriber, error) {
	var sub domain.Subscriber
	err := r.collection.FindOne(ctx, bson.M{"chat_id": chatID, "active": true}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	return &sub, nil
}

// Deactivate clears the active flag for a chat ID; unknown IDs are a no-op.
func (r *MongoSubscriberRepository) Deactivate(ctx context.Context, chatID string) error {
	filter := bson.M{"chat_id": chatID}
	update := bson.M{"$set": bson.M{"active": false}}
	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to deactivate subscriber: %w", err)
	}
	return nil
}

// ListActiveByStore retrieves the active bindings for a store.
func (r *MongoSubscriberRepository) ListActiveByStore(ctx context.Context, storeID string) ([]*domain.Subscriber, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"store_id": storeID, "active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []*domain.Subscriber
	for cursor.Next(ctx) {
		var sub domain.Subscriber
		if err := cursor.Decode(&sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscriber: %w", err)
		}
		subs = append(subs, &sub)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return subs, nil
}

// CountActiveByStore counts the active bindings for a store.
func (r *MongoSubscriberRepository) CountActiveByStore(ctx context.Context, storeID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"store_id": storeID, "active": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return count, nil
}

// Reset deletes all bindings.
func (r *MongoSubscriberRepository) Reset(ctx context.Context) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to reset subscribers: %w", err)
	}
	return nil
}
