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
)

// testOrderPattern matches order numbers of trial purchases merchants
// place to verify their setup; they are excluded from the revenue sum.
const testOrderPattern = "^TEST"

// MongoDeliveryLogRepository implements DeliveryLogRepository using MongoDB.
type MongoDeliveryLogRepository struct {
	collection *mongo.Collection
}

// NewMongoDeliveryLogRepository creates a new MongoDB delivery log repository.
func NewMongoDeliveryLogRepository(db *mongo.Database) ports.DeliveryLogRepository {
	return &MongoDeliveryLogRepository{
		collection: db.Collection("delivery_log"),
	}
}

// Append inserts one delivery record. Entries are append-only.
func (r *MongoDeliveryLogRepository) Append(ctx context.Context, entry *domain.DeliveryLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append delivery log entry: %w", err)
	}
	return nil
}

// Stats aggregates notification count and revenue, optionally for one store.
func (r *MongoDeliveryLogRepository) Stats(ctx context.Context, storeID string) (*domain.DeliveryStats, error) {
	match := bson.M{}
	if storeID != "" {
		match["store_id"] = storeID
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"notifications": bson.M{"$sum": 1},
			"revenue":       bson.M{"$sum": "$order_total"},
			"revenue_excluding_test": bson.M{"$sum": bson.M{
				"$cond": bson.A{
					bson.M{"$regexMatch": bson.M{
						"input": bson.M{"$ifNull": bson.A{"$order_number", ""}},
						"regex": testOrderPattern,
					}},
					0,
					"$order_total",
				},
			}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate delivery log: %w", err)
	}
	defer cursor.Close(ctx)

	var row struct {
		Notifications        int64   `bson:"notifications"`
		Revenue              float64 `bson:"revenue"`
		RevenueExcludingTest float64 `bson:"revenue_excluding_test"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode stats: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return &domain.DeliveryStats{
		Notifications:        row.Notifications,
		Revenue:              row.Revenue,
		RevenueExcludingTest: row.RevenueExcludingTest,
	}, nil
}

// Reset deletes the whole log.
func (r *MongoDeliveryLogRepository) Reset(ctx context.Context) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to reset delivery log: %w", err)
	}
	return nil
}
