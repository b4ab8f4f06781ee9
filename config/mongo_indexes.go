package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureMongoIndexes creates the indexes the memory and orchestration layers
// rely on. Safe to call on every boot; index creation is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	if db == nil {
		return errors.New("mongo database is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conversations := db.Collection("conversations")
	_, err := conversations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "conversation_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_conversation_id").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("by_user_updated"),
		},
	})
	if err != nil {
		return err
	}

	// Interaction logs are telemetry; 30 days is plenty for the escalation
	// window (24h) and pattern extraction.
	interactions := db.Collection("interactions")
	_, err = interactions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("by_user_ts"),
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().
				SetName("ttl_timestamp").
				SetExpireAfterSeconds(int32((30 * 24 * time.Hour).Seconds())),
		},
	})
	if err != nil {
		return err
	}

	handoffs := db.Collection("handoffs")
	_, err = handoffs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "to_handler", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("by_target_ts"),
		},
	})
	return err
}
