package mongo

import (
	"context"
	"time"

	"github.com/hirelane/aicore/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InteractionRepository stores routed-query telemetry and handoff records.
// Writers treat failures as best-effort; only the escalation counter reads
// back through it.
type InteractionRepository interface {
	Insert(ctx context.Context, log *models.InteractionLog) error
	ListByUserSince(ctx context.Context, userID string, since time.Time, limit int) ([]models.InteractionLog, error)
	InsertHandoff(ctx context.Context, h *models.HandoffRecord) error
}

type interactionRepo struct {
	interactions *mongo.Collection
	handoffs     *mongo.Collection
}

func NewInteractionRepo(db *mongo.Database) InteractionRepository {
	return &interactionRepo{
		interactions: db.Collection("interactions"),
		handoffs:     db.Collection("handoffs"),
	}
}

func (r *interactionRepo) Insert(ctx context.Context, log *models.InteractionLog) error {
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	_, err := r.interactions.InsertOne(ctx, log)
	return err
}

func (r *interactionRepo) ListByUserSince(ctx context.Context, userID string, since time.Time, limit int) ([]models.InteractionLog, error) {
	if limit <= 0 {
		limit = 100
	}
	cur, err := r.interactions.Find(ctx,
		bson.M{
			"user_id":   userID,
			"timestamp": bson.M{"$gte": since.UTC()},
		},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.InteractionLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *interactionRepo) InsertHandoff(ctx context.Context, h *models.HandoffRecord) error {
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now().UTC()
	}
	_, err := r.handoffs.InsertOne(ctx, h)
	return err
}
