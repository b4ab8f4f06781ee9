package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository is the durable conversation store. AppendMessage is
// a single $push so concurrent appends to one conversation serialize inside
// the storage engine, preserving message order without coordination here.
type ConversationRepository interface {
	Create(ctx context.Context, c *models.Conversation) error
	GetByConversationID(ctx context.Context, conversationID string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, msg models.Message) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Conversation, error)
	SearchMessages(ctx context.Context, userID, term string, limit int) ([]models.Conversation, error)
	Delete(ctx context.Context, conversationID string) error
}

type conversationRepo struct {
	col *mongo.Collection
}

func NewConversationRepo(db *mongo.Database) ConversationRepository {
	return &conversationRepo{col: db.Collection("conversations")}
}

func (r *conversationRepo) Create(ctx context.Context, c *models.Conversation) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	if c.Messages == nil {
		c.Messages = []models.Message{}
	}
	_, err := r.col.InsertOne(ctx, c)
	return err
}

func (r *conversationRepo) GetByConversationID(ctx context.Context, conversationID string) (*models.Conversation, error) {
	var c models.Conversation
	err := r.col.FindOne(ctx, bson.M{"conversation_id": conversationID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *conversationRepo) AppendMessage(ctx context.Context, conversationID string, msg models.Message) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"conversation_id": conversationID},
		bson.M{
			"$push": bson.M{"messages": msg},
			"$set":  bson.M{"updated_at": msg.Timestamp},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *conversationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().
			SetSort(bson.D{{Key: "updated_at", Value: -1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationRepo) SearchMessages(ctx context.Context, userID, term string, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	filter := bson.M{
		"user_id": userID,
		"messages.content": bson.M{
			"$regex":   regexQuoteMeta(term),
			"$options": "i",
		},
	}
	cur, err := r.col.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "updated_at", Value: -1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationRepo) Delete(ctx context.Context, conversationID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"conversation_id": conversationID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// regexQuoteMeta escapes user input before it reaches a $regex filter.
func regexQuoteMeta(s string) string {
	special := `\.+*?()|[]{}^$`
	out := make([]rune, 0, len(s))
	for _, r := range s {
		for _, sp := range special {
			if r == sp {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, r)
	}
	return string(out)
}
