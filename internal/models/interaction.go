package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InteractionLog records one routed query. Written fire-and-forget; the
// escalation window is counted over these rows.
type InteractionLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID     string             `bson:"user_id" json:"user_id"`
	Handler    string             `bson:"handler" json:"handler"`
	Category   string             `bson:"category" json:"category"`
	Query      string             `bson:"query" json:"query"`
	Response   string             `bson:"response,omitempty" json:"response,omitempty"` // truncated
	Confidence float64            `bson:"confidence" json:"confidence"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}

// EscalationEvent is emitted as a side effect when a requester looks stuck.
// It is not queried back by this subsystem.
type EscalationEvent struct {
	Requester string    `json:"requester"`
	Query     string    `json:"query"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// HandoffRecord documents a context transfer between two handlers. Delivery
// is at-most-once; there is no rollback on partial failure.
type HandoffRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	FromHandler string             `bson:"from_handler" json:"from_handler"`
	ToHandler   string             `bson:"to_handler" json:"to_handler"`
	Context     map[string]string  `bson:"context,omitempty" json:"context,omitempty"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}
