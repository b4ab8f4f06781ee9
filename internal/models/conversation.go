package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role of a message author.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation is the durable unit of the memory tier. Messages are
// append-only and strictly ordered by timestamp; the document as a whole is
// removed by an explicit delete, never edited in place.
type Conversation struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ConversationID string             `bson:"conversation_id" json:"conversation_id"` // uuid v4
	UserID         string             `bson:"user_id" json:"user_id"`
	Messages       []Message          `bson:"messages" json:"messages"`
	Metadata       map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

type Message struct {
	Role      string            `bson:"role" json:"role"` // user|assistant|system
	Content   string            `bson:"content" json:"content"`
	Timestamp time.Time         `bson:"timestamp" json:"timestamp"`
	Metadata  map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// PatternType classifies a recurring signal in a user's recent conversations.
type PatternType string

const (
	PatternQuestion   PatternType = "question"
	PatternStruggle   PatternType = "struggle"
	PatternPreference PatternType = "preference"
	PatternSkill      PatternType = "skill"
)

// Pattern is derived, recomputed on demand, and never authoritative.
type Pattern struct {
	UserID      string      `json:"user_id"`
	Type        PatternType `json:"type"`
	Description string      `json:"description"`
	Occurrences int         `json:"occurrences"`
	FirstSeen   time.Time   `json:"first_seen"`
	LastSeen    time.Time   `json:"last_seen"`
}
