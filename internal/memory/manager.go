package memory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hirelane/aicore/internal/cache"
	"github.com/hirelane/aicore/internal/models"
	mongorepo "github.com/hirelane/aicore/internal/repositories/mongo"
	"github.com/hirelane/aicore/internal/utils"
)

const (
	// DefaultTTL bounds how stale a cached conversation can get before the
	// cache self-heals.
	DefaultTTL = 24 * time.Hour

	// readSLA is advisory; a breach logs and the read continues.
	readSLA = 100 * time.Millisecond
)

// Manager coordinates the short-term cache and the durable conversation
// store. The durable store is the sole source of truth; the cache is
// invalidated on write and lazily rebuilt on the next read.
type Manager struct {
	cache cache.Cache
	store mongorepo.ConversationRepository
	ttl   time.Duration
	log   *logrus.Entry
}

func NewManager(c cache.Cache, store mongorepo.ConversationRepository, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		cache: c,
		store: store,
		ttl:   DefaultTTL,
		log:   log.WithField("component", "memory"),
	}
}

func cacheKey(conversationID string) string { return cache.ConversationKey(conversationID) }

// CreateConversation writes the durable store first (source of truth), then
// populates the cache.
func (m *Manager) CreateConversation(ctx context.Context, userID string, metadata map[string]string) (*models.Conversation, error) {
	const op = "MemoryManager.CreateConversation"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	now := time.Now().UTC()
	conv := &models.Conversation{
		ConversationID: uuid.NewString(),
		UserID:         userID,
		Messages:       []models.Message{},
		Metadata:       metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := m.store.Create(ctx, conv); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create conversation", err)
	}

	if err := m.cache.SetJSON(ctx, cacheKey(conv.ConversationID), conv, m.ttl); err != nil {
		m.log.WithError(err).WithField("conversation_id", conv.ConversationID).
			Warn("cache populate failed after create")
	}
	return conv, nil
}

// GetConversation serves from cache when possible; a miss loads the durable
// store and repopulates the cache with the fixed TTL.
func (m *Manager) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	const op = "MemoryManager.GetConversation"

	if conversationID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "conversation_id is required", nil)
	}

	start := time.Now()
	defer func() {
		if elapsed := time.Since(start); elapsed > readSLA {
			m.log.WithFields(logrus.Fields{
				"conversation_id": conversationID,
				"elapsed_ms":      elapsed.Milliseconds(),
			}).Warn("conversation read exceeded advisory SLA")
		}
	}()

	var cached models.Conversation
	hit, err := m.cache.GetJSON(ctx, cacheKey(conversationID), &cached)
	if err != nil {
		// Cache trouble is never fatal to a read.
		m.log.WithError(err).Warn("cache read failed, falling through to durable store")
	}
	if hit {
		return &cached, nil
	}

	conv, err := m.store.GetByConversationID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "conversation not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load conversation", err)
	}

	if err := m.cache.SetJSON(ctx, cacheKey(conversationID), conv, m.ttl); err != nil {
		m.log.WithError(err).WithField("conversation_id", conversationID).
			Warn("cache repopulate failed")
	}
	return conv, nil
}

// AddMessage appends to the durable store then invalidates the cache entry.
// Invalidate-not-update avoids read-modify-write races between concurrent
// writers sharing one cache key; the next read rebuilds lazily.
func (m *Manager) AddMessage(ctx context.Context, conversationID string, msg models.Message) error {
	const op = "MemoryManager.AddMessage"

	if conversationID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "conversation_id is required", nil)
	}
	if msg.Role != models.RoleUser && msg.Role != models.RoleAssistant && msg.Role != models.RoleSystem {
		return utils.E(utils.CodeInvalidArgument, op, "role must be user, assistant, or system", nil)
	}
	if msg.Content == "" {
		return utils.E(utils.CodeInvalidArgument, op, "content is required", nil)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	if err := m.store.AppendMessage(ctx, conversationID, msg); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "conversation not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to append message", err)
	}

	if err := m.cache.Del(ctx, cacheKey(conversationID)); err != nil {
		// Stale reads self-heal at TTL expiry; log and move on.
		m.log.WithError(err).WithField("conversation_id", conversationID).
			Warn("cache invalidate failed after append")
	}
	return nil
}

// GetUserConversations bypasses the cache: list queries are durable-store-only.
func (m *Manager) GetUserConversations(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	const op = "MemoryManager.GetUserConversations"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := m.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list conversations", err)
	}
	return out, nil
}

// SearchMessages bypasses the cache as well.
func (m *Manager) SearchMessages(ctx context.Context, userID, term string, limit int) ([]models.Conversation, error) {
	const op = "MemoryManager.SearchMessages"

	if userID == "" || term == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and term are required", nil)
	}
	out, err := m.store.SearchMessages(ctx, userID, term, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to search messages", err)
	}
	return out, nil
}

// DeleteConversation removes the durable record then the cache entry.
func (m *Manager) DeleteConversation(ctx context.Context, conversationID string) error {
	const op = "MemoryManager.DeleteConversation"

	if conversationID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "conversation_id is required", nil)
	}
	if err := m.store.Delete(ctx, conversationID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "conversation not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete conversation", err)
	}
	if err := m.cache.Del(ctx, cacheKey(conversationID)); err != nil {
		m.log.WithError(err).WithField("conversation_id", conversationID).
			Warn("cache invalidate failed after delete")
	}
	return nil
}
