package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelane/aicore/internal/cache"
	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/utils"
)

// fakeCache keeps marshaled JSON in a map and records activity so tests can
// assert on invalidation behavior.
type fakeCache struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	gets    int
	hits    int
	dels    []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.gets++
	b, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.entries[key] = b
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
		c.dels = append(c.dels, k)
	}
	return nil
}

// fakeConvStore is an in-memory stand-in for the Mongo repository.
type fakeConvStore struct {
	convs map[string]*models.Conversation
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{convs: map[string]*models.Conversation{}}
}

func (s *fakeConvStore) Create(_ context.Context, c *models.Conversation) error {
	cp := *c
	s.convs[c.ConversationID] = &cp
	return nil
}

func (s *fakeConvStore) GetByConversationID(_ context.Context, id string) (*models.Conversation, error) {
	c, ok := s.convs[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *c
	cp.Messages = append([]models.Message(nil), c.Messages...)
	return &cp, nil
}

func (s *fakeConvStore) AppendMessage(_ context.Context, id string, msg models.Message) error {
	c, ok := s.convs[id]
	if !ok {
		return utils.ErrNotFound
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = msg.Timestamp
	return nil
}

func (s *fakeConvStore) ListByUser(_ context.Context, userID string, limit int) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range s.convs {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeConvStore) SearchMessages(_ context.Context, userID, term string, _ int) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range s.convs {
		if c.UserID != userID {
			continue
		}
		for _, m := range c.Messages {
			if containsFold(m.Content, term) {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

func containsFold(haystack, needle string) bool {
	h, n := []rune(haystack), []rune(needle)
	lower := func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + 32
		}
		return r
	}
	outer := len(h) - len(n)
	for i := 0; i <= outer; i++ {
		match := true
		for j := range n {
			if lower(h[i+j]) != lower(n[j]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (s *fakeConvStore) Delete(_ context.Context, id string) error {
	if _, ok := s.convs[id]; !ok {
		return utils.ErrNotFound
	}
	delete(s.convs, id)
	return nil
}

func newTestManager() (*Manager, *fakeCache, *fakeConvStore) {
	c := newFakeCache()
	s := newFakeConvStore()
	return NewManager(c, s, nil), c, s
}

func TestCreateConversationPopulatesCache(t *testing.T) {
	m, c, s := newTestManager()

	conv, err := m.CreateConversation(context.Background(), "user-1", map[string]string{"channel": "web"})
	require.NoError(t, err)
	require.NotEmpty(t, conv.ConversationID)

	_, inStore := s.convs[conv.ConversationID]
	assert.True(t, inStore, "durable store is the source of truth")
	_, inCache := c.entries[cacheKey(conv.ConversationID)]
	assert.True(t, inCache)
	assert.Equal(t, DefaultTTL, c.ttls[cacheKey(conv.ConversationID)])
}

func TestCreateConversationRequiresUser(t *testing.T) {
	m, _, _ := newTestManager()

	_, err := m.CreateConversation(context.Background(), "", nil)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestGetConversationCacheMissRepopulates(t *testing.T) {
	m, c, _ := newTestManager()

	conv, err := m.CreateConversation(context.Background(), "user-1", nil)
	require.NoError(t, err)

	// Drop the cache entry to force a durable-store load.
	delete(c.entries, cacheKey(conv.ConversationID))

	got, err := m.GetConversation(context.Background(), conv.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, conv.ConversationID, got.ConversationID)

	_, repopulated := c.entries[cacheKey(conv.ConversationID)]
	assert.True(t, repopulated, "miss must repopulate the cache")
}

func TestGetConversationNotFound(t *testing.T) {
	m, _, _ := newTestManager()

	_, err := m.GetConversation(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestAddMessageInvalidatesThenReloads(t *testing.T) {
	m, c, _ := newTestManager()
	ctx := context.Background()

	conv, err := m.CreateConversation(ctx, "user-1", nil)
	require.NoError(t, err)

	msg := models.Message{Role: models.RoleUser, Content: "hello there"}
	require.NoError(t, m.AddMessage(ctx, conv.ConversationID, msg))

	// Cache entry must be gone, not updated in place.
	_, cached := c.entries[cacheKey(conv.ConversationID)]
	assert.False(t, cached)
	assert.Contains(t, c.dels, cacheKey(conv.ConversationID))

	// Next read rebuilds from the durable store and sees the message,
	// regardless of prior cache state.
	got, err := m.GetConversation(ctx, conv.ConversationID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello there", got.Messages[0].Content)
}

func TestAddMessageValidation(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	conv, err := m.CreateConversation(ctx, "user-1", nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		msg  models.Message
	}{
		{"bad role", models.Message{Role: "narrator", Content: "x"}},
		{"empty content", models.Message{Role: models.RoleUser}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.AddMessage(ctx, conv.ConversationID, tt.msg)
			assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
		})
	}
}

func TestListAndSearchBypassCache(t *testing.T) {
	m, c, _ := newTestManager()
	ctx := context.Background()

	conv, err := m.CreateConversation(ctx, "user-1", nil)
	require.NoError(t, err)
	require.NoError(t, m.AddMessage(ctx, conv.ConversationID, models.Message{
		Role: models.RoleUser, Content: "tell me about Guidewire config",
	}))

	getsBefore := c.gets

	list, err := m.GetUserConversations(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	found, err := m.SearchMessages(ctx, "user-1", "guidewire", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	assert.Equal(t, getsBefore, c.gets, "list/search must not touch the cache")
}

func TestDeleteConversationRemovesBothTiers(t *testing.T) {
	m, c, s := newTestManager()
	ctx := context.Background()

	conv, err := m.CreateConversation(ctx, "user-1", nil)
	require.NoError(t, err)

	require.NoError(t, m.DeleteConversation(ctx, conv.ConversationID))

	_, inStore := s.convs[conv.ConversationID]
	assert.False(t, inStore)
	_, inCache := c.entries[cacheKey(conv.ConversationID)]
	assert.False(t, inCache)

	err = m.DeleteConversation(ctx, conv.ConversationID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestExtractPatternsAggregatesQuestions(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	conv, err := m.CreateConversation(ctx, "user-1", nil)
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, m.AddMessage(ctx, conv.ConversationID, models.Message{
			Role:      models.RoleUser,
			Content:   "How do I configure rating in PolicyCenter?",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, m.AddMessage(ctx, conv.ConversationID, models.Message{
		Role:      models.RoleUser,
		Content:   "I'm stuck on the deployment step",
		Timestamp: base.Add(10 * time.Minute),
	}))
	// Assistant messages never count toward user patterns.
	require.NoError(t, m.AddMessage(ctx, conv.ConversationID, models.Message{
		Role:      models.RoleAssistant,
		Content:   "Have you tried the rating worksheet?",
		Timestamp: base.Add(11 * time.Minute),
	}))

	patterns, err := m.ExtractPatterns(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, patterns)

	top := patterns[0]
	assert.Equal(t, models.PatternQuestion, top.Type)
	assert.Equal(t, 3, top.Occurrences)
	assert.True(t, top.FirstSeen.Before(top.LastSeen))

	var sawStruggle bool
	for _, p := range patterns {
		if p.Type == models.PatternStruggle {
			sawStruggle = true
		}
	}
	assert.True(t, sawStruggle)
}

func TestExtractPatternsEmptyHistory(t *testing.T) {
	m, _, _ := newTestManager()

	patterns, err := m.ExtractPatterns(context.Background(), "user-with-no-history")
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestCacheKeysUseSharedConversationNamespace(t *testing.T) {
	m, c, _ := newTestManager()

	conv, err := m.CreateConversation(context.Background(), "user-1", nil)
	require.NoError(t, err)

	_, ok := c.entries[cache.ConversationKey(conv.ConversationID)]
	assert.True(t, ok, "manager entries live under the cache package's conversation namespace")
}
