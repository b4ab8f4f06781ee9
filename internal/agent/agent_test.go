package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/router"
)

type fakeMemory struct {
	convs []models.Conversation
	err   error
}

func (m *fakeMemory) GetUserConversations(_ context.Context, _ string, _ int) ([]models.Conversation, error) {
	return m.convs, m.err
}

type fakeKnowledge struct {
	results []models.SearchResult
	err     error
}

func (k *fakeKnowledge) SearchKnowledge(_ context.Context, _ string, _ int) ([]models.SearchResult, error) {
	return k.results, k.err
}

type fakeCosts struct {
	records []models.UsageRecord
}

func (c *fakeCosts) TrackRequest(_ context.Context, rec models.UsageRecord) {
	c.records = append(c.records, rec)
}

func TestRouteModelDefaultsWithoutRouter(t *testing.T) {
	a := NewBase("bare", nil)

	d := a.RouteModel()
	assert.Equal(t, "openai", d.Provider)
	assert.Equal(t, "gpt-4o", d.Model)
}

func TestRouteModelUsesWiredRouterAndTier(t *testing.T) {
	a := NewBase("visual", nil,
		WithRouting(router.New(nil)),
		WithDefaultTier(router.TaskVision),
	)

	d := a.RouteModel()
	assert.Equal(t, "vertex", d.Provider)
	assert.Equal(t, "gemini-1.5-pro", d.Model)
}

func TestRememberContextDegradesToEmpty(t *testing.T) {
	bare := NewBase("bare", nil)
	assert.Empty(t, bare.RememberContext(context.Background(), "user-1", 10))

	failing := NewBase("failing", nil, WithMemory(&fakeMemory{err: assert.AnError}))
	assert.Empty(t, failing.RememberContext(context.Background(), "user-1", 10))

	wired := NewBase("wired", nil, WithMemory(&fakeMemory{
		convs: []models.Conversation{{UserID: "user-1"}},
	}))
	got := wired.RememberContext(context.Background(), "user-1", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "user-1", got[0].UserID)
}

func TestSearchKnowledgeDegradesToEmpty(t *testing.T) {
	bare := NewBase("bare", nil)
	assert.Empty(t, bare.SearchKnowledge(context.Background(), "query", 5))

	failing := NewBase("failing", nil, WithKnowledge(&fakeKnowledge{err: assert.AnError}))
	assert.Empty(t, failing.SearchKnowledge(context.Background(), "query", 5))

	wired := NewBase("wired", nil, WithKnowledge(&fakeKnowledge{
		results: []models.SearchResult{{ID: "doc-1_0", Similarity: 0.93}},
	}))
	got := wired.SearchKnowledge(context.Background(), "query", 5)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.93, got[0].Similarity, 1e-9)
}

func TestTrackCostForwardsWhenWired(t *testing.T) {
	costs := &fakeCosts{}
	a := NewBase("wired", nil, WithCostTracking(costs))

	a.TrackCost(context.Background(), models.UsageRecord{UserID: "user-1", Model: "gpt-4o", CostUSD: 0.02})
	require.Len(t, costs.records, 1)
	assert.Equal(t, "gpt-4o", costs.records[0].Model)

	// Without a tracker the call is a logged no-op, never a panic.
	bare := NewBase("bare", nil)
	bare.TrackCost(context.Background(), models.UsageRecord{UserID: "user-1", Model: "gpt-4o"})
}

func TestTrackCostDropsIdentityLessRecords(t *testing.T) {
	costs := &fakeCosts{}
	a := NewBase("wired", nil, WithCostTracking(costs))

	a.TrackCost(context.Background(), models.UsageRecord{Model: "gpt-4o", CostUSD: 0.01})
	assert.Empty(t, costs.records, "a record with neither org nor user must not reach the ledger")

	a.TrackCost(context.Background(), models.UsageRecord{OrgID: "org-1", Model: "gpt-4o", CostUSD: 0.01})
	a.TrackCost(context.Background(), models.UsageRecord{UserID: "user-1", Model: "gpt-4o", CostUSD: 0.01})
	assert.Len(t, costs.records, 2, "either identity field alone is enough")
}
