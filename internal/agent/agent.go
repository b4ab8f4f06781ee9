package agent

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/router"
)

// The capability interfaces deliberately mirror the concrete substrate
// components so wiring is a one-line adapter at most. An agent built with
// none of them still works; it just answers without routing, memory,
// knowledge, or cost telemetry.

// ModelRouting picks a provider/model for a task tier.
type ModelRouting interface {
	Route(task router.TaskType) router.Decision
}

// ContextMemory recalls a user's recent conversations.
type ContextMemory interface {
	GetUserConversations(ctx context.Context, userID string, limit int) ([]models.Conversation, error)
}

// KnowledgeSearch runs a similarity query against the indexed corpus.
type KnowledgeSearch interface {
	SearchKnowledge(ctx context.Context, query string, topK int) ([]models.SearchResult, error)
}

// CostTracking records usage telemetry. Implementations are fire-and-forget.
type CostTracking interface {
	TrackRequest(ctx context.Context, rec models.UsageRecord)
}

// BaseAgent is the shared capability layer specialist agents embed. Every
// capability is optional; absent ones degrade to safe defaults rather than
// nil-pointer panics.
type BaseAgent struct {
	name    string
	routing ModelRouting
	memory  ContextMemory
	search  KnowledgeSearch
	costs   CostTracking
	tier    router.TaskType
	log     *logrus.Entry
}

// Option configures optional capabilities at construction.
type Option func(*BaseAgent)

func WithRouting(r ModelRouting) Option      { return func(a *BaseAgent) { a.routing = r } }
func WithMemory(m ContextMemory) Option      { return func(a *BaseAgent) { a.memory = m } }
func WithKnowledge(s KnowledgeSearch) Option { return func(a *BaseAgent) { a.search = s } }
func WithCostTracking(c CostTracking) Option { return func(a *BaseAgent) { a.costs = c } }

// WithDefaultTier overrides the task tier used when no router is wired and
// as the agent's routing key.
func WithDefaultTier(t router.TaskType) Option { return func(a *BaseAgent) { a.tier = t } }

func NewBase(name string, log *logrus.Logger, opts ...Option) *BaseAgent {
	if log == nil {
		log = logrus.New()
	}
	a := &BaseAgent{
		name: name,
		tier: router.TaskReasoning,
		log:  log.WithField("agent", name),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *BaseAgent) Name() string { return a.name }

// defaultDecision is what RouteModel returns when no router is wired: the
// reasoning-tier workhorse, priced so cost estimates stay meaningful.
var defaultDecision = router.Decision{
	Provider:        "openai",
	Model:           "gpt-4o",
	Reasoning:       "static default, no router wired",
	InputPricePerM:  2.50,
	OutputPricePerM: 10.00,
}

// RouteModel picks the model for this agent's tier.
func (a *BaseAgent) RouteModel() router.Decision {
	if a.routing == nil {
		return defaultDecision
	}
	return a.routing.Route(a.tier)
}

// RememberContext fetches the requester's recent conversations. No memory
// wired, or a lookup failure, yields an empty slice: context is an
// enrichment, never a dependency.
func (a *BaseAgent) RememberContext(ctx context.Context, userID string, limit int) []models.Conversation {
	if a.memory == nil {
		return nil
	}
	convs, err := a.memory.GetUserConversations(ctx, userID, limit)
	if err != nil {
		a.log.WithError(err).WithField("user_id", userID).Warn("context recall failed")
		return nil
	}
	return convs
}

// SearchKnowledge queries the indexed corpus. Same degradation contract as
// RememberContext.
func (a *BaseAgent) SearchKnowledge(ctx context.Context, query string, topK int) []models.SearchResult {
	if a.search == nil {
		return nil
	}
	results, err := a.search.SearchKnowledge(ctx, query, topK)
	if err != nil {
		a.log.WithError(err).Warn("knowledge search failed")
		return nil
	}
	return results
}

// TrackCost forwards usage telemetry. It warns and drops the record when no
// tracker is wired or the record carries no org/user identity; an
// unattributable row would poison every scoped aggregate downstream.
func (a *BaseAgent) TrackCost(ctx context.Context, rec models.UsageRecord) {
	if a.costs == nil {
		a.log.WithFields(logrus.Fields{
			"model":    rec.Model,
			"cost_usd": rec.CostUSD,
		}).Warn("no cost tracker wired, usage not recorded")
		return
	}
	if rec.OrgID == "" && rec.UserID == "" {
		a.log.WithFields(logrus.Fields{
			"model":    rec.Model,
			"cost_usd": rec.CostUSD,
		}).Warn("usage record has no org or user identity, not recorded")
		return
	}
	a.costs.TrackRequest(ctx, rec)
}
