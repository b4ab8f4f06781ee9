package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hirelane/aicore/internal/ledger"
	"github.com/hirelane/aicore/internal/models"
	mongorepo "github.com/hirelane/aicore/internal/repositories/mongo"
	"github.com/hirelane/aicore/internal/router"
	"github.com/hirelane/aicore/internal/utils"
)

// Notifier delivers an escalation event to a human channel.
type Notifier interface {
	NotifyEscalation(ctx context.Context, ev models.EscalationEvent, response string) error
}

const (
	// A requester asking near-identical questions this many times inside the
	// window is treated as stuck and escalated.
	escalationThreshold = 5
	escalationWindow    = 24 * time.Hour

	// Queries are compared by a normalized prefix; full-text similarity is
	// deliberately out of scope for the counter.
	signaturePrefixLen = 50

	responseLogLimit = 500
)

// HandleResult is what callers of the coordinator get back.
type HandleResult struct {
	Response    string  `json:"response"`
	HandlerUsed string  `json:"handler_used"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Escalated   bool    `json:"escalated"`
}

// Coordinator wraps the orchestrator with interaction logging, repetition
// detection, cost tracking, and handler-to-handler handoffs.
type Coordinator struct {
	orch         *Orchestrator
	interactions mongorepo.InteractionRepository
	notifier     Notifier
	ledger       *ledger.Ledger
	modelRouter  *router.ModelRouter
	now          func() time.Time
	log          *logrus.Entry
}

func NewCoordinator(orch *Orchestrator, interactions mongorepo.InteractionRepository, notifier Notifier, l *ledger.Ledger, r *router.ModelRouter, log *logrus.Logger) *Coordinator {
	if log == nil {
		log = logrus.New()
	}
	return &Coordinator{
		orch:         orch,
		interactions: interactions,
		notifier:     notifier,
		ledger:       l,
		modelRouter:  r,
		now:          time.Now,
		log:          log.WithField("component", "coordinator"),
	}
}

// Register exposes the underlying registry.
func (c *Coordinator) Register(category string, h Handler) error {
	return c.orch.Register(category, h)
}

// Handle routes one query end to end. The interaction log, cost record, and
// escalation notification are all side effects: their failures are logged
// and the caller still gets the routed response.
func (c *Coordinator) Handle(ctx context.Context, query, requester string, reqContext map[string]string) (*HandleResult, error) {
	const op = "Coordinator.Handle"

	if strings.TrimSpace(query) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "query is required", nil)
	}
	if strings.TrimSpace(requester) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "requester is required", nil)
	}

	res, err := c.orch.Route(ctx, query, requester, reqContext)
	if err != nil {
		return nil, err
	}

	c.recordInteraction(ctx, requester, query, res)
	c.trackClassificationCost(ctx, requester, res)

	escalated := c.detectRepetition(ctx, requester, query, res)

	return &HandleResult{
		Response:    res.Response,
		HandlerUsed: res.HandlerName,
		Category:    res.Category,
		Confidence:  res.Confidence,
		Escalated:   escalated,
	}, nil
}

func (c *Coordinator) recordInteraction(ctx context.Context, requester, query string, res *RouteResult) {
	err := c.interactions.Insert(ctx, &models.InteractionLog{
		UserID:     requester,
		Handler:    res.HandlerName,
		Category:   res.Category,
		Query:      query,
		Response:   truncate(res.Response, responseLogLimit),
		Confidence: res.Confidence,
		Timestamp:  c.now().UTC(),
	})
	if err != nil {
		c.log.WithError(err).Warn("interaction log write failed")
	}
}

func (c *Coordinator) trackClassificationCost(ctx context.Context, requester string, res *RouteResult) {
	if c.ledger == nil || c.modelRouter == nil {
		return
	}
	if res.Usage.InputTokens == 0 && res.Usage.OutputTokens == 0 {
		return
	}
	d := c.modelRouter.Route(router.TaskSimple)
	c.ledger.TrackRequest(ctx, models.UsageRecord{
		UserID:       requester,
		Provider:     d.Provider,
		Model:        d.Model,
		InputTokens:  res.Usage.InputTokens,
		OutputTokens: res.Usage.OutputTokens,
		CostUSD:      c.modelRouter.EstimateCost(router.TaskSimple, res.Usage.InputTokens, res.Usage.OutputTokens),
	})
}

// detectRepetition counts this requester's near-duplicate queries inside the
// window, the current one included. At or past the threshold it notifies;
// every further duplicate notifies again.
func (c *Coordinator) detectRepetition(ctx context.Context, requester, query string, res *RouteResult) bool {
	sig := querySignature(query)
	since := c.now().UTC().Add(-escalationWindow)

	recent, err := c.interactions.ListByUserSince(ctx, requester, since, 200)
	if err != nil {
		c.log.WithError(err).Warn("repetition lookup failed, skipping escalation check")
		return false
	}

	matches := 0
	for _, it := range recent {
		if querySignature(it.Query) == sig {
			matches++
		}
	}
	if matches < escalationThreshold {
		return false
	}

	ev := models.EscalationEvent{
		Requester: requester,
		Query:     query,
		Category:  res.Category,
		Timestamp: c.now().UTC(),
	}
	c.log.WithFields(logrus.Fields{
		"requester": requester,
		"category":  res.Category,
		"matches":   matches,
	}).Warn("repeated query threshold reached, escalating")

	if c.notifier != nil {
		if err := c.notifier.NotifyEscalation(ctx, ev, res.Response); err != nil {
			c.log.WithError(err).Warn("escalation notification failed")
		}
	}
	return true
}

// querySignature normalizes a query to its comparison key: lowercased,
// whitespace collapsed, clipped to a fixed prefix.
func querySignature(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > signaturePrefixLen {
		q = q[:signaturePrefixLen]
	}
	return q
}

// Handoff transfers context from one handler to another. The record write
// and the delivery are sequential with no rollback: a recorded handoff whose
// delivery fails stays recorded.
func (c *Coordinator) Handoff(ctx context.Context, fromHandler, toHandler string, handoffContext map[string]string) error {
	const op = "Coordinator.Handoff"

	target, ok := c.orch.handlerFor(strings.ToLower(strings.TrimSpace(toHandler)))
	if !ok {
		return utils.E(utils.CodeNotFound, op, "target handler is not registered", nil)
	}

	if err := c.interactions.InsertHandoff(ctx, &models.HandoffRecord{
		FromHandler: fromHandler,
		ToHandler:   toHandler,
		Context:     handoffContext,
		Timestamp:   c.now().UTC(),
	}); err != nil {
		c.log.WithError(err).Warn("handoff record write failed, delivering anyway")
	}

	_, err := target.Execute(ctx, Input{
		Query:     handoffContext["query"],
		Requester: handoffContext["requester"],
		Context:   handoffContext,
	})
	if err != nil {
		return utils.E(utils.CodeUpstream, op, "target handler rejected the handoff", err)
	}
	return nil
}
