package orchestrator

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hirelane/aicore/internal/providers/llm"
	"github.com/hirelane/aicore/internal/utils"
)

// RouteResult is the outcome of one classify-and-dispatch pass.
type RouteResult struct {
	HandlerName string            `json:"handler_name"`
	Category    string            `json:"category"`
	Response    string            `json:"response"`
	Confidence  float64           `json:"confidence"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Usage       llm.Usage         `json:"-"`
}

// Orchestrator owns the handler registry and dispatches queries to the
// handler registered for the classified intent. It degrades rather than
// fails: a missing or erroring handler yields a confidence-zero apology,
// not an error.
type Orchestrator struct {
	classifier IntentClassifier
	mu         sync.RWMutex
	handlers   map[string]Handler
	log        *logrus.Entry
}

func NewOrchestrator(classifier IntentClassifier, log *logrus.Logger) *Orchestrator {
	if log == nil {
		log = logrus.New()
	}
	return &Orchestrator{
		classifier: classifier,
		handlers:   map[string]Handler{},
		log:        log.WithField("component", "orchestrator"),
	}
}

// Register binds a handler to an intent category. Later registrations for
// the same category replace earlier ones.
func (o *Orchestrator) Register(category string, h Handler) error {
	const op = "Orchestrator.Register"

	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return utils.E(utils.CodeInvalidArgument, op, "category is required", nil)
	}
	if h == nil {
		return utils.E(utils.CodeInvalidArgument, op, "handler is required", nil)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, replaced := o.handlers[category]; replaced {
		o.log.WithField("category", category).Warn("replacing registered handler")
	}
	o.handlers[category] = h
	return nil
}

// Handlers lists the registered categories.
func (o *Orchestrator) Handlers() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, 0, len(o.handlers))
	for c := range o.handlers {
		out = append(out, c)
	}
	return out
}

func (o *Orchestrator) handlerFor(category string) (Handler, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	h, ok := o.handlers[category]
	return h, ok
}

const degradedResponse = "I couldn't complete that request right now. Please rephrase or try again in a moment."

// Route classifies the query and executes the matching handler.
func (o *Orchestrator) Route(ctx context.Context, query, requester string, reqContext map[string]string) (*RouteResult, error) {
	const op = "Orchestrator.Route"

	if strings.TrimSpace(query) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "query is required", nil)
	}

	classification, usage := o.classifier.Classify(ctx, query)

	h, ok := o.handlerFor(classification.Category)
	if !ok {
		o.log.WithField("category", classification.Category).Warn("no handler registered for category")
		return &RouteResult{
			HandlerName: "",
			Category:    classification.Category,
			Response:    degradedResponse,
			Confidence:  0,
			Usage:       usage,
		}, nil
	}

	out, err := h.Execute(ctx, Input{Query: query, Requester: requester, Context: reqContext})
	if err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{
			"handler":  h.Name(),
			"category": classification.Category,
		}).Error("handler execution failed")
		return &RouteResult{
			HandlerName: h.Name(),
			Category:    classification.Category,
			Response:    degradedResponse,
			Confidence:  0,
			Usage:       usage,
		}, nil
	}

	return &RouteResult{
		HandlerName: h.Name(),
		Category:    classification.Category,
		Response:    out.Response,
		Confidence:  classification.Confidence,
		Metadata:    out.Metadata,
		Usage:       usage,
	}, nil
}
