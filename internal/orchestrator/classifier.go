package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/providers/llm"
	"github.com/hirelane/aicore/internal/router"
)

// IntentClassifier categorizes a freeform query into the fixed taxonomy. It
// never fails: any provider or parse trouble collapses to the fallback.
type IntentClassifier interface {
	Classify(ctx context.Context, query string) (models.IntentClassification, llm.Usage)
}

// fallbackClassification is the deterministic safe default when the
// classifier call fails or returns an unusable shape.
func fallbackClassification(reason string) models.IntentClassification {
	return models.IntentClassification{
		Category:   models.IntentGeneral,
		Confidence: 0.3,
		Reasoning:  reason,
	}
}

// Classifier makes one JSON-only LLM call per query, routed through the
// model router's simple tier.
type Classifier struct {
	providers map[string]llm.Provider
	router    *router.ModelRouter
	log       *logrus.Entry
}

func NewClassifier(providers map[string]llm.Provider, r *router.ModelRouter, log *logrus.Logger) *Classifier {
	if log == nil {
		log = logrus.New()
	}
	return &Classifier{
		providers: providers,
		router:    r,
		log:       log.WithField("component", "classifier"),
	}
}

const classifierSystem = `You are an intent classifier for a staffing CRM assistant.
Respond with strict JSON only: {"category": "...", "confidence": 0.0, "reasoning": "..."}.
Confidence is between 0 and 1.`

func (c *Classifier) Classify(ctx context.Context, query string) (models.IntentClassification, llm.Usage) {
	decision := c.router.Route(router.TaskSimple)

	provider, ok := c.providers[decision.Provider]
	if !ok || provider == nil {
		c.log.WithField("provider", decision.Provider).Warn("no provider wired for routed model, using fallback classification")
		return fallbackClassification("classifier provider unavailable"), llm.Usage{}
	}

	prompt := fmt.Sprintf("Categories: %s.\n\nClassify this query: %q",
		strings.Join(models.IntentCategories(), ", "), query)

	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Model:       decision.Model,
		System:      classifierSystem,
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   200,
		JSONOnly:    true,
	})
	if err != nil {
		c.log.WithError(err).Warn("classification call failed, using fallback")
		return fallbackClassification("classifier call failed"), llm.Usage{}
	}

	parsed, ok := parseClassification(resp.Text)
	if !ok {
		c.log.WithField("raw", truncate(resp.Text, 200)).Warn("classifier returned unusable shape, using fallback")
		return fallbackClassification("classifier response malformed"), resp.Usage
	}
	return parsed, resp.Usage
}

// parseClassification validates the untrusted provider output: JSON shape,
// known category, confidence within [0,1].
func parseClassification(raw string) (models.IntentClassification, bool) {
	var out models.IntentClassification
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		return models.IntentClassification{}, false
	}

	out.Category = strings.ToLower(strings.TrimSpace(out.Category))
	known := false
	for _, c := range models.IntentCategories() {
		if out.Category == c {
			known = true
			break
		}
	}
	if !known {
		return models.IntentClassification{}, false
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return models.IntentClassification{}, false
	}
	return out, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
