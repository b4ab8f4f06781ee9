package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/orchestrator"
	"github.com/hirelane/aicore/internal/providers/llm"
	"github.com/hirelane/aicore/internal/utils"
)

const (
	generalSystem = `You are an assistant inside a staffing and recruiting CRM.
Answer concisely. When context snippets are provided, prefer them over prior knowledge.`

	contextConversations = 3
	knowledgeSnippets    = 4
)

// GeneralAssistant is the catch-all specialist: no domain prompt beyond the
// CRM system message, enriched with whatever capabilities its BaseAgent
// carries. It backs the "general" intent and doubles as a template for the
// narrower specialists.
type GeneralAssistant struct {
	*BaseAgent
	providers map[string]llm.Provider
}

func NewGeneralAssistant(base *BaseAgent, providers map[string]llm.Provider) *GeneralAssistant {
	return &GeneralAssistant{BaseAgent: base, providers: providers}
}

func (g *GeneralAssistant) Execute(ctx context.Context, in orchestrator.Input) (orchestrator.Output, error) {
	const op = "GeneralAssistant.Execute"

	decision := g.RouteModel()
	provider, ok := g.providers[decision.Provider]
	if !ok || provider == nil {
		return orchestrator.Output{}, utils.E(utils.CodeUnavailable, op,
			fmt.Sprintf("no provider wired for %q", decision.Provider), nil)
	}

	prompt := g.buildPrompt(ctx, in)

	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		Model:       decision.Model,
		System:      generalSystem,
		Prompt:      prompt,
		Temperature: 0.4,
		MaxTokens:   1024,
	})
	if err != nil {
		return orchestrator.Output{}, utils.E(utils.CodeUpstream, op, "completion failed", err)
	}

	g.TrackCost(ctx, models.UsageRecord{
		UserID:       in.Requester,
		Provider:     decision.Provider,
		Model:        decision.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		CostUSD: float64(resp.Usage.InputTokens)/1e6*decision.InputPricePerM +
			float64(resp.Usage.OutputTokens)/1e6*decision.OutputPricePerM,
	})

	return orchestrator.Output{
		Response: resp.Text,
		Metadata: map[string]string{"model": decision.Model},
	}, nil
}

// buildPrompt layers recalled conversations and knowledge hits under the
// query. Both capabilities degrade to empty, so the worst case is the bare
// question.
func (g *GeneralAssistant) buildPrompt(ctx context.Context, in orchestrator.Input) string {
	var b strings.Builder

	if convs := g.RememberContext(ctx, in.Requester, contextConversations); len(convs) > 0 {
		b.WriteString("Recent conversation topics:\n")
		for _, conv := range convs {
			if n := len(conv.Messages); n > 0 {
				fmt.Fprintf(&b, "- %s\n", firstLine(conv.Messages[n-1].Content))
			}
		}
		b.WriteString("\n")
	}

	if hits := g.SearchKnowledge(ctx, in.Query, knowledgeSnippets); len(hits) > 0 {
		b.WriteString("Context snippets:\n")
		for _, hit := range hits {
			fmt.Fprintf(&b, "- %s\n", firstLine(hit.Content))
		}
		b.WriteString("\n")
	}

	for k, v := range in.Context {
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}

	b.WriteString("Question: ")
	b.WriteString(in.Query)
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
