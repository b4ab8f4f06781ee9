package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelane/aicore/internal/models"
	"github.com/hirelane/aicore/internal/providers/llm"
	"github.com/hirelane/aicore/internal/router"
)

// fakeProvider returns a canned completion, or fails on demand.
type fakeProvider struct {
	text string
	err  error
}

func (p *fakeProvider) Name() string { return "vertex" }
func (p *fakeProvider) Close() error { return nil }
func (p *fakeProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{
		Text:  p.text,
		Usage: llm.Usage{InputTokens: 40, OutputTokens: 12},
	}, nil
}

func newTestClassifier(p llm.Provider) *Classifier {
	return NewClassifier(map[string]llm.Provider{"vertex": p}, router.New(nil), nil)
}

func TestClassifyParsesValidResponse(t *testing.T) {
	c := newTestClassifier(&fakeProvider{
		text: `{"category": "resume", "confidence": 0.91, "reasoning": "mentions CV formatting"}`,
	})

	got, usage := c.Classify(context.Background(), "help me tidy up this CV")
	assert.Equal(t, models.IntentResume, got.Category)
	assert.InDelta(t, 0.91, got.Confidence, 1e-9)
	assert.Equal(t, 40, usage.InputTokens)
}

func TestClassifyFallsBackOnProviderError(t *testing.T) {
	c := newTestClassifier(&fakeProvider{err: errors.New("quota exhausted")})

	got, usage := c.Classify(context.Background(), "anything")
	assert.Equal(t, models.IntentGeneral, got.Category)
	assert.InDelta(t, 0.3, got.Confidence, 1e-9)
	assert.Zero(t, usage)
}

func TestClassifyFallsBackOnMalformedShapes(t *testing.T) {
	cases := map[string]string{
		"not json":            "sure, that's a coding question",
		"unknown category":    `{"category": "astrology", "confidence": 0.9}`,
		"confidence over one": `{"category": "coding", "confidence": 1.7}`,
		"negative confidence": `{"category": "coding", "confidence": -0.1}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClassifier(&fakeProvider{text: raw})
			got, _ := c.Classify(context.Background(), "q")
			assert.Equal(t, models.IntentGeneral, got.Category)
			assert.InDelta(t, 0.3, got.Confidence, 1e-9)
		})
	}
}

func TestClassifyFallsBackWhenProviderUnwired(t *testing.T) {
	c := NewClassifier(map[string]llm.Provider{}, router.New(nil), nil)

	got, _ := c.Classify(context.Background(), "q")
	assert.Equal(t, models.IntentGeneral, got.Category)
}

// stubClassifier pins the classification so dispatch tests are deterministic.
type stubClassifier struct {
	result models.IntentClassification
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (models.IntentClassification, llm.Usage) {
	return s.result, llm.Usage{InputTokens: 10, OutputTokens: 5}
}

// fakeHandler records invocations and optionally fails.
type fakeHandler struct {
	name   string
	calls  []Input
	err    error
	answer string
}

func (h *fakeHandler) Name() string { return h.name }
func (h *fakeHandler) Execute(_ context.Context, in Input) (Output, error) {
	h.calls = append(h.calls, in)
	if h.err != nil {
		return Output{}, h.err
	}
	return Output{Response: h.answer, Metadata: map[string]string{"handler": h.name}}, nil
}

func TestRouteDispatchesToRegisteredHandler(t *testing.T) {
	o := NewOrchestrator(&stubClassifier{result: models.IntentClassification{
		Category: models.IntentCoding, Confidence: 0.88,
	}}, nil)
	h := &fakeHandler{name: "code-assistant", answer: "use a strings.Builder"}
	require.NoError(t, o.Register(models.IntentCoding, h))

	res, err := o.Route(context.Background(), "how do I concat strings fast", "user-1", map[string]string{"team": "bench"})
	require.NoError(t, err)

	assert.Equal(t, "code-assistant", res.HandlerName)
	assert.Equal(t, "use a strings.Builder", res.Response)
	assert.InDelta(t, 0.88, res.Confidence, 1e-9)
	require.Len(t, h.calls, 1)
	assert.Equal(t, "user-1", h.calls[0].Requester)
	assert.Equal(t, "bench", h.calls[0].Context["team"])
}

func TestRouteDegradesWhenNoHandlerRegistered(t *testing.T) {
	o := NewOrchestrator(&stubClassifier{result: models.IntentClassification{
		Category: models.IntentInterview, Confidence: 0.9,
	}}, nil)

	res, err := o.Route(context.Background(), "mock interview please", "user-1", nil)
	require.NoError(t, err)

	assert.Empty(t, res.HandlerName)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, degradedResponse, res.Response)
	assert.Equal(t, models.IntentInterview, res.Category)
}

func TestRouteDegradesWhenHandlerFails(t *testing.T) {
	o := NewOrchestrator(&stubClassifier{result: models.IntentClassification{
		Category: models.IntentCoding, Confidence: 0.8,
	}}, nil)
	h := &fakeHandler{name: "code-assistant", err: errors.New("downstream timeout")}
	require.NoError(t, o.Register(models.IntentCoding, h))

	res, err := o.Route(context.Background(), "q", "user-1", nil)
	require.NoError(t, err, "handler failure degrades, it does not propagate")

	assert.Equal(t, "code-assistant", res.HandlerName)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, degradedResponse, res.Response)
}

func TestRouteRejectsEmptyQuery(t *testing.T) {
	o := NewOrchestrator(&stubClassifier{}, nil)

	_, err := o.Route(context.Background(), "   ", "user-1", nil)
	require.Error(t, err)
}

func TestRegisterValidation(t *testing.T) {
	o := NewOrchestrator(&stubClassifier{}, nil)

	assert.Error(t, o.Register("", &fakeHandler{name: "x"}))
	assert.Error(t, o.Register(models.IntentCoding, nil))

	require.NoError(t, o.Register("Coding", &fakeHandler{name: "first"}))
	require.NoError(t, o.Register("coding", &fakeHandler{name: "second"}))
	assert.Len(t, o.Handlers(), 1, "case-insensitive categories, last registration wins")
}
