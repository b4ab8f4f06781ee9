package llm

import "context"

// Usage is the token accounting a provider reports for one call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	// JSONOnly asks the provider for a strict JSON response. Callers still
	// validate the shape; provider output is untrusted.
	JSONOnly bool
}

type CompletionResponse struct {
	Text  string
	Usage Usage
}

// Provider is a chat-completion backend. Implementations do not enforce their
// own deadlines; cancellation comes from the caller's context.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Close() error
}

type EmbeddingResponse struct {
	Vectors [][]float32
	Usage   Usage
}

// EmbeddingProvider turns text into fixed-dimension vectors.
type EmbeddingProvider interface {
	Name() string
	Model() string
	Dimensions() int
	Embed(ctx context.Context, texts []string) (*EmbeddingResponse, error)
}
