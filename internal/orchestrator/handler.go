package orchestrator

import "context"

// Input is what a specialist handler receives for one query.
type Input struct {
	Query     string            `json:"query"`
	Requester string            `json:"requester"`
	Context   map[string]string `json:"context,omitempty"`
}

// Output is a specialist handler's answer. Metadata is handler-defined.
type Output struct {
	Response string            `json:"response"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Handler is the contract a specialist agent satisfies to be routable. The
// handler's prompt content and business logic are its own affair.
type Handler interface {
	Name() string
	Execute(ctx context.Context, in Input) (Output, error)
}
