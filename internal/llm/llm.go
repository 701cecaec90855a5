package llm

import "context"

// Client is a minimal chat-completion interface so providers stay pluggable.
type Client interface {
	// Complete sends prompt as a single user message and returns the first choice verbatim.
	Complete(ctx context.Context, prompt string) (string, error)
	// Model names the model requests are sent to.
	Model() string
}
