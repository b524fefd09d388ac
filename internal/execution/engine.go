package execution

import "context"

// Engine is the interface for one prompt/response exchange with a
// language-model service.
type Engine interface {
	// Chat submits a single user prompt and returns the model's reply.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// ChatRequest describes one model invocation.
type ChatRequest struct {
	Model  string
	Prompt string
	// JSONFormat asks the endpoint to constrain output to JSON. Some
	// models mishandle the constraint, so it is opt-in.
	JSONFormat bool
}

// ChatResponse is the raw reply from the model service.
type ChatResponse struct {
	Model   string
	Content string
}
