package port

import "context"

// ChatTurn is one message in a conversation sent to the text generator.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextGenerator abstracts the LLM completion backend.
type TextGenerator interface {
	// ModelName returns the identifier of the completion model.
	ModelName() string

	// Complete runs a single instruction + input completion and returns the text.
	Complete(ctx context.Context, instructions, input string) (string, error)

	// Chat continues a conversation and returns the assistant reply.
	Chat(ctx context.Context, messages []ChatTurn) (string, error)
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// AIProvider is a backend that can both complete and embed.
// Implementations target OpenAI or Ollama.
type AIProvider interface {
	TextGenerator
	Embedder
}
