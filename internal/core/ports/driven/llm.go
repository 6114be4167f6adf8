package driven

import "context"

// LLMService provides chat completion for response generation and
// document analysis. This is an optional service - when nil, responses
// degrade to the local template and analysis to error-shaped results.
//
// Implementations include:
//   - OpenAI (chat completions endpoint)
//   - Gemini (generateContent endpoint)
type LLMService interface {
	// Chat conducts a single completion over role-tagged messages.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
