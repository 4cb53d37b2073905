// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService provides language model operations for classification and
// answer generation.
//
// Implementations include:
//   - OpenAI (gpt-4o-mini and compatible APIs)
//   - Google Gemini
//
// Core logic never branches on provider identity; the concrete
// implementation is selected once at startup by configuration.
type LLMService interface {
	// Chat conducts a multi-turn conversation and returns the full reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// StreamChat conducts a conversation and delivers the reply
	// incrementally. The returned channel is closed when the model
	// finishes or the context is cancelled; a delta with a non-nil Err
	// terminates the stream.
	StreamChat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (<-chan StreamDelta, error)

	// ModelName returns the name of the model being used.
	ModelName() string

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

// ChatOptions configures generation behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// StreamDelta is one increment of a streamed reply.
type StreamDelta struct {
	// Content is the incremental generated text.
	Content string

	// Err is non-nil if the stream terminated abnormally.
	Err error
}
