package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string `json:"role"`

	// Content contains the text content of the message
	Content string `json:"content"`
}

// ChatOptions tunes a single completion call.
type ChatOptions struct {
	// Temperature overrides the model default when non-nil. The query
	// rewriter pins this to 0 for deterministic output.
	Temperature *float32

	// MaxTokens caps the completion length when > 0.
	MaxTokens int
}

// StreamHandler receives one chunk of completion text as the model emits it.
type StreamHandler func(chunk string)

// LLMService defines the interface for language model operations including
// embeddings generation and chat completions. Implementations wrap cloud
// APIs (Anthropic, Gemini) behind a provider-neutral surface.
type LLMService interface {
	// Embed generates an embedding vector for the given text.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - text: Input text to generate embedding for
	//
	// Returns:
	//   - []float32: embedding vector
	//   - error: Error if embedding generation fails
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat generates a completion response based on the conversation history.
	// The messages slice should contain the full conversation context
	// including system prompts, user messages, and previous assistant
	// responses.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - messages: Conversation history in chronological order
	//   - opts: Per-call tuning, may be nil
	//
	// Returns:
	//   - string: Generated assistant response
	//   - error: Error if chat completion fails
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (string, error)

	// ChatStream generates a completion and delivers it incrementally via
	// onDelta. The callback runs on the streaming goroutine and must not
	// block. ChatStream returns after the stream is drained; a non-nil
	// error means the stream failed and the text delivered so far is
	// incomplete. The call is not retried on failure.
	ChatStream(ctx context.Context, messages []Message, opts *ChatOptions, onDelta StreamHandler) error

	// HealthCheck verifies the service is operational and can handle
	// requests, typically with a minimal probe completion.
	HealthCheck(ctx context.Context) error

	// ModelName returns the identifier of the underlying chat model.
	ModelName() string
}
