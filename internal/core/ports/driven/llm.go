package driven

import "context"

// LLMService is the text-generation provider. It is consumed for answer
// generation and as the fallback tier of intent classification. Absence
// or failure is a recoverable condition, never fatal to indexing.
type LLMService interface {
	// Chat sends a system prompt and a user prompt and returns the
	// generated text.
	Chat(ctx context.Context, system, user string, opts ChatOptions) (string, error)

	// Generate produces a completion from a bare prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatOptions configures chat generation.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// TopP is the nucleus sampling cutoff; zero leaves the model default.
	TopP float64
}

// GenerateOptions configures bare completion.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
