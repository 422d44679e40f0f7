package llm

import (
	"context"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/media"
)

// ProviderType represents the type of LLM provider
type ProviderType string

const (
	ProviderGemini     ProviderType = "gemini"
	ProviderOpenAI     ProviderType = "openai"
	ProviderGroq       ProviderType = "groq"
	ProviderOpenRouter ProviderType = "openrouter"
)

// Backend is a single AI provider. Generate returns the raw model output;
// parsing and validation happen in Classifier.
type Backend interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// MediaBackend is implemented by backends that can analyze images or audio.
// Implementations return media.ErrUnsupported for MIME types they cannot handle.
type MediaBackend interface {
	GenerateMedia(ctx context.Context, prompt string, content media.Content) (string, error)
}
