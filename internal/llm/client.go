// Package llm provides text-generation client interfaces and implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// StreamCallback is called for each fragment during streaming. Returning an
// error stops the stream.
type StreamCallback func(fragment string, index int) error

// Roles understood by every backend. Backends translate them as needed.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest represents a completion request. The latest user turn is
// the last element of Messages.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []ChatMessage
	MaxTokens    int
	Temperature  float64
}

// ChatMessage represents one prior or current turn sent to the backend.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for text-generation providers.
type Client interface {
	// Complete sends a completion request and returns the whole reply.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream sends a streaming completion request. When the stream
	// fails midway the response carries the text received so far.
	CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderMock      Provider = "mock"
)

// ErrMissingAPIKey is returned when neither the request nor the
// configuration supplies a key.
var ErrMissingAPIKey = errors.New("API key is required")

// ErrEmptyReply is returned when the backend answers without any text, for
// example when a prompt is blocked by safety filters.
var ErrEmptyReply = errors.New("empty reply from text generator")

// Config configures client construction.
type Config struct {
	Provider Provider
	APIKey   string
}

// ClientFactory builds a client for a caller-supplied API key.
type ClientFactory interface {
	NewClient(ctx context.Context, apiKey string) (Client, error)
}

// Factory builds provider clients from explicit configuration.
type Factory struct {
	cfg Config
}

// NewFactory creates a factory for the configured provider.
func NewFactory(cfg Config) *Factory {
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	return &Factory{cfg: cfg}
}

// Provider returns the configured provider.
func (f *Factory) Provider() Provider {
	return f.cfg.Provider
}

// NewClient creates a client. A non-empty apiKey overrides the configured one.
func (f *Factory) NewClient(ctx context.Context, apiKey string) (Client, error) {
	if apiKey == "" {
		apiKey = f.cfg.APIKey
	}

	switch f.cfg.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, apiKey)
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	case ProviderMock:
		return NewEchoClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", f.cfg.Provider)
	}
}

// StaticFactory always returns the same client.
type StaticFactory struct {
	Client Client
}

// NewClient returns the wrapped client.
func (f StaticFactory) NewClient(context.Context, string) (Client, error) {
	return f.Client, nil
}
