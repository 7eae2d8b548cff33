// Package llm provides model provider clients and the credential-rotating
// access gateway in front of them.
package llm

import (
	"context"
	"errors"
)

// TaskType selects the embedding task variant. Query and document
// embeddings are asymmetric at the provider level and must not be mixed.
type TaskType string

const (
	TaskTypeQuery    TaskType = "RETRIEVAL_QUERY"
	TaskTypeDocument TaskType = "RETRIEVAL_DOCUMENT"
)

// ErrEmbeddingUnsupported is returned by providers without an embedding API.
var ErrEmbeddingUnsupported = errors.New("provider does not support embeddings")

// ErrUploadUnsupported is returned by providers without a file API.
var ErrUploadUnsupported = errors.New("provider does not support file uploads")

// ChatMessage represents a chat message for the model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest represents a content-generation request.
type GenerateRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// GenerateResponse represents a content-generation response.
type GenerateResponse struct {
	Text       string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// EmbedRequest represents an embedding request.
type EmbedRequest struct {
	Model    string
	Text     string
	TaskType TaskType
}

// UploadedFile describes a file accepted by the provider.
type UploadedFile struct {
	URI      string
	MimeType string
}

// Provider is the interface a model vendor client implements.
type Provider interface {
	// GenerateContent sends a single-shot generation request.
	GenerateContent(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// EmbedContent returns an embedding vector for the request text.
	EmbedContent(ctx context.Context, req *EmbedRequest) ([]float32, error)

	// UploadFile hands a staged file to the provider and returns its reference.
	UploadFile(ctx context.Context, path, mimeType string) (*UploadedFile, error)

	// Name returns the provider name.
	Name() string
}

// ProviderKind is the type of model provider.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderAnthropic ProviderKind = "anthropic"
)

// NewProvider creates a provider client for the given vendor.
func NewProvider(kind ProviderKind, apiKey string) (Provider, error) {
	switch kind {
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey)
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey)
	default:
		return NewOpenAIProvider(apiKey)
	}
}
