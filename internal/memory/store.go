// Package memory implements the conversational memory engine: embedding
// cache, background indexing into a vector-searchable store, semantic
// retrieval, history compression, and context assembly.
package memory

import (
	"context"
	"time"

	"github.com/hearthbot/memorycore/internal/llm"
	"github.com/hearthbot/memorycore/internal/model"
)

// Store is the persistence collaborator. Implementations own durability;
// the engine treats reads as snapshots and never mutates stored turns.
type Store interface {
	// GetChatHistory loads the full history container for a conversation.
	// A missing history returns a nil container and no error.
	GetChatHistory(ctx context.Context, historyID string) (model.HistoryContainer, error)

	// SaveMemoryEntry persists one index record.
	SaveMemoryEntry(ctx context.Context, historyID string, entry *model.MemoryEntry) error

	// GetMemoryEntries returns up to limit entries for a history,
	// sorted newest-first.
	GetMemoryEntries(ctx context.Context, historyID string, limit int) ([]model.MemoryEntry, error)

	// DeleteOldMemoryEntries removes entries older than the cutoff and
	// returns how many were deleted.
	DeleteOldMemoryEntries(ctx context.Context, cutoff time.Time) (int, error)
}

// Generator issues single-shot model generation calls.
type Generator interface {
	GenerateContent(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error)
}

// Embedder produces embedding vectors.
type Embedder interface {
	EmbedContent(ctx context.Context, req *llm.EmbedRequest) ([]float32, error)
}

// Uploader hands staged files to the model provider.
type Uploader interface {
	UploadFile(ctx context.Context, path, mimeType string) (*llm.UploadedFile, error)
}

// ModelGateway is the full model access surface the engine consumes.
// *llm.Gateway satisfies it.
type ModelGateway interface {
	Generator
	Embedder
	Uploader
}
