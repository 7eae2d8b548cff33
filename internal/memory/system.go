package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/hearthbot/memorycore/internal/model"
	"github.com/hearthbot/memorycore/internal/staging"
	"github.com/hearthbot/memorycore/pkg/logger"
)

// Params tunes the whole memory system. Zero values select the defaults.
type Params struct {
	MaxFullMessages      int
	CompressionThreshold int
	IndexBatchSize       int
	RetrievalTopK        int
	RelevanceFloor       float64
	EmbeddingCacheSize   int
	InlineTranscriptMax  int
	EmbeddingModel       string
}

// System is the memory engine facade. It owns the embedding cache, the
// background indexer's cursors, and the assembly pipeline, all as
// instance state so tests can run isolated copies.
type System struct {
	store     Store
	cache     *EmbeddingCache
	indexer   *Indexer
	retriever *Retriever
	optimizer *Optimizer
	logger    *logger.Logger
}

// NewSystem wires the memory engine over a store and a model gateway.
// The staging area may be nil to disable file-backed context blocks.
func NewSystem(store Store, gw ModelGateway, area *staging.Area, params Params, log *logger.Logger) *System {
	cache := NewEmbeddingCache(params.EmbeddingCacheSize)
	embedder := &cachingEmbedder{inner: gw, cache: cache, model: params.EmbeddingModel}

	indexer := NewIndexer(store, embedder, params.IndexBatchSize, params.MaxFullMessages, log)
	retriever := NewRetriever(store, embedder, params.RelevanceFloor, log)
	compressor := NewCompressor(gw, log)

	optimizer := NewOptimizer(store, compressor, retriever, indexer, gw, area, OptimizerParams{
		MaxFullMessages:      params.MaxFullMessages,
		CompressionThreshold: params.CompressionThreshold,
		InlineTranscriptMax:  params.InlineTranscriptMax,
		RetrievalTopK:        params.RetrievalTopK,
	}, log)

	return &System{
		store:     store,
		cache:     cache,
		indexer:   indexer,
		retriever: retriever,
		optimizer: optimizer,
		logger:    log,
	}
}

// Assemble builds the model-ready turn sequence for one request.
func (s *System) Assemble(ctx context.Context, historyID, queryText, modelName string) []model.ConversationTurn {
	return s.optimizer.Assemble(ctx, historyID, queryText, modelName)
}

// Retrieve exposes semantic retrieval directly, for diagnostics.
func (s *System) Retrieve(ctx context.Context, historyID, queryText string, topK int) []model.ConversationTurn {
	return s.retriever.Retrieve(ctx, historyID, queryText, topK)
}

// ForceIndexNow synchronously reindexes a history's aged turns.
func (s *System) ForceIndexNow(ctx context.Context, historyID string) model.IndexResult {
	container, err := s.store.GetChatHistory(ctx, historyID)
	if err != nil {
		return model.IndexResult{Success: false, Message: fmt.Sprintf("loading history: %s", err)}
	}

	all := container.Flatten()
	if len(all) == 0 {
		return model.IndexResult{Success: true, Message: "history is empty"}
	}

	return s.indexer.ForceIndex(ctx, historyID, all)
}

// DeleteOldEntries removes memory entries older than the cutoff.
func (s *System) DeleteOldEntries(ctx context.Context, cutoff time.Time) (int, error) {
	return s.store.DeleteOldMemoryEntries(ctx, cutoff)
}

// MemoryEntries returns stored entries for a history, newest-first.
func (s *System) MemoryEntries(ctx context.Context, historyID string, limit int) ([]model.MemoryEntry, error) {
	return s.store.GetMemoryEntries(ctx, historyID, limit)
}

// QueueStatus reports cache size and per-history indexing cursors.
func (s *System) QueueStatus() model.QueueStatus {
	cursors := s.indexer.Cursors()
	return model.QueueStatus{
		CacheSize:        s.cache.Len(),
		TrackedHistories: len(cursors),
		Entries:          cursors,
	}
}

// Close waits for in-flight background indexing to finish.
func (s *System) Close() {
	s.indexer.Wait()
}
