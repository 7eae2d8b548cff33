package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearthbot/memorycore/internal/llm"
	"github.com/hearthbot/memorycore/internal/model"
	"github.com/hearthbot/memorycore/pkg/logger"
	"github.com/hearthbot/memorycore/pkg/metrics"
)

const (
	defaultIndexBatchSize  = 50
	defaultKeepRecent      = 10
	previewLen             = 200
	backgroundIndexTimeout = 2 * time.Minute
)

// cursor tracks indexing progress for one history. Cursors live only in
// memory: a restart resets them to zero and already-indexed ranges may be
// re-embedded, an accepted at-least-once tradeoff.
type cursor struct {
	lastIndexedCount int
	indexing         bool
}

// Indexer watches conversation growth and folds aged turns into the
// memory store as embedded batches, off the request path.
type Indexer struct {
	store          Store
	embedder       *cachingEmbedder
	batchSize      int
	keepRecent     int
	logger         *logger.Logger
	indexTimeout   time.Duration
	backgroundTask func(func()) // test seam; defaults to `go`

	mu      sync.Mutex
	cursors map[string]*cursor
	wg      sync.WaitGroup
}

// NewIndexer creates an indexer. Zero batchSize or keepRecent select the
// defaults.
func NewIndexer(store Store, embedder *cachingEmbedder, batchSize, keepRecent int, log *logger.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = defaultIndexBatchSize
	}
	if keepRecent <= 0 {
		keepRecent = defaultKeepRecent
	}
	ix := &Indexer{
		store:        store,
		embedder:     embedder,
		batchSize:    batchSize,
		keepRecent:   keepRecent,
		logger:       log,
		indexTimeout: backgroundIndexTimeout,
		cursors:      make(map[string]*cursor),
	}
	ix.backgroundTask = func(fn func()) {
		ix.wg.Add(1)
		go func() {
			defer ix.wg.Done()
			fn()
		}()
	}
	return ix
}

// MaybeIndex checks growth since the last indexed count and, once a full
// batch of aged turns has accumulated, schedules embedding of everything
// except the most recent keepRecent turns. It never blocks on network
// calls and never returns an error to the request path.
func (ix *Indexer) MaybeIndex(historyID string, turns []model.ConversationTurn) {
	ix.mu.Lock()
	cur, ok := ix.cursors[historyID]
	if !ok {
		cur = &cursor{}
		ix.cursors[historyID] = cur
	}

	if cur.indexing || len(turns)-cur.lastIndexedCount < ix.batchSize {
		ix.mu.Unlock()
		return
	}

	aged := len(turns) - ix.keepRecent
	if aged <= cur.lastIndexedCount {
		ix.mu.Unlock()
		return
	}

	toIndex := make([]model.ConversationTurn, aged-cur.lastIndexedCount)
	copy(toIndex, turns[cur.lastIndexedCount:aged])

	// The cursor advances when the work is scheduled, not when it
	// completes; a crash mid-batch leaves that range unindexed.
	cur.lastIndexedCount = aged
	cur.indexing = true
	ix.mu.Unlock()

	ix.backgroundTask(func() {
		ctx, cancel := context.WithTimeout(context.Background(), ix.indexTimeout)
		defer cancel()

		if _, _, err := ix.indexRange(ctx, historyID, toIndex); err != nil {
			ix.logger.Warn("background indexing failed",
				zap.String("history_id", historyID),
				zap.Error(err),
			)
		}

		ix.mu.Lock()
		cur.indexing = false
		ix.mu.Unlock()
	})
}

// indexRange splits turns into fixed-size batches, embeds each batch's
// concatenated text, and persists one MemoryEntry per batch.
func (ix *Indexer) indexRange(ctx context.Context, historyID string, turns []model.ConversationTurn) (batches, indexed int, err error) {
	for start := 0; start < len(turns); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(turns) {
			end = len(turns)
		}
		batch := turns[start:end]

		text := renderTranscript(batch)
		if text == "" {
			continue
		}

		vec, err := ix.embedder.embed(ctx, text, llm.TaskTypeDocument)
		if err != nil {
			metrics.IndexBatchesTotal.WithLabelValues("error").Inc()
			return batches, indexed, fmt.Errorf("embedding batch: %w", err)
		}
		if vec == nil {
			continue
		}

		entry := &model.MemoryEntry{
			ID:        uuid.Must(uuid.NewV7()).String(),
			HistoryID: historyID,
			Messages:  batch,
			Embedding: vec,
			Timestamp: time.Now().UnixMilli(),
			Text:      truncate(text, previewLen),
		}

		if err := ix.store.SaveMemoryEntry(ctx, historyID, entry); err != nil {
			metrics.IndexBatchesTotal.WithLabelValues("error").Inc()
			return batches, indexed, fmt.Errorf("saving memory entry: %w", err)
		}

		metrics.IndexBatchesTotal.WithLabelValues("success").Inc()
		metrics.IndexedMessagesTotal.Add(float64(len(batch)))
		batches++
		indexed += len(batch)
	}

	return batches, indexed, nil
}

// ForceIndex synchronously indexes all aged turns regardless of batch
// thresholds, for the manual reindex operation.
func (ix *Indexer) ForceIndex(ctx context.Context, historyID string, turns []model.ConversationTurn) model.IndexResult {
	aged := len(turns) - ix.keepRecent
	if aged <= 0 {
		return model.IndexResult{Success: true, Message: "nothing old enough to index"}
	}

	batches, indexed, err := ix.indexRange(ctx, historyID, turns[:aged])
	if err != nil {
		return model.IndexResult{Success: false, Message: err.Error(), BatchCount: batches, MessageCount: indexed}
	}

	ix.mu.Lock()
	cur, ok := ix.cursors[historyID]
	if !ok {
		cur = &cursor{}
		ix.cursors[historyID] = cur
	}
	if aged > cur.lastIndexedCount {
		cur.lastIndexedCount = aged
	}
	ix.mu.Unlock()

	return model.IndexResult{
		Success:      true,
		Message:      fmt.Sprintf("indexed %d messages in %d batches", indexed, batches),
		BatchCount:   batches,
		MessageCount: indexed,
	}
}

// Cursors returns a snapshot of per-history indexing progress.
func (ix *Indexer) Cursors() []model.HistoryCursor {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	out := make([]model.HistoryCursor, 0, len(ix.cursors))
	for id, cur := range ix.cursors {
		out = append(out, model.HistoryCursor{
			HistoryID:        id,
			LastIndexedCount: cur.lastIndexedCount,
			Indexing:         cur.indexing,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HistoryID < out[j].HistoryID })
	return out
}

// Wait blocks until all scheduled background work has finished. Used by
// shutdown and tests.
func (ix *Indexer) Wait() {
	ix.wg.Wait()
}
