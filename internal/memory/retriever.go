package memory

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/hearthbot/memorycore/internal/llm"
	"github.com/hearthbot/memorycore/internal/model"
	"github.com/hearthbot/memorycore/pkg/logger"
	"github.com/hearthbot/memorycore/pkg/metrics"
)

const (
	// defaultRelevanceFloor is the similarity below which entries are
	// noise. The floor is exclusive: exactly 0.70 is filtered out.
	defaultRelevanceFloor = 0.7

	// retrieveFetchLimit bounds how many stored entries one retrieval
	// scores.
	retrieveFetchLimit = 100
)

// Retriever ranks stored memory entries against a live query by cosine
// similarity of their embeddings.
type Retriever struct {
	store    Store
	embedder *cachingEmbedder
	floor    float64
	logger   *logger.Logger
}

// NewRetriever creates a retriever. A non-positive floor selects the
// default.
func NewRetriever(store Store, embedder *cachingEmbedder, floor float64, log *logger.Logger) *Retriever {
	if floor <= 0 {
		floor = defaultRelevanceFloor
	}
	return &Retriever{store: store, embedder: embedder, floor: floor, logger: log}
}

// Retrieve embeds the query, scores all stored entries for the history,
// and returns the flattened turns of the topK entries scoring strictly
// above the relevance floor. Internal turn order within each entry is
// preserved; the result is not globally re-sorted by timestamp. It
// returns nil rather than an error on empty input, embedding failure, or
// store failure.
func (r *Retriever) Retrieve(ctx context.Context, historyID, queryText string, topK int) []model.ConversationTurn {
	if queryText == "" || topK <= 0 {
		return nil
	}

	queryVec, err := r.embedder.embed(ctx, queryText, llm.TaskTypeQuery)
	if err != nil {
		r.logger.Warn("query embedding failed",
			zap.String("history_id", historyID),
			zap.Error(err),
		)
		return nil
	}
	if queryVec == nil {
		return nil
	}

	entries, err := r.store.GetMemoryEntries(ctx, historyID, retrieveFetchLimit)
	if err != nil {
		r.logger.Warn("memory entry fetch failed",
			zap.String("history_id", historyID),
			zap.Error(err),
		)
		return nil
	}
	if len(entries) == 0 {
		return nil
	}

	type scored struct {
		entry model.MemoryEntry
		score float64
	}

	relevant := make([]scored, 0, len(entries))
	for _, e := range entries {
		score := CosineSimilarity(queryVec, e.Embedding)
		if score > r.floor {
			relevant = append(relevant, scored{entry: e, score: score})
		}
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].score > relevant[j].score
	})
	if len(relevant) > topK {
		relevant = relevant[:topK]
	}

	metrics.RetrievalResults.Observe(float64(len(relevant)))

	var out []model.ConversationTurn
	for _, s := range relevant {
		out = append(out, s.entry.Messages...)
	}
	return out
}
