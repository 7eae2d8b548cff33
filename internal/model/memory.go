package model

// MemoryEntry is a durable index record: a batch of raw turns together
// with one embedding covering their concatenated text. Entries are
// created once by the background indexer and never mutated.
type MemoryEntry struct {
	ID        string             `json:"id"`
	HistoryID string             `json:"history_id"`
	Messages  []ConversationTurn `json:"messages"`
	Embedding []float32          `json:"embedding"`
	Timestamp int64              `json:"timestamp"`

	// Text is a truncated preview of the indexed content, for diagnostics.
	Text string `json:"text"`
}

// IndexResult reports the outcome of a forced reindex.
type IndexResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	BatchCount   int    `json:"batch_count,omitempty"`
	MessageCount int    `json:"message_count,omitempty"`
}

// HistoryCursor is the indexing position for one conversation history.
type HistoryCursor struct {
	HistoryID        string `json:"history_id"`
	LastIndexedCount int    `json:"last_indexed_count"`
	Indexing         bool   `json:"indexing"`
}

// QueueStatus is a diagnostic snapshot of the memory system.
type QueueStatus struct {
	CacheSize        int             `json:"cache_size"`
	TrackedHistories int             `json:"tracked_histories"`
	Entries          []HistoryCursor `json:"entries"`
}
