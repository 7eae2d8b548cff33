package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hearthbot/memorycore/internal/llm"
	"github.com/hearthbot/memorycore/internal/model"
)

// fakeGateway implements ModelGateway with pluggable behaviour.
type fakeGateway struct {
	mu sync.Mutex

	embedFn    func(text string, task llm.TaskType) ([]float32, error)
	generateFn func(req *llm.GenerateRequest) (*llm.GenerateResponse, error)
	uploadFn   func(path, mimeType string) (*llm.UploadedFile, error)

	embedCalls    int
	generateCalls int
	uploadCalls   int
}

func (f *fakeGateway) EmbedContent(ctx context.Context, req *llm.EmbedRequest) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	fn := f.embedFn
	f.mu.Unlock()

	if fn != nil {
		return fn(req.Text, req.TaskType)
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeGateway) GenerateContent(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.mu.Lock()
	f.generateCalls++
	fn := f.generateFn
	f.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return &llm.GenerateResponse{Text: "a concise summary", Model: req.Model}, nil
}

func (f *fakeGateway) UploadFile(ctx context.Context, path, mimeType string) (*llm.UploadedFile, error) {
	f.mu.Lock()
	f.uploadCalls++
	fn := f.uploadFn
	f.mu.Unlock()

	if fn != nil {
		return fn(path, mimeType)
	}
	return &llm.UploadedFile{URI: "file-abc", MimeType: mimeType}, nil
}

// fakeStore implements Store in memory.
type fakeStore struct {
	mu        sync.Mutex
	histories map[string]model.HistoryContainer
	entries   map[string][]model.MemoryEntry

	historyErr    error
	saveErr       error
	getEntriesErr error
	saveCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		histories: make(map[string]model.HistoryContainer),
		entries:   make(map[string][]model.MemoryEntry),
	}
}

func (s *fakeStore) GetChatHistory(ctx context.Context, historyID string) (model.HistoryContainer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.histories[historyID], nil
}

func (s *fakeStore) SaveMemoryEntry(ctx context.Context, historyID string, entry *model.MemoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.entries[historyID] = append(s.entries[historyID], *entry)
	return nil
}

func (s *fakeStore) GetMemoryEntries(ctx context.Context, historyID string, limit int) ([]model.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getEntriesErr != nil {
		return nil, s.getEntriesErr
	}

	out := make([]model.MemoryEntry, len(s.entries[historyID]))
	copy(out, s.entries[historyID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) DeleteOldMemoryEntries(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	cutoffMillis := cutoff.UnixMilli()
	for id, entries := range s.entries {
		kept := entries[:0]
		for _, e := range entries {
			if e.Timestamp < cutoffMillis {
				deleted++
				continue
			}
			kept = append(kept, e)
		}
		s.entries[id] = kept
	}
	return deleted, nil
}

// makeTurns builds n alternating user/assistant text turns spaced stepMillis
// apart starting at baseMillis.
func makeTurns(n int, baseMillis, stepMillis int64) []model.ConversationTurn {
	turns := make([]model.ConversationTurn, n)
	for i := range turns {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		turns[i] = model.ConversationTurn{
			Role:      role,
			Content:   []model.Part{model.TextPart(fmt.Sprintf("message %d", i))},
			Timestamp: baseMillis + int64(i)*stepMillis,
		}
	}
	return turns
}

// newTestEmbedder builds a cachingEmbedder over a fake gateway.
func newTestEmbedder(gw *fakeGateway) *cachingEmbedder {
	return &cachingEmbedder{inner: gw, cache: NewEmbeddingCache(100), model: "test-embed"}
}
