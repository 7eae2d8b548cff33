package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hearthbot/memorycore/pkg/logger"
)

func newTestSystem(store *fakeStore, gw *fakeGateway) *System {
	return NewSystem(store, gw, nil, Params{EmbeddingModel: "test-embed"}, logger.NewNop())
}

func TestForceIndexNow(t *testing.T) {
	store := newFakeStore()
	seedHistory(store, "h1", makeTurns(35, 1000, 10))
	sys := newTestSystem(store, &fakeGateway{})

	res := sys.ForceIndexNow(context.Background(), "h1")

	if !res.Success {
		t.Fatalf("ForceIndexNow failed: %s", res.Message)
	}
	if res.MessageCount != 25 {
		t.Fatalf("expected 25 aged messages indexed, got %d", res.MessageCount)
	}

	entries, err := store.GetMemoryEntries(context.Background(), "h1", 0)
	if err != nil || len(entries) == 0 {
		t.Fatalf("entries not persisted: %v", err)
	}
}

func TestForceIndexNowEmptyHistory(t *testing.T) {
	sys := newTestSystem(newFakeStore(), &fakeGateway{})

	res := sys.ForceIndexNow(context.Background(), "missing")
	if !res.Success || !strings.Contains(res.Message, "empty") {
		t.Fatalf("empty history should succeed trivially, got %+v", res)
	}
}

func TestQueueStatusTracksCursors(t *testing.T) {
	store := newFakeStore()
	seedHistory(store, "h1", makeTurns(35, 1000, 10))
	sys := newTestSystem(store, &fakeGateway{})

	sys.ForceIndexNow(context.Background(), "h1")
	sys.Close()

	status := sys.QueueStatus()
	if status.TrackedHistories != 1 {
		t.Fatalf("tracked = %d, want 1", status.TrackedHistories)
	}
	if status.Entries[0].HistoryID != "h1" || status.Entries[0].LastIndexedCount != 25 {
		t.Fatalf("unexpected cursor %+v", status.Entries[0])
	}
	if status.CacheSize == 0 {
		t.Fatal("indexing should have populated the embedding cache")
	}
}

func TestDeleteOldEntries(t *testing.T) {
	store := newFakeStore()
	seedHistory(store, "h1", makeTurns(35, 1000, 10))
	sys := newTestSystem(store, &fakeGateway{})
	sys.ForceIndexNow(context.Background(), "h1")

	deleted, err := sys.DeleteOldEntries(context.Background(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteOldEntries: %v", err)
	}
	if deleted == 0 {
		t.Fatal("expected entries older than the cutoff to be deleted")
	}

	entries, _ := store.GetMemoryEntries(context.Background(), "h1", 0)
	if len(entries) != 0 {
		t.Fatalf("entries remain after retention pass: %d", len(entries))
	}
}
