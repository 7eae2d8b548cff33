package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hearthbot/memorycore/internal/llm"
	"github.com/hearthbot/memorycore/pkg/logger"
)

// newSyncIndexer builds an indexer that runs scheduled work inline so
// tests observe results deterministically.
func newSyncIndexer(store *fakeStore, gw *fakeGateway, batchSize, keepRecent int) *Indexer {
	ix := NewIndexer(store, newTestEmbedder(gw), batchSize, keepRecent, logger.NewNop())
	ix.backgroundTask = func(fn func()) { fn() }
	return ix
}

func TestMaybeIndexBelowThresholdDoesNothing(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{}
	ix := newSyncIndexer(store, gw, 50, 10)

	ix.MaybeIndex("h1", makeTurns(49, 1000, 10))

	if store.saveCalls != 0 {
		t.Fatalf("49 new turns with batch size 50 must not index, got %d saves", store.saveCalls)
	}
	if gw.embedCalls != 0 {
		t.Fatalf("no embedding calls expected, got %d", gw.embedCalls)
	}
}

func TestMaybeIndexBatchesAgedTurns(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{}
	ix := newSyncIndexer(store, gw, 50, 10)

	// 120 turns: 110 aged (all but the last 10), split into 50+50+10.
	ix.MaybeIndex("h1", makeTurns(120, 1000, 10))

	entries, _ := store.GetMemoryEntries(context.Background(), "h1", 0)
	if len(entries) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(entries))
	}

	total := 0
	for _, e := range entries {
		total += len(e.Messages)
		if len(e.Embedding) == 0 {
			t.Fatal("entry missing embedding")
		}
		if e.HistoryID != "h1" {
			t.Fatalf("entry history = %q", e.HistoryID)
		}
		if e.Text == "" {
			t.Fatal("entry missing preview text")
		}
	}
	if total != 110 {
		t.Fatalf("indexed %d messages, want 110 (everything but the recent 10)", total)
	}

	cursors := ix.Cursors()
	if len(cursors) != 1 || cursors[0].LastIndexedCount != 110 {
		t.Fatalf("cursor should advance to aged length, got %+v", cursors)
	}
}

func TestMaybeIndexResumesFromCursor(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{}
	ix := newSyncIndexer(store, gw, 50, 10)

	ix.MaybeIndex("h1", makeTurns(60, 1000, 10))
	firstSaves := store.saveCalls

	// 99 turns is 49 past the cursor, below the batch threshold.
	ix.MaybeIndex("h1", makeTurns(99, 1000, 10))
	if store.saveCalls != firstSaves {
		t.Fatal("sub-threshold growth must not schedule indexing")
	}

	// One more turn crosses it; only the newly aged range gets indexed.
	ix.MaybeIndex("h1", makeTurns(110, 1000, 10))
	entries, _ := store.GetMemoryEntries(context.Background(), "h1", 0)

	total := 0
	for _, e := range entries {
		total += len(e.Messages)
	}
	if total != 100 {
		t.Fatalf("indexed %d messages across passes, want 100", total)
	}
}

func TestIndexingFailuresAreSwallowed(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("store down")
	gw := &fakeGateway{}
	ix := newSyncIndexer(store, gw, 50, 10)

	// Must not panic or surface anything; the failure is logged only.
	ix.MaybeIndex("h1", makeTurns(120, 1000, 10))

	// The cursor advanced when the work was scheduled, so the failed
	// range will not be retried by itself.
	cursors := ix.Cursors()
	if cursors[0].LastIndexedCount != 110 {
		t.Fatalf("cursor advances on scheduling even when work fails, got %+v", cursors)
	}
	if cursors[0].Indexing {
		t.Fatal("indexing flag must clear after a failed pass")
	}
}

func TestForceIndexIgnoresBatchThreshold(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{}
	ix := newSyncIndexer(store, gw, 50, 10)

	res := ix.ForceIndex(context.Background(), "h1", makeTurns(25, 1000, 10))

	if !res.Success {
		t.Fatalf("ForceIndex failed: %s", res.Message)
	}
	if res.MessageCount != 15 || res.BatchCount != 1 {
		t.Fatalf("expected 15 messages in 1 batch, got %+v", res)
	}
	if !strings.Contains(res.Message, "indexed 15 messages") {
		t.Fatalf("unexpected message %q", res.Message)
	}
}

func TestForceIndexNothingAged(t *testing.T) {
	ix := newSyncIndexer(newFakeStore(), &fakeGateway{}, 50, 10)

	res := ix.ForceIndex(context.Background(), "h1", makeTurns(10, 1000, 10))
	if !res.Success || res.MessageCount != 0 {
		t.Fatalf("10 turns have nothing aged, got %+v", res)
	}
}

func TestIndexerUsesDocumentTaskType(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{
		embedFn: func(text string, task llm.TaskType) ([]float32, error) {
			if task != llm.TaskTypeDocument {
				t.Fatalf("indexing must embed with the document task type, got %s", task)
			}
			return []float32{1, 0}, nil
		},
	}
	ix := newSyncIndexer(store, gw, 50, 10)

	ix.MaybeIndex("h1", makeTurns(60, 1000, 10))
	if gw.embedCalls == 0 {
		t.Fatal("expected at least one embedding call")
	}
}
