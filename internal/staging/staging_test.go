package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStageWritesAndCleansUp(t *testing.T) {
	area, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, cleanup, err := area.Stage("context", []byte("transcript body"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("staged file unreadable: %v", err)
	}
	if string(data) != "transcript body" {
		t.Fatalf("staged content = %q", data)
	}
	if !strings.HasPrefix(filepath.Base(path), "context-") {
		t.Fatalf("staged file name missing prefix: %s", path)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("cleanup should remove the staged file")
	}

	// Cleanup is safe to call twice.
	cleanup()
}

func TestStagedFilesAreScoped(t *testing.T) {
	base := t.TempDir()
	area, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, cleanup, err := area.Stage("context", []byte("x"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer cleanup()

	if !strings.HasPrefix(path, filepath.Join(base, "memorycore-staging")) {
		t.Fatalf("staged file escaped the scoped area: %s", path)
	}
}
