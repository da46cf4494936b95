package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAllocateUnique(t *testing.T) {
	arena := New(t.TempDir())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		path, err := arena.Allocate("photo_medium", "jpeg")
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if seen[path] {
			t.Fatalf("Allocate returned duplicate path %s", path)
		}
		seen[path] = true
		if !strings.HasSuffix(path, "-photo_medium.jpeg") {
			t.Errorf("path %s missing hint/extension suffix", path)
		}
	}
}

func TestAllocateStripsPathComponents(t *testing.T) {
	root := t.TempDir()
	arena := New(root)

	path, err := arena.Allocate("../../etc/passwd", "gif")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if filepath.Dir(path) != root {
		t.Errorf("hint escaped arena root: %s", path)
	}
}

func TestReleaseRemovesFile(t *testing.T) {
	arena := New(t.TempDir())
	path, err := arena.Allocate("out", "png")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	arena.Release(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present after Release: %v", err)
	}

	// Releasing again (or a never-created path) must be a quiet no-op.
	arena.Release(path)
	arena.Release("")
}
