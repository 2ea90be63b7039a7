package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"m4btools/internal/logging"
)

func makeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	when := time.Now().Add(-age)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("set time: %v", err)
	}
}

func TestCleanStaleMissingRoot(t *testing.T) {
	result := CleanStale(context.Background(), "/nonexistent/path/12345", time.Hour, logging.NewNop())
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestCleanStaleRemovesOldWorkspaces(t *testing.T) {
	root := t.TempDir()
	oldDir := filepath.Join(root, Prefix+"old")
	recentDir := filepath.Join(root, Prefix+"recent")
	foreignDir := filepath.Join(root, "keep-me")
	makeAged(t, oldDir, 2*time.Hour)
	makeAged(t, recentDir, 0)
	makeAged(t, foreignDir, 48*time.Hour)

	result := CleanStale(context.Background(), root, time.Hour, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("unexpected removals %v", result.Removed)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old workspace should have been removed")
	}
	for _, dir := range []string{recentDir, foreignDir} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("%s should still exist", dir)
		}
	}
}

func TestCleanStaleIgnoresFiles(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, Prefix+"file")
	if err := os.WriteFile(file, []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(file, old, old); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	result := CleanStale(context.Background(), root, time.Hour, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Errorf("expected no removals for files, got %d", len(result.Removed))
	}
}

func TestListDirectoriesSizes(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, Prefix+"a")
	makeAged(t, dir, 0)
	if err := os.WriteFile(filepath.Join(dir, "concat.txt"), []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}

	dirs, err := ListDirectories(root)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("expected 1 directory, got %d", len(dirs))
	}
	if dirs[0].Size != 5 || dirs[0].Path != dir || dirs[0].ModTime.IsZero() {
		t.Errorf("unexpected dir info %+v", dirs[0])
	}
}
