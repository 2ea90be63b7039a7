package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPartialPath(t *testing.T) {
	final := filepath.Join("/out", "Book.m4b")
	a := PartialPath(final)
	b := PartialPath(final)
	if a == b {
		t.Fatalf("expected unique partial paths, got %q twice", a)
	}
	if filepath.Dir(a) != "/out" {
		t.Fatalf("partial path should be a sibling, got %q", a)
	}
	base := filepath.Base(a)
	if !strings.HasPrefix(base, ".Book.") || !strings.HasSuffix(base, ".partial.m4b") {
		t.Fatalf("unexpected partial name %q", base)
	}
	if !IsPartial(a) {
		t.Fatalf("IsPartial(%q) = false", a)
	}
	if IsPartial(final) {
		t.Fatalf("IsPartial(%q) = true", final)
	}
}

func TestPlaceCreatesParents(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "nested", "deeper", "out.mp3")
	partial := filepath.Join(dir, ".out.1234.partial.mp3")
	if err := os.WriteFile(partial, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Place(partial, final); err != nil {
		t.Fatalf("Place: %v", err)
	}
	got, err := os.ReadFile(final)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "audio" {
		t.Fatalf("content mismatch: got %q", got)
	}
	if _, err := os.Stat(partial); !os.IsNotExist(err) {
		t.Fatalf("expected partial removed, stat err=%v", err)
	}
}

func TestPlaceMissingPartial(t *testing.T) {
	dir := t.TempDir()
	if err := Place(filepath.Join(dir, "missing"), filepath.Join(dir, "final")); err == nil {
		t.Fatal("expected error for missing partial")
	}
	if _, err := os.Stat(filepath.Join(dir, "final")); !os.IsNotExist(err) {
		t.Fatalf("final should not exist, stat err=%v", err)
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	data := make([]byte, 1024*64)
	for i := range data {
		data[i] = byte(i % 256)
	}
	if err := os.WriteFile(src, data, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(data) {
		t.Fatalf("size mismatch: got %d, want %d", len(got), len(data))
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected source mode kept, got %o", info.Mode().Perm())
	}
}

func TestCopyFileVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileVerified(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}
