package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"m4btools/internal/apperr"
	"m4btools/internal/logging"
)

func TestGenerateRoundTrip(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "My Book")
	touch(t, filepath.Join(folder, "chapter_10_the_end.m4b"))
	touch(t, filepath.Join(folder, "chapter_2_middle.m4b"))
	touch(t, filepath.Join(folder, "disc1", "01.m4a"))
	touch(t, filepath.Join(folder, "cover.jpg"))

	titles := func(_ context.Context, path string) (string, error) {
		if strings.HasSuffix(path, "chapter_2_middle.m4b") {
			return "Embedded Middle", nil
		}
		return "", nil
	}
	result, err := Generate(context.Background(), GenerateOptions{Folder: folder, Title: titles, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Files != 3 || result.BookTitle != "My Book" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Path != filepath.Join(folder, "My Book.csv") {
		t.Fatalf("unexpected manifest path %q", result.Path)
	}

	m, err := Load(result.Path, logging.NewNop())
	if err != nil {
		t.Fatalf("Load generated manifest: %v", err)
	}
	if m.Directives["title"] != "My Book" || m.Directives["genre"] != "Audiobook" {
		t.Fatalf("unexpected directives %v", m.Directives)
	}
	if m.Directives["output_path"] != filepath.Join(folder, "My Book.m4b") {
		t.Fatalf("unexpected output_path %q", m.Directives["output_path"])
	}
	if _, ok := m.Directives["author"]; ok {
		t.Fatalf("blank author directive should be ignored")
	}

	want := []Entry{
		{File: filepath.Join(folder, "disc1", "01.m4a"), Title: "01"},
		{File: filepath.Join(folder, "chapter_2_middle.m4b"), Title: "Embedded Middle"},
		{File: filepath.Join(folder, "chapter_10_the_end.m4b"), Title: "The End"},
	}
	if len(m.Entries) != len(want) {
		t.Fatalf("unexpected entries %+v", m.Entries)
	}
	for i := range want {
		if m.Entries[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, m.Entries[i], want[i])
		}
	}
}

func TestGenerateTitleProbeFailureFallsBack(t *testing.T) {
	folder := t.TempDir()
	touch(t, filepath.Join(folder, "pt_3_finale.m4b"))
	out := filepath.Join(t.TempDir(), "custom.csv")
	failing := func(context.Context, string) (string, error) { return "", errors.New("boom") }

	if _, err := Generate(context.Background(), GenerateOptions{Folder: folder, Output: out, Title: failing, Logger: logging.NewNop()}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), ",Finale\n") {
		t.Fatalf("expected derived title in manifest:\n%s", data)
	}
	if !strings.Contains(string(data), "pt_3_finale.m4b") {
		t.Fatalf("expected relative path in manifest:\n%s", data)
	}
}

func TestGenerateErrors(t *testing.T) {
	empty := t.TempDir()
	touch(t, filepath.Join(empty, "song.mp3"))
	file := filepath.Join(t.TempDir(), "plain.txt")
	touch(t, file)

	for name, folder := range map[string]string{
		"missing":  filepath.Join(empty, "nope"),
		"no files": empty,
		"not dir":  file,
	} {
		_, err := Generate(context.Background(), GenerateOptions{Folder: folder, Logger: logging.NewNop()})
		if !errors.Is(err, apperr.ErrInput) {
			t.Errorf("%s: expected input error, got %v", name, err)
		}
	}
}
