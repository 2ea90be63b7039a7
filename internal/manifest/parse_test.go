package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"m4btools/internal/apperr"
	"m4btools/internal/logging"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "book.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadDirectivesAndEntries(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.m4b"))
	path := writeManifest(t, dir, "#title,My Book\n\nfile,title\na.m4b,Intro\n")

	m, err := Load(path, logging.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Directives) != 1 || m.Directives["title"] != "My Book" {
		t.Fatalf("unexpected directives %v", m.Directives)
	}
	if len(m.Entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(m.Entries))
	}
	if m.Entries[0].File != filepath.Join(dir, "a.m4b") || m.Entries[0].Title != "Intro" {
		t.Fatalf("unexpected entry %+v", m.Entries[0])
	}
}

func TestParseDirectiveForms(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.m4a"))
	body := strings.Join([]string{
		"# Author : Jane Doe",
		"#Narrator,Someone, Else",
		"#genre,",
		"#,orphan",
		"#no separator here",
		"#description: Part one: the start",
		"file,title",
		"a.m4a,",
	}, "\n")
	m, err := Parse(strings.NewReader(body), dir, logging.NewNop())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[string]string{
		"author":      "Jane Doe",
		"narrator":    "Someone, Else",
		"description": "Part one: the start",
	}
	if len(m.Directives) != len(want) {
		t.Fatalf("unexpected directives %v", m.Directives)
	}
	for k, v := range want {
		if m.Directives[k] != v {
			t.Fatalf("directive %s = %q, want %q", k, m.Directives[k], v)
		}
	}
	if m.Entries[0].Title != "" {
		t.Fatalf("expected empty title, got %q", m.Entries[0].Title)
	}
	if len(m.Overrides()) != 0 {
		t.Fatalf("expected no overrides, got %v", m.Overrides())
	}
}

func TestParseKeepsManifestOrderAndSkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "10.m4b"))
	touch(t, filepath.Join(dir, "2.m4b"))
	touch(t, filepath.Join(dir, "notes.mp3"))
	abs := filepath.Join(dir, "sub", "3.M4B")
	touch(t, abs)
	body := "file,title\n10.m4b,Ten\n\nmissing.m4b,Gone\nnotes.mp3,Notes\n2.m4b,Two\n" + abs + ",Three\n,blank\n"

	m, err := Parse(strings.NewReader(body), dir, logging.NewNop())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	files := m.Files()
	want := []string{filepath.Join(dir, "10.m4b"), filepath.Join(dir, "2.m4b"), abs}
	if len(files) != len(want) {
		t.Fatalf("unexpected files %v", files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
	if m.Skipped != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", m.Skipped)
	}
	if m.Overrides()[filepath.Join(dir, "2.m4b")] != "Two" {
		t.Fatalf("unexpected overrides %v", m.Overrides())
	}
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"no table":          "#title,Only directives\n",
		"header only":       "#title,x\nfile,title\n",
		"missing file col":  "name,title\na.m4b,x\n",
		"all rows filtered": "file,title\nmissing.m4b,x\n",
		"malformed quoting": "file,title\n\"a.m4b,x\n",
	}
	for name, body := range tests {
		if _, err := Parse(strings.NewReader(body), dir, logging.NewNop()); !errors.Is(err, apperr.ErrInput) {
			t.Errorf("%s: expected input error, got %v", name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), logging.NewNop())
	if !errors.Is(err, apperr.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestResolvePath(t *testing.T) {
	m := Manifest{Dir: "/books/a"}
	if got := m.ResolvePath("cover.jpg"); got != "/books/a/cover.jpg" {
		t.Fatalf("relative path resolved to %q", got)
	}
	if got := m.ResolvePath("/tmp/cover.jpg"); got != "/tmp/cover.jpg" {
		t.Fatalf("absolute path changed to %q", got)
	}
	if got := m.ResolvePath("  "); got != "" {
		t.Fatalf("blank path resolved to %q", got)
	}
}
