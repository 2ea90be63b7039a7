package convert

import (
	"path/filepath"
	"reflect"
	"testing"

	"m4btools/internal/testsupport"
)

func TestDiscoverFiltersAndSortsNaturally(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a/track10.mp3", "a/track2.MP3", "a/cover.jpg", "b/notes.txt", "b/part1.flac"} {
		testsupport.WriteFile(t, filepath.Join(root, name), 8)
	}

	got, err := Discover("**/*", root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		filepath.Join(root, "a/track2.MP3"),
		filepath.Join(root, "a/track10.mp3"),
		filepath.Join(root, "b/part1.flac"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Discover = %q, want %q", got, want)
	}
}

func TestDiscoverAbsolutePatternIgnoresBase(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "x.wav"), 8)

	got, err := Discover(filepath.Join(root, "*.wav"), "/nonexistent")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one match, got %q", got)
	}
}

func TestLayoutOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		input  string
		want   string
	}{
		{
			name:   "flat",
			layout: Layout{OutputDir: "/out"},
			input:  "/src/author/book/01.mp3",
			want:   "/out/01.m4b",
		},
		{
			name:   "base input path",
			layout: Layout{OutputDir: "/out", PreserveStructure: true, BaseInputPath: "/src"},
			input:  "/src/author/book/01.mp3",
			want:   "/out/author/book/01.m4b",
		},
		{
			name:   "double star prefix",
			layout: Layout{OutputDir: "/out", PreserveStructure: true, Pattern: "/src/author/**/*.mp3"},
			input:  "/src/author/book/01.mp3",
			want:   "/out/book/01.m4b",
		},
		{
			name:   "plain pattern flattens",
			layout: Layout{OutputDir: "/out", PreserveStructure: true, Pattern: "/src/*.mp3"},
			input:  "/src/01.mp3",
			want:   "/out/01.m4b",
		},
		{
			name:   "outside base falls back to name",
			layout: Layout{OutputDir: "/out", PreserveStructure: true, BaseInputPath: "/elsewhere"},
			input:  "/src/author/01.flac",
			want:   "/out/01.m4b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.layout.OutputPath(tt.input); got != tt.want {
				t.Fatalf("OutputPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
