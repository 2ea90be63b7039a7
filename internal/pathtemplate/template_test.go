package pathtemplate

import (
	"errors"
	"testing"

	"m4btools/internal/apperr"
)

func TestRender(t *testing.T) {
	ctx := Context{
		BookTitle:        "Test Book",
		Author:           "Test Author",
		ChapterNum:       1,
		TotalChapters:    12,
		ChapterTitle:     "Intro",
		ChapterStart:     0,
		ChapterEnd:       2,
		Duration:         2,
		OriginalFilename: "multi_book_0",
		Ext:              "mp3",
	}
	tests := []struct {
		template string
		want     string
	}{
		{"{book_title}/Chapter {chapter_num:02d} - {chapter_title}.{ext}", "Test Book/Chapter 01 - Intro.mp3"},
		{"Chapter {chapter_num:02d}.{ext}", "Chapter 01.mp3"},
		{"{author}/{book_title}/Part {chapter_num} - {chapter_title} [{duration_formatted}].{ext}", "Test Author/Test Book/Part 1 - Intro [2s].mp3"},
		{"{original_filename}/Chapter {chapter_num:02d}.{ext}", "multi_book_0/Chapter 01.mp3"},
		{"{chapter_num:03d} of {total_chapters}.{ext}", "001 of 12.mp3"},
		{"{chapter_num:3d}.{ext}", "1.mp3"},
		{"{duration:.1f}s {{raw}}.{ext}", "2.0s {raw}.mp3"},
		{"{chapter_end}-{chapter_title:.3s}.{ext}", "2-Int.mp3"},
	}
	for _, tt := range tests {
		tmpl, err := Parse(tt.template)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.template, err)
		}
		got, err := tmpl.Render(ctx)
		if err != nil {
			t.Fatalf("Render(%q): %v", tt.template, err)
		}
		if got != tt.want {
			t.Errorf("Render(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

func TestRenderKeepsSlashesAndStripsIllegal(t *testing.T) {
	tmpl, err := Parse("{book_title}/{chapter_title}.{ext}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := tmpl.Render(Context{BookTitle: "Series/Book: One", ChapterTitle: "What?\x07 Now", Ext: "mp3"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Series/Book- One/What Now.mp3" {
		t.Fatalf("unexpected path %q", got)
	}

	got, err = tmpl.Render(Context{BookTitle: "../..", ChapterTitle: "x", Ext: "mp3"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "x.mp3" {
		t.Fatalf("expected traversal segments dropped, got %q", got)
	}
}

func TestParseRejects(t *testing.T) {
	for _, template := range []string{
		"",
		"{book}/{chapter_num}.{ext}",
		"{chapter_title:02d}.{ext}",
		"{chapter_num:s}",
		"{chapter_num:.2d}",
		"{book_title:.x}",
		"{book_title:zz}",
		"{book_title",
		"book_title}",
	} {
		if _, err := Parse(template); !errors.Is(err, apperr.ErrInput) {
			t.Errorf("Parse(%q) expected input error, got %v", template, err)
		}
	}
}

func TestRenderEmptyPath(t *testing.T) {
	tmpl, err := Parse("{narrator}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := tmpl.Render(Context{}); !errors.Is(err, apperr.ErrInput) {
		t.Fatalf("expected input error for empty path, got %v", err)
	}
}

func TestFields(t *testing.T) {
	tmpl, err := Parse("{book_title}/{chapter_num:02d}-{book_title}.{ext}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := tmpl.Fields()
	want := []string{"book_title", "chapter_num", "ext"}
	if len(got) != len(want) {
		t.Fatalf("unexpected fields %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected fields %v", got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[float64]string{
		0:      "0s",
		2:      "2s",
		59.4:   "59s",
		61:     "1m 1s",
		3599:   "59m 59s",
		3723.9: "1h 2m 3s",
	}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}
