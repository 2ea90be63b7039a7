package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName("  AC/DC: Live?  "); got != "AC-DC- Live" {
		t.Fatalf("SanitizeFileName = %q", got)
	}
	if got := SanitizeFileName("\t\n"); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestSanitizeRelativePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Test Book/Chapter 01 - Intro.mp3", "Test Book/Chapter 01 - Intro.mp3"},
		{"/abs/Chapter.mp3", "abs/Chapter.mp3"},
		{"../../etc/passwd", "etc/passwd"},
		{"Book\x00\x07/Part: One?.mp3", "Book/Part- One.mp3"},
		{"Author//Book./01.mp3", "Author/Book/01.mp3"},
		{`win\style\path.mp3`, "win/style/path.mp3"},
	}
	for _, tt := range tests {
		if got := SanitizeRelativePath(tt.in); got != tt.want {
			t.Errorf("SanitizeRelativePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
