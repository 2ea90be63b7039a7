package tagging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
)

func TestWriteMP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "01.mp3")
	// A bare MPEG frame header is enough for the tag writer.
	if err := os.WriteFile(path, []byte{0xFF, 0xFB, 0x90, 0x64, 0x00, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}

	err := WriteMP3(path, Tags{
		Title:       "Intro",
		Album:       "Test Book",
		Artist:      "Test Author",
		AlbumArtist: "Test Author",
		Genre:       "Audiobook",
		Year:        "2024",
		Track:       1,
		TrackTotal:  3,
		Cover:       []byte{0xFF, 0xD8, 0xFF},
	})
	if err != nil {
		t.Fatalf("WriteMP3: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()

	if tag.Title() != "Intro" || tag.Album() != "Test Book" || tag.Artist() != "Test Author" {
		t.Fatalf("unexpected tags title=%q album=%q artist=%q", tag.Title(), tag.Album(), tag.Artist())
	}
	if tag.Genre() != "Audiobook" {
		t.Fatalf("unexpected genre %q", tag.Genre())
	}
	if got := tag.GetTextFrame("TRCK").Text; got != "1/3" {
		t.Fatalf("unexpected track frame %q", got)
	}
	if pics := tag.GetFrames(tag.CommonID("Attached picture")); len(pics) != 1 {
		t.Fatalf("expected one picture frame, got %d", len(pics))
	}
}

func TestWriteMP3MissingFile(t *testing.T) {
	if err := WriteMP3(filepath.Join(t.TempDir(), "missing.mp3"), Tags{Title: "x"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTrackNumber(t *testing.T) {
	tests := []struct {
		track, total int
		want         string
	}{
		{0, 5, ""},
		{2, 0, "2"},
		{2, 10, "2/10"},
	}
	for _, tt := range tests {
		if got := TrackNumber(tt.track, tt.total); got != tt.want {
			t.Errorf("TrackNumber(%d, %d) = %q, want %q", tt.track, tt.total, got, tt.want)
		}
	}
}
