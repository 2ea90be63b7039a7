package ffmpeg

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"m4btools/internal/apperr"
	"m4btools/internal/audiobook"
)

func TestEncodingArgs(t *testing.T) {
	if got := (Encoding{Copy: true}).Args(); !reflect.DeepEqual(got, []string{"-c", "copy"}) {
		t.Fatalf("copy args = %v", got)
	}
	got := Encoding{Codec: "aac", Bitrate: "64k", Channels: 2}.Args()
	want := []string{"-c:a", "aac", "-b:a", "64k", "-ac", "2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("fallback args = %v, want %v", got, want)
	}
}

func TestConcatArgs(t *testing.T) {
	args := ConcatArgs("/w/concat.txt", "/w/combined.m4b", Encoding{Copy: true})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-f concat -safe 0 -i /w/concat.txt -c copy -f mp4 /w/combined.m4b") {
		t.Fatalf("unexpected concat args %q", joined)
	}
	if args[0] != "-y" {
		t.Fatalf("expected overwrite flag first, got %q", args[0])
	}
}

func TestMuxArgs(t *testing.T) {
	plain := strings.Join(MuxArgs("a.m4b", "ffmetadata.txt", "", "out.m4b"), " ")
	if strings.Contains(plain, "attached_pic") || !strings.Contains(plain, "-map 0:a -map_metadata 1 -map_chapters 1 -c copy") {
		t.Fatalf("unexpected mux args %q", plain)
	}
	withCover := strings.Join(MuxArgs("a.m4b", "ffmetadata.txt", "cover.jpg", "out.m4b"), " ")
	if !strings.Contains(withCover, "-i cover.jpg -map 0:a -map 2:v -disposition:v:0 attached_pic") {
		t.Fatalf("unexpected cover mux args %q", withCover)
	}
	if !strings.HasSuffix(withCover, "-f mp4 out.m4b") {
		t.Fatalf("output should be last: %q", withCover)
	}
}

func TestExtractArgs(t *testing.T) {
	args, err := ExtractArgs("book.m4b", "out.mp3", 2, 4.5, "mp3", "128k")
	if err != nil {
		t.Fatalf("ExtractArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	for _, part := range []string{"-ss 2.000 -t 2.500 -i book.m4b", "-map_chapters -1", "-c:a libmp3lame -b:a 128k out.mp3"} {
		if !strings.Contains(joined, part) {
			t.Fatalf("expected %q in %q", part, joined)
		}
	}

	if _, err := ExtractArgs("book.m4b", "out.mp3", 3, 3, "mp3", ""); !errors.Is(err, apperr.ErrInput) {
		t.Fatalf("expected input error for empty range, got %v", err)
	}
	if _, err := ExtractArgs("book.m4b", "out.xyz", 0, 1, "xyz", ""); !errors.Is(err, apperr.ErrInput) {
		t.Fatalf("expected input error for unknown format, got %v", err)
	}
}

func TestCodecArgs(t *testing.T) {
	tests := map[string][]string{
		"flac": {"-c:a", "flac"},
		".M4A": {"-c:a", "aac", "-b:a", "64k", "-f", "ipod"},
		"wav":  {"-c:a", "pcm_s16le"},
		"opus": {"-c:a", "libopus", "-b:a", "64k"},
	}
	for format, want := range tests {
		got, err := CodecArgs(format, "64k")
		if err != nil {
			t.Fatalf("CodecArgs(%q): %v", format, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("CodecArgs(%q) = %v, want %v", format, got, want)
		}
	}
	if got := Formats(); len(got) != 7 || got[0] != "flac" {
		t.Fatalf("unexpected formats %v", got)
	}
}

func TestConvertArgs(t *testing.T) {
	got := strings.Join(ConvertArgs("in.mp3", "out.m4b", "64k"), " ")
	if !strings.HasSuffix(got, "-i in.mp3 -vn -c:a aac -b:a 64k -f mp4 out.m4b") {
		t.Fatalf("unexpected convert args %q", got)
	}
}

func TestCompatibleStreams(t *testing.T) {
	a := audiobook.Track{Codec: "aac", SampleRate: 44100, Channels: 2}
	b := a
	if !CompatibleStreams([]audiobook.Track{a, b}) {
		t.Fatal("identical tracks should be compatible")
	}
	b.SampleRate = 22050
	if CompatibleStreams([]audiobook.Track{a, b}) {
		t.Fatal("sample rate mismatch should not be compatible")
	}
	c := a
	c.Channels = 1
	if CompatibleStreams([]audiobook.Track{a, c}) {
		t.Fatal("channel mismatch should not be compatible")
	}
	if CompatibleStreams(nil) || CompatibleStreams([]audiobook.Track{{}}) {
		t.Fatal("empty or unknown codec should not be compatible")
	}
}

func TestWriteConcatList(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "concat.txt")
	files := []string{"/books/one.m4b", "/books/it's two.m4b"}
	if err := WriteConcatList(list, files); err != nil {
		t.Fatalf("WriteConcatList: %v", err)
	}
	data, err := os.ReadFile(list)
	if err != nil {
		t.Fatal(err)
	}
	want := "file '/books/one.m4b'\nfile '/books/it'\\''s two.m4b'\n"
	if string(data) != want {
		t.Fatalf("concat list = %q, want %q", data, want)
	}
}
