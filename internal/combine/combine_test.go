package combine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"m4btools/internal/apperr"
	"m4btools/internal/audiobook"
	"m4btools/internal/config"
	"m4btools/internal/cover"
	"m4btools/internal/ffmpeg"
	"m4btools/internal/logging"
	"m4btools/internal/testsupport"
)

func newCombiner(t *testing.T) (*Combiner, *config.Config, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithFakeTools())
	logger := logging.NewNop()
	c := New(
		cfg,
		audiobook.NewProber(cfg.FFmpeg.FFprobeBinary, nil, logger),
		ffmpeg.NewRunner(cfg.FFmpeg.FFmpegBinary, logger),
		cover.NewResolver(cover.Options{Logger: logger}),
		logger,
	)
	return c, cfg, testsupport.BaseDir(cfg)
}

func decodeCaptured(t *testing.T, cfg *config.Config) audiobook.Metadata {
	t.Helper()
	meta, err := audiobook.DecodeMetadata(strings.NewReader(testsupport.LastMetadata(t, cfg.FFmpeg.FFmpegBinary)))
	if err != nil {
		t.Fatalf("decode captured metadata: %v", err)
	}
	return meta
}

func TestRunFromPatternBuildsContiguousChapters(t *testing.T) {
	c, cfg, base := newCombiner(t)
	src := filepath.Join(base, "src")
	testsupport.WriteMedia(t, filepath.Join(src, "part10.m4a"), testsupport.Probe{Duration: 2.5})
	testsupport.WriteMedia(t, filepath.Join(src, "part1.m4a"), testsupport.Probe{
		Duration: 2.0,
		Tags:     map[string]string{"album": "Tagged Album", "artist": "Tag Artist"},
	})
	testsupport.WriteMedia(t, filepath.Join(src, "part2.m4a"), testsupport.Probe{Duration: 1.5})
	output := filepath.Join(base, "out", "book.m4b")

	result, err := c.Run(context.Background(), Options{
		Pattern: filepath.Join(src, "*.m4a"),
		Output:  output,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if _, err := os.Stat(output + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("lock file left behind: %v", err)
	}
	if !result.Encoding.Copy {
		t.Fatalf("expected stream copy for matching inputs, got %s", result.Encoding)
	}

	wantStarts := []float64{0, 2.0, 3.5}
	wantEnds := []float64{2.0, 3.5, 6.0}
	if len(result.Chapters) != 3 {
		t.Fatalf("expected 3 chapters, got %+v", result.Chapters)
	}
	for i, ch := range result.Chapters {
		if ch.Start != wantStarts[i] || ch.End != wantEnds[i] {
			t.Fatalf("chapter %d = %+v", i, ch)
		}
	}
	if result.Duration() != 6.0 {
		t.Fatalf("duration = %v", result.Duration())
	}
	if result.Book.Title != "Tagged Album" || result.Book.Author != "Tag Artist" {
		t.Fatalf("book metadata not taken from first track: %+v", result.Book)
	}
	if result.Book.Genre != "Audiobook" {
		t.Fatalf("default genre not applied: %q", result.Book.Genre)
	}

	meta := decodeCaptured(t, cfg)
	if len(meta.Chapters) != 3 || meta.Chapters[1].Start != 2.0 || meta.Chapters[2].End != 6.0 {
		t.Fatalf("unexpected chapters in metadata document: %+v", meta.Chapters)
	}
	if meta.Tags["title"] != "Tagged Album" {
		t.Fatalf("metadata title = %q", meta.Tags["title"])
	}

	calls := testsupport.FFmpegCalls(t, cfg.FFmpeg.FFmpegBinary)
	if len(calls) != 2 {
		t.Fatalf("expected concat and mux calls, got %d", len(calls))
	}
	if !strings.Contains(strings.Join(calls[0], " "), "-f concat") {
		t.Fatalf("first call is not a concat: %q", calls[0])
	}
}

func TestRunFromManifestUsesManifestOrderAndDirectives(t *testing.T) {
	c, cfg, base := newCombiner(t)
	dir := filepath.Join(base, "book")
	testsupport.WriteMedia(t, filepath.Join(dir, "b.m4b"), testsupport.Probe{Duration: 3})
	testsupport.WriteMedia(t, filepath.Join(dir, "a.m4b"), testsupport.Probe{Duration: 4, Codec: "mp3"})
	csvPath := filepath.Join(dir, "book.csv")
	testsupport.WriteText(t, csvPath, strings.Join([]string{
		"#title,Manifest Book",
		"#author:Jane Author",
		"#output_path,out/manifest.m4b",
		"#cover_path,missing.jpg",
		"",
		"file,title",
		"b.m4b,Opening",
		"a.m4b,",
		"",
	}, "\n"))

	result, err := c.Run(context.Background(), Options{ManifestPath: csvPath})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := filepath.Join(dir, "out", "manifest.m4b"); result.Output != want {
		t.Fatalf("output = %q, want %q", result.Output, want)
	}
	if result.Chapters[0].Title != "Opening" || result.Chapters[1].Title != "A" {
		t.Fatalf("unexpected titles: %+v", result.Chapters)
	}
	if result.Chapters[1].Start != 3 {
		t.Fatalf("manifest order not kept: %+v", result.Chapters)
	}
	if result.Encoding.Copy {
		t.Fatal("mixed codecs should be re-encoded")
	}
	if result.Cover != "" {
		t.Fatalf("missing cover should degrade, got %q", result.Cover)
	}
	meta := decodeCaptured(t, cfg)
	if meta.Tags["album_artist"] != "Jane Author" || meta.Tags["title"] != "Manifest Book" {
		t.Fatalf("unexpected tags %+v", meta.Tags)
	}
}

func TestRunExplicitTitleAndPreservedChapters(t *testing.T) {
	c, _, base := newCombiner(t)
	src := filepath.Join(base, "src")
	testsupport.WriteMedia(t, filepath.Join(src, "01 - Prologue.m4b"), testsupport.Probe{
		Duration: 10,
		Chapters: []testsupport.ProbeChapter{{Title: "Start", Start: 0, End: 4}, {Title: "More", Start: 4, End: 10}},
	})
	testsupport.WriteMedia(t, filepath.Join(src, "02 - Ending.m4b"), testsupport.Probe{Duration: 5})

	result, err := c.Run(context.Background(), Options{
		Pattern:          filepath.Join(src, "*.m4b"),
		Output:           filepath.Join(base, "out.m4b"),
		Book:             audiobook.Book{Title: "Explicit"},
		PreserveChapters: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Book.Title != "Explicit" {
		t.Fatalf("title = %q", result.Book.Title)
	}
	titles := make([]string, len(result.Chapters))
	for i, ch := range result.Chapters {
		titles[i] = ch.Title
	}
	want := []string{"Prologue - Start", "Prologue - More", "Ending"}
	if strings.Join(titles, "|") != strings.Join(want, "|") {
		t.Fatalf("titles = %q, want %q", titles, want)
	}
	if !audiobook.Contiguous(result.Chapters) {
		t.Fatalf("chapters not contiguous: %+v", result.Chapters)
	}
}

func TestRunDownloadsCover(t *testing.T) {
	c, _, base := newCombiner(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	src := filepath.Join(base, "src")
	testsupport.WriteMedia(t, filepath.Join(src, "a.m4b"), testsupport.Probe{Duration: 1})

	result, err := c.Run(context.Background(), Options{
		Pattern: filepath.Join(src, "*.m4b"),
		Output:  filepath.Join(base, "out.m4b"),
		Book:    audiobook.Book{CoverRef: srv.URL + "/cover.jpg"},
	})
	if err != nil {
		t.Fatalf("failed cover download must not fail combine: %v", err)
	}
	if result.Cover != "" {
		t.Fatalf("cover = %q", result.Cover)
	}
}

func TestRunInputErrors(t *testing.T) {
	c, _, base := newCombiner(t)
	src := filepath.Join(base, "src")
	testsupport.WriteMedia(t, filepath.Join(src, "a.m4b"), testsupport.Probe{Duration: 1})

	tests := []struct {
		name string
		opts Options
	}{
		{"no inputs", Options{Output: filepath.Join(base, "x.m4b")}},
		{"both inputs", Options{Pattern: "*.m4b", ManifestPath: "x.csv", Output: "x.m4b"}},
		{"no output", Options{Pattern: filepath.Join(src, "*.m4b")}},
		{"no matches", Options{Pattern: filepath.Join(src, "*.mp3"), Output: filepath.Join(base, "x.m4b")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Run(context.Background(), tt.opts)
			if !errors.Is(err, apperr.ErrInput) {
				t.Fatalf("expected input error, got %v", err)
			}
		})
	}
}

func TestRunProbeFailureIsFatal(t *testing.T) {
	c, cfg, base := newCombiner(t)
	src := filepath.Join(base, "src")
	testsupport.WriteMedia(t, filepath.Join(src, "a.m4b"), testsupport.Probe{Duration: 1})
	testsupport.WriteFile(t, filepath.Join(src, "b.m4b"), 8)
	output := filepath.Join(base, "out.m4b")

	_, err := c.Run(context.Background(), Options{Pattern: filepath.Join(src, "*.m4b"), Output: output})
	if !errors.Is(err, apperr.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if calls := testsupport.FFmpegCalls(t, cfg.FFmpeg.FFmpegBinary); len(calls) != 0 {
		t.Fatalf("ffmpeg should not run after a probe failure, got %d calls", len(calls))
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("output should not exist: %v", err)
	}
}

func TestRunMuxFailureLeavesNoOutput(t *testing.T) {
	c, _, base := newCombiner(t)
	t.Setenv(testsupport.FailEnv, ".partial")
	src := filepath.Join(base, "src")
	testsupport.WriteMedia(t, filepath.Join(src, "a.m4b"), testsupport.Probe{Duration: 1})
	output := filepath.Join(base, "out", "book.m4b")

	_, err := c.Run(context.Background(), Options{Pattern: filepath.Join(src, "*.m4b"), Output: output})
	if !errors.Is(err, apperr.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(output))
	for _, e := range entries {
		if e.Name() != "book.m4b.lock" {
			t.Fatalf("unexpected file left in output dir: %s", e.Name())
		}
	}
}

func TestRunRefusesLockedOutput(t *testing.T) {
	c, _, base := newCombiner(t)
	src := filepath.Join(base, "src")
	testsupport.WriteMedia(t, filepath.Join(src, "a.m4b"), testsupport.Probe{Duration: 1})
	output := filepath.Join(base, "out.m4b")

	held := flock.New(output + ".lock")
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = held.Unlock() }()

	_, err := c.Run(context.Background(), Options{Pattern: filepath.Join(src, "*.m4b"), Output: output})
	if !errors.Is(err, apperr.ErrInput) {
		t.Fatalf("expected input error for locked output, got %v", err)
	}
}
