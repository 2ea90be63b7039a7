package testsupport

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFakeToolsRecordAndProbe(t *testing.T) {
	cfg := NewConfig(t, WithFakeTools())
	media := filepath.Join(BaseDir(cfg), "in", "a.m4b")
	WriteMedia(t, media, Probe{Duration: 2.5, Chapters: []ProbeChapter{{Title: "One", Start: 0, End: 2.5}}})

	out, err := exec.CommandContext(context.Background(), cfg.FFmpeg.FFprobeBinary, "-of", "json", "--", media).Output()
	if err != nil {
		t.Fatalf("fake ffprobe: %v", err)
	}
	if !strings.Contains(string(out), `"duration": "2.500000"`) {
		t.Fatalf("unexpected probe output %s", out)
	}

	target := filepath.Join(BaseDir(cfg), "out.m4b")
	if err := exec.Command(cfg.FFmpeg.FFmpegBinary, "-i", media, "-c", "copy", target).Run(); err != nil {
		t.Fatalf("fake ffmpeg: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected output written: %v", err)
	}
	calls := FFmpegCalls(t, cfg.FFmpeg.FFmpegBinary)
	if len(calls) != 1 || calls[0][len(calls[0])-1] != target || calls[0][2] != "-c" {
		t.Fatalf("unexpected recorded calls %q", calls)
	}
}

func TestFakeFFmpegFailure(t *testing.T) {
	cfg := NewConfig(t, WithFakeTools())
	t.Setenv(FailEnv, "broken")
	err := exec.Command(cfg.FFmpeg.FFmpegBinary, "-i", "broken.m4b", "out.m4b").Run()
	if err == nil {
		t.Fatal("expected fake ffmpeg to fail")
	}
}

func TestFakeFFprobeMissingFixture(t *testing.T) {
	cfg := NewConfig(t, WithFakeTools())
	if err := exec.Command(cfg.FFmpeg.FFprobeBinary, "--", "/nope.m4b").Run(); err == nil {
		t.Fatal("expected failure without fixture")
	}
}
