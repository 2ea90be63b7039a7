package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// FailEnv names the environment variable the fake ffmpeg consults: when it
// is set and any argument contains its value, the fake exits 1.
const FailEnv = "M4B_TOOLS_FAKE_FFMPEG_FAIL"

// fakeFFmpegScript records each invocation in ffmpeg.log next to itself
// (arguments separated by tabs) and writes a small payload to the output
// path, which is always the last argument.
const fakeFFmpegScript = `#!/bin/sh
dir=$(dirname "$0")
for last; do :; done
if [ "$1" = "-version" ]; then
  echo "ffmpeg version 7.1-fake Copyright (c) the FFmpeg developers"
  exit 0
fi
old_ifs=$IFS
IFS='	'
printf '%s\n' "$*" >> "$dir/ffmpeg.log"
IFS=$old_ifs
if [ -n "$` + FailEnv + `" ]; then
  for arg; do
    case "$arg" in
      *"$` + FailEnv + `"*)
        echo "fake ffmpeg: refusing $arg" >&2
        echo "Conversion failed!" >&2
        exit 1
        ;;
    esac
  done
fi
for arg; do
  case "$arg" in
    *ffmetadata*) cp "$arg" "$dir/last-metadata.txt" 2>/dev/null ;;
  esac
done
printf 'fake-audio\n' > "$last"
`

// fakeFFprobeScript prints the JSON fixture stored beside the probed file
// as "<file>.probe.json" and fails when there is none.
const fakeFFprobeScript = `#!/bin/sh
for last; do :; done
if [ -f "$last.probe.json" ]; then
  cat "$last.probe.json"
  exit 0
fi
echo "$last: Invalid data found when processing input" >&2
exit 1
`

// ProbeChapter describes an embedded chapter in a probe fixture.
type ProbeChapter struct {
	Title string
	Start float64
	End   float64
}

// Probe describes the ffprobe output a fixture should produce.
type Probe struct {
	Duration   float64
	Codec      string
	SampleRate int
	Channels   int
	Tags       map[string]string
	Chapters   []ProbeChapter
}

// WriteMedia creates a placeholder media file at path and the probe fixture
// the fake ffprobe will report for it.
func WriteMedia(t testing.TB, path string, probe Probe) {
	t.Helper()
	WriteFile(t, path, 64)
	WriteProbeFixture(t, path, probe)
}

// WriteProbeFixture writes the "<path>.probe.json" fixture for path.
func WriteProbeFixture(t testing.TB, path string, probe Probe) {
	t.Helper()
	codec := probe.Codec
	if codec == "" {
		codec = "aac"
	}
	sampleRate := probe.SampleRate
	if sampleRate == 0 {
		sampleRate = 44100
	}
	channels := probe.Channels
	if channels == 0 {
		channels = 2
	}
	chapters := make([]map[string]any, 0, len(probe.Chapters))
	for i, ch := range probe.Chapters {
		entry := map[string]any{
			"id":         i,
			"time_base":  "1/1000",
			"start":      int64(ch.Start * 1000),
			"start_time": formatFloat(ch.Start),
			"end":        int64(ch.End * 1000),
			"end_time":   formatFloat(ch.End),
		}
		if ch.Title != "" {
			entry["tags"] = map[string]string{"title": ch.Title}
		}
		chapters = append(chapters, entry)
	}
	doc := map[string]any{
		"streams": []map[string]any{{
			"index":       0,
			"codec_name":  codec,
			"codec_type":  "audio",
			"sample_rate": strconv.Itoa(sampleRate),
			"channels":    channels,
		}},
		"format": map[string]any{
			"filename": path,
			"duration": formatFloat(probe.Duration),
			"size":     "64",
			"bit_rate": "64000",
			"tags":     probe.Tags,
		},
		"chapters": chapters,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal probe fixture: %v", err)
	}
	if err := os.WriteFile(path+".probe.json", data, 0o644); err != nil {
		t.Fatalf("write probe fixture: %v", err)
	}
}

// FFmpegCalls returns the recorded fake ffmpeg invocations, oldest first.
func FFmpegCalls(t testing.TB, ffmpegBinary string) [][]string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(filepath.Dir(ffmpegBinary), "ffmpeg.log"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read ffmpeg log: %v", err)
	}
	var calls [][]string
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line != "" {
			calls = append(calls, strings.Split(line, "\t"))
		}
	}
	return calls
}

// LastMetadata returns the most recent metadata document the fake ffmpeg
// received.
func LastMetadata(t testing.TB, ffmpegBinary string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(filepath.Dir(ffmpegBinary), "last-metadata.txt"))
	if err != nil {
		t.Fatalf("read captured metadata: %v", err)
	}
	return string(data)
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
