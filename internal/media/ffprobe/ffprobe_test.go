package ffprobe

import (
	"math"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "aac", "codec_type": "audio", "sample_rate": "22050", "channels": 1, "bit_rate": "64000"},
    {"index": 1, "codec_name": "mjpeg", "codec_type": "video", "disposition": {"attached_pic": 1}}
  ],
  "format": {
    "filename": "book.m4b",
    "duration": "6.000000",
    "size": "48000",
    "bit_rate": "64000",
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "tags": {"title": "Test Book", "ARTIST": "Test Author"}
  },
  "chapters": [
    {"id": 0, "time_base": "1/1000", "start": 0, "start_time": "0.000000", "end": 2000, "end_time": "2.000000", "tags": {"title": "Chapter 1"}},
    {"id": 1, "time_base": "1/1000", "start": 2000, "end": 4000, "tags": {}}
  ]
}`

func TestParse(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	audio, ok := result.FirstAudio()
	if !ok || audio.CodecName != "aac" || audio.SampleRateHz() != 22050 || audio.Channels != 1 {
		t.Fatalf("unexpected audio stream: %+v", audio)
	}
	if d, ok := result.Duration(); !ok || d != 6 {
		t.Fatalf("unexpected duration: %v %v", d, ok)
	}
	if result.Tag("title") != "Test Book" || result.Tag("artist") != "Test Author" {
		t.Fatalf("unexpected tags: %v", result.Format.Tags)
	}
	if len(result.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(result.Chapters))
	}
	if result.Chapters[0].Title() != "Chapter 1" || result.Chapters[1].Title() != "" {
		t.Fatalf("unexpected chapter titles")
	}
	if got := result.Chapters[1].StartSeconds(); got != 2 {
		t.Fatalf("expected timebase fallback start 2, got %v", got)
	}
	if got := result.Chapters[1].EndSeconds(); got != 4 {
		t.Fatalf("expected timebase fallback end 4, got %v", got)
	}
	if len(result.RawJSON()) != len(sampleJSON) {
		t.Fatalf("raw JSON not retained")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if _, ok := result.Duration(); ok {
		t.Fatal("expected malformed duration to be unusable")
	}
	if _, ok := (Result{}).Duration(); ok {
		t.Fatal("expected missing duration to be unusable")
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}
