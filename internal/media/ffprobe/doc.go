// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no m4btools-specific dependencies.
//
// Key types:
//   - Result: parsed ffprobe output containing streams, format, and chapters
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate, tags)
//   - Chapter: an embedded chapter marker with its own tags
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Parse: decodes a captured ffprobe JSON payload (used by caches and tests)
//
// Helper methods on Result provide convenient access to stream counts,
// duration parsing, tag lookup, and chapter boundaries in seconds.
package ffprobe
