// Package ffmpeg drives the ffmpeg binary for the four invocations the tool
// needs: converting a single file to m4b, concatenating inputs, muxing a
// metadata document (and optional cover) into a container, and extracting
// a time range.
//
// Argument builders are pure so they can be tested without ffmpeg; Runner
// executes them and turns failures into ErrExternalTool errors carrying the
// tail of ffmpeg's stderr.
package ffmpeg
