// Package split re-materializes the chapters of a container as standalone
// files named by a path template.
//
// Planning happens before any file I/O: the template is parsed against the
// placeholder vocabulary, every chapter's output path is rendered, and
// collisions are rejected. Extraction then runs one ffmpeg invocation per
// chapter in order, each writing a partial file that is tagged (MP3) and
// renamed into place.
package split
