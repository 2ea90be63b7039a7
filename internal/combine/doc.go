// Package combine joins several chaptered audio files into one m4b.
//
// A combine run is a strict sequence: resolve inputs (manifest order or
// natural-sorted glob), probe every file, synthesize the chapter table,
// merge book metadata, concatenate the audio in a staging workspace, then
// mux the metadata document and optional cover into a partial output that
// is renamed into place only after ffmpeg succeeds. A lock file beside the
// output keeps two runs from writing the same book.
package combine
