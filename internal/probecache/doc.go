// Package probecache persists raw ffprobe payloads in SQLite so repeated
// combine and split runs over the same library skip re-probing unchanged
// files.
//
// Entries are keyed by absolute path and invalidated whenever the file size
// or modification time (nanoseconds) changes. A Cache opened with an empty
// path is disabled: lookups always miss and stores are no-ops, so callers
// never need a nil check.
package probecache
