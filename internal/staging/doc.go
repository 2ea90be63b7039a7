// Package staging manages the scratch directories combine and split use for
// concat lists, metadata documents, and downloaded covers.
//
// Acquire creates an owned "m4b-tools-*" directory that Release removes, or
// adopts a caller-supplied directory that Release leaves in place.
// CleanStale reclaims owned directories abandoned by interrupted runs.
package staging
