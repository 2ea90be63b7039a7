// Package preflight provides readiness checks run before convert, combine,
// and split write anything: the transcoder binaries must resolve and the
// output location must be writable with enough free space.
//
// The CLI "deps" command reuses the individual checks for display.
package preflight
