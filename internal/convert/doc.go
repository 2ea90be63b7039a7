// Package convert batch-converts audio files into m4b containers.
//
// Inputs come from a glob (with ** support) optionally anchored at a base
// input path. Each file is one ffmpeg invocation; invocations run on a
// bounded errgroup pool and share only the summary counters. An interrupt
// stops new work from being scheduled while in-flight conversions finish
// writing to their partial names, so no half-written .m4b is ever left at
// the final path.
package convert
