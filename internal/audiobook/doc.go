// Package audiobook holds the chapter model shared by combine and split.
//
// It covers four concerns:
//   - probing source files into Track values (Prober, backed by ffprobe and
//     an optional probe cache)
//   - deriving chapter titles from filenames (DeriveTitle, NumberedTitle)
//   - synthesizing one gap-free chapter list from ordered tracks (Synthesize)
//   - encoding and decoding the ffmpeg FFMETADATA1 side-channel document
//     (EncodeMetadata, DecodeMetadata)
//
// Chapter lists produced here always start at zero and each chapter ends
// exactly where the next one starts.
package audiobook
