// Package textutil provides string helpers shared by the audiobook pipelines.
//
// The primary use cases are:
//   - Natural ordering of file names with embedded numbers ("file2" < "file10")
//   - Sanitizing file names and relative output paths for safe filesystem use
//
// Natural ordering compares digit runs by numeric value and everything else
// case-insensitively, so "Part 2.m4b" sorts before "part 10.m4b".
package textutil
