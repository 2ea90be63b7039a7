// Command m4b-tools converts, combines, and splits chaptered audiobooks.
//
// Subcommands:
//   - convert: batch-convert audio files to .m4b
//   - combine: join several files into one chaptered .m4b (glob or CSV manifest)
//   - split: extract chapters into standalone files named by a template
//   - generate-csv: write an editable manifest for a folder of files
//   - chapters: print the chapter table of a file
//   - deps, config, clean: environment checks and housekeeping
//
// Exit status is 0 on success, 1 on failure, 2 on invalid input or
// configuration, and 130 when interrupted.
package main
