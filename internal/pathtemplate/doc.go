// Package pathtemplate expands split naming templates such as
// "{book_title}/Chapter {chapter_num:02d} - {chapter_title}.{ext}" into
// relative output paths.
//
// Templates are parsed once and checked against the fixed placeholder
// vocabulary, including format spec compatibility, so a typo fails before
// any file is written. Slashes inside substituted values are kept as
// directory separators, which lets a title like "Series/Book" nest output;
// characters that are illegal in file names are removed per segment.
//
// Format specs follow the familiar [0][width][.precision][type] shape with
// types d (integers), f (numbers), and s (strings). Literal braces are
// written as {{ and }}.
package pathtemplate
