package split

import (
	"path/filepath"
	"strings"

	"m4btools/internal/apperr"
	"m4btools/internal/audiobook"
	"m4btools/internal/pathtemplate"
)

// Job is one planned chapter extraction.
type Job struct {
	Number  int
	Chapter audiobook.Chapter
	// Rel is the rendered path relative to the output directory.
	Rel     string
	Context pathtemplate.Context
}

// BookContext derives the book-level template fields from a probed track.
func BookContext(track audiobook.Track, format string) pathtemplate.Context {
	stem := audiobook.Stem(track.Path)
	return pathtemplate.Context{
		BookTitle:        firstNonEmpty(track.Title, track.Album, stem),
		Author:           firstNonEmpty(track.Artist, track.AlbumArtist),
		Narrator:         track.Composer,
		Genre:            track.Genre,
		Year:             track.Date,
		OriginalFilename: stem,
		Ext:              normalizeFormat(format),
	}
}

// Chapters returns the chapters to extract from track. A track without
// embedded chapters yields one chapter spanning the whole file, titled
// with the book title.
func Chapters(track audiobook.Track, bookTitle string) []audiobook.Chapter {
	if len(track.Chapters) > 0 {
		return track.Chapters
	}
	return []audiobook.Chapter{{Title: bookTitle, Start: 0, End: track.Duration}}
}

// Plan renders an output path for every chapter. Two chapters rendering to
// the same path is an input error.
func Plan(track audiobook.Track, tmpl *pathtemplate.Template, format string) ([]Job, error) {
	book := BookContext(track, format)
	chapters := Chapters(track, book.BookTitle)
	jobs := make([]Job, 0, len(chapters))
	seen := make(map[string]int, len(chapters))
	for i, ch := range chapters {
		ctx := book
		ctx.ChapterNum = i + 1
		ctx.TotalChapters = len(chapters)
		ctx.ChapterTitle = strings.TrimSpace(ch.Title)
		ctx.ChapterStart = ch.Start
		ctx.ChapterEnd = ch.End
		ctx.Duration = ch.Duration()

		rel, err := tmpl.Render(ctx)
		if err != nil {
			return nil, err
		}
		key := filepath.Clean(rel)
		if prev, dup := seen[key]; dup {
			return nil, apperr.Input("plan split", "chapters %d and %d both render to %q; add {chapter_num} to the template", prev, i+1, rel)
		}
		seen[key] = i + 1
		jobs = append(jobs, Job{Number: i + 1, Chapter: ch, Rel: rel, Context: ctx})
	}
	return jobs, nil
}

func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
