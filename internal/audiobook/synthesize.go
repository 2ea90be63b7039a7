package audiobook

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"m4btools/internal/apperr"
	"m4btools/internal/logging"
)

// SynthesizeOptions controls chapter synthesis.
type SynthesizeOptions struct {
	// Overrides maps a track path to a title that replaces the derived one.
	Overrides map[string]string
	// PreserveExisting expands a track's embedded chapters into
	// "{track title} - {chapter title}" entries.
	PreserveExisting bool
	// NumberedTitles uses NumberedTitle for filename-derived titles.
	NumberedTitles bool
	Logger         *slog.Logger
}

// Synthesize lays tracks end to end and returns one chapter list starting at
// zero with no gaps or overlaps. A track with an unusable duration aborts
// synthesis with an input error; a zero-length track still yields a
// zero-length chapter.
func Synthesize(tracks []Track, opts SynthesizeOptions) ([]Chapter, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	for _, track := range tracks {
		if !validDuration(track.Duration) {
			return nil, apperr.Input("synthesize chapters", "no usable duration for %s", track.Path)
		}
	}

	chapters := make([]Chapter, 0, len(tracks))
	cursor := 0.0
	for i, track := range tracks {
		position := i + 1
		end := cursor + track.Duration
		if track.Duration == 0 {
			logging.WarnWithContext(logger, "track has zero duration", "zero_duration_track",
				logging.String(logging.FieldFile, track.Path),
				logging.Int("position", position),
				logging.String(logging.FieldErrorHint, "check the file plays and is not truncated"),
				logging.String(logging.FieldImpact, "chapter will be empty"),
			)
		}
		base := trackTitle(track, position, opts)

		embedded := track.Chapters
		if opts.PreserveExisting && len(embedded) > 0 {
			chapters = append(chapters, offsetChapters(base, embedded, cursor, end)...)
		} else {
			chapters = append(chapters, Chapter{Title: base, Start: cursor, End: end})
		}
		cursor = end
	}
	return chapters, nil
}

func trackTitle(track Track, position int, opts SynthesizeOptions) string {
	if override := strings.TrimSpace(opts.Overrides[track.Path]); override != "" {
		return override
	}
	if opts.NumberedTitles {
		return NumberedTitle(Stem(track.Path), position, track.Title)
	}
	return DeriveTitle(Stem(track.Path), position, track.Title)
}

// offsetChapters shifts embedded chapters onto the combined timeline. Each
// chapter ends where the next begins and the last one ends at trackEnd, so
// embedded tables that drift from the probed duration cannot open gaps.
func offsetChapters(base string, embedded []Chapter, trackStart, trackEnd float64) []Chapter {
	sorted := make([]Chapter, len(embedded))
	copy(sorted, embedded)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := make([]Chapter, len(sorted))
	for i, ch := range sorted {
		start := trackStart + ch.Start
		if i == 0 {
			start = trackStart
		} else if start < out[i-1].Start {
			start = out[i-1].Start
		}
		if start > trackEnd {
			start = trackEnd
		}
		title := strings.TrimSpace(ch.Title)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		out[i] = Chapter{Title: base + " - " + title, Start: start}
		if i > 0 {
			out[i-1].End = start
		}
	}
	out[len(out)-1].End = trackEnd
	return out
}

// Contiguous reports whether chapters start at zero and each chapter ends
// where the next begins.
func Contiguous(chapters []Chapter) bool {
	if len(chapters) == 0 {
		return true
	}
	if chapters[0].Start != 0 {
		return false
	}
	for i := 0; i < len(chapters)-1; i++ {
		if chapters[i].End != chapters[i+1].Start || chapters[i].End < chapters[i].Start {
			return false
		}
	}
	last := chapters[len(chapters)-1]
	return last.End >= last.Start
}
