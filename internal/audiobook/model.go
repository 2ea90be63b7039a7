package audiobook

import (
	"math"
	"strings"
)

// Chapter is a titled time range in seconds.
type Chapter struct {
	Title string  `json:"title" yaml:"title"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Duration returns End - Start.
func (c Chapter) Duration() float64 {
	return c.End - c.Start
}

// Track is a probed source file.
type Track struct {
	Path       string
	Duration   float64
	Codec      string
	SampleRate int
	Channels   int
	Bitrate    int64

	Title       string
	Album       string
	Artist      string
	AlbumArtist string
	Composer    string
	Genre       string
	Date        string

	Chapters []Chapter
}

// Book is the book-level metadata written into a combined container.
type Book struct {
	Title       string
	Artist      string
	Album       string
	Author      string
	Narrator    string
	Genre       string
	Year        string
	Description string
	CoverRef    string
	OutputPath  string
}

// TotalDuration sums the durations of chapters.
func TotalDuration(chapters []Chapter) float64 {
	if len(chapters) == 0 {
		return 0
	}
	return chapters[len(chapters)-1].End - chapters[0].Start
}

func validDuration(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d >= 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
