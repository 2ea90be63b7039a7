package convert

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"m4btools/internal/apperr"
	"m4btools/internal/textutil"
)

// SupportedExtensions lists the input formats convert accepts.
var SupportedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".wav":  true,
	".wma":  true,
}

// OutputExt is the extension of converted files.
const OutputExt = ".m4b"

// Discover expands pattern, joined onto base when base is set and pattern
// is relative, and returns supported audio files in natural order.
func Discover(pattern, base string) ([]string, error) {
	full := pattern
	if base != "" && !filepath.IsAbs(pattern) {
		full = filepath.Join(base, pattern)
	}
	matches, err := doublestar.FilepathGlob(full, doublestar.WithFilesOnly())
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInput, "discover", "invalid pattern "+pattern, err)
	}
	var files []string
	for _, m := range matches {
		if SupportedExtensions[strings.ToLower(filepath.Ext(m))] {
			files = append(files, m)
		}
	}
	textutil.SortNatural(files)
	return files, nil
}

// Layout decides where a converted file is written.
type Layout struct {
	OutputDir         string
	PreserveStructure bool
	// BaseInputPath anchors preserved structure; when empty the literal
	// prefix of a ** pattern is used, and plain patterns flatten.
	BaseInputPath string
	Pattern       string
}

// OutputPath returns the .m4b path for input.
func (l Layout) OutputPath(input string) string {
	if !l.PreserveStructure {
		return filepath.Join(l.OutputDir, stem(input)+OutputExt)
	}
	rel := l.relative(input)
	return filepath.Join(l.OutputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+OutputExt)
}

func (l Layout) relative(input string) string {
	name := filepath.Base(input)
	var anchor string
	switch {
	case l.BaseInputPath != "":
		anchor = l.BaseInputPath
	case strings.Contains(l.Pattern, "**"):
		prefix, _, _ := strings.Cut(l.Pattern, "**")
		anchor = strings.TrimRight(prefix, "/")
		if anchor == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return name
			}
			anchor = cwd
		}
	default:
		return name
	}
	rel, ok := relativeTo(input, anchor)
	if !ok {
		return name
	}
	return rel
}

func relativeTo(path, anchor string) (string, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	absAnchor, err := filepath.Abs(anchor)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absAnchor, absPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
