package audiobook

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// The prefix must end at a digit, separator, or end of string so words
	// like "Chronicles" or "Partition" keep their first letters.
	chapterPrefixPattern = regexp.MustCompile(`(?i)^(?:chapter|ch|part|pt)(?:[\s\-_]*\d+|[\s\-_]+|$)[\s\-_]*`)
	leadingNumberPattern = regexp.MustCompile(`^\d+[\s\-_]*`)
)

// DeriveTitle returns existing when it is non-blank, otherwise a title built
// from the file stem, falling back to "Chapter {position}".
func DeriveTitle(stem string, position int, existing string) string {
	if trimmed := strings.TrimSpace(existing); trimmed != "" {
		return trimmed
	}
	if cleaned := CleanTitle(stem); cleaned != "" {
		return cleaned
	}
	return fmt.Sprintf("Chapter %d", position)
}

// NumberedTitle is DeriveTitle with filename-derived titles prefixed as
// "Chapter {position}: {title}". Existing titles are returned verbatim.
func NumberedTitle(stem string, position int, existing string) string {
	if trimmed := strings.TrimSpace(existing); trimmed != "" {
		return trimmed
	}
	if cleaned := CleanTitle(stem); cleaned != "" {
		return fmt.Sprintf("Chapter %d: %s", position, cleaned)
	}
	return fmt.Sprintf("Chapter %d", position)
}

// CleanTitle strips chapter/part prefixes and leading numbers from a file
// stem and title-cases what remains. It returns "" when nothing is left.
func CleanTitle(stem string) string {
	cleaned := strings.TrimSpace(stem)
	cleaned = chapterPrefixPattern.ReplaceAllString(cleaned, "")
	cleaned = leadingNumberPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.NewReplacer("_", " ", "-", " ").Replace(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return ""
	}
	// Casers carry state and are not safe to share across goroutines.
	return cases.Title(language.Und).String(cleaned)
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
