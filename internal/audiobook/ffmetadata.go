package audiobook

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"m4btools/internal/apperr"
)

// MetadataHeader is the first line of every ffmpeg metadata document.
const MetadataHeader = ";FFMETADATA1"

// Metadata is a decoded ffmpeg metadata document.
type Metadata struct {
	Tags     map[string]string
	Chapters []Chapter
}

// bookTag pairs a document key with the Book field it is written from, in
// output order.
type bookTag struct {
	key   string
	value func(Book) string
}

var bookTags = []bookTag{
	{"title", func(b Book) string { return b.Title }},
	{"artist", func(b Book) string { return b.Artist }},
	{"album", func(b Book) string { return b.Album }},
	{"album_artist", func(b Book) string { return b.Author }},
	{"composer", func(b Book) string { return b.Narrator }},
	{"genre", func(b Book) string { return b.Genre }},
	{"date", func(b Book) string { return b.Year }},
	{"comment", func(b Book) string { return b.Description }},
}

var metadataEscaper = strings.NewReplacer(
	`\`, `\\`,
	"=", `\=`,
	";", `\;`,
	"#", `\#`,
	"\n", "\\\n",
)

// EncodeMetadata renders book and chapters as an FFMETADATA1 document.
// Empty book fields are omitted. Chapter bounds are truncated to whole
// milliseconds.
func EncodeMetadata(book Book, chapters []Chapter) []byte {
	var buf bytes.Buffer
	buf.WriteString(MetadataHeader)
	buf.WriteByte('\n')
	for _, tag := range bookTags {
		value := strings.TrimSpace(tag.value(book))
		if value == "" {
			continue
		}
		buf.WriteString(tag.key)
		buf.WriteByte('=')
		buf.WriteString(metadataEscaper.Replace(value))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	for _, ch := range chapters {
		buf.WriteString("[CHAPTER]\n")
		buf.WriteString("TIMEBASE=1/1000\n")
		fmt.Fprintf(&buf, "START=%d\n", Milliseconds(ch.Start))
		fmt.Fprintf(&buf, "END=%d\n", Milliseconds(ch.End))
		buf.WriteString("title=")
		buf.WriteString(metadataEscaper.Replace(ch.Title))
		buf.WriteString("\n\n")
	}
	return buf.Bytes()
}

// msEpsilon absorbs float error so a value decoded from N ms truncates back
// to N rather than N-1.
const msEpsilon = 1e-6

// Milliseconds truncates seconds to whole milliseconds.
func Milliseconds(seconds float64) int64 {
	return int64(math.Trunc(seconds*1000 + msEpsilon))
}

// DecodeMetadata parses an FFMETADATA1 document. Chapters without a title
// are named "Chapter {n}".
func DecodeMetadata(r io.Reader) (Metadata, error) {
	lines, err := logicalLines(r)
	if err != nil {
		return Metadata{}, err
	}
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != MetadataHeader {
		return Metadata{}, apperr.Input("decode metadata", "missing %s header", MetadataHeader)
	}

	meta := Metadata{Tags: make(map[string]string)}
	var (
		current   *rawChapter
		raws      []*rawChapter
		inSection bool
	)
	for n, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			inSection = true
			current = nil
			if strings.EqualFold(trimmed, "[CHAPTER]") {
				current = &rawChapter{num: 1, den: 1000}
				raws = append(raws, current)
			}
			continue
		}
		key, value, ok := splitUnescaped(line)
		if !ok {
			return Metadata{}, apperr.Input("decode metadata", "line %d: expected key=value", n+2)
		}
		switch {
		case current != nil:
			if err := current.set(key, value); err != nil {
				return Metadata{}, apperr.Input("decode metadata", "line %d: %v", n+2, err)
			}
		case !inSection:
			meta.Tags[strings.ToLower(key)] = value
		}
	}

	meta.Chapters = make([]Chapter, 0, len(raws))
	for i, raw := range raws {
		title := strings.TrimSpace(raw.title)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		meta.Chapters = append(meta.Chapters, Chapter{
			Title: title,
			Start: float64(raw.start) * float64(raw.num) / float64(raw.den),
			End:   float64(raw.end) * float64(raw.num) / float64(raw.den),
		})
	}
	return meta, nil
}

type rawChapter struct {
	num, den   int64
	start, end int64
	title      string
}

func (c *rawChapter) set(key, value string) error {
	var err error
	switch strings.ToUpper(key) {
	case "TIMEBASE":
		numText, denText, found := strings.Cut(value, "/")
		if !found {
			return fmt.Errorf("invalid TIMEBASE %q", value)
		}
		if c.num, err = strconv.ParseInt(strings.TrimSpace(numText), 10, 64); err != nil {
			return fmt.Errorf("invalid TIMEBASE %q", value)
		}
		if c.den, err = strconv.ParseInt(strings.TrimSpace(denText), 10, 64); err != nil || c.den == 0 {
			return fmt.Errorf("invalid TIMEBASE %q", value)
		}
	case "START":
		if c.start, err = strconv.ParseInt(strings.TrimSpace(value), 10, 64); err != nil {
			return fmt.Errorf("invalid START %q", value)
		}
	case "END":
		if c.end, err = strconv.ParseInt(strings.TrimSpace(value), 10, 64); err != nil {
			return fmt.Errorf("invalid END %q", value)
		}
	default:
		if strings.EqualFold(key, "title") {
			c.title = value
		}
	}
	return nil
}

// logicalLines joins lines ending in an escaped newline with their successor.
func logicalLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var (
		lines   []string
		pending strings.Builder
		joining bool
	)
	for scanner.Scan() {
		line := scanner.Text()
		if trailingBackslashes(line)%2 == 1 {
			pending.WriteString(line[:len(line)-1])
			pending.WriteString("\\\n")
			joining = true
			continue
		}
		if joining {
			pending.WriteString(line)
			line = pending.String()
			pending.Reset()
			joining = false
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	if joining {
		lines = append(lines, pending.String())
	}
	return lines, nil
}

func trailingBackslashes(line string) int {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n
}

// splitUnescaped splits at the first unescaped '=' and unescapes both halves.
func splitUnescaped(line string) (string, string, bool) {
	var key strings.Builder
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if i+1 < len(line) {
				i++
				key.WriteByte(line[i])
			}
		case '=':
			return strings.TrimSpace(key.String()), unescape(line[i+1:]), true
		default:
			key.WriteByte(line[i])
		}
	}
	return "", "", false
}

func unescape(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		if value[i] == '\\' && i+1 < len(value) {
			i++
		}
		b.WriteByte(value[i])
	}
	return b.String()
}
