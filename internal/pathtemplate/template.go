package pathtemplate

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"m4btools/internal/apperr"
	"m4btools/internal/textutil"
)

type kind int

const (
	kindString kind = iota
	kindInt
	kindFloat
)

// vocabulary maps each placeholder to its value kind.
var vocabulary = map[string]kind{
	"book_title":         kindString,
	"author":             kindString,
	"narrator":           kindString,
	"genre":              kindString,
	"year":               kindString,
	"chapter_num":        kindInt,
	"total_chapters":     kindInt,
	"chapter_title":      kindString,
	"chapter_start":      kindFloat,
	"chapter_end":        kindFloat,
	"duration":           kindFloat,
	"duration_formatted": kindString,
	"original_filename":  kindString,
	"ext":                kindString,
}

// Placeholders returns the supported placeholder names in sorted order.
func Placeholders() []string {
	names := make([]string, 0, len(vocabulary))
	for name := range vocabulary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Context holds the per-chapter values a template is rendered against.
type Context struct {
	BookTitle        string
	Author           string
	Narrator         string
	Genre            string
	Year             string
	ChapterNum       int
	TotalChapters    int
	ChapterTitle     string
	ChapterStart     float64
	ChapterEnd       float64
	Duration         float64
	OriginalFilename string
	Ext              string
}

func (c Context) value(name string) any {
	switch name {
	case "book_title":
		return c.BookTitle
	case "author":
		return c.Author
	case "narrator":
		return c.Narrator
	case "genre":
		return c.Genre
	case "year":
		return c.Year
	case "chapter_num":
		return c.ChapterNum
	case "total_chapters":
		return c.TotalChapters
	case "chapter_title":
		return c.ChapterTitle
	case "chapter_start":
		return c.ChapterStart
	case "chapter_end":
		return c.ChapterEnd
	case "duration":
		return c.Duration
	case "duration_formatted":
		return FormatDuration(c.Duration)
	case "original_filename":
		return c.OriginalFilename
	case "ext":
		return c.Ext
	}
	return nil
}

type spec struct {
	zero      bool
	width     int
	precision int // -1 when unset
	verb      byte
}

type segment struct {
	literal string
	name    string
	spec    spec
}

// Template is a parsed naming template.
type Template struct {
	source   string
	segments []segment
}

// Parse validates text against the placeholder vocabulary.
func Parse(text string) (*Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Input("parse template", "template is empty")
	}
	t := &Template{source: text}
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			t.segments = append(t.segments, segment{literal: literal.String()})
			literal.Reset()
		}
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			literal.WriteByte('{')
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			literal.WriteByte('}')
			i++
		case c == '}':
			return nil, apperr.Input("parse template", "unmatched '}' at offset %d in %q", i, text)
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, apperr.Input("parse template", "unclosed '{' at offset %d in %q", i, text)
			}
			field := text[i+1 : i+1+end]
			seg, err := parseField(field)
			if err != nil {
				return nil, err
			}
			flush()
			t.segments = append(t.segments, seg)
			i += end + 1
		default:
			literal.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

func parseField(field string) (segment, error) {
	name, rawSpec, hasSpec := strings.Cut(field, ":")
	name = strings.TrimSpace(name)
	k, ok := vocabulary[name]
	if !ok {
		return segment{}, apperr.Input("parse template", "unknown placeholder {%s}; supported: %s", name, strings.Join(Placeholders(), ", "))
	}
	s := spec{precision: -1}
	if hasSpec {
		var err error
		if s, err = parseSpec(rawSpec); err != nil {
			return segment{}, apperr.Input("parse template", "placeholder {%s}: %v", field, err)
		}
	}
	switch s.verb {
	case 'd':
		if k != kindInt {
			return segment{}, apperr.Input("parse template", "placeholder {%s}: 'd' needs an integer placeholder", field)
		}
	case 'f':
		if k == kindString {
			return segment{}, apperr.Input("parse template", "placeholder {%s}: 'f' needs a numeric placeholder", field)
		}
	case 's':
		if k != kindString {
			return segment{}, apperr.Input("parse template", "placeholder {%s}: 's' needs a text placeholder", field)
		}
	}
	if s.precision >= 0 && k == kindInt && s.verb != 'f' {
		return segment{}, apperr.Input("parse template", "placeholder {%s}: precision is not allowed for integers", field)
	}
	return segment{name: name, spec: s}, nil
}

func parseSpec(raw string) (spec, error) {
	s := spec{precision: -1}
	rest := raw
	if rest != "" {
		switch last := rest[len(rest)-1]; last {
		case 'd', 'f', 's':
			s.verb = last
			rest = rest[:len(rest)-1]
		}
	}
	if dot := strings.IndexByte(rest, '.'); dot >= 0 {
		prec, err := strconv.Atoi(rest[dot+1:])
		if err != nil || prec < 0 {
			return spec{}, fmt.Errorf("invalid precision in %q", raw)
		}
		s.precision = prec
		rest = rest[:dot]
	}
	if strings.HasPrefix(rest, "0") {
		s.zero = true
		rest = rest[1:]
	}
	if rest != "" {
		width, err := strconv.Atoi(rest)
		if err != nil || width < 0 {
			return spec{}, fmt.Errorf("invalid format spec %q", raw)
		}
		s.width = width
	}
	return s, nil
}

// String returns the template source.
func (t *Template) String() string {
	return t.source
}

// Fields returns the placeholder names used by the template, in order of
// first appearance.
func (t *Template) Fields() []string {
	seen := make(map[string]bool)
	var names []string
	for _, seg := range t.segments {
		if seg.name != "" && !seen[seg.name] {
			seen[seg.name] = true
			names = append(names, seg.name)
		}
	}
	return names
}

// Render expands the template for ctx and returns a clean relative path.
func (t *Template) Render(ctx Context) (string, error) {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.name == "" {
			b.WriteString(seg.literal)
			continue
		}
		b.WriteString(formatValue(ctx.value(seg.name), seg.spec))
	}
	rendered := textutil.SanitizeRelativePath(b.String())
	if rendered == "" {
		return "", apperr.Input("render template", "template %q rendered an empty path", t.source)
	}
	return rendered, nil
}

func formatValue(value any, s spec) string {
	var out string
	switch v := value.(type) {
	case int:
		if s.verb == 'f' {
			out = strconv.FormatFloat(float64(v), 'f', precisionOr(s.precision, 6), 64)
		} else {
			out = strconv.Itoa(v)
		}
	case float64:
		if s.precision >= 0 || s.verb == 'f' {
			out = strconv.FormatFloat(v, 'f', precisionOr(s.precision, 6), 64)
		} else {
			out = strconv.FormatFloat(v, 'f', -1, 64)
		}
	case string:
		out = v
		if s.precision >= 0 && len([]rune(out)) > s.precision {
			out = string([]rune(out)[:s.precision])
		}
	}
	return pad(out, s, value)
}

func pad(out string, s spec, value any) string {
	n := len([]rune(out))
	if s.width <= n {
		return out
	}
	fill := s.width - n
	if _, isString := value.(string); isString {
		return out + strings.Repeat(" ", fill)
	}
	if s.zero {
		if strings.HasPrefix(out, "-") {
			return "-" + strings.Repeat("0", fill) + out[1:]
		}
		return strings.Repeat("0", fill) + out
	}
	return strings.Repeat(" ", fill) + out
}

func precisionOr(p, fallback int) int {
	if p < 0 {
		return fallback
	}
	return p
}

// FormatDuration renders seconds as "42s", "3m 5s", or "1h 2m 3s".
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.0fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", int(seconds/60), int(math.Mod(seconds, 60)))
	default:
		return fmt.Sprintf("%dh %dm %ds", int(seconds/3600), int(math.Mod(seconds, 3600)/60), int(math.Mod(seconds, 60)))
	}
}
