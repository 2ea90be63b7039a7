package manifest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"m4btools/internal/apperr"
	"m4btools/internal/logging"
)

// AcceptedExtensions lists the containers a manifest may reference.
var AcceptedExtensions = map[string]bool{
	".m4b": true,
	".m4a": true,
}

// Entry is one data row of a manifest.
type Entry struct {
	File  string
	Title string
}

// Manifest is a parsed manifest file.
type Manifest struct {
	Path       string
	Dir        string
	Entries    []Entry
	Directives map[string]string
	Skipped    int
}

// Overrides returns the non-empty per-file title overrides keyed by path.
func (m Manifest) Overrides() map[string]string {
	out := make(map[string]string, len(m.Entries))
	for _, e := range m.Entries {
		if e.Title != "" {
			out[e.File] = e.Title
		}
	}
	return out
}

// Files returns the entry paths in manifest order.
func (m Manifest) Files() []string {
	files := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		files[i] = e.File
	}
	return files
}

// ResolvePath resolves a directive path relative to the manifest directory.
func (m Manifest) ResolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// Load opens and parses the manifest at path.
func Load(path string, logger *slog.Logger) (Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Manifest{}, apperr.Wrap(apperr.ErrInput, "load manifest", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, apperr.Input("load manifest", "manifest not found: %s", abs)
		}
		return Manifest{}, apperr.Wrap(apperr.ErrInput, "load manifest", abs, err)
	}
	m, err := Parse(bytes.NewReader(data), filepath.Dir(abs), logger)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", abs, err)
	}
	m.Path = abs
	return m, nil
}

// Parse reads a manifest from r, resolving relative file paths against dir.
// Rows pointing at missing files or unsupported containers are skipped with a
// warning.
func Parse(r io.Reader, dir string, logger *slog.Logger) (Manifest, error) {
	logger = logging.NewComponentLogger(logger, "manifest")
	directives, table, err := splitSections(r)
	if err != nil {
		return Manifest{}, err
	}
	if len(table) == 0 {
		return Manifest{}, apperr.Input("parse manifest", "no data rows found")
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(table, "\n")))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return Manifest{}, apperr.Wrap(apperr.ErrInput, "parse manifest", "malformed CSV", err)
	}

	fileCol, titleCol := -1, -1
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "file":
			fileCol = i
		case "title":
			titleCol = i
		}
	}
	if fileCol < 0 {
		return Manifest{}, apperr.Input("parse manifest", "header must include a 'file' column")
	}
	rows := records[1:]
	if len(rows) == 0 {
		return Manifest{}, apperr.Input("parse manifest", "no data rows found")
	}

	m := Manifest{Dir: dir, Directives: directives}
	for _, row := range rows {
		file := strings.TrimSpace(cell(row, fileCol))
		if file == "" {
			continue
		}
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		file = filepath.Clean(file)
		if info, statErr := os.Stat(file); statErr != nil || info.IsDir() {
			m.Skipped++
			logging.WarnWithContext(logger, "manifest entry not found; skipping", "manifest_entry_missing",
				logging.String(logging.FieldFile, file),
				logging.String(logging.FieldErrorHint, "check the path relative to the manifest directory"),
				logging.String(logging.FieldImpact, "file is left out of the combined book"),
			)
			continue
		}
		if !AcceptedExtensions[strings.ToLower(filepath.Ext(file))] {
			m.Skipped++
			logging.WarnWithContext(logger, "manifest entry is not an m4b/m4a container; skipping", "manifest_entry_unsupported",
				logging.String(logging.FieldFile, file),
				logging.String(logging.FieldErrorHint, "convert the file to m4b first"),
				logging.String(logging.FieldImpact, "file is left out of the combined book"),
			)
			continue
		}
		m.Entries = append(m.Entries, Entry{File: file, Title: strings.TrimSpace(cell(row, titleCol))})
	}
	if len(m.Entries) == 0 {
		return Manifest{}, apperr.Input("parse manifest", "no valid m4b/m4a files listed (%d skipped)", m.Skipped)
	}
	logger.Info("manifest loaded",
		logging.Int("files", len(m.Entries)),
		logging.Int("directives", len(directives)),
		logging.Int("skipped", m.Skipped),
	)
	return m, nil
}

// splitSections separates the leading directive block from the table lines.
// Blank lines are dropped from the table.
func splitSections(r io.Reader) (map[string]string, []string, error) {
	directives := make(map[string]string)
	var table []string
	inHeader := true
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if inHeader {
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "#") {
				if key, value, ok := parseDirective(trimmed[1:]); ok {
					directives[key] = value
				}
				continue
			}
			inHeader = false
		}
		if trimmed != "" {
			table = append(table, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, apperr.Wrap(apperr.ErrInput, "parse manifest", "read failed", err)
	}
	return directives, table, nil
}

func parseDirective(body string) (string, string, bool) {
	key, value, ok := strings.Cut(body, ",")
	if !ok {
		key, value, ok = strings.Cut(body, ":")
	}
	if !ok {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
