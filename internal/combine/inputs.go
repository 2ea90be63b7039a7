package combine

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"m4btools/internal/apperr"
	"m4btools/internal/audiobook"
	"m4btools/internal/manifest"
	"m4btools/internal/textutil"
)

// inputs are the resolved sources of one combine run.
type inputs struct {
	files      []string
	overrides  map[string]string
	directives map[string]string
	// baseDir anchors relative directive paths (cover, output).
	baseDir string
}

func resolveInputs(opts Options, logger *slog.Logger) (inputs, error) {
	pattern := strings.TrimSpace(opts.Pattern)
	manifestPath := strings.TrimSpace(opts.ManifestPath)
	switch {
	case pattern == "" && manifestPath == "":
		return inputs{}, apperr.Input("combine", "either an input pattern or a CSV manifest is required")
	case pattern != "" && manifestPath != "":
		return inputs{}, apperr.Input("combine", "use an input pattern or a CSV manifest, not both")
	}

	if manifestPath != "" {
		m, err := manifest.Load(manifestPath, logger)
		if err != nil {
			return inputs{}, err
		}
		directives := make(map[string]string, len(m.Directives))
		for k, v := range m.Directives {
			directives[k] = v
		}
		if out := directives[audiobook.DirectiveOutputPath]; out != "" {
			directives[audiobook.DirectiveOutputPath] = m.ResolvePath(out)
		}
		return inputs{
			files:      m.Files(),
			overrides:  m.Overrides(),
			directives: directives,
			baseDir:    m.Dir,
		}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return inputs{}, apperr.Wrap(apperr.ErrInput, "combine", "invalid pattern "+pattern, err)
	}
	var files []string
	for _, m := range matches {
		if manifest.AcceptedExtensions[strings.ToLower(filepath.Ext(m))] {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return inputs{}, apperr.Input("combine", "no .m4b or .m4a files match %q", pattern)
	}
	textutil.SortNaturalBy(files, filepath.Base)
	return inputs{files: files}, nil
}
