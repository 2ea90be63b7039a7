package manifest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"m4btools/internal/apperr"
	"m4btools/internal/audiobook"
	"m4btools/internal/logging"
	"m4btools/internal/textutil"
)

// TitleFunc returns the embedded title tag of a file, or "" when it has none.
type TitleFunc func(ctx context.Context, path string) (string, error)

// GenerateOptions configures Generate.
type GenerateOptions struct {
	Folder string
	// Output defaults to <folder>/<folder name>.csv.
	Output string
	Genre  string
	Title  TitleFunc
	Logger *slog.Logger
}

// GenerateResult describes a written manifest.
type GenerateResult struct {
	Path       string
	BookTitle  string
	OutputPath string
	Files      int
}

// Generate writes a manifest template listing every m4b/m4a file below the
// folder in natural order, with a directive block ready for editing.
func Generate(ctx context.Context, opts GenerateOptions) (GenerateResult, error) {
	logger := logging.NewComponentLogger(opts.Logger, "manifest")
	folder, err := filepath.Abs(opts.Folder)
	if err != nil {
		return GenerateResult{}, apperr.Wrap(apperr.ErrInput, "generate manifest", opts.Folder, err)
	}
	info, err := os.Stat(folder)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return GenerateResult{}, apperr.Input("generate manifest", "folder not found: %s", folder)
	case err != nil:
		return GenerateResult{}, apperr.Wrap(apperr.ErrInput, "generate manifest", folder, err)
	case !info.IsDir():
		return GenerateResult{}, apperr.Input("generate manifest", "not a directory: %s", folder)
	}

	files, err := findContainers(folder)
	if err != nil {
		return GenerateResult{}, err
	}
	if len(files) == 0 {
		return GenerateResult{}, apperr.Input("generate manifest", "no m4b/m4a files found in %s", folder)
	}

	folderName := filepath.Base(folder)
	output := opts.Output
	if output == "" {
		output = filepath.Join(folder, folderName+".csv")
	} else if output, err = filepath.Abs(output); err != nil {
		return GenerateResult{}, apperr.Wrap(apperr.ErrInput, "generate manifest", opts.Output, err)
	}
	genre := opts.Genre
	if genre == "" {
		genre = "Audiobook"
	}
	bookOutput := filepath.Join(folder, folderName+".m4b")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "#%s,%s\n", audiobook.DirectiveTitle, folderName)
	fmt.Fprintf(&buf, "#%s,\n", audiobook.DirectiveAuthor)
	fmt.Fprintf(&buf, "#%s,\n", audiobook.DirectiveNarrator)
	fmt.Fprintf(&buf, "#%s,%s\n", audiobook.DirectiveGenre, genre)
	fmt.Fprintf(&buf, "#%s,\n", audiobook.DirectiveYear)
	fmt.Fprintf(&buf, "#%s,\n", audiobook.DirectiveDescription)
	fmt.Fprintf(&buf, "#%s,%s\n", audiobook.DirectiveOutputPath, bookOutput)
	fmt.Fprintf(&buf, "#%s,\n", audiobook.DirectiveCoverPath)
	buf.WriteString("\n")

	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"file", "title"}); err != nil {
		return GenerateResult{}, err
	}
	csvDir := filepath.Dir(output)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return GenerateResult{}, fmt.Errorf("%w: %w", apperr.ErrInterrupted, err)
		}
		rel, err := filepath.Rel(csvDir, file)
		if err != nil {
			rel = file
		}
		if err := w.Write([]string{filepath.ToSlash(rel), rowTitle(ctx, logger, opts.Title, file)}); err != nil {
			return GenerateResult{}, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return GenerateResult{}, err
	}

	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return GenerateResult{}, apperr.Wrap(apperr.ErrInput, "generate manifest", "write "+output, err)
	}
	logger.Info("manifest template written",
		logging.String(logging.FieldFile, output),
		logging.String("title", folderName),
		logging.String("output_path", bookOutput),
		logging.Int("files", len(files)),
	)
	return GenerateResult{Path: output, BookTitle: folderName, OutputPath: bookOutput, Files: len(files)}, nil
}

func findContainers(folder string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(folder), "**/*", doublestar.WithFilesOnly())
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInput, "generate manifest", "scan "+folder, err)
	}
	var files []string
	for _, match := range matches {
		if AcceptedExtensions[strings.ToLower(filepath.Ext(match))] {
			files = append(files, filepath.Join(folder, filepath.FromSlash(match)))
		}
	}
	textutil.SortNaturalBy(files, filepath.Base)
	return files, nil
}

func rowTitle(ctx context.Context, logger *slog.Logger, title TitleFunc, file string) string {
	if title != nil {
		embedded, err := title(ctx, file)
		if err != nil {
			logger.Debug("title probe failed; using file name", logging.String(logging.FieldFile, file), logging.Error(err))
		}
		if embedded = strings.TrimSpace(embedded); embedded != "" {
			return embedded
		}
	}
	stem := audiobook.Stem(file)
	if cleaned := audiobook.CleanTitle(stem); cleaned != "" {
		return cleaned
	}
	return stem
}
