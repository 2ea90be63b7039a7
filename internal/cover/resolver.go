package cover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"m4btools/internal/apperr"
	"m4btools/internal/logging"
)

// maxDownloadBytes caps a cover download.
const maxDownloadBytes = 32 << 20

// Options configures a Resolver.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxDimension int
	Logger       *slog.Logger
	// HTTPClient overrides the default client; its Timeout is left as is.
	HTTPClient *http.Client
}

// Resolver turns cover references into local image files.
type Resolver struct {
	client       *http.Client
	userAgent    string
	maxDimension int
	logger       *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(opts Options) *Resolver {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Resolver{
		client:       client,
		userAgent:    strings.TrimSpace(opts.UserAgent),
		maxDimension: opts.MaxDimension,
		logger:       logging.NewComponentLogger(opts.Logger, "cover"),
	}
}

// IsURL reports whether ref is an http(s) URL.
func IsURL(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Resolve returns a path to an image ffmpeg can attach. Relative local
// paths are resolved against baseDir; downloads and re-encoded images are
// written into workDir. Errors are marked ErrDegraded.
func (r *Resolver) Resolve(ctx context.Context, ref, baseDir, workDir string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}

	var (
		data   []byte
		source string
		err    error
	)
	if IsURL(ref) {
		data, err = r.download(ctx, ref)
		source = ref
	} else {
		source = ref
		if !filepath.IsAbs(source) && baseDir != "" {
			source = filepath.Join(baseDir, source)
		}
		source, _ = filepath.Abs(source)
		data, err = os.ReadFile(source)
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("cover file not found: %s", source)
		}
	}
	if err != nil {
		return "", apperr.Wrap(apperr.ErrDegraded, "resolve cover", ref, err)
	}

	normalized, err := Normalize(data, r.maxDimension)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrDegraded, "resolve cover", source, err)
	}
	if !IsURL(ref) && !normalized.Reencoded {
		r.logger.Info("using cover art", logging.String(logging.FieldFile, source))
		return source, nil
	}

	target := filepath.Join(workDir, "cover"+normalized.Ext())
	if err := os.WriteFile(target, normalized.Data, 0o644); err != nil {
		return "", apperr.Wrap(apperr.ErrDegraded, "resolve cover", "write "+target, err)
	}
	r.logger.Info("cover art prepared",
		logging.String("source", source),
		logging.String(logging.FieldFile, target),
		logging.Int("width", normalized.Width),
		logging.Int("height", normalized.Height),
		logging.Bool("reencoded", normalized.Reencoded),
	)
	return target, nil
}

func (r *Resolver) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("cover larger than %d bytes", maxDownloadBytes)
	}
	r.logger.Debug("cover downloaded", logging.String("url", url), logging.Int("bytes", len(data)))
	return data, nil
}
