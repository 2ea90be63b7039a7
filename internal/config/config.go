package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working directory configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// FFmpeg contains external transcoder settings.
type FFmpeg struct {
	FFmpegBinary     string `toml:"ffmpeg_binary"`
	FFprobeBinary    string `toml:"ffprobe_binary"`
	ConvertBitrate   string `toml:"convert_bitrate"`
	FallbackCodec    string `toml:"fallback_codec"`
	FallbackBitrate  string `toml:"fallback_bitrate"`
	FallbackChannels int    `toml:"fallback_channels"`
}

// Convert contains batch conversion defaults.
type Convert struct {
	Jobs              int  `toml:"jobs"`
	PreserveStructure bool `toml:"preserve_structure"`
	SkipExisting      bool `toml:"skip_existing"`
}

// Combine contains combine defaults.
type Combine struct {
	DefaultGenre     string `toml:"default_genre"`
	DefaultTitle     string `toml:"default_title"`
	PreserveChapters bool   `toml:"preserve_chapters"`
	// NumberedTitles prefixes filename-derived chapter titles with
	// "Chapter {n}: ".
	NumberedTitles bool `toml:"numbered_titles"`
}

// Split contains split defaults.
type Split struct {
	Template string `toml:"template"`
	Format   string `toml:"format"`
	Bitrate  string `toml:"bitrate"`
	TagMP3   bool   `toml:"tag_mp3"`
}

// Cover contains cover art download and resize settings.
type Cover struct {
	DownloadTimeoutSeconds int    `toml:"download_timeout_seconds"`
	UserAgent              string `toml:"user_agent"`
	MaxDimension           int    `toml:"max_dimension"`
}

// ProbeCache contains the ffprobe result cache settings.
type ProbeCache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for m4b-tools.
//
// Configuration sections by subsystem:
//   - Paths: scratch, cache, and log directories
//   - FFmpeg: binaries and encoder settings
//   - Convert, Combine, Split: per-command defaults
//   - Cover: cover art download and resize
//   - ProbeCache: SQLite cache of ffprobe results
//   - Logging: log format, level, and retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	FFmpeg     FFmpeg     `toml:"ffmpeg"`
	Convert    Convert    `toml:"convert"`
	Combine    Combine    `toml:"combine"`
	Split      Split      `toml:"split"`
	Cover      Cover      `toml:"cover"`
	ProbeCache ProbeCache `toml:"probe_cache"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work, cache, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ProbeCachePath returns the cache database location, or "" when the cache
// is disabled.
func (c *Config) ProbeCachePath() string {
	if !c.ProbeCache.Enabled {
		return ""
	}
	return c.ProbeCache.Path
}

// CoverTimeout returns the cover download timeout.
func (c *Config) CoverTimeout() time.Duration {
	return time.Duration(c.Cover.DownloadTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
