package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeSplit()
	c.normalizeCover()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnvOverrides() {
	if value, ok := lookupEnv(envFFmpegBinary); ok {
		c.FFmpeg.FFmpegBinary = value
	}
	if value, ok := lookupEnv(envFFprobeBinary); ok {
		c.FFmpeg.FFprobeBinary = value
	}
	if value, ok := lookupEnv(envLogLevel); ok {
		c.Logging.Level = value
	}
	if value, ok := lookupEnv(envWorkDir); ok {
		c.Paths.WorkDir = value
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) != "" {
		if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
			return fmt.Errorf("paths.work_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(strings.TrimSpace(c.Paths.CacheDir)); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.ProbeCache.Path) == "" {
		c.ProbeCache.Path = filepath.Join(c.Paths.CacheDir, defaultProbeCacheName)
	}
	if c.ProbeCache.Path, err = expandPath(strings.TrimSpace(c.ProbeCache.Path)); err != nil {
		return fmt.Errorf("probe_cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.FFmpegBinary = strings.TrimSpace(c.FFmpeg.FFmpegBinary)
	if c.FFmpeg.FFmpegBinary == "" {
		c.FFmpeg.FFmpegBinary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
	c.FFmpeg.ConvertBitrate = strings.ToLower(strings.TrimSpace(c.FFmpeg.ConvertBitrate))
	if c.FFmpeg.ConvertBitrate == "" {
		c.FFmpeg.ConvertBitrate = defaultBitrate
	}
	c.FFmpeg.FallbackCodec = strings.ToLower(strings.TrimSpace(c.FFmpeg.FallbackCodec))
	if c.FFmpeg.FallbackCodec == "" {
		c.FFmpeg.FallbackCodec = defaultFallbackCodec
	}
	c.FFmpeg.FallbackBitrate = strings.ToLower(strings.TrimSpace(c.FFmpeg.FallbackBitrate))
	if c.FFmpeg.FallbackBitrate == "" {
		c.FFmpeg.FallbackBitrate = defaultBitrate
	}
}

func (c *Config) normalizeSplit() {
	c.Split.Template = strings.TrimSpace(c.Split.Template)
	if c.Split.Template == "" {
		c.Split.Template = defaultSplitTemplate
	}
	c.Split.Format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Split.Format)), ".")
	if c.Split.Format == "" {
		c.Split.Format = defaultSplitFormat
	}
	c.Split.Bitrate = strings.ToLower(strings.TrimSpace(c.Split.Bitrate))
}

func (c *Config) normalizeCover() {
	c.Cover.UserAgent = strings.TrimSpace(c.Cover.UserAgent)
	if c.Cover.UserAgent == "" {
		c.Cover.UserAgent = defaultCoverUserAgent
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
