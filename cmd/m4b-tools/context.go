package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"m4btools/internal/apperr"
	"m4btools/internal/audiobook"
	"m4btools/internal/config"
	"m4btools/internal/cover"
	"m4btools/internal/ffmpeg"
	"m4btools/internal/logging"
	"m4btools/internal/probecache"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = apperr.Wrap(apperr.ErrConfiguration, "load config", "", err)
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = apperr.Wrap(apperr.ErrConfiguration, "prepare directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// services bundles the collaborators a command needs for one invocation.
type services struct {
	cfg    *config.Config
	logger *slog.Logger
	cache  *probecache.Cache
	prober *audiobook.Prober
	runner *ffmpeg.Runner

	closers []io.Closer
}

func (s *services) covers() *cover.Resolver {
	return cover.NewResolver(cover.Options{
		Timeout:      s.cfg.CoverTimeout(),
		UserAgent:    s.cfg.Cover.UserAgent,
		MaxDimension: s.cfg.Cover.MaxDimension,
		Logger:       s.logger,
	})
}

func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
}

// withServices builds the logger, probe cache, prober, and ffmpeg runner,
// runs fn, and releases them.
func (c *commandContext) withServices(cmd *cobra.Command, fn func(*services) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, logCloser, err := logging.NewFromConfig(cfg, uuid.NewString(), cmd.ErrOrStderr())
	if err != nil {
		return apperr.Wrap(apperr.ErrConfiguration, "init logger", "", err)
	}
	svc := &services{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}
	defer svc.close()

	cache, err := probecache.Open(cfg.ProbeCachePath())
	if err != nil {
		logging.WarnWithContext(logger, "probe cache unavailable; probing without it", "probe_cache_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, fmt.Sprintf("remove %s or disable [probe_cache]", cfg.ProbeCachePath())),
			logging.String(logging.FieldImpact, "every file is probed with ffprobe"),
		)
		cache = nil
	} else {
		svc.closers = append(svc.closers, cache)
	}
	svc.cache = cache
	svc.prober = audiobook.NewProber(cfg.FFmpeg.FFprobeBinary, cache, logger)
	svc.runner = ffmpeg.NewRunner(cfg.FFmpeg.FFmpegBinary, logger)
	return fn(svc)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
