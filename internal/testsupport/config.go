package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"m4btools/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The probe cache is disabled unless WithProbeCache is passed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.ProbeCache.Enabled = false
	cfgVal.ProbeCache.Path = filepath.Join(base, "cache", "probes.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithProbeCache enables the probe cache inside the test directory.
func WithProbeCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.ProbeCache.Enabled = true
	}
}

// WithFakeTools installs fake ffmpeg and ffprobe executables and points the
// config at them. See FakeFFmpeg and FakeFFprobe for their behaviour.
func WithFakeTools() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		b.cfg.FFmpeg.FFmpegBinary = writeScript(b.t, binDir, "ffmpeg", fakeFFmpegScript)
		b.cfg.FFmpeg.FFprobeBinary = writeScript(b.t, binDir, "ffprobe", fakeFFprobeScript)
	}
}

// WithStubbedBinaries writes no-op executables for names and prepends their
// directory to PATH for the duration of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "stubs")
		for _, name := range names {
			writeScript(b.t, binDir, name, "#!/bin/sh\nexit 0\n")
		}
		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

func writeScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}
