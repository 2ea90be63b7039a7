package config

const (
	defaultConfigPath      = "~/.config/m4b-tools/config.toml"
	projectConfigName      = "m4b-tools.toml"
	defaultCacheDir        = "~/.cache/m4b-tools"
	defaultLogDir          = "~/.local/share/m4b-tools/logs"
	defaultProbeCacheName  = "probes.db"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultLogRetention    = 30
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultBitrate         = "64k"
	defaultFallbackCodec   = "aac"
	defaultChannels        = 2
	defaultGenre           = "Audiobook"
	defaultTitle           = "Combined Audiobook"
	defaultSplitTemplate   = "{book_title}/Chapter {chapter_num:02d} - {chapter_title}.{ext}"
	defaultSplitFormat     = "mp3"
	defaultCoverTimeout    = 30
	defaultCoverUserAgent  = "m4b-tools/1.0 (+https://github.com/m4b-tools/m4b-tools)"
	defaultCoverDimension  = 1400
	envFFmpegBinary        = "M4B_TOOLS_FFMPEG"
	envFFprobeBinary       = "M4B_TOOLS_FFPROBE"
	envLogLevel            = "M4B_TOOLS_LOG_LEVEL"
	envWorkDir             = "M4B_TOOLS_WORK_DIR"
	defaultConvertJobs     = 1
	defaultPreserveLayout  = true
	defaultSkipExisting    = true
	defaultProbeCacheState = true
)

// SupportedSplitFormats lists the output formats split can produce.
var SupportedSplitFormats = []string{"mp3", "m4a", "m4b", "flac", "ogg", "opus", "wav"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:     defaultFFmpegBinary,
			FFprobeBinary:    defaultFFprobeBinary,
			ConvertBitrate:   defaultBitrate,
			FallbackCodec:    defaultFallbackCodec,
			FallbackBitrate:  defaultBitrate,
			FallbackChannels: defaultChannels,
		},
		Convert: Convert{
			Jobs:              defaultConvertJobs,
			PreserveStructure: defaultPreserveLayout,
			SkipExisting:      defaultSkipExisting,
		},
		Combine: Combine{
			DefaultGenre: defaultGenre,
			DefaultTitle: defaultTitle,
		},
		Split: Split{
			Template: defaultSplitTemplate,
			Format:   defaultSplitFormat,
			TagMP3:   true,
		},
		Cover: Cover{
			DownloadTimeoutSeconds: defaultCoverTimeout,
			UserAgent:              defaultCoverUserAgent,
			MaxDimension:           defaultCoverDimension,
		},
		ProbeCache: ProbeCache{
			Enabled: defaultProbeCacheState,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetention,
		},
	}
}
