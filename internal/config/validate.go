package config

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var bitratePattern = regexp.MustCompile(`^\d+[km]?$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		fn   func() error
	}{
		{"ffmpeg", c.FFmpeg.Validate},
		{"convert", c.Convert.Validate},
		{"combine", c.Combine.Validate},
		{"split", c.Split.Validate},
		{"cover", c.Cover.Validate},
		{"logging", c.Logging.Validate},
	}
	for _, section := range sections {
		if err := section.fn(); err != nil {
			return fmt.Errorf("%s: %w", section.name, err)
		}
	}
	return nil
}

// Validate validates the transcoder settings.
func (f *FFmpeg) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.FFmpegBinary, validation.Required),
		validation.Field(&f.FFprobeBinary, validation.Required),
		validation.Field(&f.ConvertBitrate, validation.Required, validation.Match(bitratePattern)),
		validation.Field(&f.FallbackCodec, validation.Required),
		validation.Field(&f.FallbackBitrate, validation.Required, validation.Match(bitratePattern)),
		validation.Field(&f.FallbackChannels, validation.Required, validation.Min(1), validation.Max(8)),
	)
}

// Validate validates the conversion settings.
func (c *Convert) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Jobs, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// Validate validates the combine settings.
func (c *Combine) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultTitle, validation.Required),
	)
}

// Validate validates the split settings.
func (s *Split) Validate() error {
	formats := make([]any, 0, len(SupportedSplitFormats))
	for _, f := range SupportedSplitFormats {
		formats = append(formats, f)
	}
	return validation.ValidateStruct(s,
		validation.Field(&s.Template, validation.Required),
		validation.Field(&s.Format, validation.Required, validation.In(formats...)),
		validation.Field(&s.Bitrate, validation.Match(bitratePattern)),
	)
}

// Validate validates the cover art settings.
func (c *Cover) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DownloadTimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxDimension, validation.Min(0)),
	)
}

// Validate validates the log settings.
func (l *Logging) Validate() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.Format, validation.Required, validation.In("console", "json")),
		validation.Field(&l.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.RetentionDays, validation.Min(0)),
	)
}
