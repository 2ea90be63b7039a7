package audiobook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"m4btools/internal/apperr"
	"m4btools/internal/logging"
	"m4btools/internal/media/ffprobe"
	"m4btools/internal/probecache"
)

// Prober turns media files into Tracks using ffprobe, consulting the probe
// cache first when one is configured.
type Prober struct {
	binary  string
	cache   *probecache.Cache
	logger  *slog.Logger
	inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// NewProber constructs a Prober. cache may be nil.
func NewProber(binary string, cache *probecache.Cache, logger *slog.Logger) *Prober {
	return &Prober{
		binary:  binary,
		cache:   cache,
		logger:  logging.NewComponentLogger(logger, "probe"),
		inspect: ffprobe.Inspect,
	}
}

// Probe inspects path and returns its Track. A probe failure is an external
// tool error; a file without a usable duration is an input error.
func (p *Prober) Probe(ctx context.Context, path string) (Track, error) {
	result, err := p.result(ctx, path)
	if err != nil {
		return Track{}, err
	}
	return TrackFromResult(path, result)
}

// Chapters returns the embedded chapters of path. Chapter absence and probe
// failures both yield an empty list; failures are logged as warnings.
func (p *Prober) Chapters(ctx context.Context, path string) []Chapter {
	result, err := p.result(ctx, path)
	if err != nil {
		logging.WarnWithContext(p.logger, "could not read chapters; continuing without them", "chapter_probe_failed",
			logging.String(logging.FieldFile, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the file with ffprobe -show_chapters"),
			logging.String(logging.FieldImpact, "file is treated as having no chapters"),
		)
		return nil
	}
	return ChaptersFromResult(result)
}

func (p *Prober) result(ctx context.Context, path string) (ffprobe.Result, error) {
	if payload, ok, err := p.cache.Lookup(ctx, path); err != nil {
		p.logger.Debug("probe cache lookup failed", logging.String(logging.FieldFile, path), logging.Error(err))
	} else if ok {
		if result, err := ffprobe.Parse(payload); err == nil {
			p.logger.Debug("probe cache hit", logging.String(logging.FieldFile, path))
			return result, nil
		}
	}

	result, err := p.inspect(ctx, p.binary, path)
	if err != nil {
		if ctx.Err() != nil {
			return ffprobe.Result{}, fmt.Errorf("%w: %w", apperr.ErrInterrupted, ctx.Err())
		}
		return ffprobe.Result{}, apperr.Wrap(apperr.ErrExternalTool, "probe", path, err)
	}
	if err := p.cache.Store(ctx, path, result.RawJSON()); err != nil {
		p.logger.Debug("probe cache store failed", logging.String(logging.FieldFile, path), logging.Error(err))
	}
	return result, nil
}

// TrackFromResult maps ffprobe output onto a Track.
func TrackFromResult(path string, result ffprobe.Result) (Track, error) {
	duration, ok := result.Duration()
	if !ok {
		return Track{}, apperr.Input("probe", "no usable duration reported for %s", path)
	}
	track := Track{
		Path:        path,
		Duration:    duration,
		Bitrate:     result.BitRate(),
		Title:       strings.TrimSpace(result.Tag("title")),
		Album:       strings.TrimSpace(result.Tag("album")),
		Artist:      strings.TrimSpace(result.Tag("artist")),
		AlbumArtist: strings.TrimSpace(result.Tag("album_artist")),
		Composer:    strings.TrimSpace(result.Tag("composer")),
		Genre:       strings.TrimSpace(result.Tag("genre")),
		Date:        strings.TrimSpace(firstNonEmpty(result.Tag("date"), result.Tag("year"))),
		Chapters:    ChaptersFromResult(result),
	}
	if audio, ok := result.FirstAudio(); ok {
		track.Codec = strings.ToLower(strings.TrimSpace(audio.CodecName))
		track.SampleRate = audio.SampleRateHz()
		track.Channels = audio.Channels
	}
	return track, nil
}

// ChaptersFromResult decodes ffprobe chapters relative to the start of the
// file. Untitled chapters are named "Chapter {n}".
func ChaptersFromResult(result ffprobe.Result) []Chapter {
	if len(result.Chapters) == 0 {
		return nil
	}
	chapters := make([]Chapter, 0, len(result.Chapters))
	for i, ch := range result.Chapters {
		title := ch.Title()
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		chapters = append(chapters, Chapter{Title: title, Start: ch.StartSeconds(), End: ch.EndSeconds()})
	}
	return chapters
}
