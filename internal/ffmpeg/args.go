package ffmpeg

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"m4btools/internal/apperr"
	"m4btools/internal/audiobook"
)

// Encoding selects how combine writes audio: stream copy, or a re-encode
// to a fixed codec, bitrate, and channel count.
type Encoding struct {
	Copy     bool
	Codec    string
	Bitrate  string
	Channels int
}

// Args returns the ffmpeg codec options for e.
func (e Encoding) Args() []string {
	if e.Copy {
		return []string{"-c", "copy"}
	}
	args := []string{"-c:a", e.Codec}
	if e.Bitrate != "" {
		args = append(args, "-b:a", e.Bitrate)
	}
	if e.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(e.Channels))
	}
	return args
}

func (e Encoding) String() string {
	if e.Copy {
		return "stream copy"
	}
	return strings.Join(e.Args(), " ")
}

func baseArgs() []string {
	return []string{"-y", "-hide_banner", "-nostdin", "-loglevel", "error"}
}

// ConvertArgs converts one audio file to an AAC m4b, dropping video streams
// such as embedded artwork.
func ConvertArgs(input, output, bitrate string) []string {
	args := append(baseArgs(), "-i", input, "-vn", "-c:a", "aac")
	if bitrate != "" {
		args = append(args, "-b:a", bitrate)
	}
	return append(args, "-f", "mp4", output)
}

// ConcatArgs joins the files listed in a concat list.
func ConcatArgs(listPath, output string, enc Encoding) []string {
	args := append(baseArgs(), "-f", "concat", "-safe", "0", "-i", listPath)
	args = append(args, enc.Args()...)
	return append(args, "-f", "mp4", output)
}

// MuxArgs copies audio into output with the metadata document applied. A
// non-empty cover is attached as the container artwork.
func MuxArgs(audio, metadataDoc, cover, output string) []string {
	args := append(baseArgs(), "-i", audio, "-i", metadataDoc)
	if cover != "" {
		args = append(args,
			"-i", cover,
			"-map", "0:a", "-map", "2:v",
			"-disposition:v:0", "attached_pic",
		)
	} else {
		args = append(args, "-map", "0:a")
	}
	args = append(args,
		"-map_metadata", "1",
		"-map_chapters", "1",
		"-c", "copy",
		"-f", "mp4",
		output,
	)
	return args
}

// ExtractArgs encodes the [start, end) range of input into output using the
// codec for format. Source chapters and tags are not carried over.
func ExtractArgs(input, output string, start, end float64, format, bitrate string) ([]string, error) {
	codec, err := CodecArgs(format, bitrate)
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, apperr.Input("extract", "empty range %.3f-%.3f in %s", start, end, input)
	}
	args := append(baseArgs(),
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end-start),
		"-i", input,
		"-map", "0:a:0",
		"-vn",
		"-map_chapters", "-1",
		"-map_metadata", "-1",
	)
	args = append(args, codec...)
	return append(args, output), nil
}

// Formats returns the split output formats ExtractArgs accepts.
func Formats() []string {
	formats := make([]string, 0, len(codecs))
	for f := range codecs {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	return formats
}

type codecSpec struct {
	codec   string
	bitrate bool
	muxer   string
}

var codecs = map[string]codecSpec{
	"mp3":  {codec: "libmp3lame", bitrate: true},
	"m4a":  {codec: "aac", bitrate: true, muxer: "ipod"},
	"m4b":  {codec: "aac", bitrate: true, muxer: "ipod"},
	"flac": {codec: "flac"},
	"ogg":  {codec: "libvorbis", bitrate: true},
	"opus": {codec: "libopus", bitrate: true},
	"wav":  {codec: "pcm_s16le"},
}

// CodecArgs returns the encoder options for a split output format.
func CodecArgs(format, bitrate string) ([]string, error) {
	format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	spec, ok := codecs[format]
	if !ok {
		return nil, apperr.Input("codec", "unsupported output format %q (supported: %s)", format, strings.Join(Formats(), ", "))
	}
	args := []string{"-c:a", spec.codec}
	if spec.bitrate && bitrate != "" {
		args = append(args, "-b:a", bitrate)
	}
	if spec.muxer != "" {
		args = append(args, "-f", spec.muxer)
	}
	return args, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// CompatibleStreams reports whether every track shares the first track's
// codec, sample rate, and channel count, which makes stream copy safe.
func CompatibleStreams(tracks []audiobook.Track) bool {
	if len(tracks) == 0 {
		return false
	}
	first := tracks[0]
	if first.Codec == "" {
		return false
	}
	for _, t := range tracks[1:] {
		if t.Codec != first.Codec || t.SampleRate != first.SampleRate || t.Channels != first.Channels {
			return false
		}
	}
	return true
}

// Describe renders a track's stream parameters for logs.
func Describe(t audiobook.Track) string {
	return fmt.Sprintf("%s %dHz %dch", t.Codec, t.SampleRate, t.Channels)
}
