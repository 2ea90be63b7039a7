// Package tagging writes ID3v2 tags onto MP3 files produced by split.
package tagging

import (
	"fmt"
	"strings"

	"github.com/bogem/id3v2"
)

// Tags are the frames written to a split chapter.
type Tags struct {
	Title       string
	Album       string
	Artist      string
	AlbumArtist string
	Composer    string
	Genre       string
	Year        string
	Track       int
	TrackTotal  int
	// Cover is optional JPEG or PNG artwork.
	Cover     []byte
	CoverMIME string
}

// WriteMP3 replaces the ID3v2 tag of path with tags. Empty fields are
// omitted.
func WriteMP3(path string, tags Tags) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open %s for tagging: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.DeleteAllFrames()
	tag.SetVersion(4)

	setText(tag, tag.CommonID("Title/Songname/Content description"), tags.Title)
	setText(tag, tag.CommonID("Album/Movie/Show title"), tags.Album)
	setText(tag, tag.CommonID("Lead artist/Lead performer/Soloist/Performing group"), tags.Artist)
	setText(tag, "TPE2", tags.AlbumArtist)
	setText(tag, tag.CommonID("Composer"), tags.Composer)
	setText(tag, tag.CommonID("Content type"), tags.Genre)
	setText(tag, "TDRC", tags.Year)
	if track := TrackNumber(tags.Track, tags.TrackTotal); track != "" {
		setText(tag, "TRCK", track)
	}
	if len(tags.Cover) > 0 {
		mime := tags.CoverMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mime,
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     tags.Cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags for %s: %w", path, err)
	}
	return nil
}

// TrackNumber renders a TRCK value such as "3/12".
func TrackNumber(track, total int) string {
	switch {
	case track <= 0:
		return ""
	case total > 0:
		return fmt.Sprintf("%d/%d", track, total)
	default:
		return fmt.Sprintf("%d", track)
	}
}

func setText(tag *id3v2.Tag, id, value string) {
	if value = strings.TrimSpace(value); value != "" {
		tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
	}
}
