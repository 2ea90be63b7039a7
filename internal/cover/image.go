package cover

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

const jpegQuality = 90

// Normalized is the result of Normalize.
type Normalized struct {
	Data      []byte
	Format    string
	Width     int
	Height    int
	Reencoded bool
}

// Ext returns the file extension matching the normalized format.
func (n Normalized) Ext() string {
	if n.Format == "png" {
		return ".png"
	}
	return ".jpg"
}

// Normalize returns data unchanged when it is a JPEG or PNG no larger than
// maxDimension on either side; otherwise the image is scaled to fit
// (aspect ratio kept) and encoded as JPEG. maxDimension <= 0 disables
// scaling.
func Normalize(data []byte, maxDimension int) (Normalized, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Normalized{}, fmt.Errorf("decode cover: %w", err)
	}
	tooLarge := maxDimension > 0 && (cfg.Width > maxDimension || cfg.Height > maxDimension)
	if !tooLarge && (format == "jpeg" || format == "png") {
		return Normalized{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Normalized{}, fmt.Errorf("decode cover: %w", err)
	}
	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxDimension)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Normalized{}, fmt.Errorf("encode cover: %w", err)
	}
	return Normalized{Data: buf.Bytes(), Format: "jpeg", Width: width, Height: height, Reencoded: true}, nil
}

func fitWithin(width, height, limit int) (int, int) {
	if limit <= 0 || (width <= limit && height <= limit) {
		return width, height
	}
	if width >= height {
		h := max(1, int(float64(height)*float64(limit)/float64(width)))
		return limit, h
	}
	w := max(1, int(float64(width)*float64(limit)/float64(height)))
	return w, limit
}
