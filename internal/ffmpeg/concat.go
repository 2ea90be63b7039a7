package ffmpeg

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteConcatList writes a concat demuxer list naming files in order.
// Paths are made absolute and single quotes escaped as '\''.
func WriteConcatList(path string, files []string) error {
	var buf bytes.Buffer
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", file, err)
		}
		fmt.Fprintf(&buf, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}
