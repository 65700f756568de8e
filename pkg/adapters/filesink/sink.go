// Package filesink provides a preview sink that writes the latest preview to a file.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/frameset/pkg/ports"
)

// Sink overwrites a single image file with every preview.
// A viewer that reloads the file on change shows the session live.
type Sink struct {
	path     string
	format   ports.ImageFormat
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a sink writing to path. The format follows the extension; unknown extensions write PNG.
func New(path string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	format, ok := ports.FormatFromExtension(filepath.Ext(path))
	if !ok {
		format = ports.FormatPNG
	}
	return &Sink{
		path:     path,
		format:   format,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// Path returns the file the sink writes to.
func (s *Sink) Path() string {
	return s.path
}

// SavePreview encodes img and replaces the preview file.
func (s *Sink) SavePreview(img image.Image) error {
	data, err := s.renderer.EncodeImage(img, s.format, 0)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("create preview directory: %w", err)
		}
	}
	return s.fs.WriteFile(s.path, data)
}

// Ensure Sink implements ports.PreviewSink
var _ ports.PreviewSink = (*Sink)(nil)
