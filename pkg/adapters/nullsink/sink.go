// Package nullsink provides a no-op preview sink implementation.
package nullsink

import (
	"image"

	"github.com/user/frameset/pkg/ports"
)

// Sink is a no-op implementation of ports.PreviewSink.
// It discards all previews.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SavePreview does nothing.
func (s *Sink) SavePreview(img image.Image) error {
	return nil
}

// Ensure Sink implements ports.PreviewSink
var _ ports.PreviewSink = (*Sink)(nil)
