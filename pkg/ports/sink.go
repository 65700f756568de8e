package ports

import (
	"image"
)

// PreviewSink receives rendered previews of the frame under review.
// A presentation layer watches wherever the sink writes.
type PreviewSink interface {
	// Enabled returns true if previews are kept.
	Enabled() bool

	// SavePreview stores the latest rendered preview.
	SavePreview(img image.Image) error
}
