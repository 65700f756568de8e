package pipeline

import (
	"image"

	"github.com/user/frameset/pkg/frame"
	"github.com/user/frameset/pkg/ports"
)

// =============================================================================
// Extract Stage Types
// =============================================================================

// ExtractInput identifies one video to split into labeled frames.
type ExtractInput struct {
	VideoPath string
	VideoID   string // Key into the label intervals (file stem)
	Resolver  ports.LabelResolver
}

// ExtractResult contains the frames of one video.
type ExtractResult struct {
	Collection *frame.Collection
	DurationMs int // Timestamp of the last frame plus its duration
}

// =============================================================================
// Preprocess Stage Types
// =============================================================================

// TransformFunc maps one frame image to a new one without mutating its input.
type TransformFunc func(img image.Image) (image.Image, error)

// PreprocessInput contains a collection and the composed transform to apply to it.
type PreprocessInput struct {
	Collection *frame.Collection
	Transform  TransformFunc
}

// PreprocessResult reports the transformed collection.
// The collection is the input collection, updated in place.
type PreprocessResult struct {
	Collection *frame.Collection
	Frames     int
}
