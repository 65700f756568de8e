// Package frame defines the frame and frame collection data model.
package frame

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/user/frameset/pkg/ports"
)

// UnknownLabel is assigned to frames that no label interval covers.
// The frame store keeps such frames under a directory of the same name.
const UnknownLabel = "unknown"

// ErrInvalidLabel is returned for label names that cannot be used as a directory name.
var ErrInvalidLabel = errors.New("frame: invalid label")

// ValidateLabel checks that label is usable as a single path segment.
func ValidateLabel(label string) error {
	switch {
	case strings.TrimSpace(label) == "":
		return fmt.Errorf("%w: empty name", ErrInvalidLabel)
	case label == "." || label == "..":
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	case strings.ContainsAny(label, `/\`) || strings.ContainsRune(label, filepath.Separator):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidLabel, label)
	case filepath.Base(label) != label:
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return nil
}

// Frame is one decoded video frame with its class label.
type Frame struct {
	index int
	image image.Image
	label string

	// encoded holds the bytes the image was loaded from, if any.
	encoded []byte
	format  ports.ImageFormat
}

// New creates a frame. An empty label is stored as UnknownLabel.
func New(index int, img image.Image, label string) *Frame {
	return &Frame{
		index: index,
		image: img,
		label: normalizeLabel(label),
	}
}

// NewEncoded creates a frame that remembers the encoded bytes its image was decoded from.
func NewEncoded(index int, img image.Image, label string, data []byte, format ports.ImageFormat) *Frame {
	f := New(index, img, label)
	f.encoded = data
	f.format = format
	return f
}

// Index returns the position of the frame in decode order.
func (f *Frame) Index() int {
	return f.index
}

// Image returns the raster image.
func (f *Frame) Image() image.Image {
	return f.image
}

// Label returns the class label.
func (f *Frame) Label() string {
	return f.label
}

// SetImage replaces the raster image and drops any remembered encoding.
func (f *Frame) SetImage(img image.Image) {
	f.image = img
	f.encoded = nil
}

// SetLabel replaces the class label.
func (f *Frame) SetLabel(label string) {
	f.label = normalizeLabel(label)
}

// Encoded returns the bytes the image was loaded from.
// ok is false once the image has been replaced or if the frame was never loaded from disk.
func (f *Frame) Encoded() (data []byte, format ports.ImageFormat, ok bool) {
	if f.encoded == nil {
		return nil, f.format, false
	}
	return f.encoded, f.format, true
}

func normalizeLabel(label string) string {
	if label == "" {
		return UnknownLabel
	}
	return label
}
