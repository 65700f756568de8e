package ports

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Renderer abstracts image processing operations.
type Renderer interface {
	// CreateCanvas creates a new drawing canvas with the specified dimensions and background color.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// DecodeImage decodes image data into an image.Image.
	DecodeImage(data []byte, format ImageFormat) (image.Image, error)

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// CheckFont reports an error if path cannot be loaded as a font face.
	CheckFont(path string) error
}

// Canvas provides drawing operations for compositing images.
type Canvas interface {
	// DrawImageScaled draws an image scaled to the specified dimensions.
	DrawImageScaled(img image.Image, x, y, width, height int)

	// DrawRect draws a filled rectangle.
	DrawRect(x, y, w, h int, c color.Color)

	// DrawText draws text at the specified position.
	DrawText(text string, x, y int, style TextStyle)

	// MeasureText returns the width and height of the text.
	MeasureText(text string, style TextStyle) (width, height float64)

	// ToImage returns the canvas as an image.Image.
	ToImage() image.Image
}

// TextStyle defines text rendering properties.
type TextStyle struct {
	FontSize float64
	FontPath string
	Color    color.Color
	Align    TextAlign
}

// TextAlign specifies text alignment.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// Extension returns the file extension used when storing images of this format.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatPNG:
		return ".png"
	default:
		return ".jpeg"
	}
}

// String returns the config name of the format.
func (f ImageFormat) String() string {
	switch f {
	case FormatPNG:
		return "png"
	default:
		return "jpeg"
	}
}

// ParseImageFormat parses a config name ("jpeg", "jpg", "png") into an ImageFormat.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "jpeg", "jpg", "":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return FormatJPEG, fmt.Errorf("unsupported image format %q", s)
	}
}

// FormatFromExtension maps a file extension to an image format.
// ok is false for non-image extensions.
func FormatFromExtension(ext string) (format ImageFormat, ok bool) {
	switch strings.ToLower(ext) {
	case ".jpeg", ".jpg":
		return FormatJPEG, true
	case ".png":
		return FormatPNG, true
	default:
		return FormatJPEG, false
	}
}
