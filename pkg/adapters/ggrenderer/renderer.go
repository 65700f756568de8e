// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"

	"github.com/user/frameset/pkg/ports"
)

// DefaultJPEGQuality is used when EncodeImage is called with a quality outside 1-100.
const DefaultJPEGQuality = 95

// Renderer implements ports.Renderer using the gg library.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// CreateCanvas creates a new drawing canvas.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc}
}

// CheckFont loads path as a font face. Canvases fall back to gg's built-in face when this fails.
func (r *Renderer) CheckFont(path string) error {
	if _, err := gg.LoadFontFace(path, 12); err != nil {
		return fmt.Errorf("load font %s: %w", path, err)
	}
	return nil
}

// DecodeImage decodes image data into an image.Image.
func (r *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	reader := bytes.NewReader(data)

	switch format {
	case ports.FormatJPEG:
		return jpeg.Decode(reader)
	case ports.FormatPNG:
		return png.Decode(reader)
	default:
		img, _, err := image.Decode(reader)
		return img, err
	}
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		if quality < 1 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc *gg.Context
}

// DrawImageScaled draws an image scaled to the specified dimensions.
func (c *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return
	}

	c.dc.Push()
	defer c.dc.Pop()

	c.dc.Translate(float64(x), float64(y))
	c.dc.Scale(float64(width)/float64(bounds.Dx()), float64(height)/float64(bounds.Dy()))
	c.dc.DrawImage(img, -bounds.Min.X, -bounds.Min.Y)
}

// DrawRect draws a filled rectangle.
func (c *Canvas) DrawRect(x, y, w, h int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Fill()
}

// DrawText draws text vertically centered on y.
func (c *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	c.applyFont(style)
	c.dc.SetColor(style.Color)
	c.dc.DrawStringAnchored(text, float64(x), float64(y), alignAnchor(style.Align), 0.5)
}

// MeasureText returns the width and height of the text.
func (c *Canvas) MeasureText(text string, style ports.TextStyle) (width, height float64) {
	c.applyFont(style)
	return c.dc.MeasureString(text)
}

// ToImage returns the canvas as an image.Image.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

// applyFont loads the style's font face. Without a font path gg keeps its built-in face.
func (c *Canvas) applyFont(style ports.TextStyle) {
	if style.FontPath == "" || style.FontSize <= 0 {
		return
	}
	_ = c.dc.LoadFontFace(style.FontPath, style.FontSize)
}

func alignAnchor(a ports.TextAlign) float64 {
	switch a {
	case ports.AlignCenter:
		return 0.5
	case ports.AlignRight:
		return 1.0
	default:
		return 0
	}
}

var _ ports.Canvas = (*Canvas)(nil)
