package mocks

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"github.com/user/frameset/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
// Without overrides it encodes an image as its width and height, which DecodeImage reverses.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	DecodeImageFunc  func(data []byte, format ports.ImageFormat) (image.Image, error)
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	CheckFontFunc    func(path string) error
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	return &Canvas{width: width, height: height}
}

func (m *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data, format)
	}
	var dims [2]int32
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, &dims); err != nil {
		return nil, fmt.Errorf("mock decode: %w", err)
	}
	return image.NewRGBA(image.Rect(0, 0, int(dims[0]), int(dims[1]))), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	var buf bytes.Buffer
	dims := [2]int32{int32(img.Bounds().Dx()), int32(img.Bounds().Dy())}
	binary.Write(&buf, binary.BigEndian, dims)
	return buf.Bytes(), nil
}

func (m *Renderer) CheckFont(path string) error {
	if m.CheckFontFunc != nil {
		return m.CheckFontFunc(path)
	}
	return nil
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas is a mock implementation of ports.Canvas that records drawn text.
type Canvas struct {
	width  int
	height int
	Texts  []string
	Styles []ports.TextStyle
}

func (m *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {}

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) {}

func (m *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	m.Texts = append(m.Texts, text)
	m.Styles = append(m.Styles, style)
}

func (m *Canvas) MeasureText(text string, style ports.TextStyle) (width, height float64) {
	return float64(len(text)) * 7, 13
}

func (m *Canvas) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.width, m.height))
}

var _ ports.Canvas = (*Canvas)(nil)
