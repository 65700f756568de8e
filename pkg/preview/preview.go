// Package preview renders the correction session projection for display.
package preview

import (
	"fmt"
	"image"
	"image/color"

	"github.com/user/frameset/pkg/correction"
	"github.com/user/frameset/pkg/ports"
)

// captionMargin is the horizontal inset of the captions in pixels.
const captionMargin = 8

// Theme defines preview styling.
type Theme struct {
	BackgroundColor  color.Color
	TextColor        color.Color
	ProgressBarColor color.Color
	ProgressBgColor  color.Color
	UnsavedColor     color.Color
}

// DefaultTheme returns the default preview theme.
func DefaultTheme() Theme {
	return Theme{
		BackgroundColor:  color.RGBA{R: 30, G: 30, B: 30, A: 255},
		TextColor:        color.White,
		ProgressBarColor: color.RGBA{R: 76, G: 175, B: 80, A: 255},
		ProgressBgColor:  color.RGBA{R: 60, G: 60, B: 60, A: 255},
		UnsavedColor:     color.RGBA{R: 255, G: 152, B: 0, A: 255},
	}
}

// Options configures the renderer.
type Options struct {
	// Width of the preview; the frame is scaled to it keeping its aspect ratio.
	Width          int
	CaptionHeight  int
	ProgressHeight int
	FontPath       string
	Theme          Theme
}

// DefaultOptions returns Options with default values.
func DefaultOptions() Options {
	return Options{
		Width:          640,
		CaptionHeight:  40,
		ProgressHeight: 6,
		Theme:          DefaultTheme(),
	}
}

// Renderer draws a projection: frame caption, class caption, a position bar and the frame.
type Renderer struct {
	renderer ports.Renderer
	opts     Options
}

// New creates a preview renderer. Zero option fields take their defaults.
func New(renderer ports.Renderer, opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.CaptionHeight <= 0 {
		opts.CaptionHeight = def.CaptionHeight
	}
	if opts.ProgressHeight < 0 {
		opts.ProgressHeight = 0
	}
	if opts.Theme.BackgroundColor == nil {
		opts.Theme = def.Theme
	}
	return &Renderer{renderer: renderer, opts: opts}
}

// FrameCaption returns the frame caption shown for p.
func FrameCaption(p correction.Projection) string {
	return fmt.Sprintf("Frame %d/%d", p.Index, p.MaxIndex)
}

// ClassCaption returns the class caption shown for p.
func ClassCaption(p correction.Projection) string {
	return "Class: " + p.Label
}

// Render draws p. unsaved marks the class caption when the session has uncommitted changes.
func (r *Renderer) Render(p correction.Projection, unsaved bool) image.Image {
	o := r.opts
	theme := o.Theme

	frameHeight := o.Width * 3 / 4
	if p.Image != nil && p.Image.Bounds().Dx() > 0 {
		b := p.Image.Bounds()
		frameHeight = b.Dy() * o.Width / b.Dx()
	}
	top := o.CaptionHeight + o.ProgressHeight
	height := top + frameHeight

	canvas := r.renderer.CreateCanvas(o.Width, height, theme.BackgroundColor)

	style := ports.TextStyle{
		FontSize: float64(o.CaptionHeight) * 0.45,
		FontPath: o.FontPath,
		Color:    theme.TextColor,
		Align:    ports.AlignLeft,
	}
	frameCaption, classCaption := FrameCaption(p), ClassCaption(p)
	fw, _ := canvas.MeasureText(frameCaption, style)
	cw, _ := canvas.MeasureText(classCaption, style)
	if avail := float64(o.Width - 3*captionMargin); fw+cw > avail {
		style.FontSize *= avail / (fw + cw)
	}

	textY := o.CaptionHeight / 2
	canvas.DrawText(frameCaption, captionMargin, textY, style)

	classStyle := style
	classStyle.Align = ports.AlignRight
	if unsaved {
		classStyle.Color = theme.UnsavedColor
	}
	canvas.DrawText(classCaption, o.Width-captionMargin, textY, classStyle)

	if o.ProgressHeight > 0 {
		canvas.DrawRect(0, o.CaptionHeight, o.Width, o.ProgressHeight, theme.ProgressBgColor)
		progress := 1.0
		if p.MaxIndex > 0 {
			progress = float64(p.Index) / float64(p.MaxIndex)
		}
		if fill := int(float64(o.Width) * progress); fill > 0 {
			canvas.DrawRect(0, o.CaptionHeight, fill, o.ProgressHeight, theme.ProgressBarColor)
		}
	}

	if p.Image != nil {
		canvas.DrawImageScaled(p.Image, 0, top, o.Width, frameHeight)
	}

	return canvas.ToImage()
}

// Attach renders every session transition into sink, starting with the current state.
// Sink errors are logged and do not interrupt the session.
func Attach(s *correction.Session, r *Renderer, sink ports.PreviewSink, logger ports.Logger) error {
	if !sink.Enabled() {
		return nil
	}
	log := logger.WithComponent("preview")

	if path := r.opts.FontPath; path != "" {
		if err := r.renderer.CheckFont(path); err != nil {
			log.Debug("Font %s not usable, using the built-in face: %v", path, err)
		}
	}

	s.Watch(func(p correction.Projection) {
		if err := sink.SavePreview(r.Render(p, s.Dirty())); err != nil {
			log.Warn("Failed to save preview: %v", err)
		}
	})
	return sink.SavePreview(r.Render(s.Current(), s.Dirty()))
}
