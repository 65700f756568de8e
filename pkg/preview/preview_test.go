package preview

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/user/frameset/pkg/adapters/ggrenderer"
	"github.com/user/frameset/pkg/adapters/logger"
	"github.com/user/frameset/pkg/correction"
	"github.com/user/frameset/pkg/frame"
	"github.com/user/frameset/pkg/mocks"
	"github.com/user/frameset/pkg/ports"
)

func TestCaptions(t *testing.T) {
	p := correction.Projection{Index: 3, MaxIndex: 9, Label: "weta"}
	if got := FrameCaption(p); got != "Frame 3/9" {
		t.Errorf("unexpected frame caption %q", got)
	}
	if got := ClassCaption(p); got != "Class: weta" {
		t.Errorf("unexpected class caption %q", got)
	}
}

func TestRenderer_DrawsCaptions(t *testing.T) {
	var canvas *mocks.Canvas
	renderer := &mocks.Renderer{
		CreateCanvasFunc: func(width, height int, bg color.Color) ports.Canvas {
			canvas = &mocks.Canvas{}
			return canvas
		},
	}

	r := New(renderer, Options{Width: 320})
	r.Render(correction.Projection{Index: 1, MaxIndex: 4, Label: "moth", Image: image.NewRGBA(image.Rect(0, 0, 160, 120))}, false)

	if len(canvas.Texts) != 2 || canvas.Texts[0] != "Frame 1/4" || canvas.Texts[1] != "Class: moth" {
		t.Errorf("unexpected texts %v", canvas.Texts)
	}
}

func TestRenderer_ShrinksLongCaptions(t *testing.T) {
	var canvas *mocks.Canvas
	renderer := &mocks.Renderer{
		CreateCanvasFunc: func(width, height int, bg color.Color) ports.Canvas {
			canvas = &mocks.Canvas{}
			return canvas
		},
	}
	r := New(renderer, Options{Width: 240, CaptionHeight: 40})

	r.Render(correction.Projection{Index: 0, MaxIndex: 1, Label: "a"}, false)
	short := canvas.Styles[0].FontSize

	r.Render(correction.Projection{Index: 120, MaxIndex: 999, Label: "a-very-long-class-name"}, false)
	long := canvas.Styles[0].FontSize

	if short != 18 {
		t.Errorf("expected unscaled font size 18, got %v", short)
	}
	if long >= short {
		t.Errorf("expected long captions to shrink the font, got %v >= %v", long, short)
	}
	if canvas.Styles[1].FontSize != long {
		t.Errorf("expected both captions to share the font size, got %v and %v", long, canvas.Styles[1].FontSize)
	}
}

func TestRenderer_SizeFollowsAspectRatio(t *testing.T) {
	r := New(ggrenderer.New(), Options{Width: 200, CaptionHeight: 30, ProgressHeight: 4})

	img := r.Render(correction.Projection{Index: 0, MaxIndex: 0, Label: "a", Image: image.NewRGBA(image.Rect(0, 0, 100, 50))}, true)
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 30+4+100 {
		t.Errorf("unexpected preview size %v", img.Bounds())
	}
}

func TestAttach(t *testing.T) {
	c := frame.NewEmpty("clip")
	c.Append(image.NewRGBA(image.Rect(0, 0, 8, 8)), "a")
	c.Append(image.NewRGBA(image.Rect(0, 0, 8, 8)), "b")
	s, err := correction.New(c, []string{"a", "b"}, mocks.NewFrameStore(), "/out", logger.NewNoop())
	if err != nil {
		t.Fatalf("correction.New failed: %v", err)
	}

	sink := mocks.NewPreviewSink(true)
	if err := Attach(s, New(ggrenderer.New(), Options{Width: 64}), sink, logger.NewNoop()); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	s.Advance()
	s.CycleLabel()

	if sink.Count() != 3 {
		t.Errorf("expected 3 previews, got %d", sink.Count())
	}
}

func TestAttach_DisabledSink(t *testing.T) {
	c := frame.NewEmpty("clip")
	c.Append(image.NewRGBA(image.Rect(0, 0, 8, 8)), "a")
	s, _ := correction.New(c, []string{"a"}, mocks.NewFrameStore(), "/out", logger.NewNoop())

	sink := mocks.NewPreviewSink(false)
	Attach(s, New(ggrenderer.New(), Options{}), sink, logger.NewNoop())
	s.Advance()

	if sink.Count() != 0 {
		t.Errorf("expected no previews, got %d", sink.Count())
	}
}

func TestAttach_LogsUnusableFont(t *testing.T) {
	c := frame.NewEmpty("clip")
	c.Append(image.NewRGBA(image.Rect(0, 0, 8, 8)), "a")
	s, err := correction.New(c, []string{"a"}, mocks.NewFrameStore(), "/out", logger.NewNoop())
	if err != nil {
		t.Fatalf("correction.New failed: %v", err)
	}

	var checked string
	renderer := &mocks.Renderer{CheckFontFunc: func(path string) error {
		checked = path
		return errors.New("not a font")
	}}
	var out bytes.Buffer
	log := logger.NewWriter(ports.LevelDebug, &out, &out)

	sink := mocks.NewPreviewSink(true)
	if err := Attach(s, New(renderer, Options{FontPath: "/fonts/missing.ttf"}), sink, log); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if checked != "/fonts/missing.ttf" {
		t.Errorf("expected font to be checked, got %q", checked)
	}
	if !strings.Contains(out.String(), "/fonts/missing.ttf") {
		t.Errorf("expected debug log naming the font, got %q", out.String())
	}
	if sink.Count() != 1 {
		t.Errorf("expected rendering to continue with the built-in face, got %d previews", sink.Count())
	}
}
