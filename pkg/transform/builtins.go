package transform

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

func builtins() map[string]Factory {
	return map[string]Factory{
		"resize":      newResize,
		"grayscale":   newGrayscale,
		"crop":        newCrop,
		"center_crop": newCenterCrop,
		"normalize":   newNormalize,
		"flip":        newFlip,
		"rotate":      newRotate,
	}
}

var interpolators = map[string]draw.Interpolator{
	"nearest":    draw.NearestNeighbor,
	"bilinear":   draw.BiLinear,
	"catmullrom": draw.CatmullRom,
}

func newResize(p Params) (Func, error) {
	width, err := p.PositiveInt("width")
	if err != nil {
		return nil, err
	}
	height, err := p.PositiveInt("height")
	if err != nil {
		return nil, err
	}
	name, err := p.String("interpolation", "bilinear")
	if err != nil {
		return nil, err
	}
	interp, ok := interpolators[name]
	if !ok {
		return nil, fmt.Errorf("unknown interpolation %q", name)
	}

	return func(img image.Image) (image.Image, error) {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		interp.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		return dst, nil
	}, nil
}

func newGrayscale(Params) (Func, error) {
	return func(img image.Image) (image.Image, error) {
		b := img.Bounds()
		dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst, nil
	}, nil
}

func newCrop(p Params) (Func, error) {
	x, err := p.RequiredInt("x")
	if err != nil {
		return nil, err
	}
	y, err := p.RequiredInt("y")
	if err != nil {
		return nil, err
	}
	width, err := p.PositiveInt("width")
	if err != nil {
		return nil, err
	}
	height, err := p.PositiveInt("height")
	if err != nil {
		return nil, err
	}
	if x < 0 || y < 0 {
		return nil, fmt.Errorf("crop origin (%d, %d) is negative", x, y)
	}

	return func(img image.Image) (image.Image, error) {
		return cropAt(img, x, y, width, height)
	}, nil
}

func newCenterCrop(p Params) (Func, error) {
	width, err := p.PositiveInt("width")
	if err != nil {
		return nil, err
	}
	height, err := p.PositiveInt("height")
	if err != nil {
		return nil, err
	}

	return func(img image.Image) (image.Image, error) {
		b := img.Bounds()
		return cropAt(img, (b.Dx()-width)/2, (b.Dy()-height)/2, width, height)
	}, nil
}

// cropAt copies the rectangle at (x, y), relative to the image origin, into a new image.
func cropAt(img image.Image, x, y, width, height int) (image.Image, error) {
	b := img.Bounds()
	if x < 0 || y < 0 || x+width > b.Dx() || y+height > b.Dy() {
		return nil, fmt.Errorf("crop %dx%d at (%d, %d) exceeds %dx%d image", width, height, x, y, b.Dx(), b.Dy())
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), img, b.Min.Add(image.Pt(x, y)), draw.Src)
	return dst, nil
}

func newNormalize(p Params) (Func, error) {
	low, err := p.Int("low", 0)
	if err != nil {
		return nil, err
	}
	high, err := p.Int("high", 255)
	if err != nil {
		return nil, err
	}
	if low < 0 || high > 255 || low > high {
		return nil, fmt.Errorf("normalize range [%d, %d] must lie within [0, 255] with low <= high", low, high)
	}

	return func(img image.Image) (image.Image, error) {
		if g, ok := img.(*image.Gray); ok {
			dst := image.NewGray(image.Rect(0, 0, g.Bounds().Dx(), g.Bounds().Dy()))
			draw.Draw(dst, dst.Bounds(), g, g.Bounds().Min, draw.Src)
			stretch(dst.Pix, 1, 1, low, high)
			return dst, nil
		}
		dst := toRGBA(img)
		stretch(dst.Pix, 4, 3, low, high)
		return dst, nil
	}, nil
}

// stretch linearly maps each of the first channels of every stride-sized pixel
// from its observed [min, max] onto [low, high]. Constant channels map to low.
func stretch(pix []uint8, stride, channels, low, high int) {
	for c := 0; c < channels; c++ {
		lo, hi := 255, 0
		for i := c; i < len(pix); i += stride {
			v := int(pix[i])
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		for i := c; i < len(pix); i += stride {
			if hi == lo {
				pix[i] = uint8(low)
				continue
			}
			v := int(pix[i])
			pix[i] = uint8(low + ((v-lo)*(high-low)+(hi-lo)/2)/(hi-lo))
		}
	}
}

func newFlip(p Params) (Func, error) {
	direction, err := p.String("direction", "horizontal")
	if err != nil {
		return nil, err
	}
	if direction != "horizontal" && direction != "vertical" {
		return nil, fmt.Errorf("flip direction must be horizontal or vertical, got %q", direction)
	}
	horizontal := direction == "horizontal"

	return func(img image.Image) (image.Image, error) {
		src := toRGBA(img)
		w, h := src.Bounds().Dx(), src.Bounds().Dy()
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				sx, sy := x, y
				if horizontal {
					sx = w - 1 - x
				} else {
					sy = h - 1 - y
				}
				copy(dst.Pix[dst.PixOffset(x, y):dst.PixOffset(x, y)+4], src.Pix[src.PixOffset(sx, sy):src.PixOffset(sx, sy)+4])
			}
		}
		return dst, nil
	}, nil
}

func newRotate(p Params) (Func, error) {
	degrees, err := p.RequiredInt("degrees")
	if err != nil {
		return nil, err
	}
	degrees = ((degrees % 360) + 360) % 360
	if degrees%90 != 0 {
		return nil, fmt.Errorf("rotation must be a multiple of 90 degrees, got %d", degrees)
	}

	return func(img image.Image) (image.Image, error) {
		src := toRGBA(img)
		w, h := src.Bounds().Dx(), src.Bounds().Dy()
		dw, dh := w, h
		if degrees == 90 || degrees == 270 {
			dw, dh = h, w
		}
		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var dx, dy int
				switch degrees {
				case 90:
					dx, dy = h-1-y, x
				case 180:
					dx, dy = w-1-x, h-1-y
				case 270:
					dx, dy = y, w-1-x
				default:
					dx, dy = x, y
				}
				copy(dst.Pix[dst.PixOffset(dx, dy):dst.PixOffset(dx, dy)+4], src.Pix[src.PixOffset(x, y):src.PixOffset(x, y)+4])
			}
		}
		return dst, nil
	}, nil
}

// toRGBA copies img into a new RGBA image anchored at the origin.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
