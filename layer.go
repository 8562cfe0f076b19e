package maskilayer

import (
	"fmt"
	"image"
	"image/color"
)

// Layer is a decoded image held as float64 samples in the native 0-255
// domain. Grayscale sources keep a single channel, alpha-carrying sources
// keep four, everything else is three-channel RGB.
type Layer struct {
	W, H, C int
	Pix     []float64 // Interleaved samples, len = W*H*C
}

// NewLayer returns a zero-filled layer of the given size.
func NewLayer(w, h, c int) *Layer {
	return &Layer{W: w, H: h, C: c, Pix: make([]float64, w*h*c)}
}

func (l *Layer) dims() string {
	return fmt.Sprintf("%dx%dx%d", l.W, l.H, l.C)
}

// LayerFromImage converts a decoded image into a Layer, keeping the
// source's native channel count. Premultiplied sources are converted to
// straight alpha first.
func LayerFromImage(img image.Image) *Layer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	switch src := img.(type) {
	case *image.Gray:
		l := NewLayer(w, h, 1)
		for y := range h {
			for x := range w {
				l.Pix[y*w+x] = float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return l
	case *image.NRGBA:
		l := NewLayer(w, h, 4)
		for y := range h {
			for x := range w {
				c := src.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
				off := (y*w + x) * 4
				l.Pix[off] = float64(c.R)
				l.Pix[off+1] = float64(c.G)
				l.Pix[off+2] = float64(c.B)
				l.Pix[off+3] = float64(c.A)
			}
		}
		return l
	case *image.RGBA:
		l := NewLayer(w, h, 4)
		for y := range h {
			for x := range w {
				c := color.NRGBAModel.Convert(src.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				off := (y*w + x) * 4
				l.Pix[off] = float64(c.R)
				l.Pix[off+1] = float64(c.G)
				l.Pix[off+2] = float64(c.B)
				l.Pix[off+3] = float64(c.A)
			}
		}
		return l
	default:
		l := NewLayer(w, h, 3)
		for y := range h {
			for x := range w {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				off := (y*w + x) * 3
				l.Pix[off] = float64(r >> 8)
				l.Pix[off+1] = float64(g >> 8)
				l.Pix[off+2] = float64(b >> 8)
			}
		}
		return l
	}
}

// LayerImage converts a layer back to an 8-bit image, clamping samples to
// [0,255] and rounding half up. This is the only point where the pipeline
// leaves the float domain.
func LayerImage(l *Layer) image.Image {
	switch l.C {
	case 1:
		out := image.NewGray(image.Rect(0, 0, l.W, l.H))
		for y := range l.H {
			for x := range l.W {
				out.SetGray(x, y, color.Gray{Y: quantize(l.Pix[y*l.W+x])})
			}
		}
		return out
	case 4:
		out := image.NewNRGBA(image.Rect(0, 0, l.W, l.H))
		for y := range l.H {
			for x := range l.W {
				off := (y*l.W + x) * 4
				out.SetNRGBA(x, y, color.NRGBA{
					R: quantize(l.Pix[off]),
					G: quantize(l.Pix[off+1]),
					B: quantize(l.Pix[off+2]),
					A: quantize(l.Pix[off+3]),
				})
			}
		}
		return out
	default:
		out := image.NewNRGBA(image.Rect(0, 0, l.W, l.H))
		for y := range l.H {
			for x := range l.W {
				off := (y*l.W + x) * 3
				out.SetNRGBA(x, y, color.NRGBA{
					R: quantize(l.Pix[off]),
					G: quantize(l.Pix[off+1]),
					B: quantize(l.Pix[off+2]),
					A: 255,
				})
			}
		}
		return out
	}
}

func quantize(v float64) uint8 {
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}
