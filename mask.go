package maskilayer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// epsRange is the smallest dynamic range a stretch will divide by.
// A mask spanning less than this is treated as flat.
var epsRange = math.Nextafter(1, 2) - 1

// MaskFromImage converts an image to a blend mask with values scaled to
// [0,1]. Color sources are reduced with the ITU-R 601-2 luma transform.
func MaskFromImage(img image.Image) *mat.Dense {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	data := make([]float64, w*h)
	switch src := img.(type) {
	case *image.Gray:
		for y := range h {
			for x := range w {
				data[y*w+x] = float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y) / 255
			}
		}
		return mat.NewDense(h, w, data)
	case *image.NRGBA:
		// Straight alpha; the mask weight comes from the raw channels.
		for y := range h {
			for x := range w {
				c := src.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
				luma := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
				data[y*w+x] = luma / 255
			}
		}
		return mat.NewDense(h, w, data)
	}
	for y := range h {
		for x := range w {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			data[y*w+x] = luma / 255
		}
	}
	return mat.NewDense(h, w, data)
}

// MaskImage renders a mask as an 8-bit grayscale image, clamping to [0,1]
// and rounding half up.
func MaskImage(m *mat.Dense) *image.Gray {
	h, w := m.Dims()
	out := image.NewGray(image.Rect(0, 0, w, h))
	raw := m.RawMatrix()
	for y := range h {
		for x := range w {
			out.SetGray(x, y, color.Gray{Y: quantize(raw.Data[y*raw.Stride+x] * 255)})
		}
	}
	return out
}

// Invert returns a copy of the mask with every weight flipped (1 - v).
func Invert(m *mat.Dense) *mat.Dense {
	h, w := m.Dims()
	out := mat.NewDense(h, w, nil)
	out.Apply(func(_, _ int, v float64) float64 { return 1 - v }, m)
	return out
}

// Normalize applies the level-controlled contrast transform to a mask and
// returns the result; the input is never modified. Level 0 and below is
// the identity. Level 1 stretches the mask onto [0,1]. Level 2 and above
// additionally clip against a luminance cutoff, re-stretch, apply a gamma
// curve and stretch once more. Higher levels push cutoff toward 0.5 and
// gamma toward 0.25, approaching a thresholded mask.
func (c *Compositor) Normalize(mask *mat.Dense, level int) *mat.Dense {
	if level <= 0 {
		return mask
	}
	out := mat.DenseCopyOf(mask)
	data := out.RawMatrix().Data

	lo, hi := floats.Min(data), floats.Max(data)
	c.log.Info().Float64("min", lo).Float64("max", hi).Msg("mask range")
	if stretch(data, lo, hi) {
		c.log.Warn().Msg("flat mask, stretched to all zeros")
	}
	if level == 1 {
		return out
	}

	cutoff := 0.5 - 0.25*math.Exp(-(float64(level)-2.0)*0.5)
	gamma := 1.0 - 0.75*(1.0-math.Exp(-(float64(level)-1.0)*2.0))
	c.log.Info().Float64("cutoff", cutoff).Float64("gamma", gamma).Msg("mask curve")

	clip(data, cutoff, 1.0-cutoff)
	stretch(data, floats.Min(data), floats.Max(data))
	for i, v := range data {
		if v < 0 { // Pow of a negative base with fractional gamma is NaN
			v = 0
		}
		data[i] = math.Pow(v, gamma)
	}
	lo, hi = floats.Min(data), floats.Max(data)
	c.log.Info().Float64("min", lo).Float64("max", hi).Msg("mask range after gamma")
	stretch(data, lo, hi)
	return out
}

// Combine reduces positive and inverted negative masks to the single
// blend mask used for compositing. Every mask must be w by h. The result
// is the element-wise mean of the working set, each mask normalized first
// when level > 0, or a uniform 0.5 mask when no masks are supplied.
func (c *Compositor) Combine(masks, invMasks []*mat.Dense, level, w, h int) (*mat.Dense, error) {
	working := make([]*mat.Dense, 0, len(masks)+len(invMasks))
	working = append(working, masks...)
	for _, m := range invMasks {
		working = append(working, Invert(m))
	}
	for i, m := range working {
		rows, cols := m.Dims()
		if cols != w || rows != h {
			return nil, fmt.Errorf("%w: mask %d is %dx%d, expected %dx%d",
				ErrDimensionMismatch, i, cols, rows, w, h)
		}
	}
	if len(working) == 0 {
		c.log.Info().Msg("no masks, compositing at 50%")
		return uniformMask(w, h, 0.5), nil
	}
	if level > 0 {
		for i := range working {
			c.log.Info().Int("mask", i).Int("level", level).Msg("normalizing mask")
			working[i] = c.Normalize(working[i], level)
		}
	}
	c.log.Info().Int("count", len(working)).Msg("blending masks")
	final := mat.NewDense(h, w, nil)
	for _, m := range working {
		final.Add(final, m)
	}
	final.Scale(1/float64(len(working)), final)
	return final, nil
}

// stretch rescales data in place so [lo,hi] maps onto [0,1]. A span at or
// below epsRange cannot be divided by; the data collapses to zero instead
// and stretch reports true.
func stretch(data []float64, lo, hi float64) bool {
	if hi-lo <= epsRange {
		for i := range data {
			data[i] = 0
		}
		return true
	}
	inv := 1 / (hi - lo)
	for i := range data {
		data[i] = (data[i] - lo) * inv
	}
	return false
}

func clip(data []float64, lo, hi float64) {
	for i := range data {
		if data[i] < lo {
			data[i] = lo
		} else if data[i] > hi {
			data[i] = hi
		}
	}
}

func uniformMask(w, h int, v float64) *mat.Dense {
	data := make([]float64, w*h)
	for i := range data {
		data[i] = v
	}
	return mat.NewDense(h, w, data)
}
