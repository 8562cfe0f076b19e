package maskilayer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Composite blends overlay over background with the mask as per-pixel
// weight: out = background*(1-m) + overlay*m. The single-channel mask is
// broadcast across every channel of the layers. The result stays in the
// float domain; quantization happens in LayerImage.
func (c *Compositor) Composite(bg, overlay *Layer, mask *mat.Dense) (*Layer, error) {
	if bg.W != overlay.W || bg.H != overlay.H || bg.C != overlay.C {
		return nil, fmt.Errorf("%w: background is %s, overlay is %s",
			ErrDimensionMismatch, bg.dims(), overlay.dims())
	}
	rows, cols := mask.Dims()
	if cols != bg.W || rows != bg.H {
		return nil, fmt.Errorf("%w: mask is %dx%d, layers are %dx%d",
			ErrDimensionMismatch, cols, rows, bg.W, bg.H)
	}
	c.log.Info().Msg("compositing layers")
	out := NewLayer(bg.W, bg.H, bg.C)
	raw := mask.RawMatrix()
	for y := range bg.H {
		for x := range bg.W {
			m := raw.Data[y*raw.Stride+x]
			off := (y*bg.W + x) * bg.C
			for ch := range bg.C {
				out.Pix[off+ch] = bg.Pix[off+ch]*(1-m) + overlay.Pix[off+ch]*m
			}
		}
	}
	return out, nil
}

// Compose runs the whole pipeline: combine the masks against the
// background's size, then blend. It returns both the composite and the
// final mask so callers can persist either.
func (c *Compositor) Compose(bg, overlay *Layer, masks, invMasks []*mat.Dense, level int) (*Layer, *mat.Dense, error) {
	if bg.W != overlay.W || bg.H != overlay.H || bg.C != overlay.C {
		return nil, nil, fmt.Errorf("%w: background is %s, overlay is %s",
			ErrDimensionMismatch, bg.dims(), overlay.dims())
	}
	final, err := c.Combine(masks, invMasks, level, bg.W, bg.H)
	if err != nil {
		return nil, nil, err
	}
	composite, err := c.Composite(bg, overlay, final)
	if err != nil {
		return nil, nil, err
	}
	return composite, final, nil
}
