// Package maskilayer composites two images into one, steered by any
// number of grayscale blend masks. A mask weights the overlay per pixel
// (1 = overlay, 0 = background); negative masks are inverted before use,
// and an integer level knob sharpens mask contrast before blending.
package maskilayer

import (
	"errors"

	"github.com/rs/zerolog"
)

// ErrDimensionMismatch reports layers or masks whose sizes disagree.
// Wrapped errors name the offending inputs and both sizes.
var ErrDimensionMismatch = errors.New("maskilayer: dimension mismatch")

// Compositor runs the mask and blend pipeline. It holds no mutable state,
// so a single Compositor may be shared between goroutines working on
// independent inputs.
type Compositor struct {
	log zerolog.Logger
}

// New returns a Compositor that reports progress through log.
// Pass zerolog.Nop() to run silently.
func New(log zerolog.Logger) *Compositor {
	return &Compositor{log: log}
}
