// Package automask derives blend masks directly from the overlay image,
// for the common case where no hand-painted mask exists. Luminance and
// alpha masks read the pixels as they are; background and cluster masks
// segment the image against the color that dominates its border.
package automask

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/cenkalti/dominantcolor"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// Method selects how a mask is derived from the image.
type Method int

const (
	// MethodLuminance uses the pixel luma as mask weight.
	MethodLuminance Method = iota
	// MethodAlpha uses the alpha channel as mask weight.
	MethodAlpha
	// MethodBackground masks out everything close to the dominant border
	// color.
	MethodBackground
	// MethodCluster partitions the image into color clusters and masks
	// out the cluster that owns most of the border.
	MethodCluster
)

func (m Method) String() string {
	switch m {
	case MethodAlpha:
		return "alpha"
	case MethodBackground:
		return "background"
	case MethodCluster:
		return "cluster"
	default:
		return "luminance"
	}
}

// ParseMethod maps a method name to its Method value.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "luminance":
		return MethodLuminance, nil
	case "alpha":
		return MethodAlpha, nil
	case "background":
		return MethodBackground, nil
	case "cluster":
		return MethodCluster, nil
	}
	return 0, fmt.Errorf("automask: unknown method %q", s)
}

type Options struct {
	// Method selects the mask derivation strategy.
	Method Method
	// Number of color clusters for MethodCluster.
	// Ideal start: 2 for a clean subject/background split; raise it when
	// the background itself is multi-colored. Values below 2 are raised.
	Clusters int
	// CIE-Lab distance at which a pixel counts as fully distinct from the
	// background color. Used by MethodBackground.
	// Ideal start: 0.2-0.4. Lower => harder, thinner mask edges.
	Tolerance float64
	// Blur sigma applied to the finished mask. Zero disables feathering.
	// Ideal start: 1-3 for soft composite seams.
	Feather float64
	// Invert flips the finished mask.
	Invert bool
}

func DefaultOptions() Options {
	return Options{
		Method:    MethodLuminance,
		Clusters:  2,
		Tolerance: 0.3,
	}
}

// Generate derives a grayscale mask from img according to opts.
func Generate(img image.Image, opts Options) (*image.Gray, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("automask: empty image")
	}
	var mask *image.Gray
	var err error
	switch opts.Method {
	case MethodLuminance:
		mask = luminanceMask(img)
	case MethodAlpha:
		mask = alphaMask(img)
	case MethodBackground:
		mask = backgroundMask(img, opts.Tolerance)
	case MethodCluster:
		mask, err = clusterMask(img, opts.Clusters)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("automask: unknown method %d", int(opts.Method))
	}
	if opts.Feather > 0 {
		mask = grayFromNRGBA(imaging.Blur(mask, opts.Feather))
	}
	if opts.Invert {
		for i, v := range mask.Pix {
			mask.Pix[i] = 255 - v
		}
	}
	return mask, nil
}

func luminanceMask(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			r16, g16, b16, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			luma := 0.299*float64(r16>>8) + 0.587*float64(g16>>8) + 0.114*float64(b16>>8)
			out.SetGray(x, y, color.Gray{Y: uint8(luma + 0.5)})
		}
	}
	return out
}

func alphaMask(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			_, _, _, a16 := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out.SetGray(x, y, color.Gray{Y: uint8(a16 >> 8)})
		}
	}
	return out
}

func backgroundMask(img image.Image, tolerance float64) *image.Gray {
	if tolerance <= 0 {
		tolerance = DefaultOptions().Tolerance
	}
	bg, ok := colorful.MakeColor(dominantcolor.Find(borderStrip(img)))
	if !ok {
		bg = colorful.Color{R: 1, G: 1, B: 1}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c, ok := colorful.MakeColor(img.At(b.Min.X+x, b.Min.Y+y))
			if !ok {
				// Fully transparent pixels belong to the background.
				continue
			}
			v := c.DistanceLab(bg) / tolerance
			if v > 1 {
				v = 1
			}
			out.SetGray(x, y, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}
	return out
}

// borderStrip collects the outermost pixel ring into a one-row image so
// the dominant border color can be sampled on its own.
func borderStrip(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	strip := image.NewNRGBA(image.Rect(0, 0, 2*w+2*h, 1))
	i := 0
	for x := range w {
		strip.Set(i, 0, img.At(b.Min.X+x, b.Min.Y))
		i++
		strip.Set(i, 0, img.At(b.Min.X+x, b.Max.Y-1))
		i++
	}
	for y := range h {
		strip.Set(i, 0, img.At(b.Min.X, b.Min.Y+y))
		i++
		strip.Set(i, 0, img.At(b.Max.X-1, b.Min.Y+y))
		i++
	}
	return strip
}

func clusterMask(img image.Image, k int) (*image.Gray, error) {
	k = max(k, 2)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	// Subsample to keep kmeans tractable on large images.
	maxSamples := 12000
	step := 1
	if w*h > maxSamples {
		step = int(math.Sqrt(float64(w*h)/float64(maxSamples))) + 1
	}
	dataset := make(clusters.Observations, 0, min(w*h, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			l, la, lb := c.Lab()
			dataset = append(dataset, clusters.Coordinates{l, la, lb})
		}
	}
	if len(dataset) < k {
		return nil, fmt.Errorf("automask: %d opaque samples cannot form %d clusters", len(dataset), k)
	}
	km := kmeans.New()
	cc, err := km.Partition(dataset, k)
	if err != nil {
		return nil, fmt.Errorf("automask: cluster: %w", err)
	}
	if len(cc) == 0 {
		return nil, fmt.Errorf("automask: cluster: empty partition")
	}
	centers := make([][3]float64, len(cc))
	for i, c := range cc {
		if len(c.Center) < 3 {
			return nil, fmt.Errorf("automask: cluster %d has no center", i)
		}
		centers[i] = [3]float64{c.Center[0], c.Center[1], c.Center[2]}
	}

	// Assign every pixel at full resolution, then pick the cluster that
	// owns most of the border ring as background.
	assign := make([]int, w*h)
	for y := range h {
		for x := range w {
			c, ok := colorful.MakeColor(img.At(b.Min.X+x, b.Min.Y+y))
			if !ok {
				assign[y*w+x] = -1
				continue
			}
			l, la, lb := c.Lab()
			best, bestD := 0, math.MaxFloat64
			for i, ct := range centers {
				d := sq(l-ct[0]) + sq(la-ct[1]) + sq(lb-ct[2])
				if d < bestD {
					best, bestD = i, d
				}
			}
			assign[y*w+x] = best
		}
	}
	border := make([]int, len(centers))
	count := func(a int) {
		if a >= 0 {
			border[a]++
		}
	}
	for x := range w {
		count(assign[x])
		count(assign[(h-1)*w+x])
	}
	for y := range h {
		count(assign[y*w])
		count(assign[y*w+w-1])
	}
	bgCluster := 0
	for i, n := range border {
		if n > border[bgCluster] {
			bgCluster = i
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for i, a := range assign {
		if a >= 0 && a != bgCluster {
			out.Pix[i] = 255
		}
	}
	return out, nil
}

// grayFromNRGBA flattens a blurred mask back to grayscale. The blur ran
// on equal RGB channels, so any single channel carries the result.
func grayFromNRGBA(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			out.Pix[y*out.Stride+x] = img.NRGBAAt(x, y).R
		}
	}
	return out
}

func sq(v float64) float64 { return v * v }
