// Package imgio moves layers and masks between disk and the float domain
// the compositor works in. Decoding goes through disintegration/imaging,
// which registers the usual formats; WebP decoding is wired in on top.
package imgio

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
	"gonum.org/v1/gonum/mat"

	"github.com/twardoch/maskilayer"
)

// DecodeImage reads and decodes a single image file.
func DecodeImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imgio: decode %s: %w", path, err)
	}
	return img, nil
}

// LoadLayer reads an image file into a compositing layer.
func LoadLayer(path string) (*maskilayer.Layer, error) {
	img, err := DecodeImage(path)
	if err != nil {
		return nil, err
	}
	return maskilayer.LayerFromImage(img), nil
}

// LoadMask reads an image file into a [0,1] blend mask.
func LoadMask(path string) (*mat.Dense, error) {
	img, err := DecodeImage(path)
	if err != nil {
		return nil, err
	}
	return maskilayer.MaskFromImage(img), nil
}

// Save encodes img to path, creating missing parent directories. The
// format follows the file extension and falls back to PNG when the
// extension is not recognized. fast trades PNG size for speed by
// skipping compression.
func Save(img image.Image, path string, fast bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("imgio: save %s: %w", path, err)
		}
	}
	level := png.BestCompression
	if fast {
		level = png.NoCompression
	}
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return savePNG(img, path, level)
	}
	if err := imaging.Save(img, path, imaging.PNGCompressionLevel(level)); err != nil {
		return fmt.Errorf("imgio: save %s: %w", path, err)
	}
	return nil
}

func savePNG(img image.Image, path string, level png.CompressionLevel) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imgio: save %s: %w", path, err)
	}
	if err := imaging.Encode(f, img, imaging.PNG, imaging.PNGCompressionLevel(level)); err != nil {
		f.Close()
		return fmt.Errorf("imgio: save %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("imgio: save %s: %w", path, err)
	}
	return nil
}

// WriteRequest pairs an image with its destination path.
type WriteRequest struct {
	Image image.Image
	Path  string
}

// WriteAll persists every request concurrently and waits for all of
// them. A failing write does not stop the others; the returned error
// joins every failure.
func WriteAll(reqs []WriteRequest, fast bool) error {
	var wg sync.WaitGroup
	errs := make([]error, len(reqs))
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = Save(req.Image, req.Path, fast)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
