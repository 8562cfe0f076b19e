package automask

import (
	"image"
	"image/color"
	"testing"
)

// squareOn returns a w x w image filled with bg, with an inset square of
// fg in the middle.
func squareOn(w int, bg, fg color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, w))
	for y := range w {
		for x := range w {
			img.SetNRGBA(x, y, bg)
		}
	}
	lo, hi := w/3, w-w/3
	for y := lo; y < hi; y++ {
		for x := lo; x < hi; x++ {
			img.SetNRGBA(x, y, fg)
		}
	}
	return img
}

func TestParseMethod(t *testing.T) {
	for _, m := range []Method{MethodLuminance, MethodAlpha, MethodBackground, MethodCluster} {
		got, err := ParseMethod(m.String())
		if err != nil {
			t.Fatalf("%v: %v", m, err)
		}
		if got != m {
			t.Errorf("ParseMethod(%q) = %v, want %v", m.String(), got, m)
		}
	}
	if _, err := ParseMethod("bogus"); err == nil {
		t.Error("expected an error for an unknown method name")
	}
}

func TestLuminanceMask(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	mask, err := Generate(img, Options{Method: MethodLuminance})
	if err != nil {
		t.Fatal(err)
	}
	if got := mask.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("black pixel = %d, want 0", got)
	}
	if got := mask.GrayAt(1, 0).Y; got != 255 {
		t.Errorf("white pixel = %d, want 255", got)
	}
}

func TestAlphaMask(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 200, B: 200})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	mask, err := Generate(img, Options{Method: MethodAlpha})
	if err != nil {
		t.Fatal(err)
	}
	if got := mask.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("transparent pixel = %d, want 0", got)
	}
	if got := mask.GrayAt(1, 0).Y; got != 255 {
		t.Errorf("opaque pixel = %d, want 255", got)
	}
}

func TestBackgroundMask(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red := color.NRGBA{R: 255, A: 255}
	opts := DefaultOptions()
	opts.Method = MethodBackground
	mask, err := Generate(squareOn(12, white, red), opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := mask.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("border pixel = %d, want 0", got)
	}
	if got := mask.GrayAt(6, 6).Y; got != 255 {
		t.Errorf("subject pixel = %d, want 255", got)
	}
}

func TestBackgroundMaskDefaultTolerance(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red := color.NRGBA{R: 255, A: 255}
	mask, err := Generate(squareOn(12, white, red), Options{Method: MethodBackground})
	if err != nil {
		t.Fatal(err)
	}
	if got := mask.GrayAt(6, 6).Y; got != 255 {
		t.Errorf("subject pixel = %d, want 255", got)
	}
}

func TestClusterMask(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.NRGBA{A: 255}
	opts := DefaultOptions()
	opts.Method = MethodCluster
	mask, err := Generate(squareOn(12, white, black), opts)
	if err != nil {
		t.Fatal(err)
	}
	if b := mask.Bounds(); b.Dx() != 12 || b.Dy() != 12 {
		t.Fatalf("got bounds %v, want 12x12", b)
	}
	for i, v := range mask.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel %d = %d, want a binary mask", i, v)
		}
	}
	if got := mask.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("border pixel = %d, want 0", got)
	}
	if got := mask.GrayAt(6, 6).Y; got != 255 {
		t.Errorf("subject pixel = %d, want 255", got)
	}
}

func TestClusterMaskTooFewSamples(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, A: 255})
	opts := Options{Method: MethodCluster, Clusters: 8}
	if _, err := Generate(img, opts); err == nil {
		t.Error("expected an error when samples cannot fill the clusters")
	}
}

func TestFeatherSoftensEdges(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			c := color.NRGBA{A: 255}
			if x >= 4 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	mask, err := Generate(img, Options{Method: MethodLuminance, Feather: 2})
	if err != nil {
		t.Fatal(err)
	}
	soft := false
	for _, v := range mask.Pix {
		if v > 10 && v < 245 {
			soft = true
			break
		}
	}
	if !soft {
		t.Error("feathered mask kept a hard edge")
	}
}

func TestInvertFlipsMask(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	mask, err := Generate(img, Options{Method: MethodLuminance, Invert: true})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range mask.Pix {
		if v != 0 {
			t.Fatalf("pixel %d = %d, want 0", i, v)
		}
	}
}

func TestGenerateRejectsEmptyImage(t *testing.T) {
	if _, err := Generate(image.NewNRGBA(image.Rect(0, 0, 0, 0)), DefaultOptions()); err == nil {
		t.Error("expected an error for an empty image")
	}
}

func TestGenerateRejectsUnknownMethod(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	if _, err := Generate(img, Options{Method: Method(42)}); err == nil {
		t.Error("expected an error for an unknown method")
	}
}
