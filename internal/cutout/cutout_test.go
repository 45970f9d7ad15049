package cutout

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// opaqueFrame returns a fully opaque NRGBA image.
func opaqueFrame(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 30, G: 30, B: 30, A: 255})
		}
	}
	return img
}

// punch clears a rectangular region to fully transparent.
func punch(img *image.NRGBA, x0, y0, x1, y1 int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.SetNRGBA(x, y, color.NRGBA{})
		}
	}
}

func TestDetectRectangular(t *testing.T) {
	tests := []struct {
		name           string
		frameW, frameH int
		x0, y0, x1, y1 int
		want           Rect
	}{
		{
			name:   "phone bezel scenario",
			frameW: 818, frameH: 1784,
			x0: 19, y0: 20, x1: 799, y1: 1764,
			want: Rect{X: 19, Y: 20, Width: 780, Height: 1744},
		},
		{
			name:   "small centered box",
			frameW: 100, frameH: 100,
			x0: 10, y0: 10, x1: 90, y1: 90,
			want: Rect{X: 10, Y: 10, Width: 80, Height: 80},
		},
		{
			name:   "odd dimensions truncated to even",
			frameW: 60, frameH: 60,
			x0: 5, y0: 5, x1: 52, y1: 50,
			want: Rect{X: 5, Y: 5, Width: 46, Height: 44},
		},
		{
			name:   "cutout touching frame edges",
			frameW: 40, frameH: 40,
			x0: 0, y0: 0, x1: 40, y1: 20,
			want: Rect{X: 0, Y: 0, Width: 40, Height: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := opaqueFrame(tt.frameW, tt.frameH)
			punch(frame, tt.x0, tt.y0, tt.x1, tt.y1)

			got, err := Detect(frame)
			if err != nil {
				t.Fatalf("Detect returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Detect = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDetectNoAlphaChannel(t *testing.T) {
	noAlpha := []struct {
		name string
		img  image.Image
	}{
		{"grayscale", image.NewGray(image.Rect(0, 0, 50, 50))},
		{"ycbcr", image.NewYCbCr(image.Rect(0, 0, 50, 50), image.YCbCrSubsampleRatio420)},
		{"cmyk", image.NewCMYK(image.Rect(0, 0, 50, 50))},
	}

	for _, tt := range noAlpha {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Detect(tt.img)
			if !errors.Is(err, ErrNoAlphaChannel) {
				t.Errorf("Detect error = %v, want ErrNoAlphaChannel", err)
			}
		})
	}
}

func TestDetectNoTransparentPixels(t *testing.T) {
	frame := opaqueFrame(50, 50)
	_, err := Detect(frame)
	if !errors.Is(err, ErrNoCutout) {
		t.Errorf("Detect error = %v, want ErrNoCutout", err)
	}
}

func TestDetectTranslucentExcluded(t *testing.T) {
	// Pixels with 0 < alpha < 255 must not count as transparent: a frame
	// with only anti-aliased edges has no cutout.
	frame := opaqueFrame(50, 50)
	for y := 10; y < 40; y++ {
		for x := 10; x < 40; x++ {
			frame.SetNRGBA(x, y, color.NRGBA{A: 1})
		}
	}
	if _, err := Detect(frame); !errors.Is(err, ErrNoCutout) {
		t.Errorf("Detect error = %v, want ErrNoCutout", err)
	}
}

func TestDetectRounded(t *testing.T) {
	// Transparent bounding box pinned to (10,10)-(110,110) by single
	// pixels at the edge midpoints; corners stay opaque, so the shape
	// classifies as rounded. The filled transparent interior covers
	// exactly the 55% candidate, so 50% and 55% validate and 60% fails.
	frame := opaqueFrame(120, 120)
	frame.SetNRGBA(60, 10, color.NRGBA{})
	frame.SetNRGBA(60, 109, color.NRGBA{})
	frame.SetNRGBA(10, 60, color.NRGBA{})
	frame.SetNRGBA(109, 60, color.NRGBA{})

	// 55% of the 100px box, centered at (60,60): 33..87 inclusive.
	punch(frame, 33, 33, 88, 88)

	got, err := Detect(frame)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}

	// 55x55 candidate at (33,33), truncated to even dimensions.
	want := Rect{X: 33, Y: 33, Width: 54, Height: 54}
	if got != want {
		t.Errorf("Detect = %+v, want %+v", got, want)
	}
}

func TestDetectRoundedNoCandidateFits(t *testing.T) {
	// A sparse cross of transparent pixels defines a bounding box but no
	// candidate perimeter is fully transparent.
	frame := opaqueFrame(100, 100)
	frame.SetNRGBA(50, 5, color.NRGBA{})
	frame.SetNRGBA(50, 94, color.NRGBA{})
	frame.SetNRGBA(5, 50, color.NRGBA{})
	frame.SetNRGBA(94, 50, color.NRGBA{})

	if _, err := Detect(frame); !errors.Is(err, ErrNoCutout) {
		t.Errorf("Detect error = %v, want ErrNoCutout", err)
	}
}

func TestDetectNonZeroBoundsOrigin(t *testing.T) {
	// Detected coordinates are relative to the top-left pixel even when
	// the decoded bounds do not start at the origin.
	img := image.NewNRGBA(image.Rect(5, 5, 105, 105))
	for y := 5; y < 105; y++ {
		for x := 5; x < 105; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
		}
	}
	for y := 25; y < 85; y++ {
		for x := 15; x < 95; x++ {
			img.SetNRGBA(x, y, color.NRGBA{})
		}
	}

	got, err := Detect(img)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	want := Rect{X: 10, Y: 20, Width: 80, Height: 60}
	if got != want {
		t.Errorf("Detect = %+v, want %+v", got, want)
	}
}

func TestRectEmpty(t *testing.T) {
	if (Rect{Width: 10, Height: 10}).Empty() {
		t.Error("non-zero rect reported empty")
	}
	if !(Rect{}).Empty() {
		t.Error("zero rect not reported empty")
	}
	if !(Rect{Width: 10}).Empty() {
		t.Error("zero-height rect not reported empty")
	}
}
