package cutout

import (
	"errors"
	"image"

	"scrollcast/internal/logging"
)

// Rect is a detected cutout rectangle in frame pixel coordinates,
// relative to the top-left corner of the frame image. Width and height
// are always even so the region can feed an H.264 encode untouched.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rect covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

var (
	// ErrNoAlphaChannel indicates the frame image format carries no alpha
	// channel, so a transparent cutout cannot exist.
	ErrNoAlphaChannel = errors.New("frame image has no alpha channel")

	// ErrNoCutout indicates no usable fully-transparent region was found.
	ErrNoCutout = errors.New("no transparent cutout found in frame image")
)

// Candidate sizes tried for rounded cutouts, as percentages of the
// transparent bounding box, in increasing order.
var roundedCandidates = []int{50, 55, 60, 65, 70, 75, 80, 85, 90, 95}

// Detect locates the visible screen region inside a frame image by
// scanning its alpha channel. Only pixels with an alpha sample of exactly
// zero count as transparent; translucent anti-aliased edges are excluded.
//
// If all four corners of the transparent bounding box are themselves
// transparent the cutout is rectangular and the bounding box is returned
// directly. Otherwise the cutout is assumed rounded and the largest
// centered candidate rectangle whose full perimeter is transparent wins.
func Detect(img image.Image) (Rect, error) {
	if !hasAlphaChannel(img) {
		return Rect{}, ErrNoAlphaChannel
	}

	f := newFrame(img)

	bbox, ok := f.transparentBounds()
	if !ok {
		return Rect{}, ErrNoCutout
	}
	logging.Debug("cutout: transparent bounding box (%d,%d) %dx%d",
		bbox.Min.X, bbox.Min.Y, bbox.Dx(), bbox.Dy())

	if f.cornersTransparent(bbox) {
		r := evenRect(bbox.Min.X, bbox.Min.Y, bbox.Dx(), bbox.Dy())
		if r.Empty() {
			return Rect{}, ErrNoCutout
		}
		logging.Debug("cutout: rectangular shape, using bounding box")
		return r, nil
	}

	r := f.largestInscribed(bbox)
	if r.Empty() {
		return Rect{}, ErrNoCutout
	}
	logging.Debug("cutout: rounded shape, inscribed rect (%d,%d) %dx%d",
		r.X, r.Y, r.Width, r.Height)
	return r, nil
}

// frame wraps an image with coordinates normalized so that (0,0) is the
// top-left pixel regardless of the decoded bounds origin.
type frame struct {
	img           image.Image
	width, height int
	minX, minY    int
}

func newFrame(img image.Image) *frame {
	b := img.Bounds()
	return &frame{
		img:    img,
		width:  b.Dx(),
		height: b.Dy(),
		minX:   b.Min.X,
		minY:   b.Min.Y,
	}
}

// transparent reports whether the pixel at (x,y) is fully transparent.
// RGBA() returns a zero alpha value iff the stored alpha sample is zero,
// for both premultiplied and non-premultiplied formats.
func (f *frame) transparent(x, y int) bool {
	_, _, _, a := f.img.At(f.minX+x, f.minY+y).RGBA()
	return a == 0
}

// transparentBounds scans every pixel and returns the bounding box of all
// fully-transparent pixels. ok is false when the frame has none.
func (f *frame) transparentBounds() (box image.Rectangle, ok bool) {
	minX, minY := f.width, f.height
	maxX, maxY := -1, -1

	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			if !f.transparent(x, y) {
				continue
			}
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x > maxX {
				maxX = x
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// cornersTransparent classifies the cutout shape: a rectangular punch-out
// has all four bounding-box corners transparent, a rounded one does not.
func (f *frame) cornersTransparent(box image.Rectangle) bool {
	x0, y0 := box.Min.X, box.Min.Y
	x1, y1 := box.Max.X-1, box.Max.Y-1
	return f.transparent(x0, y0) &&
		f.transparent(x1, y0) &&
		f.transparent(x0, y1) &&
		f.transparent(x1, y1)
}

// largestInscribed finds the largest candidate rectangle, centered on the
// bounding box, whose entire perimeter is transparent. Candidates grow in
// fixed percentage steps; the search stops at the first candidate that
// touches an opaque or translucent pixel and keeps the last one that
// validated. A zero rect means no candidate fit.
func (f *frame) largestInscribed(box image.Rectangle) Rect {
	cx := box.Min.X + box.Dx()/2
	cy := box.Min.Y + box.Dy()/2

	var best Rect
	for _, pct := range roundedCandidates {
		w := box.Dx() * pct / 100
		h := box.Dy() * pct / 100
		if w < 2 || h < 2 {
			continue
		}
		x := cx - w/2
		y := cy - h/2
		if !f.perimeterTransparent(x, y, w, h) {
			break
		}
		best = Rect{X: x, Y: y, Width: w, Height: h}
	}

	if best.Empty() {
		return Rect{}
	}
	return evenRect(best.X, best.Y, best.Width, best.Height)
}

// perimeterTransparent checks every pixel along all four edges of the
// rectangle, not sampled points. Out-of-frame coordinates fail the check.
func (f *frame) perimeterTransparent(x, y, w, h int) bool {
	if x < 0 || y < 0 || x+w > f.width || y+h > f.height {
		return false
	}
	for i := x; i < x+w; i++ {
		if !f.transparent(i, y) || !f.transparent(i, y+h-1) {
			return false
		}
	}
	for j := y; j < y+h; j++ {
		if !f.transparent(x, j) || !f.transparent(x+w-1, j) {
			return false
		}
	}
	return true
}

// hasAlphaChannel reports whether the decoded image format stores an
// alpha sample per pixel. JPEG decodes to YCbCr and gray formats carry
// none, so a cutout can never be detected in them.
func hasAlphaChannel(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64, *image.Alpha, *image.Alpha16:
		return true
	case *image.Paletted:
		// Indexed PNGs can carry transparent palette entries.
		return true
	default:
		return false
	}
}

// evenRect truncates both dimensions down to even values.
func evenRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, Width: w &^ 1, Height: h &^ 1}
}
