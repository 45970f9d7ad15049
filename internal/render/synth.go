package render

import (
	"fmt"
	"image"
	"path/filepath"

	"scrollcast/internal/cutout"

	"github.com/disintegration/imaging"
)

// frameFileFormat is the zero-padded sequential frame filename. The padding
// keeps lexical and numeric order identical for the encoder's input pattern.
const frameFileFormat = "frame_%05d.png"

// FramePattern returns the printf-style input pattern the encoder consumes
// for frames written to dir.
func FramePattern(dir string) string {
	return filepath.Join(dir, frameFileFormat)
}

// Synthesizer produces the composite animation frames for one job. It is
// deterministic: identical inputs yield byte-identical frame files, so it
// must never consult the clock or any source of randomness. The page and
// frame images are read-only and safe to share across the batch goroutines.
type Synthesizer struct {
	page   image.Image
	frame  image.Image
	cut    cutout.Rect
	params Params
	dir    string
}

// NewSynthesizer builds a Synthesizer writing frames into dir. The page
// must already be resized to the cutout width.
func NewSynthesizer(page, frame image.Image, cut cutout.Rect, params Params, dir string) *Synthesizer {
	return &Synthesizer{
		page:   page,
		frame:  frame,
		cut:    cut,
		params: params,
		dir:    dir,
	}
}

// RenderFrame composites and persists the frame at index i. The visible
// page slice is pasted at the cutout origin onto a transparent canvas the
// size of the frame image, then the frame is overlaid on top so its opaque
// pixels occlude everything outside the cutout.
func (s *Synthesizer) RenderFrame(i int) error {
	y := s.params.OffsetAt(i)

	slice := imaging.Crop(s.page, image.Rect(0, y, s.cut.Width, y+s.cut.Height))

	fb := s.frame.Bounds()
	canvas := image.NewNRGBA(image.Rect(0, 0, fb.Dx(), fb.Dy()))
	composite := imaging.Paste(canvas, slice, image.Pt(s.cut.X, s.cut.Y))
	composite = imaging.Overlay(composite, s.frame, image.Pt(0, 0), 1.0)

	path := filepath.Join(s.dir, fmt.Sprintf(frameFileFormat, i))
	if err := imaging.Save(composite, path); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", i, err)
	}
	return nil
}
