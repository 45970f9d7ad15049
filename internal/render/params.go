package render

import "math"

// Params holds the animation geometry derived from the request parameters,
// the resized page, and the detected cutout.
type Params struct {
	Duration     float64
	FPS          int
	TotalFrames  int
	ScrollRange  int
	PageHeight   int
	CutoutHeight int
}

// NewParams derives animation parameters. TotalFrames is round(duration*fps)
// and ScrollRange is the vertical distance the visible window travels; a
// page shorter than the cutout yields a zero range and a static animation.
func NewParams(duration float64, fps, pageHeight, cutoutHeight int) Params {
	total := int(math.Round(duration * float64(fps)))
	if total < 1 {
		total = 1
	}
	scrollRange := pageHeight - cutoutHeight
	if scrollRange < 0 {
		scrollRange = 0
	}
	return Params{
		Duration:     duration,
		FPS:          fps,
		TotalFrames:  total,
		ScrollRange:  scrollRange,
		PageHeight:   pageHeight,
		CutoutHeight: cutoutHeight,
	}
}

// OffsetAt returns the vertical scroll offset for frame i. Offsets are
// evenly spaced so the last frame lands exactly on the bottom of the page,
// and are clamped so the crop never leaves the page.
func (p Params) OffsetAt(i int) int {
	if p.TotalFrames <= 1 {
		return 0
	}

	step := float64(p.ScrollRange) / float64(p.TotalFrames-1)
	y := int(math.Round(step * float64(i)))

	limit := p.PageHeight - p.CutoutHeight
	if limit < 0 {
		limit = 0
	}
	if y < 0 {
		y = 0
	}
	if y > limit {
		y = limit
	}
	return y
}
