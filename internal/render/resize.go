package render

import (
	"fmt"
	"image"
	"math"

	"scrollcast/internal/logging"
	"scrollcast/internal/media"

	"github.com/disintegration/imaging"
)

// ResizePage resizes the page screenshot to targetWidth, preserving aspect
// ratio with Lanczos resampling, and writes the result to dstPath as a new
// file. The source file is never modified. When the page is already at the
// target width no file is written and the source path is returned.
//
// The libvips fast path is used when available; it shrinks during decode
// and avoids holding the full-size page in memory.
func ResizePage(srcPath, dstPath string, targetWidth int) (string, error) {
	dims, err := media.GetImageDimensions(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to probe page image: %w", err)
	}
	if dims.Width == targetWidth {
		logging.Debug("page already %dpx wide, skipping resize", targetWidth)
		return srcPath, nil
	}

	targetHeight := int(math.Round(float64(targetWidth) * float64(dims.Height) / float64(dims.Width)))
	if targetHeight < 1 {
		targetHeight = 1
	}

	var resized image.Image
	if media.IsVipsAvailable() {
		resized, err = media.ResizeFileWithVips(srcPath, targetWidth, targetHeight)
		if err != nil {
			logging.Warn("vips resize failed, falling back to Lanczos: %v", err)
			resized = nil
		}
	}
	if resized == nil {
		src, err := media.OpenImage(srcPath)
		if err != nil {
			return "", fmt.Errorf("failed to open page image: %w", err)
		}
		resized = imaging.Resize(src, targetWidth, targetHeight, imaging.Lanczos)
	}

	if err := imaging.Save(resized, dstPath); err != nil {
		return "", fmt.Errorf("failed to write resized page: %w", err)
	}
	logging.Debug("resized page %dx%d -> %dx%d: %s",
		dims.Width, dims.Height, targetWidth, targetHeight, dstPath)
	return dstPath, nil
}
