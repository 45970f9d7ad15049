//go:build !cgo

package media

import (
	"fmt"
	"image"
)

// govips requires cgo; in a CGO_ENABLED=0 build these stubs report libvips
// as unavailable so callers take the pure-Go resampling fallback.

// InitVips reports that libvips is unavailable in a no-cgo build.
func InitVips() error {
	return fmt.Errorf("libvips not available: built without cgo")
}

// ShutdownVips is a no-op in a no-cgo build.
func ShutdownVips() {}

// IsVipsAvailable always returns false in a no-cgo build.
func IsVipsAvailable() bool {
	return false
}

// ResizeFileWithVips always fails in a no-cgo build; callers fall back to
// pure-Go resampling.
func ResizeFileWithVips(path string, targetWidth, targetHeight int) (image.Image, error) {
	return nil, fmt.Errorf("libvips not available: built without cgo")
}
