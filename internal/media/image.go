package media

import (
	"fmt"
	"image"
	"os"

	"scrollcast/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

// DefaultMaxDimension is the maximum width or height accepted for page and
// frame inputs. Larger inputs are rejected up front rather than downscaled,
// since silently shrinking either input would desynchronize the scroll math.
const DefaultMaxDimension = 4096

// Dimensions holds image width and height.
type Dimensions struct {
	Width  int
	Height int
}

// DimensionError reports an input image exceeding the configured limit.
type DimensionError struct {
	Input  string
	Width  int
	Height int
	Limit  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s image is %dx%d, maximum allowed dimension is %dpx",
		e.Input, e.Width, e.Height, e.Limit)
}

// GetImageDimensions returns image dimensions without decoding pixel data.
func GetImageDimensions(path string) (*Dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &Dimensions{Width: config.Width, Height: config.Height}, nil
}

// CheckDimensions probes the image at path and rejects it with a
// DimensionError when either dimension exceeds limit. The input name is
// carried into the error so responses can say which upload was oversize.
func CheckDimensions(path, input string, limit int) (*Dimensions, error) {
	dims, err := GetImageDimensions(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s image: %w", input, err)
	}
	if dims.Width > limit || dims.Height > limit {
		return nil, &DimensionError{Input: input, Width: dims.Width, Height: dims.Height, Limit: limit}
	}
	return dims, nil
}

// DecodeFile decodes an image preserving its native pixel format. Cutout
// detection needs this: imaging.Open converts everything to NRGBA, which
// would make an alpha-less JPEG indistinguishable from an opaque PNG.
func DecodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	logging.Debug("decoded %s image: %s", format, path)
	return img, nil
}

// OpenImage loads an image for compositing, honoring EXIF orientation.
func OpenImage(path string) (image.Image, error) {
	return imaging.Open(path, imaging.AutoOrientation(true))
}
