package media

import (
	"bytes"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

var rasterExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".gif":  true,
}

// IsRasterImage reports whether the file extension is one the resizer can
// decode. RAW files are not; the vision model gets nothing for those.
func IsRasterImage(path string) bool {
	return rasterExtensions[strings.ToLower(filepath.Ext(path))]
}

// ResizeForTagging fits the photo into a size x size black square and
// re-encodes it as JPEG, which keeps the payload sent to the vision model
// small and of constant shape.
func ResizeForTagging(path string, size int) ([]byte, error) {
	if !IsRasterImage(path) {
		return nil, fmt.Errorf("unsupported image format for tagging: %s", filepath.Ext(path))
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}

	fitted := imaging.Fit(img, size, size, imaging.Lanczos)
	canvas := imaging.New(size, size, color.NRGBA{0, 0, 0, 255})
	canvas = imaging.PasteCenter(canvas, fitted)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}
