package media

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRasterImage(t *testing.T) {
	assert.True(t, IsRasterImage("photo.jpg"))
	assert.True(t, IsRasterImage("photo.JPG"))
	assert.True(t, IsRasterImage("photo.png"))
	assert.True(t, IsRasterImage("photo.tiff"))
	assert.False(t, IsRasterImage("photo.orf"))
	assert.False(t, IsRasterImage("photo.raf"))
	assert.False(t, IsRasterImage("photo"))
}

func TestResizeForTagging(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wide.jpg")

	// wide image, the square canvas gets black bars top and bottom
	img := imaging.New(800, 200, color.NRGBA{200, 100, 50, 255})
	require.NoError(t, imaging.Save(img, src))

	data, err := ResizeForTagging(src, 512)
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 512, decoded.Bounds().Dx())
	assert.Equal(t, 512, decoded.Bounds().Dy())
}

func TestResizeForTaggingUnsupportedFormat(t *testing.T) {
	_, err := ResizeForTagging("photo.orf", 512)
	assert.Error(t, err)
}

func TestResizeForTaggingMissingFile(t *testing.T) {
	_, err := ResizeForTagging(filepath.Join(t.TempDir(), "missing.jpg"), 512)
	assert.Error(t, err)
}
