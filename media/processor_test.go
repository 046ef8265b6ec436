package media

import (
	"errors"
	"image/color"
	"io"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// store stub that rejects every save without reading the stream
type rejectingStore struct{}

func (rejectingStore) Save(AssetType, string, io.Reader) (string, error) {
	return "", errors.New("disk full")
}
func (rejectingStore) Get(string) (io.ReadCloser, os.FileInfo, error) {
	return nil, nil, errors.New("not implemented")
}
func (rejectingStore) Delete(string) error                 { return nil }
func (rejectingStore) GetFullPath(string) (string, error)  { return "", errors.New("not implemented") }
func (rejectingStore) EnsureDir(AssetType) (string, error) { return "", errors.New("not implemented") }

func TestGeneratePreview(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), map[AssetType]string{AssetTypePreview: "previews"})
	require.NoError(t, err)
	p := NewProcessor(store)

	img := imaging.New(1200, 800, color.NRGBA{10, 20, 30, 255})
	relPath, err := p.GeneratePreview(img, "2021/orig.jpg", 640)
	require.NoError(t, err)
	assert.Contains(t, relPath, "previews/")

	full, err := store.GetFullPath(relPath)
	require.NoError(t, err)
	saved, err := imaging.Open(full)
	require.NoError(t, err)
	assert.Equal(t, 640, saved.Bounds().Dx())
	assert.LessOrEqual(t, saved.Bounds().Dy(), 640)
}

func TestGeneratePreviewNoUpscale(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), map[AssetType]string{AssetTypePreview: "previews"})
	require.NoError(t, err)
	p := NewProcessor(store)

	img := imaging.New(100, 80, color.NRGBA{10, 20, 30, 255})
	relPath, err := p.GeneratePreview(img, "small.jpg", 640)
	require.NoError(t, err)

	full, err := store.GetFullPath(relPath)
	require.NoError(t, err)
	saved, err := imaging.Open(full)
	require.NoError(t, err)
	assert.Equal(t, 100, saved.Bounds().Dx())
	assert.Equal(t, 80, saved.Bounds().Dy())
}

func TestGeneratePreviewStoreFailure(t *testing.T) {
	p := NewProcessor(rejectingStore{})
	img := imaging.New(100, 100, color.NRGBA{10, 20, 30, 255})

	before := runtime.NumGoroutine()

	_, err := p.GeneratePreview(img, "orig.jpg", 64)
	assert.Error(t, err)

	// the encoder goroutine must not stay blocked on the pipe
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
}
