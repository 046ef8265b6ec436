package exposure

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLibraryEmptyTree(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)

	lib, err := NewBuilder(cfg).BuildLibrary(context.Background())
	require.NoError(t, err)

	assert.Empty(t, lib.Entries)
	assert.Empty(t, lib.Cameras)
	assert.Empty(t, lib.Lenses)
	assert.Empty(t, lib.Keywords)
	assert.Zero(t, lib.Stats.Photos)
}

func TestBuildLibraryEndToEnd(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)

	writeSidecar(t, root, "P9220001.jpg", defaultAttrs(), []string{"kywd:||irina|"}, true)

	noLens := []string{
		`xmp:CreateDate="2021-09-23T10:00:00"`,
		`exif:FocalLength="50/1"`,
		`exif:FNumber="4/1"`,
		`tiff:Model="OLYMPUS E-M5 MARK III"`,
		`alienexposure:lens="   "`,
		`alienexposure:pickflag="1"`,
	}
	writeSidecar(t, root, "P9230002.jpg", noLens, nil, true)

	rejected := []string{
		`xmp:CreateDate="2021-09-24T10:00:00"`,
		`exif:FocalLength="12/1"`,
		`exif:FNumber="28/10"`,
		`tiff:Model="E-M5MarkIII"`,
		`alienexposure:lens="OLYMPUS M.12-100mm F4.0"`,
		`alienexposure:pickflag="2"`,
	}
	writeSidecar(t, root, "P9240003.jpg", rejected, nil, true)

	lib, err := NewBuilder(cfg).BuildLibrary(context.Background())
	require.NoError(t, err)

	// the flag=2 photo is filtered out of the table
	require.Len(t, lib.Entries, 2)
	assert.Equal(t, "P9220001.jpg", lib.Entries[0].Name)
	assert.Equal(t, "P9230002.jpg", lib.Entries[1].Name)

	// whitespace-only lens becomes the placeholder
	assert.Equal(t, "No Lens", lib.Entries[1].Lens)

	assert.Equal(t, []string{"E-M5MarkIII", "OLYMPUS E-M5 MARK III"}, lib.Cameras)
	assert.Equal(t, []string{"No Lens", "OLYMPUS M.12-100mm F4.0"}, lib.Lenses)

	require.Len(t, lib.Keywords, 2)
	require.NotNil(t, lib.Keywords[0].Keyword)
	assert.Equal(t, "irina", *lib.Keywords[0].Keyword)
	assert.Nil(t, lib.Keywords[1].Keyword, "photos without keywords keep a row with a nil keyword")

	assert.Equal(t, 2, lib.Stats.Photos)
	assert.NotEmpty(t, lib.Stats.Elapsed)
}

func TestBuildSkipsAvoidedDirs(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)

	writeSidecar(t, root, "P9220001.jpg", defaultAttrs(), nil, true)

	// same sidecar inside a recycling dir must be ignored, including
	// case-insensitively
	recycling := filepath.Join(root, "Recycling")
	require.NoError(t, os.MkdirAll(filepath.Join(recycling, "Exposure Software", "Exposure X7"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(recycling, "Exposure Software", "Exposure X7", "TRASH.jpg.exposurex7"),
		[]byte("<x/>"), 0644))

	entries, _, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "P9220001.jpg", entries[0].Name)
}

func TestBuildResolvesVersionDuplicates(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)

	writeSidecar(t, root, "P9220001.jpg", defaultAttrs(), nil, true)

	// plant a stale x6 sidecar next to the x7 one
	sidecarDir := filepath.Join(root, "Exposure Software", "Exposure X7")
	stale := filepath.Join(sidecarDir, "P9220001.jpg.exposurex6")
	require.NoError(t, os.WriteFile(stale, []byte("<x/>"), 0644))

	entries, stats, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, 1, stats.DuplicatedGroups)
	assert.Equal(t, 1, stats.VersionDuplicates)

	_, statErr := os.Stat(stale)
	assert.True(t, os.IsNotExist(statErr), "stale sidecar removed from disk")
}

func TestBuildCancelled(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)
	writeSidecar(t, root, "P9220001.jpg", defaultAttrs(), nil, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewBuilder(cfg).Build(ctx)
	assert.Error(t, err)
}
