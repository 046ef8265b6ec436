package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	root := t.TempDir()
	t.Setenv("LIBRARY_PATH", root)
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, root, cfg.LibraryPath)
	assert.Equal(t, []string{"exposurex6", "exposurex7"}, cfg.SidecarExtensions)
	assert.Equal(t, "exposurex7", cfg.CurrentVersion)
	assert.Len(t, cfg.SchemaVariants, 3)
	assert.Equal(t, "exposure", cfg.SchemaVariants[0].Name)
	assert.Equal(t, map[string][]string{"Flag": {"2"}}, cfg.DropFilters)
	assert.Equal(t, 2.0, cfg.CropFactors["OLYMPUS E-M5 MARK III"])
	assert.Equal(t, 10, cfg.DuplicateGroupLimit)
	assert.True(t, cfg.DeleteDanglingSidecars)
	assert.True(t, cfg.RunDuplicateScan)
}

func TestLoadConfigMissingLibraryPath(t *testing.T) {
	t.Setenv("LIBRARY_PATH", filepath.Join(t.TempDir(), "does-not-exist"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigLibraryPathIsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "a-file")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0644))
	t.Setenv("LIBRARY_PATH", f)

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv("LIBRARY_PATH", root)
	t.Setenv("DUPLICATE_GROUP_LIMIT", "0")
	t.Setenv("DELETE_DANGLING_SIDECARS", "false")
	t.Setenv("NUM_PARSE_WORKERS", "8")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Zero(t, cfg.DuplicateGroupLimit)
	assert.False(t, cfg.DeleteDanglingSidecars)
	assert.Equal(t, 8, cfg.NumParseWorkers)
}

func TestLoadConfigFileOverrides(t *testing.T) {
	root := t.TempDir()
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
current_version: exposurex8
sidecar_extensions:
  - exposurex7
  - exposurex8
dirs_to_avoid:
  - trash
crop_factors:
  "X-T3": 1.5
tag_vocabulary:
  - bird
  - sunset
`), 0644))

	t.Setenv("LIBRARY_PATH", root)
	t.Setenv("CONFIG_FILE", cfgFile)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "exposurex8", cfg.CurrentVersion)
	assert.Equal(t, []string{"exposurex7", "exposurex8"}, cfg.SidecarExtensions)
	assert.Equal(t, []string{"trash"}, cfg.DirsToAvoid)
	assert.Equal(t, 1.5, cfg.CropFactors["X-T3"])
	assert.Equal(t, []string{"bird", "sunset"}, cfg.TagVocabulary)
	// untouched fields keep their defaults
	assert.Len(t, cfg.SchemaVariants, 3)
}

func TestLoadConfigBadFile(t *testing.T) {
	root := t.TempDir()
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	// tab indentation cannot start a YAML token
	require.NoError(t, os.WriteFile(cfgFile, []byte("\t- broken"), 0644))

	t.Setenv("LIBRARY_PATH", root)
	t.Setenv("CONFIG_FILE", cfgFile)

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestAvoidDir(t *testing.T) {
	cfg := Config{DirsToAvoid: []string{"recycling", "incoming"}}

	assert.True(t, cfg.AvoidDir("recycling"))
	assert.True(t, cfg.AvoidDir("Recycling"))
	assert.True(t, cfg.AvoidDir("INCOMING"))
	assert.False(t, cfg.AvoidDir("2021"))
	assert.False(t, cfg.AvoidDir("recycling-old"), "name must match exactly, not by prefix")
}

func TestMatchSidecarExtension(t *testing.T) {
	cfg := Config{SidecarExtensions: []string{"exposurex6", "exposurex7"}}

	assert.Equal(t, "exposurex7", cfg.MatchSidecarExtension("P1.jpg.exposurex7"))
	assert.Equal(t, "exposurex6", cfg.MatchSidecarExtension("P1.jpg.exposurex6"))
	assert.Empty(t, cfg.MatchSidecarExtension("P1.jpg"))
	assert.Empty(t, cfg.MatchSidecarExtension("P1.jpg.xmp"))
}

func TestStripField(t *testing.T) {
	cfg := Config{FieldsToStrip: []string{"Lens"}}

	assert.True(t, cfg.StripField("Lens"))
	assert.False(t, cfg.StripField("Camera"))
}
