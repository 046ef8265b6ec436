package exposure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allImagesExist(string) bool { return true }
func noImagesExist(string) bool  { return false }

func TestPlanCleanupNoDuplicates(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	paths := []string{
		filepath.Join("lib", "a", "b", "P1.jpg.exposurex7"),
		filepath.Join("lib", "a", "b", "P2.jpg.exposurex7"),
	}
	plan := planCleanup(scanCandidates(paths, cfg), cfg, allImagesExist)

	assert.True(t, plan.isEmpty())
	assert.Zero(t, plan.DuplicatedGroups)
}

func TestPlanCleanupVersionDuplicates(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	old := filepath.Join("lib", "a", "b", "P1.jpg.exposurex6")
	current := filepath.Join("lib", "a", "b", "P1.jpg.exposurex7")
	plan := planCleanup(scanCandidates([]string{old, current}, cfg), cfg, allImagesExist)

	assert.Equal(t, 1, plan.DuplicatedGroups)
	assert.Equal(t, []string{old}, plan.VersionDuplicates, "only the superseded version goes")
	assert.Empty(t, plan.Phantoms)
}

func TestPlanCleanupGroupLimit(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.DuplicateGroupLimit = 2
	cfg.RunDuplicateScan = false

	var paths []string
	for _, name := range []string{"A", "B", "C", "D"} {
		paths = append(paths,
			filepath.Join("lib", "a", "b", name+".jpg.exposurex6"),
			filepath.Join("lib", "a", "b", name+".jpg.exposurex7"),
		)
	}
	plan := planCleanup(scanCandidates(paths, cfg), cfg, allImagesExist)

	assert.Equal(t, 4, plan.DuplicatedGroups)
	// groups are resolved in sorted key order, capped at the limit
	assert.Equal(t, []string{
		filepath.Join("lib", "a", "b", "A.jpg.exposurex6"),
		filepath.Join("lib", "a", "b", "B.jpg.exposurex6"),
	}, plan.VersionDuplicates)
}

func TestPlanCleanupZeroLimitMeansUnlimited(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.DuplicateGroupLimit = 0
	cfg.RunDuplicateScan = false

	var paths []string
	for _, name := range []string{"A", "B", "C"} {
		paths = append(paths,
			filepath.Join("lib", "a", "b", name+".jpg.exposurex6"),
			filepath.Join("lib", "a", "b", name+".jpg.exposurex7"),
		)
	}
	plan := planCleanup(scanCandidates(paths, cfg), cfg, allImagesExist)
	assert.Len(t, plan.VersionDuplicates, 3)
}

func TestPlanCleanupPhantoms(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	p1 := filepath.Join("lib", "a", "b", "P1.jpg.exposurex7")
	p2 := filepath.Join("lib", "c", "d", "P1.jpg.exposurex7")
	plan := planCleanup(scanCandidates([]string{p1, p2}, cfg), cfg, noImagesExist)

	assert.Empty(t, plan.VersionDuplicates, "same extension, no version duplicate")
	assert.ElementsMatch(t, []string{p1, p2}, plan.Phantoms)
}

func TestPlanCleanupPhantomScanDisabled(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.RunDuplicateScan = false

	p1 := filepath.Join("lib", "a", "b", "P1.jpg.exposurex7")
	p2 := filepath.Join("lib", "c", "d", "P1.jpg.exposurex7")
	plan := planCleanup(scanCandidates([]string{p1, p2}, cfg), cfg, noImagesExist)

	assert.Empty(t, plan.Phantoms)
}

func TestPlanCleanupSingletonsNeverTouched(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	// a lone sidecar whose image is gone is the parser's dangling case, not
	// the duplicate resolver's business
	p1 := filepath.Join("lib", "a", "b", "P1.jpg.exposurex7")
	plan := planCleanup(scanCandidates([]string{p1}, cfg), cfg, noImagesExist)

	assert.True(t, plan.isEmpty())
}

func TestApplyCleanupTolerantOfMissingFiles(t *testing.T) {
	root := t.TempDir()

	real := filepath.Join(root, "real.jpg.exposurex6")
	require.NoError(t, os.WriteFile(real, []byte("x"), 0644))

	plan := cleanupPlan{
		VersionDuplicates: []string{real, filepath.Join(root, "already-gone.jpg.exposurex6")},
	}
	removedVersions, removedPhantoms := applyCleanup(plan)

	assert.Equal(t, 1, removedVersions)
	assert.Zero(t, removedPhantoms)
	_, err := os.Stat(real)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupSecondRunIsEmpty(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)

	sidecarDir := filepath.Join(root, "Exposure Software", "Exposure X7")
	require.NoError(t, os.MkdirAll(sidecarDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "P1.jpg"), []byte("img"), 0644))

	old := filepath.Join(sidecarDir, "P1.jpg.exposurex6")
	current := filepath.Join(sidecarDir, "P1.jpg.exposurex7")
	require.NoError(t, os.WriteFile(old, []byte("<x/>"), 0644))
	require.NoError(t, os.WriteFile(current, []byte("<x/>"), 0644))

	paths := []string{old, current}
	plan := planCleanup(scanCandidates(paths, cfg), cfg, imageFileExists)
	require.False(t, plan.isEmpty())
	applyCleanup(plan)

	// after the destructive pass, a fresh scan of the survivors plans nothing
	second := planCleanup(scanCandidates([]string{current}, cfg), cfg, imageFileExists)
	assert.True(t, second.isEmpty())
}
