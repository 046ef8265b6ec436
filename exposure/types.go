package exposure

import (
	"sync"
	"time"
)

// SidecarRecord holds one photo's metadata as read from its sidecar, before
// any table-wide normalization. Either every field is populated from one
// schema variant, or the record is absent entirely; there is no partially
// populated state.
type SidecarRecord struct {
	Name        string   // photo name, sidecar file name with the version suffix stripped
	CreateDate  string   // raw, schema-dependent format
	FocalLength string   // rational form, e.g. "50/1"
	FNumber     string   // rational form
	Camera      string   // free-text model name, may carry trailing whitespace
	Lens        string   // free-text model name, optional
	Flag        string   // integer-valued pick/reject flag
	Keywords    []string // decoded keyword list, possibly empty
}

// LibraryEntry is one normalized row of the library table. This column set
// and typing is the contract the storage layer and dashboard depend on.
type LibraryEntry struct {
	Name                  string    `json:"name"`
	CreateDate            time.Time `json:"create_date"`
	FocalLength           float64   `json:"focal_length"`
	FNumber               float64   `json:"f_number"`
	Camera                string    `json:"camera"`
	Lens                  string    `json:"lens"`
	Flag                  int       `json:"flag"`
	CropFactor            float64   `json:"crop_factor"`
	EquivalentFocalLength string    `json:"equivalent_focal_length"`
	Date                  string    `json:"date"` // calendar date, YYYY-MM-DD
	Keywords              []string  `json:"keywords"`
}

// KeywordRow is one row of the long-format keyword table: one row per
// (photo, keyword) occurrence, retaining camera/lens context. Keyword is nil
// for photos without keywords.
type KeywordRow struct {
	Name    string  `json:"name"`
	Camera  string  `json:"camera"`
	Lens    string  `json:"lens"`
	Keyword *string `json:"keyword"`
}

// RunStats are the diagnostics of a single pipeline run. They belong to that
// run only and are never shared across concurrent runs.
type RunStats struct {
	DanglingSidecars  int    `json:"dangling_sidecars"`
	UnloadedSidecars  int    `json:"unloaded_sidecars"`
	DuplicatedGroups  int    `json:"duplicated_groups"`
	VersionDuplicates int    `json:"version_duplicates_removed"`
	PhantomSidecars   int    `json:"phantom_sidecars_removed"`
	BadDates          int    `json:"bad_dates_dropped"`
	Photos            int    `json:"photos"`
	Elapsed           string `json:"elapsed"`
}

// Library is what the facade hands to the dashboard, CLI and storage layer.
type Library struct {
	Entries  []LibraryEntry `json:"entries"`
	Cameras  []string       `json:"cameras"`
	Lenses   []string       `json:"lenses"`
	Keywords []KeywordRow   `json:"keywords"`
	Stats    RunStats       `json:"stats"`
}

// counters accumulates run diagnostics behind a mutex so the parse step can
// run on a worker pool.
type counters struct {
	mu                sync.Mutex
	dangling          int
	unloaded          int
	duplicatedGroups  int
	versionDuplicates int
	phantoms          int
	badDates          int
}

func (c *counters) addDangling() {
	c.mu.Lock()
	c.dangling++
	c.mu.Unlock()
}

func (c *counters) addUnloaded() {
	c.mu.Lock()
	c.unloaded++
	c.mu.Unlock()
}

func (c *counters) snapshot() RunStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return RunStats{
		DanglingSidecars:  c.dangling,
		UnloadedSidecars:  c.unloaded,
		DuplicatedGroups:  c.duplicatedGroups,
		VersionDuplicates: c.versionDuplicates,
		PhantomSidecars:   c.phantoms,
		BadDates:          c.badDates,
	}
}
