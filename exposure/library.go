package exposure

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/luismavs/exposurestats/config"
)

// Builder orchestrates one pipeline run: directory traversal, duplicate
// cleanup, sidecar parsing and table normalization. A Builder is cheap and
// holds no per-run state; every call to Build or BuildLibrary gets its own
// diagnostics.
type Builder struct {
	cfg *config.Config
}

func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// walk recursively collects sidecar files under the library path. A
// directory whose own name matches the excluded list is skipped with its
// whole subtree. Unreadable entries are logged and skipped, never fatal.
func (b *Builder) walk(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(b.cfg.LibraryPath, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			log.Printf("walk: skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path != b.cfg.LibraryPath && b.cfg.AvoidDir(d.Name()) {
				log.Printf("walk: skipping dir to avoid: %s", path)
				return filepath.SkipDir
			}
			return nil
		}
		if b.cfg.MatchSidecarExtension(d.Name()) != "" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk library path %s: %w", b.cfg.LibraryPath, err)
	}
	return files, nil
}

// Build runs the pipeline and returns the normalized table plus the run's
// diagnostics. The duplicate resolver's deletions complete before any
// parsing starts; when they removed anything, the tree is walked again so
// parsing sees the post-cleanup file list.
func (b *Builder) Build(ctx context.Context) ([]LibraryEntry, RunStats, error) {
	stats := &counters{}

	files, err := b.walk(ctx)
	if err != nil {
		return nil, stats.snapshot(), err
	}

	plan := planCleanup(scanCandidates(files, b.cfg), b.cfg, imageFileExists)
	log.Printf("library: %d duplicated sidecars detected", plan.DuplicatedGroups)
	removedVersions, removedPhantoms := applyCleanup(plan)

	stats.mu.Lock()
	stats.duplicatedGroups = plan.DuplicatedGroups
	stats.versionDuplicates = removedVersions
	stats.phantoms = removedPhantoms
	stats.mu.Unlock()

	if !plan.isEmpty() {
		if files, err = b.walk(ctx); err != nil {
			return nil, stats.snapshot(), err
		}
	}

	records, err := b.parseAll(ctx, files, stats)
	if err != nil {
		return nil, stats.snapshot(), err
	}

	entries, err := normalizeRecords(records, b.cfg, stats)
	if err != nil {
		return nil, stats.snapshot(), err
	}
	entries = applyDropFilters(entries, b.cfg)

	return entries, stats.snapshot(), nil
}

// parseAll parses the candidate files on a bounded worker pool. Parsing is
// side-effect free apart from the dangling-sidecar deletion path, so files
// are independent; the shared counters are the only cross-worker state.
func (b *Builder) parseAll(ctx context.Context, files []string, stats *counters) ([]SidecarRecord, error) {
	numWorkers := b.cfg.NumParseWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}

	jobs := make(chan string)
	results := make(chan SidecarRecord, numWorkers)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			parser := NewParser(b.cfg, stats)
			for path := range jobs {
				if rec, ok := parser.ReadSidecar(path); ok {
					results <- rec
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range files {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var records []SidecarRecord
	for rec := range results {
		records = append(records, rec)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sidecar parsing cancelled: %w", err)
	}

	// pool output order is nondeterministic; keep the table stable
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	return records, nil
}

// BuildLibrary is the public entry point used by the dashboard, CLI and
// storage layer: the normalized table plus the derived camera, lens and
// keyword listings.
func (b *Builder) BuildLibrary(ctx context.Context) (*Library, error) {
	t1 := time.Now()

	entries, stats, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if strings.TrimSpace(entries[i].Lens) == "" {
			entries[i].Lens = "No Lens"
		}
	}

	cameras := map[string]bool{}
	lenses := map[string]bool{}
	for _, e := range entries {
		cameras[e.Camera] = true
		lenses[e.Lens] = true
	}

	keywords := make([]KeywordRow, 0, len(entries))
	for _, e := range entries {
		if len(e.Keywords) == 0 {
			keywords = append(keywords, KeywordRow{Name: e.Name, Camera: e.Camera, Lens: e.Lens})
			continue
		}
		for _, kw := range e.Keywords {
			kw := kw
			keywords = append(keywords, KeywordRow{Name: e.Name, Camera: e.Camera, Lens: e.Lens, Keyword: &kw})
		}
	}

	stats.Photos = len(entries)
	stats.Elapsed = time.Since(t1).Round(time.Millisecond).String()

	log.Printf("library: %d photos in library", len(entries))
	log.Printf("library: %d dangling sidecar files found", stats.DanglingSidecars)
	log.Printf("library: %d unloaded sidecar files found", stats.UnloadedSidecars)
	log.Printf("library: it took %s to get the data", stats.Elapsed)

	return &Library{
		Entries:  entries,
		Cameras:  sortedKeys(cameras),
		Lenses:   sortedKeys(lenses),
		Keywords: keywords,
		Stats:    stats,
	}, nil
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
