package exposure

import (
	"log"
	"os"
	"sort"
	"strings"

	"github.com/luismavs/exposurestats/config"
)

// candidate is one discovered sidecar file, keyed for duplicate grouping.
type candidate struct {
	Path string
	Key  string // logical photo key: file name with the version extension stripped
	Ext  string // matched version extension
}

// cleanupPlan lists the filesystem mutations the duplicate resolver wants to
// perform. Planning is a pure function over the scanned candidate list so it
// can be tested without touching a real tree; applying it is destructive.
type cleanupPlan struct {
	VersionDuplicates []string // superseded sidecars from older versions
	Phantoms          []string // duplicate-key sidecars whose photo is gone
	DuplicatedGroups  int      // logical keys with more than one sidecar
}

func (p cleanupPlan) isEmpty() bool {
	return len(p.VersionDuplicates) == 0 && len(p.Phantoms) == 0
}

// scanCandidates keys the discovered sidecar paths by logical photo.
func scanCandidates(paths []string, cfg *config.Config) []candidate {
	cands := make([]candidate, 0, len(paths))
	for _, path := range paths {
		name := baseName(path)
		ext := cfg.MatchSidecarExtension(name)
		if ext == "" {
			continue
		}
		key := strings.TrimSuffix(strings.TrimSuffix(name, ext), ".")
		cands = append(cands, candidate{Path: path, Key: key, Ext: ext})
	}
	return cands
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, os.PathSeparator); i >= 0 {
		return path[i+1:]
	}
	return path
}

// planCleanup computes the deletions for both duplicate classes.
//
// Class A, version duplicates: among sidecars sharing a key, when more than
// one distinct version extension is present, only the one matching the
// configured current version survives. At most cfg.DuplicateGroupLimit
// groups are resolved per run (0 means no limit).
//
// Class B, phantom duplicates: among sidecars sharing a key, any one whose
// photo file no longer exists at its expected sibling path is removed. The
// existence probe is injected so planning stays pure.
func planCleanup(cands []candidate, cfg *config.Config, imageExists func(string) bool) cleanupPlan {
	groups := make(map[string][]candidate)
	for _, c := range cands {
		groups[c.Key] = append(groups[c.Key], c)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	plan := cleanupPlan{}
	var versionGroups []string
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		plan.DuplicatedGroups++

		exts := map[string]bool{}
		for _, c := range group {
			exts[c.Ext] = true
		}
		if len(exts) > 1 {
			versionGroups = append(versionGroups, key)
		}
	}

	limit := cfg.DuplicateGroupLimit
	if limit <= 0 || limit > len(versionGroups) {
		limit = len(versionGroups)
	}
	for _, key := range versionGroups[:limit] {
		for _, c := range groups[key] {
			if !strings.Contains(strings.ToLower(c.Ext), strings.ToLower(cfg.CurrentVersion)) {
				plan.VersionDuplicates = append(plan.VersionDuplicates, c.Path)
			}
		}
	}

	if cfg.RunDuplicateScan {
		for _, key := range keys {
			group := groups[key]
			if len(group) < 2 {
				continue
			}
			for _, c := range group {
				if !imageExists(PhotoPathForSidecar(c.Path)) {
					plan.Phantoms = append(plan.Phantoms, c.Path)
				}
			}
		}
	}

	return plan
}

// applyCleanup performs the planned deletions. Files already gone are
// tolerated and logged, never fatal: a phantom may also be a version
// duplicate, in which case the second deletion finds nothing.
func applyCleanup(plan cleanupPlan) (removedVersions, removedPhantoms int) {
	for _, path := range plan.VersionDuplicates {
		log.Printf("duplicates: removing sidecar from a previous version: %s", path)
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				log.Printf("duplicates: file not found, moving on")
				continue
			}
			log.Printf("duplicates: failed to remove %s: %v", path, err)
			continue
		}
		removedVersions++
	}

	for _, path := range plan.Phantoms {
		log.Printf("duplicates: removing sidecar %s without associated image file", path)
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				log.Printf("duplicates: file not found, moving on")
				continue
			}
			log.Printf("duplicates: failed to remove %s: %v", path, err)
			continue
		}
		removedPhantoms++
	}

	return removedVersions, removedPhantoms
}

func imageFileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
