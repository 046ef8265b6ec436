package exposure

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/luismavs/exposurestats/config"
)

// ErrNoValidDates is returned when a non-empty set of parsed records loses
// every row to date coercion. Proceeding would hand the caller an unusable
// table, so this case is escalated instead of logged away.
var ErrNoValidDates = errors.New("no sidecar has a parseable creation date")

var createDateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02",
}

func parseCreateDate(raw string) (time.Time, bool) {
	for _, layout := range createDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseRational evaluates the "numerator/denominator" form the sidecars use
// for focal length and aperture. Plain decimal values are accepted too.
func parseRational(raw string) (float64, error) {
	num, den, found := strings.Cut(raw, "/")
	if !found {
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rational %q: %w", raw, err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rational %q: %w", raw, err)
	}
	if d == 0 {
		return 0, fmt.Errorf("invalid rational %q: zero denominator", raw)
	}
	return n / d, nil
}

func formatMillimetres(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "mm"
}

// normalizeRecords turns parsed sidecar records into library rows, applying
// every table-wide rule: date coercion, rational evaluation, the f-number
// correction, flag coercion, camera trimming, crop-factor assignment and the
// derived columns. Rows that fail coercion are dropped with a log entry; an
// empty input yields an empty, well-formed table.
func normalizeRecords(records []SidecarRecord, cfg *config.Config, stats *counters) ([]LibraryEntry, error) {
	entries := make([]LibraryEntry, 0, len(records))
	var badDates []string

	for _, rec := range records {
		created, ok := parseCreateDate(rec.CreateDate)
		if !ok {
			badDates = append(badDates, fmt.Sprintf("%s (CreateDate=%q)", rec.Name, rec.CreateDate))
			continue
		}

		focal, err := parseRational(rec.FocalLength)
		if err != nil {
			log.Printf("normalize: dropping %s: bad focal length: %v", rec.Name, err)
			continue
		}
		focal = math.Round(focal)

		fNumber, err := parseRational(rec.FNumber)
		if err != nil {
			log.Printf("normalize: dropping %s: bad f-number: %v", rec.Name, err)
			continue
		}
		// inflated values come from a known exporter defect, probably for
		// manual lenses; the correction is applied twice in sequence
		if fNumber > 90 {
			fNumber /= 100
		}
		if fNumber > 90 {
			fNumber /= 100
		}

		flag, err := strconv.Atoi(strings.TrimSpace(rec.Flag))
		if err != nil {
			log.Printf("normalize: dropping %s: bad flag %q: %v", rec.Name, rec.Flag, err)
			continue
		}

		camera := strings.TrimRightFunc(rec.Camera, unicode.IsSpace)

		cropFactor := 1.0
		if cf, ok := cfg.CropFactors[camera]; ok {
			cropFactor = cf
		}

		entries = append(entries, LibraryEntry{
			Name:                  rec.Name,
			CreateDate:            created,
			FocalLength:           focal,
			FNumber:               fNumber,
			Camera:                camera,
			Lens:                  rec.Lens,
			Flag:                  flag,
			CropFactor:            cropFactor,
			EquivalentFocalLength: formatMillimetres(focal * cropFactor),
			Date:                  created.Format("2006-01-02"),
			Keywords:              rec.Keywords,
		})
	}

	if len(badDates) > 0 {
		stats.mu.Lock()
		stats.badDates = len(badDates)
		stats.mu.Unlock()
		log.Printf("normalize: sidecars with bad CreateDate found, ignoring them:")
		for _, bd := range badDates {
			log.Printf("normalize:   %s", bd)
		}
	}

	if len(records) > 0 && len(entries) == 0 && len(badDates) == len(records) {
		return nil, ErrNoValidDates
	}

	return entries, nil
}

// applyDropFilters removes rows matching the configured field/value
// predicates. Values are compared in string form so the filter surface stays
// declarative.
func applyDropFilters(entries []LibraryEntry, cfg *config.Config) []LibraryEntry {
	if len(cfg.DropFilters) == 0 {
		return entries
	}

	kept := entries[:0]
	for _, e := range entries {
		if !dropEntry(e, cfg.DropFilters) {
			kept = append(kept, e)
		}
	}
	return kept
}

func dropEntry(e LibraryEntry, filters map[string][]string) bool {
	for field, values := range filters {
		var actual string
		switch field {
		case "Flag":
			actual = strconv.Itoa(e.Flag)
		case "Camera":
			actual = e.Camera
		case "Lens":
			actual = e.Lens
		case "Name", "name":
			actual = e.Name
		default:
			log.Printf("normalize: unsupported drop filter field %q ignored", field)
			continue
		}
		for _, v := range values {
			if actual == v {
				return true
			}
		}
	}
	return false
}
