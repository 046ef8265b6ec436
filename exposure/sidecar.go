package exposure

import (
	"encoding/xml"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/luismavs/exposurestats/config"
)

// sidecarEnvelope is the fixed nesting shape of an Exposure sidecar: an xmp
// metadata envelope containing one RDF description block whose attributes
// hold the scalar fields. Namespace prefixes are matched on local names so
// the parser accepts both declared and undeclared prefixes.
type sidecarEnvelope struct {
	XMLName xml.Name `xml:"xmpmeta"`
	RDF     struct {
		Description sidecarDescription `xml:"Description"`
	} `xml:"RDF"`
}

type sidecarDescription struct {
	Attrs        []xml.Attr  `xml:",any,attr"`
	VirtualPaths *keywordBag `xml:"virtualpaths"`
}

// localName strips a "prefix:" qualifier from a configured attribute name.
func localName(qualified string) string {
	if i := strings.LastIndex(qualified, ":"); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// lookupAttr finds a description attribute by the local part of its
// qualified name. Absence is a normal branch, not an error.
func (d *sidecarDescription) lookupAttr(qualified string) (string, bool) {
	want := localName(qualified)
	for _, attr := range d.Attrs {
		if attr.Name.Local == want {
			return attr.Value, true
		}
	}
	return "", false
}

// Parser reads sidecar files into SidecarRecords, trying the configured
// schema variants in priority order.
type Parser struct {
	cfg   *config.Config
	stats *counters
}

func NewParser(cfg *config.Config, stats *counters) *Parser {
	return &Parser{cfg: cfg, stats: stats}
}

// ReadSidecar parses one sidecar file. It never returns an error: a sidecar
// that cannot be loaded by any schema variant yields ok=false and a counter
// increment, so a single bad file cannot abort a whole run.
func (p *Parser) ReadSidecar(path string) (SidecarRecord, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("sidecar: could not read %s: %v", path, err)
		p.stats.addUnloaded()
		return SidecarRecord{}, false
	}

	var env sidecarEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		// treated like a missing-field condition on the envelope itself
		return p.handleMissingField(&sidecarDescription{}, path, "xmpmeta")
	}

	desc := &env.RDF.Description
	rec, missing := p.extract(desc, p.cfg.SchemaVariants[0], path)
	if missing == "" {
		return rec, true
	}
	return p.handleMissingField(desc, path, missing)
}

// extract applies one schema variant to a description block. It returns the
// source name of the first missing required field, or "" on success.
func (p *Parser) extract(desc *sidecarDescription, variant config.SchemaVariant, path string) (SidecarRecord, string) {
	type fieldMapping struct {
		logical string
		source  string
		dst     *string
	}

	rec := SidecarRecord{}
	fields := []fieldMapping{
		{"CreateDate", variant.CreateDate, &rec.CreateDate},
		{"FocalLength", variant.FocalLength, &rec.FocalLength},
		{"FNumber", variant.FNumber, &rec.FNumber},
		{"Camera", variant.Camera, &rec.Camera},
		{"Lens", variant.Lens, &rec.Lens},
		{"Flag", variant.Flag, &rec.Flag},
	}

	for _, f := range fields {
		value, ok := desc.lookupAttr(f.source)
		if !ok {
			return SidecarRecord{}, f.source
		}
		if p.cfg.StripField(f.logical) {
			value = strings.TrimSpace(value)
		}
		*f.dst = value
	}

	// the keyword bag is a nested element, not an attribute; a missing or
	// malformed bag is fine and decodes to an empty list
	rec.Keywords = decodeKeywords(desc.VirtualPaths)
	rec.Name = PhotoName(filepath.Base(path), p.cfg.SidecarExtensions)

	return rec, ""
}

// handleMissingField is the fallback path for sidecars the primary mapping
// cannot read. It checks for a dangling sidecar first, then retries the
// alternative mappings when the creation-date field was the one missing.
// It always returns a result; failures only move counters.
func (p *Parser) handleMissingField(desc *sidecarDescription, path, missingKey string) (SidecarRecord, bool) {
	imagePath := PhotoPathForSidecar(path)
	if _, err := os.Stat(imagePath); os.IsNotExist(err) {
		log.Printf("sidecar: %s has no matching image", path)
		p.stats.addDangling()
		if p.cfg.DeleteDanglingSidecars {
			log.Printf("sidecar: deleting dangling sidecar %s", path)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Printf("sidecar: failed to delete %s: %v", path, err)
			}
			return SidecarRecord{}, false
		}
	}

	// files created by other raw developers store the date under other keys
	if strings.Contains(missingKey, "CreateDate") {
		for _, variant := range p.cfg.SchemaVariants[1:] {
			rec, missing := p.extract(desc, variant, path)
			if missing == "" {
				return rec, true
			}
			log.Printf("sidecar: missing key %s trying variant %s on %s", missing, variant.Name, path)
		}
	}

	p.stats.addUnloaded()
	log.Printf("sidecar: missing key %s, could not read data from %s", missingKey, path)
	return SidecarRecord{}, false
}

// PhotoName derives a photo's logical name from its sidecar file name by
// stripping the matched version extension and the trailing separator.
func PhotoName(sidecarName string, extensions []string) string {
	for _, ext := range extensions {
		if strings.HasSuffix(sidecarName, ext) {
			name := strings.TrimSuffix(sidecarName, ext)
			return strings.TrimSuffix(name, ".")
		}
	}
	return sidecarName
}

// PhotoPathForSidecar maps a sidecar path to the image file it describes:
// sidecars live two directory levels below the photo, and the photo name is
// the sidecar name minus its version extension.
func PhotoPathForSidecar(sidecarPath string) string {
	base := filepath.Base(sidecarPath)
	imageName := strings.TrimSuffix(base, filepath.Ext(base))
	photoDir := filepath.Dir(filepath.Dir(filepath.Dir(sidecarPath)))
	return filepath.Join(photoDir, imageName)
}
