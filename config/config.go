package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPreviewsSubDir = "previews"
	DefaultExportsSubDir  = "exports"
)

const (
	defaultNumParseWorkers     = 4
	defaultTagQueueSize        = 100
	defaultNumTagWorkers       = 1
	defaultDuplicateGroupLimit = 10
	defaultPreviewMaxSize      = 1200
	defaultTaggingImageSize    = 512
)

// SchemaVariant maps the logical sidecar fields to the qualified attribute
// names of one known sidecar schema. Variants are tried in slice order; the
// first one whose required fields are all present wins.
type SchemaVariant struct {
	Name        string `yaml:"name"`
	CreateDate  string `yaml:"create_date"`
	FocalLength string `yaml:"focal_length"`
	FNumber     string `yaml:"f_number"`
	Camera      string `yaml:"camera"`
	Lens        string `yaml:"lens"`
	Flag        string `yaml:"flag"`
	Keywords    string `yaml:"keywords"`
}

type Config struct {
	// source directory (where photos and their sidecars are scanned)
	LibraryPath string

	// database path
	DatabasePath string

	// generated asset storage
	MediaStoragePath string // primary root for generated assets (previews, exports)
	PreviewsPath     string // full-calculated path for previews
	ExportsPath      string // full-calculated path for csv exports and archives

	// sidecar schema handling
	SidecarExtensions []string        // recognised sidecar version extensions, without the dot
	CurrentVersion    string          // duplicate tie-breaker, e.g. "exposurex7"
	SchemaVariants    []SchemaVariant // primary first, then fallbacks in priority order
	FieldsToStrip     []string        // logical fields whose values are whitespace-trimmed

	// traversal and table rules
	DirsToAvoid []string            // directory names skipped during the walk (case-insensitive)
	DropFilters map[string][]string // field name -> values excluded from the final table
	CropFactors map[string]float64  // camera model -> sensor crop factor (default 1)

	// operational toggles
	DeleteDanglingSidecars bool
	RunDuplicateScan       bool
	DuplicateGroupLimit    int // version-duplicate groups resolved per run, 0 = unlimited

	// worker settings
	NumParseWorkers int
	TagQueueSize    int
	NumTagWorkers   int

	// preview / tagging image settings
	PreviewMaxSize   int
	TaggingImageSize int

	// AI tagging
	GeminiModel   string
	TagVocabulary []string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvBoolOrDefault(envVar string, defaultVal bool) bool {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %v. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

// DefaultSchemaVariants returns the three known sidecar schemas. The primary
// one is what current Exposure writes; the fallbacks cover files first
// processed by other tools, which store the creation date under other keys.
func DefaultSchemaVariants() []SchemaVariant {
	return []SchemaVariant{
		{
			Name:        "exposure",
			CreateDate:  "xmp:CreateDate",
			FocalLength: "exif:FocalLength",
			FNumber:     "exif:FNumber",
			Camera:      "tiff:Model",
			Lens:        "alienexposure:lens",
			Flag:        "alienexposure:pickflag",
			Keywords:    "alienexposure:virtualpaths",
		},
		{
			Name:        "photoshop",
			CreateDate:  "photoshop:DateCreated",
			FocalLength: "exif:FocalLength",
			FNumber:     "exif:FNumber",
			Camera:      "tiff:Model",
			Lens:        "alienexposure:lens",
			Flag:        "alienexposure:pickflag",
			Keywords:    "alienexposure:virtualpaths",
		},
		{
			Name:        "capture-time",
			CreateDate:  "alienexposure:capture_time",
			FocalLength: "exif:FocalLength",
			FNumber:     "exif:FNumber",
			Camera:      "tiff:Model",
			Lens:        "alienexposure:lens",
			Flag:        "alienexposure:pickflag",
			Keywords:    "alienexposure:virtualpaths",
		},
	}
}

// fileConfig is the shape of the optional declarative config file. Only the
// fields that are awkward as environment variables live here.
type fileConfig struct {
	SidecarExtensions []string            `yaml:"sidecar_extensions"`
	CurrentVersion    string              `yaml:"current_version"`
	SchemaVariants    []SchemaVariant     `yaml:"schema_variants"`
	FieldsToStrip     []string            `yaml:"fields_to_strip"`
	DirsToAvoid       []string            `yaml:"dirs_to_avoid"`
	DropFilters       map[string][]string `yaml:"drop_filters"`
	CropFactors       map[string]float64  `yaml:"crop_factors"`
	TagVocabulary     []string            `yaml:"tag_vocabulary"`
}

// LoadConfig builds the process-wide configuration from the environment plus
// an optional YAML file named by CONFIG_FILE. The library path must resolve
// to an existing directory; anything else is a hard error before any work
// starts.
func LoadConfig() (Config, error) {
	root := getEnvOrDefault("LIBRARY_PATH", ".")
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for library path '%s': %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return Config{}, fmt.Errorf("library path '%s' is not usable: %w", absRoot, err)
	}
	if !info.IsDir() {
		return Config{}, fmt.Errorf("library path '%s' is not a directory", absRoot)
	}

	dbPath := getEnvOrDefault("DATABASE_PATH", "exposurestats.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	previewSubDir := getEnvOrDefault("PREVIEWS_SUBDIR", DefaultPreviewsSubDir)
	exportSubDir := getEnvOrDefault("EXPORTS_SUBDIR", DefaultExportsSubDir)

	cfg := Config{
		LibraryPath:       absRoot,
		DatabasePath:      dbPath,
		MediaStoragePath:  absMediaStorage,
		PreviewsPath:      filepath.Join(absMediaStorage, previewSubDir),
		ExportsPath:       filepath.Join(absMediaStorage, exportSubDir),
		SidecarExtensions: []string{"exposurex6", "exposurex7"},
		CurrentVersion:    "exposurex7",
		SchemaVariants:    DefaultSchemaVariants(),
		FieldsToStrip:     []string{"Lens"},
		DirsToAvoid:       []string{"recycling", "incoming"},
		DropFilters:       map[string][]string{"Flag": {"2"}},
		CropFactors:       map[string]float64{"OLYMPUS E-M5 MARK III": 2.0},

		DeleteDanglingSidecars: getEnvBoolOrDefault("DELETE_DANGLING_SIDECARS", true),
		RunDuplicateScan:       getEnvBoolOrDefault("RUN_DUPLICATE_SCAN", true),
		DuplicateGroupLimit:    getEnvIntOrDefault("DUPLICATE_GROUP_LIMIT", defaultDuplicateGroupLimit),

		NumParseWorkers: getEnvIntOrDefault("NUM_PARSE_WORKERS", defaultNumParseWorkers),
		TagQueueSize:    getEnvIntOrDefault("TAG_QUEUE_SIZE", defaultTagQueueSize),
		NumTagWorkers:   getEnvIntOrDefault("NUM_TAG_WORKERS", defaultNumTagWorkers),

		PreviewMaxSize:   getEnvIntOrDefault("PREVIEW_MAX_SIZE", defaultPreviewMaxSize),
		TaggingImageSize: getEnvIntOrDefault("TAGGING_IMAGE_SIZE", defaultTaggingImageSize),

		GeminiModel: getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		TagVocabulary: []string{
			"landscape", "BIF", "mountain", "city", "night", "stars", "golden-hour", "blue-hour",
		},
	}

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if err := cfg.applyFile(cfgFile); err != nil {
			return Config{}, err
		}
	}

	if len(cfg.SchemaVariants) == 0 {
		return Config{}, fmt.Errorf("configuration defines no schema variants")
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	if len(fc.SidecarExtensions) > 0 {
		c.SidecarExtensions = fc.SidecarExtensions
	}
	if fc.CurrentVersion != "" {
		c.CurrentVersion = fc.CurrentVersion
	}
	if len(fc.SchemaVariants) > 0 {
		c.SchemaVariants = fc.SchemaVariants
	}
	if len(fc.FieldsToStrip) > 0 {
		c.FieldsToStrip = fc.FieldsToStrip
	}
	if len(fc.DirsToAvoid) > 0 {
		c.DirsToAvoid = fc.DirsToAvoid
	}
	if fc.DropFilters != nil {
		c.DropFilters = fc.DropFilters
	}
	if fc.CropFactors != nil {
		c.CropFactors = fc.CropFactors
	}
	if len(fc.TagVocabulary) > 0 {
		c.TagVocabulary = fc.TagVocabulary
	}
	return nil
}

// StripField reports whether the named logical field should be
// whitespace-trimmed after extraction.
func (c *Config) StripField(field string) bool {
	for _, f := range c.FieldsToStrip {
		if f == field {
			return true
		}
	}
	return false
}

// AvoidDir reports whether a directory name matches the excluded list.
// Matching is a case-insensitive comparison against the name alone, never
// against full paths.
func (c *Config) AvoidDir(name string) bool {
	for _, d := range c.DirsToAvoid {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

// MatchSidecarExtension returns the recognised extension the file name ends
// with, or "" when the file is not a sidecar.
func (c *Config) MatchSidecarExtension(name string) string {
	for _, ext := range c.SidecarExtensions {
		if strings.HasSuffix(name, ext) {
			return ext
		}
	}
	return ""
}
