package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/luismavs/exposurestats/config"
	"github.com/luismavs/exposurestats/media"
)

// ExifHandler serves EXIF probes for photos inside the library root.
type ExifHandler struct {
	Cfg *config.Config
}

func NewExifHandler(cfg *config.Config) *ExifHandler {
	return &ExifHandler{Cfg: cfg}
}

// GetPhotoExif handles GET /api/photos/exif?path=..., where path is relative
// to the library root.
func (h *ExifHandler) GetPhotoExif(w http.ResponseWriter, r *http.Request) {
	relPath := r.URL.Query().Get("path")
	if relPath == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_path", "path query parameter is required")
		return
	}
	if strings.Contains(relPath, "..") {
		WriteAPIError(w, http.StatusBadRequest, "invalid_path", "path may not contain '..'")
		return
	}

	libraryRoot := filepath.Clean(h.Cfg.LibraryPath)
	fullPath := filepath.Clean(filepath.Join(libraryRoot, relPath))
	if !strings.HasPrefix(fullPath, libraryRoot) {
		WriteAPIError(w, http.StatusForbidden, "invalid_path", "path resolves outside the library")
		return
	}

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		WriteAPIError(w, http.StatusNotFound, "not_found", "photo not found: "+relPath)
		return
	}

	meta, err := media.ExtractMetadata(fullPath)
	if err != nil {
		log.Printf("Error extracting EXIF for %s: %v", relPath, err)
		WriteAPIError(w, http.StatusInternalServerError, "exif_failed", "failed to read photo metadata")
		return
	}

	writeJSON(w, http.StatusOK, meta)
}
