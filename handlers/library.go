package handlers

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"sort"
	"sync"

	"github.com/facette/natsort"

	"github.com/luismavs/exposurestats/config"
	"github.com/luismavs/exposurestats/database"
	"github.com/luismavs/exposurestats/exposure"
	"github.com/luismavs/exposurestats/realtime"
	"github.com/luismavs/exposurestats/repository"
	"github.com/luismavs/exposurestats/workers"
)

// LibraryHandler serves the normalized library and triggers rebuilds. It
// keeps the latest pipeline output in memory; the analytical store backs the
// filtered listings and the stats endpoints.
type LibraryHandler struct {
	Cfg          *config.Config
	Builder      *exposure.Builder
	Repo         repository.LibraryRepositoryInterface
	StatsDB      *sql.DB
	Hub          *realtime.Hub
	TagProcessor *workers.TagProcessor

	mu      sync.RWMutex
	library *exposure.Library
	syncing bool
}

func NewLibraryHandler(cfg *config.Config, builder *exposure.Builder, repo repository.LibraryRepositoryInterface, statsDB *sql.DB, hub *realtime.Hub) *LibraryHandler {
	return &LibraryHandler{
		Cfg:     cfg,
		Builder: builder,
		Repo:    repo,
		StatsDB: statsDB,
		Hub:     hub,
	}
}

// SetLibrary replaces the in-memory snapshot.
func (h *LibraryHandler) SetLibrary(lib *exposure.Library) {
	h.mu.Lock()
	h.library = lib
	h.mu.Unlock()
}

func (h *LibraryHandler) snapshot() *exposure.Library {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.library
}

// GetLibrary handles GET /api/library with optional camera, lens, start_date,
// end_date and sort query parameters.
func (h *LibraryHandler) GetLibrary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sortOrder := q.Get("sort")
	if sortOrder == "" {
		sortOrder = database.DefaultSortOrder
	}
	if !database.IsValidSortOrder(sortOrder) {
		WriteAPIError(w, http.StatusBadRequest, "invalid_sort", "unknown sort order: "+sortOrder)
		return
	}

	filter := repository.ImageFilter{
		Camera:    q.Get("camera"),
		Lens:      q.Get("lens"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		SortOrder: sortOrder,
	}

	rows, err := h.Repo.ListImages(filter)
	if err != nil {
		log.Printf("Error listing library images: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "failed to list library images")
		return
	}

	// natural ordering cannot be expressed in SQL, sort here instead
	if sortOrder == database.SortNameNat {
		sort.Slice(rows, func(i, j int) bool {
			return natsort.Compare(rows[i].Name, rows[j].Name)
		})
	}

	writeJSON(w, http.StatusOK, rows)
}

// GetCameras handles GET /api/cameras.
func (h *LibraryHandler) GetCameras(w http.ResponseWriter, r *http.Request) {
	lib := h.snapshot()
	if lib == nil {
		WriteAPIError(w, http.StatusServiceUnavailable, "library_not_ready", "library has not been built yet")
		return
	}
	writeJSON(w, http.StatusOK, lib.Cameras)
}

// GetLenses handles GET /api/lenses.
func (h *LibraryHandler) GetLenses(w http.ResponseWriter, r *http.Request) {
	lib := h.snapshot()
	if lib == nil {
		WriteAPIError(w, http.StatusServiceUnavailable, "library_not_ready", "library has not been built yet")
		return
	}
	writeJSON(w, http.StatusOK, lib.Lenses)
}

// GetKeywords handles GET /api/keywords, returning the long-format keyword
// table built by the pipeline.
func (h *LibraryHandler) GetKeywords(w http.ResponseWriter, r *http.Request) {
	lib := h.snapshot()
	if lib == nil {
		WriteAPIError(w, http.StatusServiceUnavailable, "library_not_ready", "library has not been built yet")
		return
	}
	writeJSON(w, http.StatusOK, lib.Keywords)
}

// GetStats handles GET /api/stats, returning the counters of the last run.
func (h *LibraryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	lib := h.snapshot()
	if lib == nil {
		WriteAPIError(w, http.StatusServiceUnavailable, "library_not_ready", "library has not been built yet")
		return
	}
	writeJSON(w, http.StatusOK, lib.Stats)
}

func (h *LibraryHandler) statsEndpoint(w http.ResponseWriter, what string, fn func(*sql.DB) ([]database.NameCount, error)) {
	counts, err := fn(h.StatsDB)
	if err != nil {
		log.Printf("Error computing %s counts: %v", what, err)
		WriteAPIError(w, http.StatusInternalServerError, "stats_failed", "failed to compute "+what+" counts")
		return
	}
	if counts == nil {
		counts = []database.NameCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

// GetCameraStats handles GET /api/stats/cameras.
func (h *LibraryHandler) GetCameraStats(w http.ResponseWriter, r *http.Request) {
	h.statsEndpoint(w, "camera", database.CountByCamera)
}

// GetLensStats handles GET /api/stats/lenses.
func (h *LibraryHandler) GetLensStats(w http.ResponseWriter, r *http.Request) {
	h.statsEndpoint(w, "lens", database.CountByLens)
}

// GetKeywordStats handles GET /api/stats/keywords.
func (h *LibraryHandler) GetKeywordStats(w http.ResponseWriter, r *http.Request) {
	h.statsEndpoint(w, "keyword", database.CountByKeyword)
}

// GetDateStats handles GET /api/stats/dates.
func (h *LibraryHandler) GetDateStats(w http.ResponseWriter, r *http.Request) {
	h.statsEndpoint(w, "date", database.CountByDate)
}

// GetFocalLengthStats handles GET /api/stats/focal-lengths.
func (h *LibraryHandler) GetFocalLengthStats(w http.ResponseWriter, r *http.Request) {
	h.statsEndpoint(w, "focal length", database.CountByFocalLength)
}

// TriggerSync handles POST /api/sync. The rebuild runs in the background;
// progress is pushed over the websocket hub.
func (h *LibraryHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.syncing {
		h.mu.Unlock()
		WriteAPIError(w, http.StatusConflict, "sync_in_progress", "a library sync is already running")
		return
	}
	h.syncing = true
	h.mu.Unlock()

	go h.runSync()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sync started"})
}

func (h *LibraryHandler) runSync() {
	defer func() {
		h.mu.Lock()
		h.syncing = false
		h.mu.Unlock()
	}()

	if h.Hub != nil {
		h.Hub.Broadcast(realtime.Event{Type: realtime.EventSyncStarted})
	}

	lib, err := h.Builder.BuildLibrary(context.Background())
	if err != nil {
		log.Printf("Library sync failed: %v", err)
		if h.Hub != nil {
			h.Hub.Broadcast(realtime.Event{Type: realtime.EventSyncFailed, Error: err.Error()})
		}
		return
	}

	if err := h.Repo.ReplaceLibrary(lib.Entries); err != nil {
		log.Printf("Failed to persist synced library: %v", err)
		if h.Hub != nil {
			h.Hub.Broadcast(realtime.Event{Type: realtime.EventSyncFailed, Error: err.Error()})
		}
		return
	}

	h.SetLibrary(lib)

	log.Printf("Library sync finished: %d photos", len(lib.Entries))
	if h.Hub != nil {
		h.Hub.Broadcast(realtime.Event{
			Type:  realtime.EventSyncFinished,
			Extra: map[string]interface{}{"photos": len(lib.Entries)},
		})
	}
}

// TagPhoto handles POST /api/photos/tag?path=..., queueing the photo for AI
// tagging.
func (h *LibraryHandler) TagPhoto(w http.ResponseWriter, r *http.Request) {
	if h.TagProcessor == nil {
		WriteAPIError(w, http.StatusServiceUnavailable, "tagger_disabled", "AI tagging is not configured")
		return
	}

	relPath := r.URL.Query().Get("path")
	if relPath == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_path", "path query parameter is required")
		return
	}

	queued := h.TagProcessor.QueueJob(workers.TagJob{RelativePath: relPath, TaskType: workers.TaskTag})
	if !queued {
		WriteAPIError(w, http.StatusConflict, "already_queued", "photo is already queued for tagging or the queue is full")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "path": relPath})
}
