package repository

import (
	"time"

	"github.com/luismavs/exposurestats/exposure"
	"github.com/luismavs/exposurestats/models"
)

// ImageFilter narrows and orders library listings.
type ImageFilter struct {
	Camera    string
	Lens      string
	StartDate string // inclusive, YYYY-MM-DD
	EndDate   string // inclusive, YYYY-MM-DD
	SortOrder string
}

// LibraryRepositoryInterface defines persistence for the normalized library.
type LibraryRepositoryInterface interface {
	ReplaceLibrary(entries []exposure.LibraryEntry) error
	ListImages(filter ImageFilter) ([]models.ImageData, error)
	GetByName(name string) (*models.ImageData, error)
	Count() (int64, error)
}

// TagRepositoryInterface defines persistence for AI tag links.
type TagRepositoryInterface interface {
	TagImageAI(imageName string, tags []string, when time.Time) error
}
