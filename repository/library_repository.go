package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/luismavs/exposurestats/database"
	"github.com/luismavs/exposurestats/exposure"
	"github.com/luismavs/exposurestats/models"
)

// keyword type name used for tags read out of sidecar files
const sidecarKeywordType = "sidecar"

// LibraryRepository handles database operations for the normalized library
type LibraryRepository struct {
	DB *gorm.DB
}

// NewLibraryRepository creates a new instance of LibraryRepository
func NewLibraryRepository(db *gorm.DB) *LibraryRepository {
	return &LibraryRepository{DB: db}
}

// ReplaceLibrary swaps the stored library for the given entries in a single
// transaction. Sidecar keyword links are rebuilt from scratch; AI tag links
// are dropped too since their image ids no longer exist after the swap.
func (r *LibraryRepository) ReplaceLibrary(entries []exposure.LibraryEntry) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.AITaggedImage{}).Error; err != nil {
			return fmt.Errorf("failed to clear AI tag links: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.ManualTaggedImage{}).Error; err != nil {
			return fmt.Errorf("failed to clear sidecar tag links: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.ImageData{}).Error; err != nil {
			return fmt.Errorf("failed to clear image rows: %w", err)
		}

		kwType, err := ensureKeywordType(tx, sidecarKeywordType)
		if err != nil {
			return err
		}

		// distinct keyword -> id, filled lazily as entries reference them
		keywordIDs := make(map[string]uint)

		for i := range entries {
			entry := &entries[i]

			row := models.ImageData{
				Name:                  entry.Name,
				CreateDate:            entry.CreateDate,
				FocalLength:           entry.FocalLength,
				FNumber:               entry.FNumber,
				Camera:                entry.Camera,
				Flag:                  entry.Flag,
				CropFactor:            entry.CropFactor,
				EquivalentFocalLength: entry.EquivalentFocalLength,
				Date:                  entry.Date,
			}
			if strings.TrimSpace(entry.Lens) != "" {
				lens := entry.Lens
				row.Lens = &lens
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to insert image row for %s: %w", entry.Name, err)
			}

			for _, kw := range entry.Keywords {
				id, ok := keywordIDs[kw]
				if !ok {
					keyword, err := ensureKeyword(tx, kw, kwType.ID, false)
					if err != nil {
						return err
					}
					id = keyword.ID
					keywordIDs[kw] = id
				}
				link := models.ManualTaggedImage{KeywordID: id, ImageID: row.ID}
				if err := tx.Create(&link).Error; err != nil {
					return fmt.Errorf("failed to link keyword %q to %s: %w", kw, entry.Name, err)
				}
			}
		}

		return nil
	})
}

// ListImages returns stored library rows, filtered and ordered.
func (r *LibraryRepository) ListImages(filter ImageFilter) ([]models.ImageData, error) {
	query := r.DB.Model(&models.ImageData{})

	if filter.Camera != "" {
		query = query.Where("camera = ?", filter.Camera)
	}
	if filter.Lens != "" {
		query = query.Where("lens = ?", filter.Lens)
	}
	if filter.StartDate != "" {
		query = query.Where("date >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		query = query.Where("date <= ?", filter.EndDate)
	}

	switch filter.SortOrder {
	case database.SortDateDesc:
		query = query.Order("create_date DESC")
	case database.SortDateAsc:
		query = query.Order("create_date ASC")
	case database.SortFocalAsc:
		query = query.Order("focal_length ASC, name ASC")
	case database.SortApertureAsc:
		query = query.Order("f_number ASC, name ASC")
	default:
		// name_nat is handled by callers in memory; the database collation
		// cannot express natural ordering
		query = query.Order("name ASC")
	}

	var rows []models.ImageData
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list library images: %w", err)
	}
	return rows, nil
}

// GetByName retrieves one library row by photo name.
func (r *LibraryRepository) GetByName(name string) (*models.ImageData, error) {
	var row models.ImageData
	err := r.DB.Where("name = ?", name).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get image by name %s: %w", name, err)
	}
	return &row, nil
}

// Count returns the number of stored library rows.
func (r *LibraryRepository) Count() (int64, error) {
	var n int64
	if err := r.DB.Model(&models.ImageData{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count library images: %w", err)
	}
	return n, nil
}
