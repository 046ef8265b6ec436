package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/luismavs/exposurestats/models"
)

// keyword type name used for tags proposed by the vision model
const aiKeywordType = "ai"

// TagRepository handles database operations for keywords and tag links
type TagRepository struct {
	DB *gorm.DB
}

// NewTagRepository creates a new instance of TagRepository
func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{DB: db}
}

// ensureKeywordType creates the keyword type if missing and returns it. Runs
// inside the caller's transaction.
func ensureKeywordType(tx *gorm.DB, name string) (*models.KeywordType, error) {
	kwType := models.KeywordType{Name: name}
	if err := tx.Where(models.KeywordType{Name: name}).FirstOrCreate(&kwType).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure keyword type %q: %w", name, err)
	}
	return &kwType, nil
}

// ensureKeyword creates the keyword if missing and returns it. A keyword
// already known to the store keeps its original type and flags.
func ensureKeyword(tx *gorm.DB, keyword string, typeID uint, aiTag bool) (*models.Keyword, error) {
	kw := models.Keyword{
		Keyword: keyword,
		TypeID:  typeID,
		AITag:   aiTag,
	}
	if err := tx.Where(models.Keyword{Keyword: keyword}).FirstOrCreate(&kw).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure keyword %q: %w", keyword, err)
	}
	return &kw, nil
}

// TagImageAI records the vision model's tags for one photo, replacing any
// earlier AI tags the photo had.
func (r *TagRepository) TagImageAI(imageName string, tags []string, when time.Time) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var image models.ImageData
		if err := tx.Where("name = ?", imageName).First(&image).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("photo %s is not in the library", imageName)
			}
			return fmt.Errorf("failed to look up photo %s: %w", imageName, err)
		}

		if err := tx.Where("image_id = ?", image.ID).Delete(&models.AITaggedImage{}).Error; err != nil {
			return fmt.Errorf("failed to clear old AI tags for %s: %w", imageName, err)
		}

		kwType, err := ensureKeywordType(tx, aiKeywordType)
		if err != nil {
			return err
		}

		for _, tag := range tags {
			kw, err := ensureKeyword(tx, tag, kwType.ID, true)
			if err != nil {
				return err
			}
			link := models.AITaggedImage{
				KeywordID:   kw.ID,
				ImageID:     image.ID,
				TaggingDate: when,
			}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("failed to link AI tag %q to %s: %w", tag, imageName, err)
			}
		}

		return nil
	})
}
