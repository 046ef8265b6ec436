package models

import "time"

// ManualTaggedImage links a photo to a keyword that came from its sidecar.
type ManualTaggedImage struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	KeywordID uint `gorm:"not null;index" json:"keyword_id"`
	ImageID   uint `gorm:"not null;index" json:"image_id"`

	Keyword Keyword `gorm:"foreignKey:KeywordID" json:"-"`
}

func (ManualTaggedImage) TableName() string {
	return "manual_tagged_images"
}

// AITaggedImage links a photo to a keyword proposed by the vision model,
// with the time the tagging ran.
type AITaggedImage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	KeywordID   uint      `gorm:"not null;index" json:"keyword_id"`
	ImageID     uint      `gorm:"not null;index" json:"image_id"`
	TaggingDate time.Time `gorm:"not null" json:"tagging_date"`

	Keyword Keyword `gorm:"foreignKey:KeywordID" json:"-"`
}

func (AITaggedImage) TableName() string {
	return "ai_tagged_images"
}
