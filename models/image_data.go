package models

import "time"

// ImageData is one normalized library row in the analytical store. It
// corresponds to the 'image_data' table and mirrors the pipeline's table
// contract column for column.
type ImageData struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	Name                  string    `gorm:"not null;index" json:"name"`
	CreateDate            time.Time `gorm:"not null" json:"create_date"`
	FocalLength           float64   `json:"focal_length"`
	FNumber               float64   `json:"f_number"`
	Camera                string    `gorm:"not null" json:"camera"`
	Lens                  *string   `json:"lens,omitempty"` // Nullable
	Flag                  int       `gorm:"not null" json:"flag"`
	CropFactor            float64   `json:"crop_factor"`
	EquivalentFocalLength string    `json:"equivalent_focal_length"`
	Date                  string    `gorm:"not null;index" json:"date"` // calendar date, YYYY-MM-DD

	// Relationships
	ManualTags []ManualTaggedImage `gorm:"foreignKey:ImageID" json:"manual_tags,omitempty"`
	AITags     []AITaggedImage     `gorm:"foreignKey:ImageID" json:"ai_tags,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (ImageData) TableName() string {
	return "image_data"
}
