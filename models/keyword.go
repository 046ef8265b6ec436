package models

// KeywordType classifies keywords (e.g. subject keywords vs. labels). It
// corresponds to the 'keyword_types' table.
type KeywordType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null;uniqueIndex" json:"name"`
}

func (KeywordType) TableName() string {
	return "keyword_types"
}

// Keyword is one distinct tag known to the store, whether read from a
// sidecar or proposed by the AI tagger.
type Keyword struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Keyword  string `gorm:"not null;uniqueIndex" json:"keyword"`
	TypeID   uint   `gorm:"not null" json:"type_id"`
	AITag    bool   `gorm:"not null" json:"ai_tag"`
	Category string `gorm:"not null" json:"category"`

	Type KeywordType `gorm:"foreignKey:TypeID" json:"-"`
}

func (Keyword) TableName() string {
	return "keywords"
}
