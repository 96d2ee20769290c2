package entities

import "strings"

// FoldText returns the case-folded form of tag and caption text stored in
// the *_folded search columns. Search patterns are folded the same way so
// matching does not depend on the backend's LOWER().
func FoldText(text string) string {
	return strings.ToLower(text)
}

// Tag is one (image, tag text, model) triple. ModelID nil marks a manual tag.
// The unique index only rejects duplicates when ModelID is set since NULLs
// never collide; the repository checks manual duplicates itself.
type Tag struct {
	ID               uint   `gorm:"primaryKey"`
	ImageID          uint   `gorm:"not null;uniqueIndex:idx_tag_identity;index:idx_tag_text"`
	Tag              string `gorm:"type:varchar(255);not null;uniqueIndex:idx_tag_identity"`
	TagFolded        string `gorm:"type:varchar(255);not null;default:'';index:idx_tag_text"` // FoldText(Tag)
	ExternalTagID    *int64 `gorm:"index"`
	ModelID          *uint  `gorm:"uniqueIndex:idx_tag_identity"`
	IsEditedManually bool   `gorm:"not null;default:false"`
	CreatedAt        int64  `gorm:"not null"`

	Model *Model `gorm:"foreignKey:ModelID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for GORM.
func (Tag) TableName() string {
	return "tags"
}

// Caption is a caption text produced by a model or entered manually.
// Captions are not deduplicated.
type Caption struct {
	ID               uint   `gorm:"primaryKey"`
	ImageID          uint   `gorm:"not null;index"`
	Caption          string `gorm:"type:text;not null"`
	CaptionFolded    string `gorm:"type:text"` // FoldText(Caption)
	ModelID          *uint  `gorm:"index"`
	IsEditedManually bool   `gorm:"not null;default:false"`
	CreatedAt        int64  `gorm:"not null"`

	Model *Model `gorm:"foreignKey:ModelID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for GORM.
func (Caption) TableName() string {
	return "captions"
}

// Score is a numeric aesthetic or quality score.
type Score struct {
	ID               uint    `gorm:"primaryKey"`
	ImageID          uint    `gorm:"not null;index"`
	Score            float64 `gorm:"not null"`
	ModelID          *uint   `gorm:"index"`
	IsEditedManually bool    `gorm:"not null;default:false"`
	CreatedAt        int64   `gorm:"not null"`

	Model *Model `gorm:"foreignKey:ModelID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for GORM.
func (Score) TableName() string {
	return "scores"
}

// Rating is a content rating. RawRatingValue keeps the producer's label,
// NormalizedRating and Severity hold the vocabulary value used by search.
type Rating struct {
	ID               uint   `gorm:"primaryKey"`
	ImageID          uint   `gorm:"not null;index:idx_rating_image_model"`
	ModelID          *uint  `gorm:"index:idx_rating_image_model"`
	RawRatingValue   string `gorm:"type:varchar(50);not null"`
	NormalizedRating string `gorm:"type:varchar(10);not null"`
	Severity         int    `gorm:"not null"`
	ConfidenceScore  *float64
	CreatedAt        int64 `gorm:"not null"`

	Model *Model `gorm:"foreignKey:ModelID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for GORM.
func (Rating) TableName() string {
	return "ratings"
}

// IsManual reports whether the rating was entered by a person
func (r *Rating) IsManual() bool {
	return r.ModelID == nil
}
