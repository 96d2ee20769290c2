package entities

// Image is the canonical record of a single distinct source image.
// PHash carries the perceptual hash; at most one row exists per hash.
type Image struct {
	ID              uint   `gorm:"primaryKey"`
	UUID            string `gorm:"type:varchar(36);not null;uniqueIndex"`
	StoredImagePath string `gorm:"type:varchar(1024);not null"`
	Width           int    `gorm:"not null;index:idx_image_dimensions"`
	Height          int    `gorm:"not null;index:idx_image_dimensions"`
	Format          string `gorm:"type:varchar(20)"`
	Mode            string `gorm:"type:varchar(20)"`
	HasAlpha        bool   `gorm:"not null;default:false"`
	Filename        string `gorm:"type:varchar(255)"`
	Extension       string `gorm:"type:varchar(20)"`
	ColorSpace      string `gorm:"type:varchar(50)"`
	ICCProfile      []byte
	PHash           string `gorm:"column:phash;type:varchar(64);not null;uniqueIndex"`
	CreatedAt       int64  `gorm:"not null;index"`
	UpdatedAt       int64  `gorm:"not null"`

	// Owned rows, removed with the image
	ProcessedImages []ProcessedImage `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
	Tags            []Tag            `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
	Captions        []Caption        `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
	Scores          []Score          `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
	Ratings         []Rating         `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (Image) TableName() string {
	return "images"
}

// ProcessedImage is a resized or reformatted rendition of an Image.
// Rows are never updated in place.
type ProcessedImage struct {
	ID                 uint   `gorm:"primaryKey"`
	ImageID            uint   `gorm:"not null;index"`
	ProcessedImagePath string `gorm:"type:varchar(1024);not null"`
	Width              int    `gorm:"not null"`
	Height             int    `gorm:"not null"`
	Format             string `gorm:"type:varchar(20)"`
	Mode               string `gorm:"type:varchar(20)"`
	HasAlpha           bool   `gorm:"not null;default:false"`
	Filename           string `gorm:"type:varchar(255)"`
	Extension          string `gorm:"type:varchar(20)"`
	ColorSpace         string `gorm:"type:varchar(50)"`
	ICCProfile         []byte
	CreatedAt          int64 `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (ProcessedImage) TableName() string {
	return "processed_images"
}
