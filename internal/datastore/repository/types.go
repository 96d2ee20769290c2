package repository

import (
	"time"

	"github.com/tphakala/imagecurator/internal/datastore/rating"
)

// ManualSource labels annotations that have no producing model.
const ManualSource = "manual"

// ImageMetadata describes an original image as reported by the file-system
// collaborator. PHash is computed by the caller.
type ImageMetadata struct {
	StoredImagePath string
	Width           int
	Height          int
	Format          string
	Mode            string
	HasAlpha        bool
	Filename        string
	Extension       string
	ColorSpace      string
	ICCProfile      []byte
	PHash           string
}

// ProcessedImageMetadata describes a derived rendition of an image.
type ProcessedImageMetadata struct {
	Path       string
	Width      int
	Height     int
	Format     string
	Mode       string
	HasAlpha   bool
	Filename   string
	Extension  string
	ColorSpace string
	ICCProfile []byte
}

// MetadataUpdate is a partial image update. Only non-nil fields are written.
type MetadataUpdate struct {
	StoredImagePath *string
	Width           *int
	Height          *int
	Format          *string
	Mode            *string
	HasAlpha        *bool
	Filename        *string
	Extension       *string
	ColorSpace      *string
	ICCProfile      *[]byte
	PHash           *string
}

// columns returns the provided fields keyed by column name.
func (u *MetadataUpdate) columns() map[string]any {
	cols := make(map[string]any)
	if u == nil {
		return cols
	}
	if u.StoredImagePath != nil {
		cols["stored_image_path"] = *u.StoredImagePath
	}
	if u.Width != nil {
		cols["width"] = *u.Width
	}
	if u.Height != nil {
		cols["height"] = *u.Height
	}
	if u.Format != nil {
		cols["format"] = *u.Format
	}
	if u.Mode != nil {
		cols["mode"] = *u.Mode
	}
	if u.HasAlpha != nil {
		cols["has_alpha"] = *u.HasAlpha
	}
	if u.Filename != nil {
		cols["filename"] = *u.Filename
	}
	if u.Extension != nil {
		cols["extension"] = *u.Extension
	}
	if u.ColorSpace != nil {
		cols["color_space"] = *u.ColorSpace
	}
	if u.ICCProfile != nil {
		cols["icc_profile"] = *u.ICCProfile
	}
	if u.PHash != nil {
		cols["phash"] = *u.PHash
	}
	return cols
}

// Annotations is one annotation payload. nil slices and pointers are absent
// and leave existing rows untouched. ModelID nil marks a manual edit.
type Annotations struct {
	Tags     []string
	Captions []string
	Score    *float64
	// Rating is a raw rating label, normalized before storage.
	Rating           *string
	RatingConfidence *float64
	ModelID          *uint
}

// IsManual reports whether the payload was entered by a person
func (a *Annotations) IsManual() bool {
	return a.ModelID == nil
}

// SaveResult counts the rows written by SaveAnnotations.
type SaveResult struct {
	TagsAdded   int
	TagsSkipped int // already present for the same image and model
	Captions    int
	Scores      int
	Ratings     int
}

// TagAnnotation is a stored tag with its source.
type TagAnnotation struct {
	ID               uint
	Tag              string
	ExternalTagID    *int64
	ModelID          *uint
	Source           string // model name or ManualSource
	IsEditedManually bool
	CreatedAt        time.Time
}

// CaptionAnnotation is a stored caption with its source.
type CaptionAnnotation struct {
	ID               uint
	Caption          string
	ModelID          *uint
	Source           string
	IsEditedManually bool
	CreatedAt        time.Time
}

// ScoreAnnotation is a stored score with its source.
type ScoreAnnotation struct {
	ID               uint
	Score            float64
	ModelID          *uint
	Source           string
	IsEditedManually bool
	CreatedAt        time.Time
}

// RatingAnnotation is a stored content rating with its source.
type RatingAnnotation struct {
	ID         uint
	Rating     rating.Rating
	Raw        string
	Confidence *float64
	ModelID    *uint
	Source     string
	CreatedAt  time.Time
}

// AnnotationSet holds every annotation row of one image. Collections are
// empty, never nil, when the image has none or does not exist.
type AnnotationSet struct {
	Tags     []TagAnnotation
	Captions []CaptionAnnotation
	Scores   []ScoreAnnotation
	Ratings  []RatingAnnotation
}

// SearchResult is one page of matching image ids plus the total match count.
// IDs is nil when the criteria are a caller error such as an empty tag list.
type SearchResult struct {
	IDs    []uint
	Total  int64
	Limit  int
	Offset int
}
