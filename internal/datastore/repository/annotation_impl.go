package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/imagecurator/internal/datastore"
	"github.com/tphakala/imagecurator/internal/datastore/entities"
	"github.com/tphakala/imagecurator/internal/datastore/rating"
	"github.com/tphakala/imagecurator/internal/datastore/tagdict"
	"github.com/tphakala/imagecurator/internal/logger"
	"github.com/tphakala/imagecurator/internal/observability/metrics"
)

// SaveAnnotations merges payload into the image's annotation rows.
func (r *imageRepository) SaveAnnotations(ctx context.Context, imageID uint, payload *Annotations) (res SaveResult, err error) {
	if payload == nil {
		return res, nil
	}

	// Validate everything before the first write.
	var normalized rating.Rating
	if payload.Rating != nil {
		normalized, err = rating.Normalize(*payload.Rating)
		if err != nil {
			return res, err
		}
		if !normalized.Valid() {
			return res, invalidInput("rating", "UNRATED cannot be stored")
		}
	}
	tags := cleanTexts(payload.Tags, true)
	captions := cleanTexts(payload.Captions, false)

	start := time.Now()
	defer func() { r.observe(metrics.OpAnnotationSave, tableTags, start, err) }()

	// Resolve outside the transaction; the dictionary is a separate store.
	resolved := r.resolver.ResolveAll(ctx, tags)

	manual := payload.IsManual()
	now := r.now().Unix()

	err = datastore.RunTransaction(ctx, r.db, r.metrics, func(tx *gorm.DB) error {
		exists, err := r.imageExists(tx, imageID)
		if err != nil {
			return err
		}
		if !exists {
			return notFound(ErrImageNotFound, imageID)
		}
		if payload.ModelID != nil {
			var count int64
			if err := tx.Table(tableModels).Where("id = ?", *payload.ModelID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return notFound(ErrModelNotFound, *payload.ModelID)
			}
		}

		for _, text := range tags {
			dup, err := tagExists(tx, imageID, text, payload.ModelID)
			if err != nil {
				return err
			}
			if dup {
				res.TagsSkipped++
				continue
			}
			row := entities.Tag{
				ImageID:          imageID,
				Tag:              text,
				TagFolded:        entities.FoldText(text),
				ExternalTagID:    resolved[text].Ptr(),
				ModelID:          payload.ModelID,
				IsEditedManually: manual,
				CreatedAt:        now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			res.TagsAdded++
		}

		for _, text := range captions {
			row := entities.Caption{
				ImageID:          imageID,
				Caption:          text,
				CaptionFolded:    entities.FoldText(text),
				ModelID:          payload.ModelID,
				IsEditedManually: manual,
				CreatedAt:        now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			res.Captions++
		}

		if payload.Score != nil {
			row := entities.Score{
				ImageID:          imageID,
				Score:            *payload.Score,
				ModelID:          payload.ModelID,
				IsEditedManually: manual,
				CreatedAt:        now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			res.Scores++
		}

		if payload.Rating != nil {
			row := entities.Rating{
				ImageID:          imageID,
				ModelID:          payload.ModelID,
				RawRatingValue:   strings.TrimSpace(*payload.Rating),
				NormalizedRating: string(normalized),
				Severity:         rating.Severity(normalized),
				ConfidenceScore:  payload.RatingConfidence,
				CreatedAt:        now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			res.Ratings++
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrImageNotFound) || errors.Is(err, ErrModelNotFound) {
			return SaveResult{}, err
		}
		return SaveResult{}, dbError(err, "save_annotations")
	}

	r.log.Debug("annotations saved",
		logger.Uint("image_id", imageID),
		logger.Bool("manual", manual),
		logger.Int("tags_added", res.TagsAdded),
		logger.Int("tags_skipped", res.TagsSkipped),
		logger.Int("captions", res.Captions))
	return res, nil
}

// tagExists checks the (image, tag, model) identity. NULL model ids never
// collide in the unique index, so manual duplicates are caught here.
func tagExists(tx *gorm.DB, imageID uint, text string, modelID *uint) (bool, error) {
	q := tx.Table(tableTags).Where("image_id = ? AND tag = ?", imageID, text)
	if modelID == nil {
		q = q.Where("model_id IS NULL")
	} else {
		q = q.Where("model_id = ?", *modelID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// cleanTexts trims entries and drops empty ones. With dedupe, repeated
// entries keep their first occurrence.
func cleanTexts(in []string, dedupe bool) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if dedupe {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
		}
		out = append(out, s)
	}
	return out
}

// sourceOf names the producer of an annotation row.
func sourceOf(model *entities.Model) string {
	if model == nil {
		return ManualSource
	}
	return model.Name
}

// GetImageAnnotations loads every annotation row of the image.
func (r *imageRepository) GetImageAnnotations(ctx context.Context, imageID uint) (set *AnnotationSet, err error) {
	start := time.Now()
	defer func() { r.observe(metrics.OpAnnotationGet, tableTags, start, err) }()

	set = &AnnotationSet{
		Tags:     []TagAnnotation{},
		Captions: []CaptionAnnotation{},
		Scores:   []ScoreAnnotation{},
		Ratings:  []RatingAnnotation{},
	}
	db := r.db.WithContext(ctx)

	var tags []entities.Tag
	if err := db.Preload("Model").Where("image_id = ?", imageID).Order("id ASC").Find(&tags).Error; err != nil {
		return nil, dbError(err, "get_tags")
	}
	for i := range tags {
		t := &tags[i]
		set.Tags = append(set.Tags, TagAnnotation{
			ID:               t.ID,
			Tag:              t.Tag,
			ExternalTagID:    t.ExternalTagID,
			ModelID:          t.ModelID,
			Source:           sourceOf(t.Model),
			IsEditedManually: t.IsEditedManually,
			CreatedAt:        time.Unix(t.CreatedAt, 0),
		})
	}

	var captions []entities.Caption
	if err := db.Preload("Model").Where("image_id = ?", imageID).Order("id ASC").Find(&captions).Error; err != nil {
		return nil, dbError(err, "get_captions")
	}
	for i := range captions {
		c := &captions[i]
		set.Captions = append(set.Captions, CaptionAnnotation{
			ID:               c.ID,
			Caption:          c.Caption,
			ModelID:          c.ModelID,
			Source:           sourceOf(c.Model),
			IsEditedManually: c.IsEditedManually,
			CreatedAt:        time.Unix(c.CreatedAt, 0),
		})
	}

	var scores []entities.Score
	if err := db.Preload("Model").Where("image_id = ?", imageID).Order("id ASC").Find(&scores).Error; err != nil {
		return nil, dbError(err, "get_scores")
	}
	for i := range scores {
		s := &scores[i]
		set.Scores = append(set.Scores, ScoreAnnotation{
			ID:               s.ID,
			Score:            s.Score,
			ModelID:          s.ModelID,
			Source:           sourceOf(s.Model),
			IsEditedManually: s.IsEditedManually,
			CreatedAt:        time.Unix(s.CreatedAt, 0),
		})
	}

	ratings, err := r.loadRatings(db, imageID)
	if err != nil {
		return nil, err
	}
	for i := range ratings {
		rt := &ratings[i]
		set.Ratings = append(set.Ratings, RatingAnnotation{
			ID:         rt.ID,
			Rating:     rating.Rating(rt.NormalizedRating),
			Raw:        rt.RawRatingValue,
			Confidence: rt.ConfidenceScore,
			ModelID:    rt.ModelID,
			Source:     sourceOf(rt.Model),
			CreatedAt:  time.Unix(rt.CreatedAt, 0),
		})
	}
	return set, nil
}

func (r *imageRepository) loadRatings(db *gorm.DB, imageID uint) ([]entities.Rating, error) {
	var ratings []entities.Rating
	if err := db.Preload("Model").Where("image_id = ?", imageID).Order("id ASC").Find(&ratings).Error; err != nil {
		return nil, dbError(err, "get_ratings")
	}
	return ratings, nil
}

// FindTagID resolves text through the tag dictionary.
func (r *imageRepository) FindTagID(ctx context.Context, text string) tagdict.TagID {
	return r.resolver.Resolve(ctx, text)
}

// GetImageRating applies the manual-over-AI rule to the stored ratings.
// The latest manual row is the manual rating; each model votes with its
// latest row.
func (r *imageRepository) GetImageRating(ctx context.Context, imageID uint) (*rating.Resolution, error) {
	ratings, err := r.loadRatings(r.db.WithContext(ctx), imageID)
	if err != nil {
		return nil, err
	}

	manual := rating.Unrated
	latest := make(map[uint]rating.Rating)
	var order []uint
	for i := range ratings {
		rt := &ratings[i]
		value := rating.Rating(rt.NormalizedRating)
		if rt.IsManual() {
			manual = value
			continue
		}
		if _, seen := latest[*rt.ModelID]; !seen {
			order = append(order, *rt.ModelID)
		}
		latest[*rt.ModelID] = value
	}

	votes := make([]rating.Vote, 0, len(order))
	for _, id := range order {
		votes = append(votes, rating.Vote{ModelID: id, Rating: latest[id]})
	}

	res := rating.Resolve(manual, votes)
	return &res, nil
}
