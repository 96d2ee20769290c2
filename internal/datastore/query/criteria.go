package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/tphakala/imagecurator/internal/datastore/rating"
	"github.com/tphakala/imagecurator/internal/errors"
)

// ErrEmptyTagList is returned when Tags is non-nil but empty. Callers treat
// it as "no results" rather than "match everything".
var ErrEmptyTagList = errors.NewStd("empty tag list")

// ErrInvalidCriteria is returned for malformed criteria values
var ErrInvalidCriteria = errors.NewStd("invalid search criteria")

// AspectRatio names a supported aspect-ratio filter
type AspectRatio string

const (
	AspectSquare       AspectRatio = "square"
	AspectLandscape169 AspectRatio = "landscape_16_9"
	AspectPortrait916  AspectRatio = "portrait_9_16"
	AspectLandscape43  AspectRatio = "landscape_4_3"
	AspectPortrait34   AspectRatio = "portrait_3_4"
)

// aspectRatios maps names to width/height ratios
var aspectRatios = map[AspectRatio]float64{
	AspectSquare:       1.0,
	AspectLandscape169: 16.0 / 9.0,
	AspectPortrait916:  9.0 / 16.0,
	AspectLandscape43:  4.0 / 3.0,
	AspectPortrait34:   3.0 / 4.0,
}

// aspectTolerance is the allowed absolute difference in width/height ratio
const aspectTolerance = 0.1

// Criteria describes an image search. Zero values mean "no constraint",
// except where noted.
type Criteria struct {
	// Tags holds tag patterns. nil means no tag constraint; a non-nil empty
	// slice is a caller error and yields no results.
	Tags   []string
	UseAnd bool // all tag patterns must match; otherwise any

	Caption string // caption pattern, empty means no constraint

	Resolution int // minimum processed edge in pixels, 0 disables

	DateFrom *time.Time // inclusive lower bound on created_at
	DateTo   *time.Time // inclusive upper bound on created_at

	// ManualRating takes precedence: when set, AIRating is ignored.
	ManualRating string
	AIRating     string

	// IncludeUnrated controls images without any rating row when no rating
	// filter is given. nil means true.
	IncludeUnrated *bool
	// IncludeNSFW disables the default exclusion of images rated at or
	// above the NSFW threshold.
	IncludeNSFW bool

	AspectRatio AspectRatio
	// ManualEdit keeps images with (true) or without (false) manually
	// edited tags or captions. nil means no constraint.
	ManualEdit *bool

	Limit  int
	Offset int
}

// Options carries store-wide defaults for compilation
type Options struct {
	NSFWThreshold   rating.Rating
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultOptions returns the defaults used when no configuration is given
func DefaultOptions() Options {
	return Options{
		NSFWThreshold:   rating.DefaultNSFWThreshold,
		DefaultPageSize: 100,
		MaxPageSize:     1000,
	}
}

// Plan is a compiled search: one query for the id page and one for the total
// count, both over the same predicate.
type Plan struct {
	Where     Expr
	PageSQL   string
	PageArgs  []any
	CountSQL  string
	CountArgs []any
	Limit     int
	Offset    int
}

// Compile turns criteria into a Plan
func Compile(c *Criteria, opts Options) (*Plan, error) {
	if c == nil {
		c = &Criteria{}
	}
	opts = withDefaults(opts)

	where, err := Predicate(c, opts)
	if err != nil {
		return nil, err
	}

	limit := c.Limit
	if limit <= 0 {
		limit = opts.DefaultPageSize
	}
	limit = min(limit, opts.MaxPageSize)
	offset := max(c.Offset, 0)

	whereSQL, whereArgs := Render(where)

	plan := &Plan{
		Where:     where,
		PageSQL:   "SELECT images.id FROM images WHERE " + whereSQL + " ORDER BY images.id ASC LIMIT ? OFFSET ?",
		CountSQL:  "SELECT COUNT(*) FROM images WHERE " + whereSQL,
		CountArgs: whereArgs,
		Limit:     limit,
		Offset:    offset,
	}
	plan.PageArgs = append(append(make([]any, 0, len(whereArgs)+2), whereArgs...), limit, offset)
	return plan, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if !opts.NSFWThreshold.Valid() {
		opts.NSFWThreshold = def.NSFWThreshold
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = def.DefaultPageSize
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = max(def.MaxPageSize, opts.DefaultPageSize)
	}
	return opts
}

// Predicate builds the WHERE expression for c
func Predicate(c *Criteria, opts Options) (Expr, error) {
	if c.Tags != nil && len(c.Tags) == 0 {
		return nil, ErrEmptyTagList
	}
	if !opts.NSFWThreshold.Valid() {
		opts.NSFWThreshold = rating.DefaultNSFWThreshold
	}

	parts := make([]Expr, 0, 8)

	if c.Tags != nil {
		parts = append(parts, tagsExpr(c.Tags, c.UseAnd))
	}
	if strings.TrimSpace(c.Caption) != "" {
		parts = append(parts, captionExpr(c.Caption))
	}
	if c.Resolution < 0 {
		return nil, invalidCriteria("resolution", c.Resolution)
	}
	if c.Resolution > 0 {
		area := int64(c.Resolution) * int64(c.Resolution)
		parts = append(parts, Exists("processed_images", "p",
			Raw("p.image_id = images.id AND p.width * p.height >= ?", area)))
	}
	if c.DateFrom != nil {
		parts = append(parts, Compare("images.created_at", Gte, c.DateFrom.Unix()))
	}
	if c.DateTo != nil {
		parts = append(parts, Compare("images.created_at", Lte, c.DateTo.Unix()))
	}

	if c.AspectRatio != "" {
		ratio, ok := aspectRatios[c.AspectRatio]
		if !ok {
			return nil, invalidCriteria("aspect_ratio", c.AspectRatio)
		}
		parts = append(parts, Raw("images.height > 0 AND ABS(images.width * 1.0 / images.height - ?) <= ?", ratio, aspectTolerance))
	}

	if c.ManualEdit != nil {
		edited := Or(
			Exists("tags", "et", Raw("et.image_id = images.id AND et.is_edited_manually = ?", true)),
			Exists("captions", "ec", Raw("ec.image_id = images.id AND ec.is_edited_manually = ?", true)),
		)
		if *c.ManualEdit {
			parts = append(parts, edited)
		} else {
			parts = append(parts, Not(edited))
		}
	}

	ratingParts, err := ratingExpr(c, opts.NSFWThreshold)
	if err != nil {
		return nil, err
	}
	parts = append(parts, ratingParts...)

	return And(parts...), nil
}

func tagsExpr(tags []string, useAnd bool) Expr {
	perTag := make([]Expr, 0, len(tags))
	for _, t := range tags {
		perTag = append(perTag, Exists("tags", "t",
			And(Raw("t.image_id = images.id"), Like("t.tag_folded", ParsePattern(t)))))
	}
	if useAnd {
		return And(perTag...)
	}
	return Or(perTag...)
}

func captionExpr(caption string) Expr {
	return Exists("captions", "c",
		And(Raw("c.image_id = images.id"), Like("c.caption_folded", ParsePattern(caption))))
}

// ratingExpr applies manual-over-AI priority, the unrated toggle and the
// NSFW safety default.
func ratingExpr(c *Criteria, threshold rating.Rating) ([]Expr, error) {
	var parts []Expr
	var applied rating.Rating

	switch {
	case strings.TrimSpace(c.ManualRating) != "":
		r, err := rating.Normalize(c.ManualRating)
		if err != nil {
			return nil, err
		}
		applied = r
		parts = append(parts, ManualRatingIs(r))
	case strings.TrimSpace(c.AIRating) != "":
		r, err := rating.Normalize(c.AIRating)
		if err != nil {
			return nil, err
		}
		applied = r
		parts = append(parts, AIRatingIs(r))
	default:
		if c.IncludeUnrated != nil && !*c.IncludeUnrated {
			parts = append(parts, Or(HasManualRating(), HasAIRating()))
		}
	}

	// An explicit request for NSFW content overrides the safety default. The
	// UNRATED sentinel selects an exact set of images, so it does too.
	explicit := applied == rating.Unrated || (applied != "" && rating.IsNSFW(applied, threshold))
	if !c.IncludeNSFW && !explicit {
		parts = append(parts, BelowThreshold(threshold))
	}
	return parts, nil
}

func invalidCriteria(field string, value any) error {
	return errors.New(fmt.Errorf("%w: %s=%v", ErrInvalidCriteria, field, value)).
		Component("query").
		Category(errors.CategoryValidation).
		Context("field", field).
		Build()
}
