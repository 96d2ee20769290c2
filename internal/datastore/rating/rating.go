// Package rating implements the content-rating vocabulary and the rules that
// turn manual and AI-produced rating rows into one effective rating.
//
// The vocabulary is ordered by severity: PG < PG-13 < R < X < XXX. UNRATED is
// a filter sentinel meaning "no rating rows of the relevant kind" and never
// appears in stored rows.
package rating

import (
	"fmt"
	"strings"

	"github.com/tphakala/imagecurator/internal/errors"
)

// Rating is a normalized content rating
type Rating string

const (
	PG      Rating = "PG"
	PG13    Rating = "PG-13"
	R       Rating = "R"
	X       Rating = "X"
	XXX     Rating = "XXX"
	Unrated Rating = "UNRATED"
)

// DefaultNSFWThreshold is the lowest rating excluded from searches unless
// NSFW content is explicitly requested.
const DefaultNSFWThreshold = R

// ErrInvalidRating is returned for values outside the vocabulary
var ErrInvalidRating = errors.NewStd("invalid rating value")

// vocabulary lists ratings from least to most severe
var vocabulary = []Rating{PG, PG13, R, X, XXX}

// aliases maps tagger output labels onto the vocabulary
var aliases = map[string]Rating{
	"general":      PG,
	"safe":         PG,
	"sensitive":    PG13,
	"pg13":         PG13,
	"pg_13":        PG13,
	"questionable": R,
	"explicit":     X,
}

// All returns the vocabulary in ascending severity
func All() []Rating {
	out := make([]Rating, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// Normalize maps a raw rating string onto the vocabulary. Matching is
// case-insensitive and accepts common tagger aliases. "UNRATED" normalizes to
// the Unrated sentinel; callers storing ratings must reject it.
func Normalize(raw string) (Rating, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", invalid(raw)
	}
	if key == "unrated" {
		return Unrated, nil
	}
	for _, r := range vocabulary {
		if strings.ToLower(string(r)) == key {
			return r, nil
		}
	}
	if r, ok := aliases[key]; ok {
		return r, nil
	}
	return "", invalid(raw)
}

func invalid(raw string) error {
	return errors.New(fmt.Errorf("%w: %q", ErrInvalidRating, raw)).
		Component("rating").
		Category(errors.CategoryValidation).
		Context("value", raw).
		Build()
}

// Severity returns the 1-based position of r in the vocabulary, 0 for
// Unrated or unknown values.
func Severity(r Rating) int {
	for i, v := range vocabulary {
		if v == r {
			return i + 1
		}
	}
	return 0
}

// IsNSFW reports whether r is at or above threshold
func IsNSFW(r, threshold Rating) bool {
	s := Severity(r)
	return s > 0 && s >= Severity(threshold)
}

// Valid reports whether r is a storable rating
func (r Rating) Valid() bool {
	return Severity(r) > 0
}

// String implements fmt.Stringer
func (r Rating) String() string {
	return string(r)
}
