package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/imagecurator/internal/datastore/rating"
	"github.com/tphakala/imagecurator/internal/datastore/tagdict"
	"github.com/tphakala/imagecurator/internal/errors"
)

func tagTexts(set *AnnotationSet) []string {
	out := make([]string, 0, len(set.Tags))
	for _, t := range set.Tags {
		out = append(out, t.Tag)
	}
	return out
}

func TestSaveAnnotationsTagMergeIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	id := f.addImage(t, "fox", 512, 512)
	tagger := f.modelID(t, "wd-vit-tagger-v3")
	other := f.modelID(t, "wd-eva02-large-tagger-v3")

	payload := &Annotations{Tags: []string{"fox", "snow", "fox", " "}, ModelID: tagger}
	first := f.annotate(t, id, payload)
	assert.Equal(t, 2, first.TagsAdded)
	assert.Zero(t, first.TagsSkipped)

	second := f.annotate(t, id, payload)
	assert.Zero(t, second.TagsAdded)
	assert.Equal(t, 2, second.TagsSkipped)

	// Manual duplicates are caught even though the model id is NULL.
	f.annotate(t, id, &Annotations{Tags: []string{"fox"}})
	manualAgain := f.annotate(t, id, &Annotations{Tags: []string{"fox"}})
	assert.Zero(t, manualAgain.TagsAdded)
	assert.Equal(t, 1, manualAgain.TagsSkipped)

	// The same text from another producer is a distinct row.
	otherRes := f.annotate(t, id, &Annotations{Tags: []string{"fox"}, ModelID: other})
	assert.Equal(t, 1, otherRes.TagsAdded)

	set, err := f.repo.GetImageAnnotations(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"fox", "snow", "fox", "fox"}, tagTexts(set))

	sources := map[string]int{}
	for _, tg := range set.Tags {
		sources[tg.Source]++
	}
	assert.Equal(t, map[string]int{
		"wd-vit-tagger-v3":         2,
		ManualSource:               1,
		"wd-eva02-large-tagger-v3": 1,
	}, sources)
}

func TestSaveAnnotationsAppendsCaptionsScoresAndRatings(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	id := f.addImage(t, "harbor", 800, 600)
	captioner := f.modelID(t, "florence-2-large")
	scorer := f.modelID(t, "aesthetic-shadow-v2")

	f.annotate(t, id, &Annotations{Captions: []string{"boats in a harbor"}, ModelID: captioner})
	f.annotate(t, id, &Annotations{Captions: []string{"boats in a harbor"}, ModelID: captioner})
	f.annotate(t, id, &Annotations{Score: ptr(0.42), ModelID: scorer})
	f.clock.Advance(time.Minute)
	res := f.annotate(t, id, &Annotations{
		Captions:         []string{"fishing boats at dusk"},
		Score:            ptr(0.9),
		Rating:           ptr("  General "),
		RatingConfidence: ptr(0.97),
	})
	assert.Equal(t, SaveResult{Captions: 1, Scores: 1, Ratings: 1}, res)

	set, err := f.repo.GetImageAnnotations(ctx, id)
	require.NoError(t, err)

	require.Len(t, set.Captions, 3, "captions are never deduplicated")
	assert.Equal(t, "florence-2-large", set.Captions[0].Source)
	assert.False(t, set.Captions[0].IsEditedManually)
	assert.Equal(t, ManualSource, set.Captions[2].Source)
	assert.True(t, set.Captions[2].IsEditedManually)
	assert.Equal(t, f.clock.Now().Unix(), set.Captions[2].CreatedAt.Unix())

	require.Len(t, set.Scores, 2)
	assert.InDelta(t, 0.42, set.Scores[0].Score, 1e-9)
	assert.Equal(t, "aesthetic-shadow-v2", set.Scores[0].Source)

	require.Len(t, set.Ratings, 1)
	assert.Equal(t, rating.PG, set.Ratings[0].Rating)
	assert.Equal(t, "General", set.Ratings[0].Raw)
	require.NotNil(t, set.Ratings[0].Confidence)
	assert.InDelta(t, 0.97, *set.Ratings[0].Confidence, 1e-9)
	assert.Nil(t, set.Ratings[0].ModelID)
}

func TestSaveAnnotationsResolvesExternalTagIDs(t *testing.T) {
	t.Parallel()
	dict := tagdict.MapDictionary{"long hair": 15, "smile": 3}
	f := newFixture(t, WithTagResolver(tagdict.NewResolver(dict, 0, nil)))
	ctx := t.Context()

	id := f.addImage(t, "portrait", 512, 768)
	f.annotate(t, id, &Annotations{Tags: []string{"long_hair", "Smile", "unknown tag"}})

	set, err := f.repo.GetImageAnnotations(ctx, id)
	require.NoError(t, err)
	require.Len(t, set.Tags, 3)

	byText := map[string]*int64{}
	for _, tg := range set.Tags {
		byText[tg.Tag] = tg.ExternalTagID
	}
	require.NotNil(t, byText["long_hair"])
	assert.Equal(t, int64(15), *byText["long_hair"])
	require.NotNil(t, byText["Smile"])
	assert.Equal(t, int64(3), *byText["Smile"])
	assert.Nil(t, byText["unknown tag"])

	assert.Equal(t, tagdict.TagID(15), f.repo.FindTagID(ctx, "Long Hair"))
	assert.False(t, f.repo.FindTagID(ctx, "nope").Resolved())
}

func TestSaveAnnotationsWithoutDictionaryLeavesTagsUnresolved(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	id := f.addImage(t, "plain", 64, 64)
	f.annotate(t, id, &Annotations{Tags: []string{"sky"}})

	set, err := f.repo.GetImageAnnotations(t.Context(), id)
	require.NoError(t, err)
	require.Len(t, set.Tags, 1)
	assert.Nil(t, set.Tags[0].ExternalTagID)
}

func TestSaveAnnotationsRejectsInvalidPayloads(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	id := f.addImage(t, "target", 64, 64)

	_, err := f.repo.SaveAnnotations(ctx, id, &Annotations{Tags: []string{"kept?"}, Rating: ptr("PG-17")})
	require.ErrorIs(t, err, ErrInvalidRating)
	assert.True(t, errors.IsValidation(err))

	_, err = f.repo.SaveAnnotations(ctx, id, &Annotations{Rating: ptr("unrated")})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.repo.SaveAnnotations(ctx, 9999, &Annotations{Tags: []string{"x"}})
	require.ErrorIs(t, err, ErrImageNotFound)

	_, err = f.repo.SaveAnnotations(ctx, id, &Annotations{Tags: []string{"x"}, ModelID: ptr(uint(9999))})
	require.ErrorIs(t, err, ErrModelNotFound)

	set, err := f.repo.GetImageAnnotations(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, set.Tags, "rejected payloads must not write anything")
	assert.Empty(t, set.Ratings)

	res, err := f.repo.SaveAnnotations(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, SaveResult{}, res)
}

func TestGetImageAnnotationsForMissingImage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	set, err := f.repo.GetImageAnnotations(t.Context(), 31337)
	require.NoError(t, err)
	assert.NotNil(t, set.Tags)
	assert.NotNil(t, set.Captions)
	assert.NotNil(t, set.Scores)
	assert.NotNil(t, set.Ratings)
	assert.Empty(t, set.Tags)
}

func TestGetImageRating(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	m1 := f.modelID(t, "wd-vit-tagger-v3")
	m2 := f.modelID(t, "wd-eva02-large-tagger-v3")
	m3 := f.modelID(t, "gpt-4o")

	t.Run("unrated", func(t *testing.T) {
		id := f.addImage(t, "unrated", 10, 10)
		res, err := f.repo.GetImageRating(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, rating.Unrated, res.Effective)
		assert.Equal(t, rating.Unrated, res.Manual)
		assert.Equal(t, rating.Unrated, res.AI)
	})

	t.Run("majority of latest votes", func(t *testing.T) {
		id := f.addImage(t, "majority", 10, 10)
		f.annotate(t, id, &Annotations{Rating: ptr("explicit"), ModelID: m1})
		f.annotate(t, id, &Annotations{Rating: ptr("general"), ModelID: m1}) // supersedes explicit
		f.annotate(t, id, &Annotations{Rating: ptr("PG"), ModelID: m2})
		f.annotate(t, id, &Annotations{Rating: ptr("R"), ModelID: m3})

		res, err := f.repo.GetImageRating(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, rating.PG, res.AI)
		assert.Equal(t, rating.PG, res.Effective)
		assert.Equal(t, []rating.Tally{{Rating: rating.PG, Votes: 2}, {Rating: rating.R, Votes: 1}}, res.Tallies)
	})

	t.Run("tie goes to the more severe rating", func(t *testing.T) {
		id := f.addImage(t, "tie", 10, 10)
		f.annotate(t, id, &Annotations{Rating: ptr("PG"), ModelID: m1})
		f.annotate(t, id, &Annotations{Rating: ptr("X"), ModelID: m2})

		res, err := f.repo.GetImageRating(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, rating.X, res.AI)
	})

	t.Run("latest manual rating wins over AI", func(t *testing.T) {
		id := f.addImage(t, "manual", 10, 10)
		f.annotate(t, id, &Annotations{Rating: ptr("X"), ModelID: m1})
		f.annotate(t, id, &Annotations{Rating: ptr("R")})
		f.annotate(t, id, &Annotations{Rating: ptr("PG-13")})

		res, err := f.repo.GetImageRating(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, rating.PG13, res.Manual)
		assert.Equal(t, rating.X, res.AI)
		assert.Equal(t, rating.PG13, res.Effective)
	})
}
