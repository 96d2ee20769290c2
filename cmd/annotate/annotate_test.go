package annotate

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotationsFromFlags(t *testing.T) {
	t.Parallel()

	f := &flags{}
	cmd := &cobra.Command{Use: "annotate"}
	setupFlags(cmd, f)
	require.NoError(t, cmd.ParseFlags([]string{
		"-t", "cat,indoors", "-c", "a cat, sleeping", "--rating", "general", "--score", "6.5",
	}))

	a := f.annotations(cmd)
	assert.Equal(t, []string{"cat", "indoors"}, a.Tags)
	assert.Equal(t, []string{"a cat, sleeping"}, a.Captions, "captions keep their commas")
	require.NotNil(t, a.Rating)
	assert.Equal(t, "general", *a.Rating)
	require.NotNil(t, a.Score)
	assert.InDelta(t, 6.5, *a.Score, 1e-9)
	assert.Nil(t, a.RatingConfidence)
	assert.True(t, a.IsManual())
}

func TestAnnotationsOmitUnsetFields(t *testing.T) {
	t.Parallel()

	f := &flags{}
	cmd := &cobra.Command{Use: "annotate"}
	setupFlags(cmd, f)
	require.NoError(t, cmd.ParseFlags(nil))

	a := f.annotations(cmd)
	assert.Nil(t, a.Tags)
	assert.Nil(t, a.Captions)
	assert.Nil(t, a.Rating)
	assert.Nil(t, a.Score)
}

func TestParseImageID(t *testing.T) {
	t.Parallel()

	id, err := ParseImageID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		_, err := ParseImageID(bad)
		assert.Error(t, err, bad)
	}
}
