package search

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/imagecurator/internal/datastore/query"
)

func parse(t *testing.T, args ...string) (*query.Criteria, error) {
	t.Helper()
	f := &flags{}
	cmd := &cobra.Command{Use: "search"}
	setupFlags(cmd, f)
	require.NoError(t, cmd.ParseFlags(args))
	return f.criteria(cmd)
}

func TestCriteriaFromFlags(t *testing.T) {
	t.Parallel()

	c, err := parse(t, "--tag", "cat*,dog", "--all", "--caption", "*sleep*",
		"--from", "2024-01-02", "--to", "2024-01-03", "--manual-rating", "pg-13",
		"--exclude-unrated", "--aspect", "Square", "--manual-edit", "false", "--limit", "5")
	require.NoError(t, err)

	assert.Equal(t, []string{"cat*", "dog"}, c.Tags)
	assert.True(t, c.UseAnd)
	assert.Equal(t, "*sleep*", c.Caption)
	assert.Equal(t, "pg-13", c.ManualRating)
	assert.Equal(t, query.AspectSquare, c.AspectRatio)
	require.NotNil(t, c.IncludeUnrated)
	assert.False(t, *c.IncludeUnrated)
	require.NotNil(t, c.ManualEdit)
	assert.False(t, *c.ManualEdit)
	assert.Equal(t, 5, c.Limit)

	require.NotNil(t, c.DateFrom)
	require.NotNil(t, c.DateTo)
	assert.True(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local).Equal(*c.DateFrom))
	assert.True(t, time.Date(2024, 1, 3, 23, 59, 59, 0, time.Local).Equal(*c.DateTo), "the upper bound covers the whole day")
}

func TestCriteriaDefaultsLeaveFiltersUnset(t *testing.T) {
	t.Parallel()

	c, err := parse(t)
	require.NoError(t, err)
	assert.Nil(t, c.Tags)
	assert.Nil(t, c.IncludeUnrated)
	assert.Nil(t, c.ManualEdit)
	assert.Nil(t, c.DateFrom)
	assert.False(t, c.IncludeNSFW)
}

func TestCriteriaRejectsBadValues(t *testing.T) {
	t.Parallel()

	_, err := parse(t, "--from", "02/01/2024")
	require.Error(t, err)

	_, err = parse(t, "--manual-edit", "maybe")
	require.Error(t, err)
}
