// Package search provides the search command
package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/imagecurator/cmd/env"
	"github.com/tphakala/imagecurator/internal/datastore/query"
)

const dateLayout = "2006-01-02"

// flags mirrors query.Criteria in command line form
type flags struct {
	tags           []string
	all            bool
	caption        string
	resolution     int
	dateFrom       string
	dateTo         string
	manualRating   string
	aiRating       string
	excludeUnrated bool
	includeNSFW    bool
	aspect         string
	manualEdit     string
	limit          int
	offset         int
}

// Command creates the search command.
func Command(e *env.Env) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search images by tags, captions, ratings and dimensions",
		Long: `Search prints the ids of matching images and the total match count.
Tag and caption patterns accept * as a wildcard and match case-insensitively.
Images rated at or above the NSFW threshold are excluded unless --nsfw is
given or a rating filter is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := f.criteria(cmd)
			if err != nil {
				return err
			}

			c, err := e.Curator(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.SearchImages(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range res.IDs {
				fmt.Fprintln(out, id)
			}
			fmt.Fprintf(out, "\n%d of %d matches (offset %d, limit %d)\n", len(res.IDs), res.Total, res.Offset, res.Limit)
			return nil
		},
	}

	setupFlags(cmd, f)
	return cmd
}

func setupFlags(cmd *cobra.Command, f *flags) {
	cmd.Flags().StringSliceVarP(&f.tags, "tag", "t", nil, "Tag pattern, repeat or comma separate for several")
	cmd.Flags().BoolVar(&f.all, "all", false, "Require every tag pattern to match instead of any")
	cmd.Flags().StringVarP(&f.caption, "caption", "c", "", "Caption pattern")
	cmd.Flags().IntVar(&f.resolution, "resolution", 0, "Minimum resolution in pixels")
	cmd.Flags().StringVar(&f.dateFrom, "from", "", "Created on or after date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.dateTo, "to", "", "Created on or before date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.manualRating, "manual-rating", "", "Manual rating: PG, PG-13, R, X, XXX or UNRATED")
	cmd.Flags().StringVar(&f.aiRating, "ai-rating", "", "AI majority rating: PG, PG-13, R, X, XXX or UNRATED")
	cmd.Flags().BoolVar(&f.excludeUnrated, "exclude-unrated", false, "Exclude images without any rating")
	cmd.Flags().BoolVar(&f.includeNSFW, "nsfw", false, "Include images at or above the NSFW threshold")
	cmd.Flags().StringVar(&f.aspect, "aspect", "", "Aspect ratio: square, landscape_16_9, portrait_9_16, landscape_4_3, portrait_3_4")
	cmd.Flags().StringVar(&f.manualEdit, "manual-edit", "", "Only images with (true) or without (false) manual edits")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Page size, 0 uses the configured default")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "Number of matches to skip")
}

// criteria converts parsed flags; only flags the user set constrain the search.
func (f *flags) criteria(cmd *cobra.Command) (*query.Criteria, error) {
	c := &query.Criteria{
		UseAnd:       f.all,
		Caption:      f.caption,
		Resolution:   f.resolution,
		ManualRating: f.manualRating,
		AIRating:     f.aiRating,
		IncludeNSFW:  f.includeNSFW,
		AspectRatio:  query.AspectRatio(strings.ToLower(f.aspect)),
		Limit:        f.limit,
		Offset:       f.offset,
	}
	if cmd.Flags().Changed("tag") {
		c.Tags = f.tags
		if c.Tags == nil {
			c.Tags = []string{}
		}
	}
	if f.excludeUnrated {
		include := false
		c.IncludeUnrated = &include
	}

	var err error
	if c.DateFrom, err = parseDate(f.dateFrom, false); err != nil {
		return nil, err
	}
	if c.DateTo, err = parseDate(f.dateTo, true); err != nil {
		return nil, err
	}

	switch strings.ToLower(f.manualEdit) {
	case "":
	case "true", "yes":
		v := true
		c.ManualEdit = &v
	case "false", "no":
		v := false
		c.ManualEdit = &v
	default:
		return nil, fmt.Errorf("invalid --manual-edit value %q, expected true or false", f.manualEdit)
	}
	return c, nil
}

// parseDate reads a local calendar date. The upper bound covers the whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}
