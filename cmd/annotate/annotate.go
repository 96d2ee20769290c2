// Package annotate provides the annotate command
package annotate

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tphakala/imagecurator/cmd/env"
	"github.com/tphakala/imagecurator/internal/datastore/repository"
)

type flags struct {
	tags       []string
	captions   []string
	rating     string
	confidence float64
	score      float64
	model      string
}

// Command creates the annotate command.
func Command(e *env.Env) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "annotate [image-id]",
		Short: "Add tags, captions, a score or a rating to an image",
		Long: `Annotate stores annotations for one image. Without --model the annotations
are recorded as manual edits and a manual rating overrides AI ratings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageID, err := ParseImageID(args[0])
			if err != nil {
				return err
			}

			c, err := e.Curator(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			payload := f.annotations(cmd)
			if f.model != "" {
				m, err := c.GetModelByName(cmd.Context(), f.model)
				if err != nil {
					return err
				}
				payload.ModelID = &m.ID
			}

			res, err := c.SaveAnnotations(cmd.Context(), imageID, payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tags added %d, skipped %d, captions %d, scores %d, ratings %d\n",
				res.TagsAdded, res.TagsSkipped, res.Captions, res.Scores, res.Ratings)
			return nil
		},
	}

	setupFlags(cmd, f)
	return cmd
}

func setupFlags(cmd *cobra.Command, f *flags) {
	cmd.Flags().StringSliceVarP(&f.tags, "tag", "t", nil, "Tag to add, repeat or comma separate for several")
	cmd.Flags().StringArrayVarP(&f.captions, "caption", "c", nil, "Caption to add, repeat for several")
	cmd.Flags().StringVarP(&f.rating, "rating", "r", "", "Content rating: PG, PG-13, R, X or XXX")
	cmd.Flags().Float64Var(&f.confidence, "confidence", 0, "Confidence of the rating")
	cmd.Flags().Float64Var(&f.score, "score", 0, "Aesthetic score")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Name of the model that produced the annotations")
}

// annotations builds the payload from flags the user set.
func (f *flags) annotations(cmd *cobra.Command) *repository.Annotations {
	a := &repository.Annotations{
		Tags:     f.tags,
		Captions: f.captions,
	}
	if cmd.Flags().Changed("rating") {
		a.Rating = &f.rating
	}
	if cmd.Flags().Changed("confidence") {
		a.RatingConfidence = &f.confidence
	}
	if cmd.Flags().Changed("score") {
		a.Score = &f.score
	}
	return a
}

// ParseImageID parses a positive image id argument.
func ParseImageID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid image id %q", arg)
	}
	return uint(id), nil
}
