// Package image provides commands that inspect and manage single images
package image

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tphakala/imagecurator/cmd/annotate"
	"github.com/tphakala/imagecurator/cmd/env"
	"github.com/tphakala/imagecurator/internal/curator"
	"github.com/tphakala/imagecurator/internal/datastore/entities"
	"github.com/tphakala/imagecurator/internal/datastore/rating"
	"github.com/tphakala/imagecurator/internal/datastore/repository"
)

// Command creates the image command with show, render, delete, count and
// stats subcommands.
func Command(e *env.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Inspect and manage stored images",
	}
	cmd.AddCommand(showCommand(e), renderCommand(e), deleteCommand(e), countCommand(e), statsCommand(e))
	return cmd
}

func showCommand(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show [image-id]",
		Short: "Print metadata, renditions, annotations and the resolved rating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := annotate.ParseImageID(args[0])
			if err != nil {
				return err
			}

			c, err := e.Curator(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			img, err := c.GetImageMetadata(ctx, id)
			if err != nil {
				return err
			}
			if img == nil {
				return fmt.Errorf("image %d not found", id)
			}
			processed, err := c.GetProcessedImages(ctx, id)
			if err != nil {
				return err
			}
			set, err := c.GetImageAnnotations(ctx, id)
			if err != nil {
				return err
			}
			res, err := c.GetImageRating(ctx, id)
			if err != nil {
				return err
			}
			return printImage(cmd.OutOrStdout(), img, processed, set, res)
		},
	}
}

func printImage(out io.Writer, img *entities.Image, processed []entities.ProcessedImage, set *repository.AnnotationSet, res *rating.Resolution) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%d\n", img.ID)
	fmt.Fprintf(w, "uuid\t%s\n", img.UUID)
	fmt.Fprintf(w, "path\t%s\n", img.StoredImagePath)
	fmt.Fprintf(w, "size\t%dx%d\n", img.Width, img.Height)
	fmt.Fprintf(w, "format\t%s %s\n", img.Format, img.Mode)
	fmt.Fprintf(w, "color space\t%s\n", img.ColorSpace)
	fmt.Fprintf(w, "phash\t%s\n", img.PHash)

	for i := range processed {
		p := &processed[i]
		fmt.Fprintf(w, "rendition\t%dx%d\t%s\n", p.Width, p.Height, p.ProcessedImagePath)
	}
	for i := range set.Tags {
		tag := &set.Tags[i]
		fmt.Fprintf(w, "tag\t%s\t%s\n", tag.Tag, tag.Source)
	}
	for i := range set.Captions {
		caption := &set.Captions[i]
		fmt.Fprintf(w, "caption\t%s\t%s\n", caption.Caption, caption.Source)
	}
	for i := range set.Scores {
		score := &set.Scores[i]
		fmt.Fprintf(w, "score\t%.3f\t%s\n", score.Score, score.Source)
	}

	tallies := make([]string, 0, len(res.Tallies))
	for _, t := range res.Tallies {
		tallies = append(tallies, fmt.Sprintf("%s=%d", t.Rating, t.Votes))
	}
	fmt.Fprintf(w, "rating\t%s\tmanual %s, ai %s [%s]\n", res.Effective, res.Manual, res.AI, strings.Join(tallies, " "))
	return w.Flush()
}

func renderCommand(e *env.Env) *cobra.Command {
	var resolutions []int

	cmd := &cobra.Command{
		Use:   "render [image-id]",
		Short: "Render processed sizes of a stored image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := annotate.ParseImageID(args[0])
			if err != nil {
				return err
			}

			c, err := e.Curator(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if len(resolutions) == 0 {
				resolutions = c.Resolutions()
			}
			for _, res := range resolutions {
				processedID, err := c.RegisterProcessedImage(cmd.Context(), id, res)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\n", res, processedID)
			}
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&resolutions, "resolution", nil, "Long edge in pixels, defaults to the configured sizes")
	return cmd
}

func deleteCommand(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [image-id]",
		Short: "Delete an image and all of its annotations",
		Long:  "Delete removes the database records of an image. Files on disk are not touched.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := annotate.ParseImageID(args[0])
			if err != nil {
				return err
			}

			c, err := e.Curator(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			return c.DeleteImage(cmd.Context(), id)
		},
	}
}

func countCommand(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.Curator(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.GetTotalImageCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func statsCommand(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print row counts per table and originals per format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.Curator(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), stats)
		},
	}
}

func printStats(out io.Writer, s *curator.Stats) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "images\t%d\n", s.Images)
	fmt.Fprintf(w, "renditions\t%d\n", s.Renditions)
	fmt.Fprintf(w, "tags\t%d\n", s.Tags)
	fmt.Fprintf(w, "captions\t%d\n", s.Captions)
	fmt.Fprintf(w, "scores\t%d\n", s.Scores)
	fmt.Fprintf(w, "ratings\t%d\n", s.Ratings)
	for _, f := range s.Formats {
		fmt.Fprintf(w, "format %s\t%d\n", f.Format, f.Images)
	}
	return w.Flush()
}
