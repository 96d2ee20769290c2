// Package register provides the register command
package register

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/imagecurator/cmd/env"
	"github.com/tphakala/imagecurator/internal/curator"
)

// imageExtensions are the file types picked up when walking directories
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp", ".gif", ".tif", ".tiff"}

// Command creates the register command.
func Command(e *env.Env) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "register [paths...]",
		Short: "Register original images and render processed sizes",
		Long: `Register inspects each image, stores its metadata and perceptual hash, and
renders the configured target resolutions for images not seen before.
Directories are expanded to the image files they contain.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expand(args, recursive)
			if err != nil {
				return err
			}

			c, err := e.Curator(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			results, err := c.RegisterBatch(cmd.Context(), paths)
			out := cmd.OutOrStdout()
			for i := range results {
				r := &results[i]
				switch {
				case r.Err != nil:
					fmt.Fprintf(out, "FAIL  %s: %v\n", r.Path, r.Err)
				case r.Created:
					fmt.Fprintf(out, "NEW   %s (id %d, %d renditions)\n", r.Path, r.ImageID, len(r.Processed))
				default:
					fmt.Fprintf(out, "DUP   %s (id %d)\n", r.Path, r.ImageID)
				}
			}
			s := curator.Summarize(results)
			fmt.Fprintf(out, "\n%d registered, %d duplicates, %d failed\n", s.Created, s.Duplicates, s.Failed)
			return err
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Recursively register subdirectories")
	return cmd
}

// expand replaces directory arguments with the image files inside them.
func expand(args []string, recursive bool) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// Missing files are reported per file by the batch.
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(path))) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
	}
	return paths, nil
}
