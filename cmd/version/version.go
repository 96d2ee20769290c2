// Package version provides the version command
package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tphakala/imagecurator/internal/buildinfo"
)

// Command creates the version command.
func Command(info buildinfo.BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "imagecurator %s (revision %s, built %s, %s)\n",
				info.GetVersion(), info.GetRevision(), info.GetBuildDate(), runtime.Version())
			return nil
		},
	}
}
