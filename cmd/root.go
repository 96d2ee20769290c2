// Package cmd assembles the imagecurator command line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/imagecurator/cmd/annotate"
	"github.com/tphakala/imagecurator/cmd/config"
	"github.com/tphakala/imagecurator/cmd/env"
	"github.com/tphakala/imagecurator/cmd/image"
	"github.com/tphakala/imagecurator/cmd/models"
	"github.com/tphakala/imagecurator/cmd/register"
	"github.com/tphakala/imagecurator/cmd/search"
	"github.com/tphakala/imagecurator/cmd/version"
	"github.com/tphakala/imagecurator/internal/buildinfo"
)

// RootCommand creates and returns the root command
func RootCommand(e *env.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "imagecurator",
		Short:         "Image metadata store and search for dataset curation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, e)

	configCmd := config.Command(e)
	versionCmd := version.Command(buildinfo.Current())
	subcommands := []*cobra.Command{
		register.Command(e),
		search.Command(e),
		annotate.Command(e),
		image.Command(e),
		models.Command(e),
		configCmd,
		versionCmd,
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// config init must work before any config file exists
		if cmd == versionCmd || (cmd.Parent() == configCmd && cmd.Name() == "init") {
			return nil
		}
		return e.Initialize()
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return e.Finish()
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, e *env.Env) {
	rootCmd.PersistentFlags().StringVar(&e.ConfigPath, "config", "", "Path to config file, defaults to ./config.yaml or ~/.config/imagecurator/config.yaml")
	rootCmd.PersistentFlags().StringVar(&e.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().BoolVarP(&e.Debug, "debug", "d", false, "Enable debug output")
}
