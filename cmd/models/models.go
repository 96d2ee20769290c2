// Package models provides the models command
package models

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/imagecurator/cmd/env"
	"github.com/tphakala/imagecurator/internal/curator"
	"github.com/tphakala/imagecurator/internal/datastore/entities"
	"github.com/tphakala/imagecurator/internal/datastore/repository"
)

// Command creates the models command with its list, add and discontinue
// subcommands.
func Command(e *env.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List and manage annotation models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return list(cmd, e)
		},
	}

	cmd.AddCommand(listCommand(e), addCommand(e), discontinueCommand(e))
	return cmd
}

func listCommand(e *env.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available models grouped by capability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return list(cmd, e)
		},
	}
}

func list(cmd *cobra.Command, e *env.Env) error {
	c, err := e.Curator(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()

	catalog, err := c.GetModels(cmd.Context())
	if err != nil {
		return err
	}
	return printCatalog(cmd.OutOrStdout(), catalog)
}

// printCatalog writes one section per capability in display order.
func printCatalog(out io.Writer, catalog curator.ModelCatalog) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, capability := range entities.ModelTypeNames {
		fmt.Fprintf(w, "%s\n", strings.ToUpper(capability))
		models := catalog[capability]
		if len(models) == 0 {
			fmt.Fprintf(w, "  (none)\n")
		}
		for _, m := range models {
			location := "api"
			if m.IsLocal {
				location = "local"
			}
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", m.ID, m.Name, m.Provider, location)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func addCommand(e *env.Env) *cobra.Command {
	spec := &repository.ModelSpec{}

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Register a model, or print it when the name is already known",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.Name = args[0]

			c, err := e.Curator(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			m, err := c.RegisterModel(cmd.Context(), spec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", m.ID, m.Name)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&spec.Types, "type", nil, "Capability: "+strings.Join(entities.ModelTypeNames, ", "))
	cmd.Flags().StringVar(&spec.Provider, "provider", "", "Model provider")
	cmd.Flags().StringVar(&spec.APIModelID, "api-model-id", "", "Provider side model identifier")
	cmd.Flags().BoolVar(&spec.RequiresAPIKey, "requires-api-key", false, "Model needs an API key")
	cmd.Flags().BoolVar(&spec.IsLocal, "local", false, "Model runs locally")
	return cmd
}

func discontinueCommand(e *env.Env) *cobra.Command {
	var restore bool

	cmd := &cobra.Command{
		Use:   "discontinue [name]",
		Short: "Hide a model from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.Curator(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			m, err := c.GetModelByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var at *int64
			if !restore {
				now := time.Now().Unix()
				at = &now
			}
			return c.DiscontinueModel(cmd.Context(), m.ID, at)
		},
	}

	cmd.Flags().BoolVar(&restore, "restore", false, "Make a discontinued model available again")
	return cmd
}
