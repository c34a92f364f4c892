package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// LoadOptions holds command-line options for the load command.
type LoadOptions struct {
	Document    string
	CreateTable bool
}

// NewLoadCommand creates the load command.
func NewLoadCommand(g *Globals) *cobra.Command {
	opts := &LoadOptions{}

	cmd := &cobra.Command{
		Use:   "load [config-file]",
		Short: "Load the question document into the database",
		Long: `Replace the contents of the questions table with the question document.

The table is emptied and every row inserted in one transaction; on any
error nothing is changed. A document without questions is not loaded. Connection settings come from the config file,
.env and the POSTGRES_* environment variables.

sqlite and duckdb tables are created when missing. The postgres table is
expected to exist unless --create-table is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := loadConfig(ctx, configPath(args), &ExtractOptions{Document: opts.Document})
			if err != nil {
				return err
			}

			n, loaded, err := load(ctx, g, cfg, opts.CreateTable)
			if err != nil {
				return err
			}
			if !loaded {
				fmt.Fprintf(cmd.OutOrStdout(), "No questions in %s; %s table left unchanged\n", cfg.Output, cfg.Database.Driver)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d question(s) into %s\n", n, cfg.Database.Driver)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Document, "document", "", "Question document path (overrides config)")
	cmd.Flags().BoolVar(&opts.CreateTable, "create-table", false, "Create the questions table if it does not exist")

	return cmd
}
