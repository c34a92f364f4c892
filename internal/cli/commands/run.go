package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand(g *Globals) *cobra.Command {
	opts := &ExtractOptions{}
	var createTable bool

	cmd := &cobra.Command{
		Use:   "run [config-file]",
		Short: "Extract questions and load them into the database",
		Long: `Run extract followed by load with the same configuration.

The load step only starts once the document has been written. When no
questions were extracted the database is left unchanged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := loadConfig(ctx, configPath(args), opts)
			if err != nil {
				return err
			}
			formatter, err := createFormatter(opts)
			if err != nil {
				return err
			}

			report, err := extract(ctx, g, cfg, configPath(args))
			if err != nil {
				return err
			}
			if err := finishReport(ctx, cmd.OutOrStdout(), g, cfg, opts, formatter, report); err != nil {
				return err
			}

			if report.Summary.Questions == 0 {
				g.Logger().Warn("no questions extracted, skipping load")
				if !opts.Quiet && opts.Output != "json" {
					fmt.Fprintf(cmd.OutOrStdout(), "No questions extracted; %s table left unchanged\n", cfg.Database.Driver)
				}
				return nil
			}

			n, _, err := load(ctx, g, cfg, createTable)
			if err != nil {
				return err
			}
			if !opts.Quiet && opts.Output != "json" {
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d question(s) into %s\n", n, cfg.Database.Driver)
			}
			return nil
		},
	}

	addExtractFlags(cmd, opts)
	cmd.Flags().BoolVar(&createTable, "create-table", false, "Create the questions table if it does not exist")

	return cmd
}
