// Package cli provides the command-line interface for kakomon.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/kakomon/internal/cli/commands"
	"github.com/ccollicutt/kakomon/internal/logging"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	g := &commands.Globals{}

	rootCmd := &cobra.Command{
		Use:   "kakomon",
		Short: "Turn exam transcripts into a questions table",
		Long: `kakomon is a batch tool that converts plain-text exam transcripts into
structured questions.

It:
  - Finds numbered questions and their choices in each transcript
  - Tags questions with a type derived from the transcript path
  - Merges answers from an answer key
  - Writes a JSON question document
  - Replaces the contents of a questions table (postgres, sqlite or duckdb)

Run "kakomon run" to do everything, or "extract" and "load" separately.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.Setup(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			g.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&g.LogFormat, "log-format", logging.FormatAuto, "Log format (auto|console|json)")
	rootCmd.PersistentFlags().StringVar(&g.EnvFile, "env-file", ".env", "Dotenv file with database credentials")

	// Add subcommands
	rootCmd.AddCommand(commands.NewExtractCommand(g))
	rootCmd.AddCommand(commands.NewLoadCommand(g))
	rootCmd.AddCommand(commands.NewRunCommand(g))
	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand(g))
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
