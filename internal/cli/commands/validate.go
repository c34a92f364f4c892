package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/kakomon/pkg/transcript"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a configuration file",
		Long: `Validate a kakomon configuration file without parsing transcripts.

Checks:
  - YAML or TOML syntax
  - Transcript patterns and convention
  - Database driver and connection fields
  - Webhook definitions
  - Transcript root contents (warning only)`,
		Args: cobra.MaximumNArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	path := configPath(args)
	if path == "" {
		fmt.Fprintln(w, "Validating defaults...")
	} else {
		fmt.Fprintf(w, "Validating %s...\n", path)
	}

	cfg, err := loadConfig(ctx, path, nil)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	conv := cfg.TranscriptConvention()
	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Transcripts: %s %v\n", cfg.Transcripts.Root, cfg.Transcripts.Patterns)
	fmt.Fprintf(w, "  Convention:  %s (marker %q, %d label rule(s))\n", conv.Name, conv.MarkerWord, len(conv.Labels))
	fmt.Fprintf(w, "  Answer key:  %s\n", cfg.AnswerKey)
	fmt.Fprintf(w, "  Output:      %s\n", cfg.Output)
	fmt.Fprintf(w, "  Database:    %s\n", cfg.Database.Driver)
	fmt.Fprintf(w, "  Webhooks:    %d\n", len(cfg.Webhooks))

	// Check the transcript root (warnings only)
	files, err := transcript.Discover(cfg.Transcripts.Root, cfg.Transcripts.Patterns)
	if err != nil {
		fmt.Fprintf(w, "\nWarning: %v\n", err)
	} else if len(files) == 0 {
		fmt.Fprintf(w, "\nWarning: No transcripts match %v under %s\n", cfg.Transcripts.Patterns, cfg.Transcripts.Root)
	} else {
		fmt.Fprintf(w, "\nTranscripts matched: %d\n", len(files))
		for _, f := range files {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}

	return nil
}
