package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/kakomon/pkg/document"
	"github.com/ccollicutt/kakomon/pkg/transcript"
)

// ParseOptions holds command-line options for the parse command.
type ParseOptions struct {
	Convention string
	Normalize  bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse transcripts and print the questions as JSON",
		Long: `Parse one or more transcript files and print the questions in document
form, without types, answers or sorting. Glob patterns are expanded.

Useful for checking how a transcript is split before running extract.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Convention, "convention", transcript.ConventionBatch, "Transcript convention (batch|inline)")
	cmd.Flags().BoolVar(&opts.Normalize, "normalize", false, "Apply NFKC normalization to each line")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	conv, err := transcript.ConventionByName(opts.Convention)
	if err != nil {
		return err
	}
	conv.Normalize = conv.Normalize || opts.Normalize

	parser, err := transcript.NewParser(conv)
	if err != nil {
		return err
	}

	files, err := transcript.ExpandGlobs(args)
	if err != nil {
		return fmt.Errorf("expanding files: %w", err)
	}

	questions := []transcript.Question{}
	for _, path := range files {
		parsed, err := parser.ParseFile(ctx, path)
		if err != nil {
			return err
		}
		questions = append(questions, parsed...)
	}

	return document.Encode(cmd.OutOrStdout(), document.FromQuestions(questions))
}
