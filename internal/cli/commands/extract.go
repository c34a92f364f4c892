package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/kakomon/pkg/config"
	"github.com/ccollicutt/kakomon/pkg/output"
	"github.com/ccollicutt/kakomon/pkg/webhook"
)

// ExtractOptions holds command-line options for the extract and run commands.
type ExtractOptions struct {
	Output   string
	Root     string
	Document string
	Verbose  bool
	Quiet    bool
	Strict   bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(g *Globals) *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [config-file]",
		Short: "Parse transcripts into a question document",
		Long: `Parse every transcript under the configured root, merge the answer key
and write the question document.

Files that cannot be read are logged and skipped. A missing answer key
leaves answers empty; a malformed one is an error.

Exit codes:
  0 - Document written
  1 - Document written but transcripts were skipped (with --strict)
  2 - Configuration or runtime error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, g, opts)
		},
	}

	addExtractFlags(cmd, opts)
	return cmd
}

func addExtractFlags(cmd *cobra.Command, opts *ExtractOptions) {
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Report format (text|json)")
	cmd.Flags().StringVar(&opts.Root, "root", "", "Transcript directory (overrides config)")
	cmd.Flags().StringVar(&opts.Document, "document", "", "Question document path (overrides config)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show failure details and run metadata")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Exit 1 when any transcript was skipped")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnFailures), "When to fire webhook (on_failures|always|never)")
}

func runExtract(cmd *cobra.Command, args []string, g *Globals, opts *ExtractOptions) error {
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

	return finishReport(ctx, cmd.OutOrStdout(), g, cfg, opts, formatter, report)
}

// loadConfig loads the configuration and applies command-line overrides.
func loadConfig(ctx context.Context, path string, opts *ExtractOptions) (*config.Config, error) {
	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts == nil {
		return cfg, nil
	}
	if opts.Root != "" {
		cfg.Transcripts.Root = opts.Root
	}
	if opts.Document != "" {
		cfg.Output = opts.Document
	}

	if opts.WebhookURL != "" {
		cfg.Webhooks = append(cfg.Webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: config.WebhookTrigger(opts.WebhookTrigger),
		})
	}

	// Re-validate so overrides get the same checks and defaults as the file.
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// finishReport prints the report, fires webhooks and sets the exit code.
func finishReport(ctx context.Context, w io.Writer, g *Globals, cfg *config.Config, opts *ExtractOptions, formatter output.Formatter, report *output.Report) error {
	if err := formatter.Format(ctx, report, w); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Send webhooks (errors logged but don't fail the run)
	if len(cfg.Webhooks) > 0 {
		webhook.NewClient().Notify(ctx, g.Logger(), cfg.Webhooks, report)
	}

	if opts.Strict && report.HasFailures() {
		ExitCode = 1
	}
	return nil
}

func createFormatter(opts *ExtractOptions) (output.Formatter, error) {
	return output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
}
