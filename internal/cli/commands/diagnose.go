package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/kakomon/pkg/answerkey"
	"github.com/ccollicutt/kakomon/pkg/config"
	"github.com/ccollicutt/kakomon/pkg/store"
	"github.com/ccollicutt/kakomon/pkg/transcript"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
	SkipDB  bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(g *Globals) *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [config-file]",
		Short: "Diagnose common setup issues",
		Long: `Diagnose common setup issues.

This command checks the pieces a run depends on:
- Config file syntax and structure
- Transcript root and matched files
- Question markers in a sample transcript
- Answer key syntax
- Database connectivity
- Webhook configuration

Example:
  kakomon diagnose kakomon.yaml
  kakomon diagnose -v kakomon.yaml  # verbose output`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDiagnose(ctx, cmd.OutOrStdout(), g, configPath(args), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")
	cmd.Flags().BoolVar(&opts.SkipDB, "skip-db", false, "Do not try to connect to the database")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, g *Globals, path string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	// 1. Check config file existence
	if path != "" {
		result := checkConfigExists(path)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			return nil
		}
	}

	// 2. Parse config file
	cfg, result := checkConfigParseable(ctx, path)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 3. Check transcripts
	files, result := checkTranscripts(cfg)
	results = append(results, result)

	// 4. Check that a sample transcript has question markers
	if len(files) > 0 {
		results = append(results, checkSampleTranscript(ctx, cfg, files[0]))
	}

	// 5. Check answer key
	results = append(results, checkAnswerKey(ctx, cfg))

	// 6. Check database
	if !opts.SkipDB {
		results = append(results, checkDatabase(ctx, g, cfg))
	}

	// 7. Check webhooks configuration
	results = append(results, checkWebhooks(cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Omit the argument to run with built-in defaults",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		if strings.Contains(err.Error(), "yaml") || strings.Contains(err.Error(), "toml") {
			result.Suggests = []string{
				"Check syntax - YAML needs spaces, not tabs, for indentation",
				"Files ending in .toml are read as TOML, anything else as YAML",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	if path == "" {
		result.Message = "Using built-in defaults"
	} else {
		result.Message = "Config file parsed successfully"
	}
	result.Details = []string{
		fmt.Sprintf("Convention: %s", cfg.TranscriptConvention().Name),
		fmt.Sprintf("Database driver: %s", cfg.Database.Driver),
	}
	return cfg, result
}

func checkTranscripts(cfg *config.Config) ([]string, DiagnosticResult) {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Transcripts: %s", cfg.Transcripts.Root),
	}

	files, err := transcript.Discover(cfg.Transcripts.Root, cfg.Transcripts.Patterns)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		result.Suggests = []string{
			"Set transcripts.root in the config or pass --root to extract",
		}
		return nil, result
	}

	if len(files) == 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("No files match %v", cfg.Transcripts.Patterns)
		result.Suggests = []string{
			"Check transcripts.patterns; they match file names, not paths",
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d file(s) matched", len(files))
	result.Details = files
	return files, result
}

func checkSampleTranscript(ctx context.Context, cfg *config.Config, path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Question Markers",
	}

	parser, err := transcript.NewParser(cfg.TranscriptConvention())
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		return result
	}

	questions, err := parser.ParseFile(ctx, path)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot read sample: %v", err)
		return result
	}

	conv := cfg.TranscriptConvention()
	if len(questions) == 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("No questions found in %s", path)
		result.Suggests = []string{
			fmt.Sprintf("Questions must start with %q followed by digits and a space", conv.MarkerWord),
			"Set convention.normalize if the transcript uses half-width kana labels",
		}
		return result
	}

	withChoices := 0
	for _, q := range questions {
		if len(q.Choices) > 0 {
			withChoices++
		}
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d question(s) in %s", len(questions), path)
	result.Details = []string{
		fmt.Sprintf("With choices: %d", withChoices),
		fmt.Sprintf("First: %s%s %s", conv.MarkerWord, questions[0].Number, truncate(questions[0].Text, 40)),
	}
	if withChoices == 0 {
		result.Status = "warning"
		result.Suggests = []string{
			"Choice lines need a label followed by whitespace, with two or more spaces between choices",
		}
	}
	return result
}

func checkAnswerKey(ctx context.Context, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Answer Key: %s", cfg.AnswerKey),
	}

	key, found, err := answerkey.LoadOptional(ctx, cfg.AnswerKey)
	switch {
	case err != nil:
		result.Status = "error"
		result.Message = err.Error()
		result.Suggests = []string{
			`The key must be a JSON array of {"question_number": "...", "question_answer": "..."}`,
		}
	case !found:
		result.Status = "warning"
		result.Message = "Not found; answers will be empty"
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d answer(s)", len(key))
	}
	return result
}

func checkDatabase(ctx context.Context, g *Globals, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Database: %s", cfg.Database.Driver),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sink, err := store.Open(ctx, cfg.Database.StoreOptions(), g.Logger())
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		if cfg.Database.Driver == store.DriverPostgres {
			result.Suggests = []string{
				"Check POSTGRES_HOST, POSTGRES_DB, POSTGRES_USER and POSTGRES_PASSWORD",
				"Put them in .env or pass --env-file",
			}
		}
		return result
	}
	_ = sink.Close()

	result.Status = "ok"
	result.Message = "Connected"
	if cfg.Database.Driver == store.DriverPostgres {
		result.Details = []string{fmt.Sprintf("Host: %s", cfg.Database.Host)}
	} else if cfg.Database.Path != "" {
		result.Details = []string{fmt.Sprintf("Path: %s", cfg.Database.Path)}
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== kakomon Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		// Status icon
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running extract or load.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nSetup is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nSetup looks good!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:  fmt.Sprintf("Webhook: %s", name),
			Status: "ok",
		}
		result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)

		// Config validation already expanded the token; an empty one from a
		// ${VAR} reference means the variable is unset.
		if wh.Token == "" {
			result.Details = append(result.Details, "Token: not configured")
		} else {
			result.Details = append(result.Details, "Token: configured")
		}
		result.Details = append(result.Details, fmt.Sprintf("Timeout: %s", wh.TimeoutDuration()))

		if opts.Verbose {
			conn := checkWebhookConnectivity(wh)
			if conn.Status != "ok" {
				result.Status = conn.Status
				result.Suggests = conn.Suggests
			}
			result.Details = append(result.Details, conn.Message)
		}

		results = append(results, result)
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	// Just do a HEAD request to check if the endpoint is reachable
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
