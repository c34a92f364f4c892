package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/kakomon/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <transcript>",
		Short: "Detect the convention of a transcript",
		Long: `Analyze a transcript to suggest which convention parses it best.

Samples lines from the file and runs every predefined convention over
them, with and without NFKC normalization. Reports the best convention
with the questions it finds and provides a ready-to-use YAML snippet.

Optionally generates a starter config file with --write-config.

Example:
  kakomon detect texts/strategy/r05.txt
  kakomon detect --sample 2000 texts/strategy/r05.txt
  kakomon detect -w kakomon.yaml texts/strategy/r05.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 500, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all matching conventions, not just the best one")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	path := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("transcript not found: %s", path)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))
	result, err := d.DetectFromFile(ctx, path)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(w, result, path, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(w, result, path, opts)
	default:
		return outputDetectText(w, result, path, opts)
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, path string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Transcript Convention Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", path)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No question markers detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: Questions must start with the marker word directly followed by digits and a space.")
		fmt.Fprintln(w, "Set convention.marker_word if the transcript uses a different word.")
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Convention: %s\n", best.Candidate.Name)
	fmt.Fprintf(w, "  %s\n", best.Candidate.Description)
	fmt.Fprintf(w, "Questions: %d (%d choice line(s), %d sub-item line(s))\n",
		best.Questions, best.ChoiceLines, best.SubItemLines)
	fmt.Fprintf(w, "Confidence: %.1f%% of lines are structural\n", best.Confidence*100)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample match:\n  %s\n", best.SampleLine)
	fmt.Fprintln(w)

	if result.AmbiguityNote != "" {
		fmt.Fprintf(w, "Note: %s\n", result.AmbiguityNote)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "--- Configuration snippet (copy to your config file) ---")
	fmt.Fprintln(w)
	fmt.Fprint(w, conventionSnippet(best))
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Alternative conventions detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%d questions, %.1f%% structural)\n",
				i+2, m.Candidate.Name, m.Questions, m.Confidence*100)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// JSONMatch represents a convention match in JSON output.
type JSONMatch struct {
	Name         string  `json:"name"`
	Convention   string  `json:"convention"`
	Normalize    bool    `json:"normalize"`
	Confidence   float64 `json:"confidence"`
	Questions    int     `json:"questions"`
	Markers      int     `json:"markers"`
	ChoiceLines  int     `json:"choice_lines"`
	SubItemLines int     `json:"sub_item_lines"`
	SampleLine   string  `json:"sample_line"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File          string      `json:"file"`
	Matches       []JSONMatch `json:"matches"`
	SampledLines  int         `json:"sampled_lines"`
	AmbiguityNote string      `json:"ambiguity_note,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, path string, opts *DetectOptions) error {
	out := JSONOutput{
		File:          path,
		SampledLines:  result.SampledLines,
		AmbiguityNote: result.AmbiguityNote,
		Matches:       make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1] // Only show best match
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Name:         m.Candidate.Name,
			Convention:   m.Candidate.Convention.Name,
			Normalize:    m.Candidate.Convention.Normalize,
			Confidence:   m.Confidence,
			Questions:    m.Questions,
			Markers:      m.Markers,
			ChoiceLines:  m.ChoiceLines,
			SubItemLines: m.SubItemLines,
			SampleLine:   m.SampleLine,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(out)
}

func conventionSnippet(m *detector.ConventionMatch) string {
	s := fmt.Sprintf("convention:\n  name: %s\n", m.Candidate.Convention.Name)
	if m.Candidate.Convention.Normalize {
		s += "  normalize: true\n"
	}
	return s
}

// writeStarterConfig generates a starter config file with the detected convention.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, path, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.HasMatch() {
		return fmt.Errorf("cannot generate config: no question markers detected")
	}

	content := generateStarterConfig(path, result.BestMatch())

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template rooted at the
// transcript's directory.
func generateStarterConfig(path string, m *detector.ConventionMatch) string {
	root := filepath.Dir(path)
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	return fmt.Sprintf(`# kakomon Configuration
# Generated by: kakomon detect
# Detected convention: %s (%d questions in sample)

transcripts:
  root: %q
  patterns: ["*.txt"]

%s
types:
  keywords: [management, strategy, technology]
  default: unknown

answer_key: %q
output: outputs/questions.json

database:
  driver: postgres
  # Host, name, user and password come from POSTGRES_* or .env.
  # For a local file instead:
  # driver: sqlite
  # path: questions.db

# webhooks:
#   - name: chat
#     url: https://example.com/hook
#     trigger: on_failures
`, m.Candidate.Name, m.Questions,
		root,
		conventionSnippet(m),
		filepath.Join(root, "answer.json"))
}
