package output

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "kakomon: %d files, %d failed, %d questions, %d answered\n",
		report.Summary.Files,
		report.Summary.FailedFiles,
		report.Summary.Questions,
		report.Summary.Answered)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== kakomon Extract Report ===")
	fmt.Fprintln(w)

	if len(report.Summary.ByType) == 0 {
		fmt.Fprintln(w, "No questions found")
	} else {
		fmt.Fprintln(w, typeTable(report.Summary))
	}
	fmt.Fprintln(w)

	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "Skipped: %d file(s)\n", len(report.Failures))
		for _, failure := range report.Failures {
			if f.opts.Verbose {
				fmt.Fprintf(w, "  - %s: %s\n", failure.Path, failure.Error)
			} else {
				fmt.Fprintf(w, "  - %s\n", failure.Path)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d files, %d failed, %d questions, %d answered\n",
		report.Summary.Files,
		report.Summary.FailedFiles,
		report.Summary.Questions,
		report.Summary.Answered)

	if report.Metadata.Output != "" {
		fmt.Fprintf(w, "Output: %s\n", report.Metadata.Output)
	}

	if f.opts.Verbose {
		fmt.Fprintf(w, "Root: %s\n", report.Metadata.Root)
		if report.Metadata.RunID != "" {
			fmt.Fprintf(w, "Run: %s\n", report.Metadata.RunID)
		}
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

// typeTable renders per-type counts with a total footer.
func typeTable(s Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Type", "Questions"})
	for _, tc := range s.ByType {
		tw.AppendRow(table.Row{tc.Type, strconv.Itoa(tc.Count)})
	}
	tw.AppendFooter(table.Row{"Total", strconv.Itoa(s.Questions)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}
