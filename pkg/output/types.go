// Package output provides formatting and output generation for run reports.
package output

import (
	"time"

	"github.com/ccollicutt/kakomon/pkg/catalog"
)

// Report is the complete outcome of an extract run.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Failures lists transcripts that were skipped.
	Failures []Failure `json:"failures,omitempty"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// Files is the number of transcripts attempted.
	Files int `json:"files"`

	// FailedFiles is the number of transcripts that could not be read.
	FailedFiles int `json:"failed_files"`

	// Questions is the number of questions extracted.
	Questions int `json:"questions"`

	// Answered is the number of questions with an answer from the key.
	Answered int `json:"answered"`

	// ByType counts questions per type in first-seen order.
	ByType []TypeCount `json:"by_type"`
}

// TypeCount is the number of questions of one type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Failure is a transcript that was skipped.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Metadata provides context about the run.
type Metadata struct {
	// RunID correlates the report with log lines.
	RunID string `json:"run_id,omitempty"`

	// ConfigFile is the path to the configuration file used.
	ConfigFile string `json:"config_file,omitempty"`

	// Root is the scanned transcript directory.
	Root string `json:"root"`

	// Output is the written document path.
	Output string `json:"output"`

	// StartedAt is when parsing began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long parsing took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from a batch result.
func NewReport(result *catalog.Result, meta Metadata) *Report {
	report := &Report{
		Summary: Summary{
			Files:       len(result.Files),
			FailedFiles: len(result.Failures),
			Questions:   len(result.Questions),
			Answered:    result.Answered(),
			ByType:      []TypeCount{},
		},
		Metadata: meta,
	}

	for _, tc := range result.CountByType() {
		report.Summary.ByType = append(report.Summary.ByType, TypeCount{Type: tc.Type, Count: tc.Count})
	}
	for _, f := range result.Failures {
		report.Failures = append(report.Failures, Failure{Path: f.Path, Error: f.Err.Error()})
	}

	report.Metadata.StartedAt = result.StartTime
	report.Metadata.Duration = result.EndTime.Sub(result.StartTime)

	return report
}

// HasFailures returns true if any transcript was skipped.
func (r *Report) HasFailures() bool {
	return r.Summary.FailedFiles > 0
}
