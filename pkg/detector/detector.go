// Package detector suggests a transcript convention for a sample transcript.
package detector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ccollicutt/kakomon/pkg/transcript"
)

// DetectionResult holds the result of analyzing a transcript.
type DetectionResult struct {
	Matches       []ConventionMatch // Conventions that found questions, best first
	SampledLines  int               // Number of non-blank lines sampled
	AmbiguityNote string            // Warning about the best match if applicable
}

// ConventionMatch is one candidate's view of the sample.
type ConventionMatch struct {
	Candidate Candidate

	// Confidence is the share of sampled lines that are markers, choices or sub-items.
	Confidence float64

	Markers      int
	ChoiceLines  int
	SubItemLines int
	Questions    int // Questions the parser produced from the sample

	SampleLine string // First marker line
}

// Detector analyzes transcripts to identify their convention.
type Detector struct {
	candidates []Candidate
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 500).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithCandidates replaces the default candidate list.
func WithCandidates(c []Candidate) Option {
	return func(d *Detector) {
		if len(c) > 0 {
			d.candidates = c
		}
	}
}

// New creates a new Detector with the default candidates.
func New(opts ...Option) *Detector {
	d := &Detector{
		candidates: DefaultCandidates(),
		sampleSize: 500,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile analyzes a transcript file and returns the ranked conventions.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines)
}

// DetectFromLines analyzes a slice of transcript lines.
func (d *Detector) DetectFromLines(lines []string) (*DetectionResult, error) {
	result := &DetectionResult{}
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			result.SampledLines++
		}
	}
	if result.SampledLines == 0 {
		return result, nil
	}

	text := strings.Join(lines, "\n")
	for _, c := range d.candidates {
		parser, err := transcript.NewParser(c.Convention)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.Name, err)
		}

		m := ConventionMatch{Candidate: c}
		for _, line := range lines {
			switch parser.Classify(line) {
			case transcript.LineMarker:
				m.Markers++
				if m.SampleLine == "" {
					m.SampleLine = strings.TrimSpace(line)
				}
			case transcript.LineChoice:
				m.ChoiceLines++
			case transcript.LineSubItem:
				m.SubItemLines++
			}
		}
		if m.Markers == 0 {
			continue
		}
		m.Questions = len(parser.Parse(text))
		m.Confidence = float64(m.Markers+m.ChoiceLines+m.SubItemLines) / float64(result.SampledLines)
		result.Matches = append(result.Matches, m)
	}

	// More questions first, then more structure; candidates keep their order on ties.
	sort.SliceStable(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.Questions != b.Questions {
			return a.Questions > b.Questions
		}
		return a.Confidence > b.Confidence
	})

	if best := result.BestMatch(); best != nil && best.SubItemLines > 0 {
		result.AmbiguityNote = fmt.Sprintf(
			"%d lettered line(s) were treated as sub-items. "+
				"If they are wrapped body text, use the batch convention instead.",
			best.SubItemLines)
	}

	return result, nil
}

// sampleFile reads up to sampleSize lines from a file.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() && len(lines) < d.sampleSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines = append(lines, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// BestMatch returns the highest ranked match, or nil if none found.
func (r *DetectionResult) BestMatch() *ConventionMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one convention found questions.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}
