package catalog

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/kakomon/pkg/transcript"
)

// Batch parses a set of transcript files into a single ordered question list.
type Batch struct {
	parser      *transcript.Parser
	classifier  *Classifier
	logger      *zap.Logger
	concurrency int
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithLogger sets the logger used to report per-file progress and failures.
func WithLogger(logger *zap.Logger) BatchOption {
	return func(b *Batch) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithConcurrency limits how many files are parsed at once.
// Values below 1 use GOMAXPROCS.
func WithConcurrency(n int) BatchOption {
	return func(b *Batch) {
		b.concurrency = n
	}
}

// WithClassifier overrides the default path classifier.
func WithClassifier(c *Classifier) BatchOption {
	return func(b *Batch) {
		if c != nil {
			b.classifier = c
		}
	}
}

// NewBatch creates a batch driver around a parser.
func NewBatch(parser *transcript.Parser, opts ...BatchOption) *Batch {
	b := &Batch{
		parser:     parser,
		classifier: DefaultClassifier(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.concurrency < 1 {
		b.concurrency = runtime.GOMAXPROCS(0)
	}
	return b
}

// FileFailure records a transcript that could not be read.
type FileFailure struct {
	Path string
	Err  error
}

// Result is the outcome of a batch run.
type Result struct {
	// Questions are tagged with their type and sorted by number.
	Questions []transcript.Question

	// Files lists every transcript that was attempted.
	Files []string

	// Failures lists transcripts that were skipped because of read errors.
	Failures []FileFailure

	StartTime time.Time
	EndTime   time.Time
}

// Run parses every file and returns the combined, sorted result.
// A file that cannot be read is logged and skipped; only cancellation of ctx
// aborts the run.
func (b *Batch) Run(ctx context.Context, files []string) (*Result, error) {
	result := &Result{
		Files:     files,
		StartTime: time.Now(),
	}

	perFile := make([][]transcript.Question, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			questions, err := b.parser.ParseFile(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				errs[i] = err
				return nil
			}
			typ := b.classifier.Classify(path)
			for j := range questions {
				questions[j].Type = typ
			}
			perFile[i] = questions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, path := range files {
		if errs[i] != nil {
			b.logger.Warn("skipping transcript", zap.String("path", path), zap.Error(errs[i]))
			result.Failures = append(result.Failures, FileFailure{Path: path, Err: errs[i]})
			continue
		}
		b.logger.Debug("parsed transcript",
			zap.String("path", path),
			zap.Int("questions", len(perFile[i])))
		result.Questions = append(result.Questions, perFile[i]...)
	}
	if result.Questions == nil {
		result.Questions = []transcript.Question{}
	}

	Sort(result.Questions)
	result.EndTime = time.Now()
	return result, nil
}

// TypeCount is the number of questions of one type.
type TypeCount struct {
	Type  string
	Count int
}

// CountByType returns question counts per type in first-seen order.
func (r *Result) CountByType() []TypeCount {
	index := make(map[string]int)
	var counts []TypeCount
	for _, q := range r.Questions {
		i, ok := index[q.Type]
		if !ok {
			i = len(counts)
			index[q.Type] = i
			counts = append(counts, TypeCount{Type: q.Type})
		}
		counts[i].Count++
	}
	return counts
}

// Answered returns how many questions have a non-empty answer.
func (r *Result) Answered() int {
	n := 0
	for _, q := range r.Questions {
		if q.Answer != "" {
			n++
		}
	}
	return n
}
