package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ccollicutt/kakomon/pkg/answerkey"
	"github.com/ccollicutt/kakomon/pkg/catalog"
	"github.com/ccollicutt/kakomon/pkg/config"
	"github.com/ccollicutt/kakomon/pkg/document"
	"github.com/ccollicutt/kakomon/pkg/output"
	"github.com/ccollicutt/kakomon/pkg/store"
	"github.com/ccollicutt/kakomon/pkg/transcript"
)

// extract discovers and parses every transcript under the configured root,
// merges answers and writes the question document. When nothing was
// extracted the previous document is left in place.
func extract(ctx context.Context, g *Globals, cfg *config.Config, cfgPath string) (*output.Report, error) {
	logger := g.Logger()

	files, err := transcript.Discover(cfg.Transcripts.Root, cfg.Transcripts.Patterns)
	if err != nil {
		return nil, fmt.Errorf("discovering transcripts: %w", err)
	}
	if len(files) == 0 {
		logger.Warn("no transcripts found",
			zap.String("root", cfg.Transcripts.Root),
			zap.Strings("patterns", cfg.Transcripts.Patterns))
	}

	parser, err := transcript.NewParser(cfg.TranscriptConvention())
	if err != nil {
		return nil, err
	}

	key, found, err := answerkey.LoadOptional(ctx, cfg.AnswerKey)
	if err != nil {
		return nil, fmt.Errorf("loading answer key: %w", err)
	}
	if !found {
		logger.Warn("answer key not found, answers left empty", zap.String("path", cfg.AnswerKey))
	} else {
		logger.Debug("loaded answer key", zap.String("path", cfg.AnswerKey), zap.Int("entries", len(key)))
	}

	batch := catalog.NewBatch(parser,
		catalog.WithLogger(logger),
		catalog.WithConcurrency(cfg.Transcripts.Concurrency),
		catalog.WithClassifier(catalog.NewClassifier(cfg.Types.Keywords, cfg.Types.Default)),
	)
	result, err := batch.Run(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("parsing transcripts: %w", err)
	}
	catalog.Merge(result.Questions, key)

	report := output.NewReport(result, output.Metadata{
		RunID:      g.RunID(),
		ConfigFile: cfgPath,
		Root:       cfg.Transcripts.Root,
		Output:     cfg.Output,
	})

	if len(result.Questions) == 0 {
		logger.Warn("no questions extracted, document not written",
			zap.String("path", cfg.Output),
			zap.Int("skipped_files", len(result.Failures)))
		return report, nil
	}

	if err := document.Write(cfg.Output, document.FromQuestions(result.Questions)); err != nil {
		return nil, fmt.Errorf("writing document: %w", err)
	}
	logger.Info("wrote document",
		zap.String("path", cfg.Output),
		zap.Int("questions", len(result.Questions)),
		zap.Int("skipped_files", len(result.Failures)))

	return report, nil
}

// load replaces the contents of the questions table with the document.
// A document without questions leaves the table untouched and reports
// loaded as false.
func load(ctx context.Context, g *Globals, cfg *config.Config, createTable bool) (n int, loaded bool, err error) {
	logger := g.Logger()

	doc, err := document.Read(cfg.Output)
	switch {
	case errors.Is(err, document.ErrNoQuestions):
		logger.Warn("document has no questions, table left unchanged", zap.String("path", cfg.Output))
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("reading document: %w", err)
	}
	rows := store.RowsFromDocument(doc, logger)

	sink, err := store.Open(ctx, cfg.Database.StoreOptions(), logger)
	if err != nil {
		return 0, false, fmt.Errorf("connecting to database: %w", err)
	}
	defer sink.Close()

	// The postgres table is owned by the deployment unless asked otherwise.
	if createTable || cfg.Database.Driver != store.DriverPostgres {
		if err := sink.EnsureSchema(ctx); err != nil {
			return 0, false, fmt.Errorf("creating questions table: %w", err)
		}
	}

	n, err = sink.Replace(ctx, rows)
	if err != nil {
		return 0, false, fmt.Errorf("loading questions: %w", err)
	}
	logger.Info("loaded questions",
		zap.String("driver", cfg.Database.Driver),
		zap.Int("rows", n))
	return n, true, nil
}
