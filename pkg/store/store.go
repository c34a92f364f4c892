// Package store loads question rows into a relational table.
//
// Every driver implements the same replace semantics: the questions table is
// emptied and refilled inside one transaction, so a failed load leaves the
// previous contents in place.
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/ccollicutt/kakomon/pkg/document"
	"github.com/ccollicutt/kakomon/pkg/transcript"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverDuckDB   = "duckdb"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown database driver")

// Row is one record of the questions table.
type Row struct {
	ID       int64
	Question string
	Type     string
	Options  []string
	Answer   string
}

// Sink is a destination table for question rows.
type Sink interface {
	// EnsureSchema creates the questions table if it does not exist.
	EnsureSchema(ctx context.Context) error

	// Replace empties the table and inserts rows in one transaction.
	// It returns the number of rows inserted. On error nothing is changed.
	Replace(ctx context.Context, rows []Row) (int, error)

	// Close releases the connection.
	Close() error
}

// Options describes how to reach the database.
type Options struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	// Path is the database file for sqlite and duckdb. Empty means in-memory.
	Path string
}

// Open connects to the database selected by opts.Driver.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(opts.Driver) {
	case DriverPostgres:
		return openPostgres(ctx, opts, logger)
	case DriverSQLite:
		return openSQLite(ctx, opts, logger)
	case DriverDuckDB:
		return openDuckDB(ctx, opts, logger)
	default:
		return nil, fmt.Errorf("%w %q (must be postgres, sqlite, or duckdb)", ErrUnknownDriver, opts.Driver)
	}
}

// RowsFromDocument maps document entries to table rows. Numbers written in
// full-width or other decimal digits are folded to their value. Entries whose
// number is not a non-negative integer are skipped with a warning.
func RowsFromDocument(doc *document.Document, logger *zap.Logger) []Row {
	if logger == nil {
		logger = zap.NewNop()
	}
	rows := make([]Row, 0, len(doc.Questions))
	for _, e := range doc.Questions {
		id, err := transcript.ParseNumber(e.QuestionNumber)
		if err != nil || id < 0 || id > math.MaxInt32 {
			logger.Warn("skipping question with invalid number",
				zap.String("question_number", e.QuestionNumber))
			continue
		}
		options := e.Options
		if options == nil {
			options = []string{}
		}
		rows = append(rows, Row{
			ID:       id,
			Question: e.QuestionText,
			Type:     e.QuestionType,
			Options:  options,
			Answer:   e.QuestionAnswer,
		})
	}
	return rows
}

func schemaFor(driver string) (string, error) {
	data, err := schemaFS.ReadFile("schema/" + driver + ".sql")
	if err != nil {
		return "", fmt.Errorf("read %s schema: %w", driver, err)
	}
	return string(data), nil
}
