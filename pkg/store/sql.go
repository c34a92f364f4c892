package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// dialect captures the per-driver statements of a database/sql backed sink.
type dialect struct {
	name     string
	truncate []string
	insert   string
}

var sqliteDialect = dialect{
	name:     DriverSQLite,
	truncate: []string{`DELETE FROM questions`},
	insert:   `INSERT INTO questions (id, question, type, options, answer) VALUES (?, ?, ?, ?, ?)`,
}

var duckdbDialect = dialect{
	name:     DriverDuckDB,
	truncate: []string{`TRUNCATE questions`},
	insert: `INSERT INTO questions (id, question, type, options, answer)
        VALUES (?, ?, ?, from_json(CAST(? AS VARCHAR), '["VARCHAR"]'), ?)`,
}

// sqlSink implements Sink over database/sql for the embedded engines.
type sqlSink struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

func openSQLite(ctx context.Context, opts Options, logger *zap.Logger) (Sink, error) {
	path := opts.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps an in-memory database alive across statements.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	sink, err := newSQLSink(ctx, db, sqliteDialect, logger)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

func openDuckDB(ctx context.Context, opts Options, logger *zap.Logger) (Sink, error) {
	db, err := sql.Open("duckdb", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1)
	sink, err := newSQLSink(ctx, db, duckdbDialect, logger)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

func newSQLSink(ctx context.Context, db *sql.DB, d dialect, logger *zap.Logger) (*sqlSink, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", d.name, err)
	}
	logger.Info("connected to database", zap.String("driver", d.name))
	return &sqlSink{db: db, dialect: d, logger: logger}, nil
}

// DB exposes the underlying handle for inspection.
func (s *sqlSink) DB() *sql.DB {
	return s.db
}

func (s *sqlSink) EnsureSchema(ctx context.Context) error {
	ddl, err := schemaFor(s.dialect.name)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *sqlSink) Replace(ctx context.Context, rows []Row) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range s.dialect.truncate {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("clear questions: %w", err)
		}
	}
	s.logger.Info("cleared existing questions")

	insert, err := tx.PrepareContext(ctx, s.dialect.insert)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	inserted := 0
	for _, row := range rows {
		options, err := json.Marshal(row.Options)
		if err != nil {
			return 0, fmt.Errorf("encode options for question %d: %w", row.ID, err)
		}
		if _, err := insert.ExecContext(ctx, row.ID, row.Question, row.Type, string(options), row.Answer); err != nil {
			s.logger.Error("insert failed", zap.Int64("id", row.ID), zap.Error(err))
			return 0, fmt.Errorf("insert question %d: %w", row.ID, err)
		}
		inserted++
		s.logger.Debug("inserted question", zap.Int64("id", row.ID))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("inserted questions", zap.Int("count", inserted))
	return inserted, nil
}

func (s *sqlSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
