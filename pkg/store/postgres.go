package store

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// DefaultPostgresPort is used when Options.Port is zero.
const DefaultPostgresPort = 5432

// postgresSink writes rows with pgx, sending options as a native text[].
type postgresSink struct {
	conn   *pgx.Conn
	logger *zap.Logger
}

// PostgresURL builds a connection URL from opts.
func PostgresURL(opts Options) string {
	port := opts.Port
	if port == 0 {
		port = DefaultPostgresPort
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(opts.Host, strconv.Itoa(port)),
		Path:   "/" + opts.Name,
	}
	if opts.User != "" {
		if opts.Password != "" {
			u.User = url.UserPassword(opts.User, opts.Password)
		} else {
			u.User = url.User(opts.User)
		}
	}
	if opts.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{opts.SSLMode}}.Encode()
	}
	return u.String()
}

func openPostgres(ctx context.Context, opts Options, logger *zap.Logger) (Sink, error) {
	conn, err := pgx.Connect(ctx, PostgresURL(opts))
	if err != nil {
		return nil, fmt.Errorf("connect postgres %s/%s: %w", opts.Host, opts.Name, err)
	}
	logger.Info("connected to database",
		zap.String("driver", DriverPostgres),
		zap.String("host", opts.Host),
		zap.String("database", opts.Name))
	return &postgresSink{conn: conn, logger: logger}, nil
}

func (s *postgresSink) EnsureSchema(ctx context.Context) error {
	ddl, err := schemaFor(DriverPostgres)
	if err != nil {
		return err
	}
	if _, err := s.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *postgresSink) Replace(ctx context.Context, rows []Row) (int, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE TABLE questions RESTART IDENTITY`); err != nil {
		return 0, fmt.Errorf("truncate questions: %w", err)
	}
	s.logger.Info("cleared existing questions")

	const insert = `INSERT INTO questions (id, question, type, options, answer) VALUES ($1, $2, $3, $4, $5)`
	inserted := 0
	for _, row := range rows {
		if _, err := tx.Exec(ctx, insert, row.ID, row.Question, row.Type, row.Options, row.Answer); err != nil {
			s.logger.Error("insert failed", zap.Int64("id", row.ID), zap.Error(err))
			return 0, fmt.Errorf("insert question %d: %w", row.ID, err)
		}
		inserted++
		s.logger.Debug("inserted question", zap.Int64("id", row.ID))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("inserted questions", zap.Int("count", inserted))
	return inserted, nil
}

func (s *postgresSink) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close(context.Background())
}
