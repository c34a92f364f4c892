package commands

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ccollicutt/kakomon/internal/logging"
	"github.com/ccollicutt/kakomon/pkg/config"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// Globals holds the persistent flags shared by every command and the
// logger built from them.
type Globals struct {
	LogLevel  string
	LogFormat string
	EnvFile   string

	logger *zap.Logger
	runID  string
}

// Setup loads the env file and builds the run logger.
func (g *Globals) Setup(stderr io.Writer) error {
	if err := config.LoadEnvFile(g.EnvFile); err != nil {
		return err
	}

	base, err := logging.New(logging.Options{
		Level:  g.LogLevel,
		Format: g.LogFormat,
		Writer: stderr,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	g.logger, g.runID = logging.WithRunID(base)
	return nil
}

// Logger returns the run logger, or a no-op logger before Setup.
func (g *Globals) Logger() *zap.Logger {
	if g == nil || g.logger == nil {
		return zap.NewNop()
	}
	return g.logger
}

// RunID returns the identifier attached to every log line of this run.
func (g *Globals) RunID() string {
	if g == nil {
		return ""
	}
	return g.runID
}

// Sync flushes buffered log entries.
func (g *Globals) Sync() {
	if g != nil && g.logger != nil {
		_ = g.logger.Sync()
	}
}

// configPath returns the optional config file argument.
func configPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
