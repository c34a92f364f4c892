package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ccollicutt/kakomon/pkg/catalog"
	"github.com/ccollicutt/kakomon/pkg/store"
	"github.com/ccollicutt/kakomon/pkg/transcript"
)

// Default values for configuration.
const (
	DefaultTranscriptRoot = "texts"
	DefaultOutput         = "outputs/questions.json"
	DefaultDatabaseHost   = "it-passport-text2csv-db-1"
	DefaultWebhookTimeout = 10 * time.Second
)

// DefaultAnswerKey is the answer key location inside the default transcript root.
var DefaultAnswerKey = filepath.Join(DefaultTranscriptRoot, "answer.json")

// Environment variable names.
const (
	EnvPostgresHost     = "POSTGRES_HOST"
	EnvPostgresPort     = "POSTGRES_PORT"
	EnvPostgresDB       = "POSTGRES_DB"
	EnvPostgresUser     = "POSTGRES_USER"
	EnvPostgresPassword = "POSTGRES_PASSWORD"
	EnvDatabaseDriver   = "KAKOMON_DB_DRIVER"
	EnvDatabasePath     = "KAKOMON_DB_PATH"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Transcripts: TranscriptsConfig{
			Root:     DefaultTranscriptRoot,
			Patterns: append([]string(nil), transcript.DefaultPatterns...),
		},
		Convention: ConventionConfig{
			Name: transcript.ConventionBatch,
		},
		Types: TypesConfig{
			Keywords: append([]string(nil), catalog.DefaultKeywords...),
			Default:  catalog.UnknownType,
		},
		AnswerKey: DefaultAnswerKey,
		Output:    DefaultOutput,
		Database: DatabaseConfig{
			Driver: store.DriverPostgres,
			Host:   DefaultDatabaseHost,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv(EnvDatabaseDriver); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvPostgresHost); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv(EnvPostgresPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv(EnvPostgresDB); v != "" {
		c.Database.Name = v
	}
	if v := os.Getenv(EnvPostgresUser); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv(EnvPostgresPassword); v != "" {
		c.Database.Password = v
	}
}
