// Package config provides configuration loading and validation for kakomon.
package config

import (
	"time"

	"github.com/ccollicutt/kakomon/pkg/store"
	"github.com/ccollicutt/kakomon/pkg/transcript"
)

// Config is the root configuration structure loaded from YAML or TOML.
type Config struct {
	Transcripts TranscriptsConfig `yaml:"transcripts" toml:"transcripts"`
	Convention  ConventionConfig  `yaml:"convention" toml:"convention"`
	Types       TypesConfig       `yaml:"types" toml:"types"`
	AnswerKey   string            `yaml:"answer_key" toml:"answer_key"`
	Output      string            `yaml:"output" toml:"output"`
	Database    DatabaseConfig    `yaml:"database" toml:"database"`
	Webhooks    []WebhookConfig   `yaml:"webhooks,omitempty" toml:"webhooks,omitempty"`

	// convention is the resolved transcript convention (populated during validation).
	convention transcript.Convention
}

// TranscriptConvention returns the resolved convention.
func (c *Config) TranscriptConvention() transcript.Convention {
	return c.convention
}

// TranscriptsConfig defines where transcripts are found.
type TranscriptsConfig struct {
	// Root is scanned recursively.
	Root string `yaml:"root" toml:"root"`

	// Patterns are matched against file base names.
	Patterns []string `yaml:"patterns,omitempty" toml:"patterns,omitempty"`

	// Concurrency limits parallel parsing. Zero uses GOMAXPROCS.
	Concurrency int `yaml:"concurrency,omitempty" toml:"concurrency,omitempty"`
}

// ConventionConfig selects and optionally customizes the transcript layout.
type ConventionConfig struct {
	// Name is a predefined convention (batch or inline) used as the base.
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`

	// MarkerWord overrides the word that opens a question.
	MarkerWord string `yaml:"marker_word,omitempty" toml:"marker_word,omitempty"`

	// Labels replaces the base label table when non-empty.
	Labels []transcript.LabelRule `yaml:"labels,omitempty" toml:"labels,omitempty"`

	// Joiner is "space", "newline", or a literal separator.
	Joiner string `yaml:"joiner,omitempty" toml:"joiner,omitempty"`

	// Normalize enables NFKC normalization of lines.
	Normalize bool `yaml:"normalize,omitempty" toml:"normalize,omitempty"`
}

// TypesConfig defines how source paths map to question types.
type TypesConfig struct {
	Keywords []string `yaml:"keywords" toml:"keywords"`
	Default  string   `yaml:"default" toml:"default"`
}

// DatabaseConfig defines the storage sink.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" toml:"driver"` // postgres, sqlite, duckdb
	Host     string `yaml:"host,omitempty" toml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty" toml:"port,omitempty"`
	Name     string `yaml:"name,omitempty" toml:"name,omitempty"`
	User     string `yaml:"user,omitempty" toml:"user,omitempty"`
	Password string `yaml:"password,omitempty" toml:"password,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty" toml:"sslmode,omitempty"`
	Path     string `yaml:"path,omitempty" toml:"path,omitempty"` // sqlite/duckdb file
}

// StoreOptions converts the database section into store options.
func (d DatabaseConfig) StoreOptions() store.Options {
	return store.Options{
		Driver:   d.Driver,
		Host:     d.Host,
		Port:     d.Port,
		Name:     d.Name,
		User:     d.User,
		Password: d.Password,
		SSLMode:  d.SSLMode,
		Path:     d.Path,
	}
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnFailures fires only when some transcripts failed to load (default).
	WebhookTriggerOnFailures WebhookTrigger = "on_failures"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending run reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url" toml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty" toml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_failures" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty" toml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout as a Go duration string.
	// Defaults to 10s if not specified.
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`

	// timeout is the parsed Timeout (populated during validation).
	timeout time.Duration
}

// TimeoutDuration returns the parsed request timeout.
func (w *WebhookConfig) TimeoutDuration() time.Duration {
	return w.timeout
}
