package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/kakomon/pkg/store"
	"github.com/ccollicutt/kakomon/pkg/transcript"
)

// Load reads and validates a configuration file. An empty path yields the
// defaults with environment overrides applied. Files ending in .toml are
// parsed as TOML, anything else as YAML.
func Load(_ context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if strings.EqualFold(filepath.Ext(path), ".toml") {
			err = toml.Unmarshal(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment. Variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// Validate checks a configuration for errors and resolves the transcript convention.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Transcripts.Root) == "" {
		return errors.New("transcripts.root is required")
	}

	for _, pattern := range cfg.Transcripts.Patterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("transcripts.patterns: invalid pattern %q: %w", pattern, err)
		}
	}

	if cfg.Transcripts.Concurrency < 0 {
		return errors.New("transcripts.concurrency must be >= 0")
	}

	conv, err := resolveConvention(cfg.Convention)
	if err != nil {
		return fmt.Errorf("convention: %w", err)
	}
	cfg.convention = conv

	if cfg.Output == "" {
		return errors.New("output is required")
	}

	if err := validateDatabase(&cfg.Database); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func resolveConvention(cc ConventionConfig) (transcript.Convention, error) {
	conv, err := transcript.ConventionByName(cc.Name)
	if err != nil {
		return transcript.Convention{}, err
	}

	if cc.MarkerWord != "" {
		conv.MarkerWord = cc.MarkerWord
	}
	if len(cc.Labels) > 0 {
		conv.Labels = append([]transcript.LabelRule(nil), cc.Labels...)
	}
	switch cc.Joiner {
	case "":
	case "space":
		conv.Joiner = " "
	case "newline":
		conv.Joiner = "\n"
	default:
		conv.Joiner = cc.Joiner
	}
	conv.Normalize = conv.Normalize || cc.Normalize

	if err := conv.Validate(); err != nil {
		return transcript.Convention{}, err
	}
	return conv, nil
}

func validateDatabase(db *DatabaseConfig) error {
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	switch db.Driver {
	case store.DriverPostgres:
		if db.Host == "" {
			return errors.New("host is required for postgres")
		}
	case store.DriverSQLite, store.DriverDuckDB:
	default:
		return fmt.Errorf("invalid driver %q (must be postgres, sqlite, or duckdb)", db.Driver)
	}

	if db.Port < 0 || db.Port > 65535 {
		return fmt.Errorf("invalid port %d", db.Port)
	}

	db.Password = expandEnvVar(db.Password)
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL format
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnFailures, WebhookTriggerAlways, WebhookTriggerNever:
		default:
			return fmt.Errorf("invalid trigger %q (must be on_failures, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnFailures
	}

	wh.timeout = DefaultWebhookTimeout
	if wh.Timeout != "" {
		d, err := time.ParseDuration(wh.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", wh.Timeout, err)
		}
		if d > 0 {
			wh.timeout = d
		}
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}

	// Handle $VAR format (no braces)
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		varName := s[1:]
		return os.Getenv(varName)
	}

	return s
}
