package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: FormatJSON, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("hidden")
	logger.Info("parsed transcript")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "parsed transcript" {
		t.Errorf("msg = %v, want parsed transcript", entry["msg"])
	}
}

func TestNew_AutoWithoutTerminalIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hello")

	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("auto format on a buffer = %q, want JSON", buf.String())
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: FormatConsole, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("details")

	out := buf.String()
	if strings.HasPrefix(out, "{") || !strings.Contains(out, "details") {
		t.Errorf("console output = %q", out)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"level", Options{Level: "loud"}},
		{"format", Options{Format: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Writer = &bytes.Buffer{}
			if _, err := New(tt.opts); err == nil {
				t.Error("New() expected error")
			}
		})
	}
}

func TestWithRunID(t *testing.T) {
	var buf bytes.Buffer
	base, err := New(Options{Format: FormatJSON, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger, id := WithRunID(base)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("run id %q is not a UUID: %v", id, err)
	}

	logger.Info("start")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["run_id"] != id {
		t.Errorf("run_id = %v, want %s", entry["run_id"], id)
	}
}
