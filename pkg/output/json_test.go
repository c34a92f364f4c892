package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewJSONFormatter() returned nil")
	}
	if f.Name() != "json" {
		t.Errorf("Name() = %q, want %q", f.Name(), "json")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Verify it's valid JSON
	var parsed Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.Summary.Questions != 3 {
		t.Errorf("Questions = %d, want 3", parsed.Summary.Questions)
	}
	if parsed.Summary.FailedFiles != 1 {
		t.Errorf("FailedFiles = %d, want 1", parsed.Summary.FailedFiles)
	}
	if parsed.Metadata.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", parsed.Metadata.RunID)
	}
	if len(parsed.Failures) != 1 {
		t.Errorf("Failures = %d, want 1", len(parsed.Failures))
	}
}

func TestJSONFormatter_Format_Quiet(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})
	report := createTestReport()

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Quiet mode should only output summary
	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if _, ok := parsed["metadata"]; ok {
		t.Error("Quiet output should not include metadata")
	}
	if parsed["answered"] != float64(2) {
		t.Errorf("answered = %v, want 2", parsed["answered"])
	}
}
