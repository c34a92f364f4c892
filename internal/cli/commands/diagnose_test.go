package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ccollicutt/kakomon/pkg/config"
)

func TestNewDiagnoseCommand(t *testing.T) {
	cmd := NewDiagnoseCommand(&Globals{})

	if cmd.Use != "diagnose [config-file]" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}
	for _, flag := range []string{"verbose", "skip-db"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Missing flag: %s", flag)
		}
	}
}

func TestCheckConfigExists_NotFound(t *testing.T) {
	result := checkConfigExists("/nonexistent/config.yaml")
	if result.Status != "error" {
		t.Errorf("Status = %q, want error", result.Status)
	}
	if len(result.Suggests) == 0 {
		t.Error("Expected suggestions")
	}
}

func TestCheckConfigExists_Directory(t *testing.T) {
	result := checkConfigExists(t.TempDir())
	if result.Status != "error" {
		t.Errorf("Status = %q, want error", result.Status)
	}
}

func TestCheckConfigExists_Success(t *testing.T) {
	ws := newWorkspace(t)
	result := checkConfigExists(ws.configPath)
	if result.Status != "ok" {
		t.Errorf("Status = %q, want ok: %s", result.Status, result.Message)
	}
}

func TestCheckConfigParseable_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "transcripts: [")

	cfg, result := checkConfigParseable(context.Background(), path)
	if cfg != nil {
		t.Error("Expected nil config")
	}
	if result.Status != "error" {
		t.Errorf("Status = %q, want error", result.Status)
	}
}

func TestCheckTranscripts(t *testing.T) {
	ws := newWorkspace(t)
	cfg, err := config.Load(context.Background(), ws.configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	files, result := checkTranscripts(cfg)
	if result.Status != "ok" || len(files) != 2 {
		t.Errorf("checkTranscripts() = %d files, %q: %s", len(files), result.Status, result.Message)
	}

	cfg.Transcripts.Patterns = []string{"*.md"}
	if _, result := checkTranscripts(cfg); result.Status != "warning" {
		t.Errorf("Status = %q, want warning for no matches", result.Status)
	}

	cfg.Transcripts.Root = filepath.Join(ws.dir, "missing")
	if _, result := checkTranscripts(cfg); result.Status != "error" {
		t.Errorf("Status = %q, want error for missing root", result.Status)
	}
}

func TestCheckSampleTranscript(t *testing.T) {
	ws := newWorkspace(t)
	cfg, err := config.Load(context.Background(), ws.configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	result := checkSampleTranscript(context.Background(), cfg, filepath.Join(ws.root, "technology", "r05.txt"))
	if result.Status != "ok" {
		t.Errorf("Status = %q, want ok: %s", result.Status, result.Message)
	}

	plain := filepath.Join(ws.root, "plain.txt")
	writeFile(t, plain, "no markers here\n")
	if result := checkSampleTranscript(context.Background(), cfg, plain); result.Status != "warning" {
		t.Errorf("Status = %q, want warning for a file without markers", result.Status)
	}
}

func TestCheckAnswerKey(t *testing.T) {
	ws := newWorkspace(t)
	cfg, err := config.Load(context.Background(), ws.configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if result := checkAnswerKey(context.Background(), cfg); result.Status != "ok" || result.Message != "2 answer(s)" {
		t.Errorf("checkAnswerKey() = %q %q", result.Status, result.Message)
	}

	writeFile(t, cfg.AnswerKey, "[")
	if result := checkAnswerKey(context.Background(), cfg); result.Status != "error" {
		t.Errorf("Status = %q, want error for malformed key", result.Status)
	}

	if err := os.Remove(cfg.AnswerKey); err != nil {
		t.Fatal(err)
	}
	if result := checkAnswerKey(context.Background(), cfg); result.Status != "warning" {
		t.Errorf("Status = %q, want warning for missing key", result.Status)
	}
}

func TestCheckDatabase_SQLite(t *testing.T) {
	ws := newWorkspace(t)
	cfg, err := config.Load(context.Background(), ws.configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if result := checkDatabase(context.Background(), &Globals{}, cfg); result.Status != "ok" {
		t.Errorf("Status = %q, want ok: %s", result.Status, result.Message)
	}
}

func TestCheckWebhooks_NoWebhooks(t *testing.T) {
	cfg := config.DefaultConfig()

	if results := checkWebhooks(cfg, &DiagnoseOptions{}); len(results) != 0 {
		t.Errorf("Expected no results without verbose, got %d", len(results))
	}
	results := checkWebhooks(cfg, &DiagnoseOptions{Verbose: true})
	if len(results) != 1 || results[0].Status != "ok" {
		t.Errorf("Expected one ok result in verbose mode, got %+v", results)
	}
}

func TestCheckWebhooks_Connectivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Database = config.DatabaseConfig{Driver: "sqlite"}
	cfg.Webhooks = []config.WebhookConfig{{Name: "chat", URL: server.URL}}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	results := checkWebhooks(cfg, &DiagnoseOptions{})
	if len(results) != 1 || results[0].Status != "ok" {
		t.Fatalf("checkWebhooks() = %+v", results)
	}

	results = checkWebhooks(cfg, &DiagnoseOptions{Verbose: true})
	if results[0].Status != "warning" {
		t.Errorf("Status = %q, want warning for 405 response", results[0].Status)
	}
}

func TestRunDiagnose_ValidSetup(t *testing.T) {
	ws := newWorkspace(t)

	var buf bytes.Buffer
	if err := runDiagnose(context.Background(), &buf, &Globals{}, ws.configPath, &DiagnoseOptions{}); err != nil {
		t.Fatalf("runDiagnose() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "0 errors") {
		t.Errorf("Expected no errors:\n%s", output)
	}
	if !strings.Contains(output, "[PASS] Database: sqlite") {
		t.Errorf("Expected database check:\n%s", output)
	}
}

func TestRunDiagnose_MissingConfig(t *testing.T) {
	var buf bytes.Buffer
	if err := runDiagnose(context.Background(), &buf, &Globals{}, "/nonexistent/kakomon.yaml", &DiagnoseOptions{}); err != nil {
		t.Fatalf("runDiagnose() error = %v", err)
	}
	if !strings.Contains(buf.String(), "[FAIL] Config File") {
		t.Errorf("Expected config failure:\n%s", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"問題文がとても長い場合", 6, "問題文..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
