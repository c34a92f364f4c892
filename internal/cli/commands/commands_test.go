package commands

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/ccollicutt/kakomon/pkg/document"
)

// workspace is a transcript tree with an answer key and a sqlite config.
type workspace struct {
	dir        string
	root       string
	configPath string
	docPath    string
	dbPath     string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	for _, name := range []string{"KAKOMON_DB_DRIVER", "KAKOMON_DB_PATH", "POSTGRES_HOST", "POSTGRES_PORT"} {
		t.Setenv(name, "")
	}

	dir := t.TempDir()
	ws := &workspace{
		dir:        dir,
		root:       filepath.Join(dir, "texts"),
		configPath: filepath.Join(dir, "kakomon.yaml"),
		docPath:    filepath.Join(dir, "outputs", "questions.json"),
		dbPath:     filepath.Join(dir, "questions.db"),
	}

	writeFile(t, filepath.Join(ws.root, "strategy", "r05.txt"),
		"問2 Strategy two\nア a  イ b\n問1 Strategy one\nア c  イ d\n")
	writeFile(t, filepath.Join(ws.root, "technology", "r05.txt"),
		"問3 Tech three\nア x  イ y\n")
	writeFile(t, filepath.Join(ws.root, "answer.json"),
		`[{"question_number": "1", "question_answer": "ア"}, {"question_number": "3", "question_answer": "イ"}]`)

	config := `transcripts:
  root: ` + ws.root + `
answer_key: ` + filepath.Join(ws.root, "answer.json") + `
output: ` + ws.docPath + `
database:
  driver: sqlite
  path: ` + ws.dbPath + `
`
	writeFile(t, ws.configPath, config)
	return ws
}

func (ws *workspace) countRows(t *testing.T) int {
	t.Helper()
	db, err := sql.Open("sqlite", ws.dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestNewExtractCommand(t *testing.T) {
	cmd := NewExtractCommand(&Globals{})

	if cmd.Use != "extract [config-file]" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	// Check flags exist
	flags := []string{"output", "root", "document", "verbose", "quiet", "strict", "webhook-url", "webhook-token", "webhook-trigger"}
	for _, flag := range flags {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Missing flag: %s", flag)
		}
	}
}

func TestNewLoadCommand(t *testing.T) {
	cmd := NewLoadCommand(&Globals{})

	if cmd.Use != "load [config-file]" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}
	if cmd.Flags().Lookup("create-table") == nil {
		t.Error("Missing flag: create-table")
	}
}

func TestNewVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if buf.String() != "kakomon dev\n" {
		t.Errorf("version output = %q", buf.String())
	}
}

func TestRunExtract(t *testing.T) {
	ws := newWorkspace(t)

	cmd := NewExtractCommand(&Globals{})
	cmd.SetArgs([]string{ws.configPath})
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	doc, err := document.Read(ws.docPath)
	if err != nil {
		t.Fatalf("document.Read() error = %v", err)
	}
	want := []document.Entry{
		{QuestionNumber: "1", QuestionType: "strategy", QuestionText: "Strategy one", Options: []string{"ア c", "イ d"}, QuestionAnswer: "ア"},
		{QuestionNumber: "2", QuestionType: "strategy", QuestionText: "Strategy two", Options: []string{"ア a", "イ b"}, QuestionAnswer: ""},
		{QuestionNumber: "3", QuestionType: "technology", QuestionText: "Tech three", Options: []string{"ア x", "イ y"}, QuestionAnswer: "イ"},
	}
	if len(doc.Questions) != len(want) {
		t.Fatalf("document has %d questions, want %d", len(doc.Questions), len(want))
	}
	for i, e := range doc.Questions {
		w := want[i]
		if e.QuestionNumber != w.QuestionNumber || e.QuestionType != w.QuestionType ||
			e.QuestionText != w.QuestionText || e.QuestionAnswer != w.QuestionAnswer ||
			strings.Join(e.Options, "|") != strings.Join(w.Options, "|") {
			t.Errorf("question %d = %+v, want %+v", i, e, w)
		}
	}

	if !strings.Contains(buf.String(), "3 questions, 2 answered") {
		t.Errorf("report missing summary:\n%s", buf.String())
	}
}

func TestRunExtract_JSONReport(t *testing.T) {
	ws := newWorkspace(t)

	cmd := NewExtractCommand(&Globals{})
	cmd.SetArgs([]string{ws.configPath, "--output", "json", "--quiet"})
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"questions": 3`) {
		t.Errorf("json summary = %s", buf.String())
	}
}

func TestRunExtract_MissingAnswerKey(t *testing.T) {
	ws := newWorkspace(t)
	if err := os.Remove(filepath.Join(ws.root, "answer.json")); err != nil {
		t.Fatal(err)
	}

	cmd := NewExtractCommand(&Globals{})
	cmd.SetArgs([]string{ws.configPath})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("extract should tolerate a missing answer key: %v", err)
	}
	doc, err := document.Read(ws.docPath)
	if err != nil {
		t.Fatalf("document.Read() error = %v", err)
	}
	for _, e := range doc.Questions {
		if e.QuestionAnswer != "" {
			t.Errorf("question %s answer = %q, want empty", e.QuestionNumber, e.QuestionAnswer)
		}
	}
}

func TestRunExtract_MalformedAnswerKey(t *testing.T) {
	ws := newWorkspace(t)
	writeFile(t, filepath.Join(ws.root, "answer.json"), `{"not": "an array"`)

	cmd := NewExtractCommand(&Globals{})
	cmd.SetArgs([]string{ws.configPath})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for malformed answer key")
	}
	if _, err := os.Stat(ws.docPath); !os.IsNotExist(err) {
		t.Error("document should not be written when the answer key is malformed")
	}
}

func TestRunExtract_MissingRoot(t *testing.T) {
	ws := newWorkspace(t)

	cmd := NewExtractCommand(&Globals{})
	cmd.SetArgs([]string{ws.configPath, "--root", filepath.Join(ws.dir, "nope")})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for missing transcript root")
	}
}

func TestRunExtract_StrictSkippedFile(t *testing.T) {
	ws := newWorkspace(t)
	if err := os.Symlink(filepath.Join(ws.dir, "missing.txt"), filepath.Join(ws.root, "broken.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	ExitCode = 0
	t.Cleanup(func() { ExitCode = 0 })

	cmd := NewExtractCommand(&Globals{})
	cmd.SetArgs([]string{ws.configPath, "--strict"})
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode)
	}
	if !strings.Contains(buf.String(), "broken.txt") {
		t.Errorf("report should list the skipped file:\n%s", buf.String())
	}
}

func TestRunExtract_InvalidFormat(t *testing.T) {
	ws := newWorkspace(t)

	cmd := NewExtractCommand(&Globals{})
	cmd.SetArgs([]string{ws.configPath, "--output", "xml"})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for unknown output format")
	}
	if _, err := os.Stat(ws.docPath); !os.IsNotExist(err) {
		t.Error("document should not be written for an invalid format flag")
	}
}

func TestRunLoad(t *testing.T) {
	ws := newWorkspace(t)

	extractCmd := NewExtractCommand(&Globals{})
	extractCmd.SetArgs([]string{ws.configPath})
	extractCmd.SetOut(&bytes.Buffer{})
	if err := extractCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		cmd := NewLoadCommand(&Globals{})
		cmd.SetArgs([]string{ws.configPath})
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		if err := cmd.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("load #%d failed: %v", i+1, err)
		}
		if !strings.Contains(buf.String(), "Loaded 3 question(s) into sqlite") {
			t.Errorf("load output = %q", buf.String())
		}
	}

	if n := ws.countRows(t); n != 3 {
		t.Errorf("questions table has %d rows after two loads, want 3", n)
	}
}

func TestRunLoad_MissingDocument(t *testing.T) {
	ws := newWorkspace(t)

	cmd := NewLoadCommand(&Globals{})
	cmd.SetArgs([]string{ws.configPath})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error when the document does not exist")
	}
}

func TestRunRun(t *testing.T) {
	ws := newWorkspace(t)

	cmd := NewRunCommand(&Globals{})
	cmd.SetArgs([]string{ws.configPath})
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if n := ws.countRows(t); n != 3 {
		t.Errorf("questions table has %d rows, want 3", n)
	}
	if !strings.Contains(buf.String(), "Loaded 3 question(s)") {
		t.Errorf("run output missing load line:\n%s", buf.String())
	}
}

func TestRunRun_EmptyRootKeepsTable(t *testing.T) {
	ws := newWorkspace(t)

	seed := NewRunCommand(&Globals{})
	seed.SetArgs([]string{ws.configPath})
	seed.SetOut(&bytes.Buffer{})
	if err := seed.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("seeding run failed: %v", err)
	}
	before, err := os.ReadFile(ws.docPath)
	if err != nil {
		t.Fatal(err)
	}

	empty := filepath.Join(ws.dir, "empty")
	if err := os.MkdirAll(empty, 0755); err != nil {
		t.Fatal(err)
	}

	cmd := NewRunCommand(&Globals{})
	cmd.SetArgs([]string{ws.configPath, "--root", empty})
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if n := ws.countRows(t); n != 3 {
		t.Errorf("questions table has %d rows after an empty run, want 3", n)
	}
	after, err := os.ReadFile(ws.docPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("document should not be rewritten when no questions were extracted")
	}
	if !strings.Contains(buf.String(), "table left unchanged") {
		t.Errorf("run output = %s", buf.String())
	}
}

func TestRunExtract_EmptyRootWritesNoDocument(t *testing.T) {
	ws := newWorkspace(t)
	empty := filepath.Join(ws.dir, "empty")
	if err := os.MkdirAll(empty, 0755); err != nil {
		t.Fatal(err)
	}

	cmd := NewExtractCommand(&Globals{})
	cmd.SetArgs([]string{ws.configPath, "--root", empty})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if _, err := os.Stat(ws.docPath); !os.IsNotExist(err) {
		t.Error("document should not be written when no questions were extracted")
	}
}

func TestRunLoad_EmptyDocumentKeepsTable(t *testing.T) {
	ws := newWorkspace(t)

	seed := NewRunCommand(&Globals{})
	seed.SetArgs([]string{ws.configPath})
	seed.SetOut(&bytes.Buffer{})
	if err := seed.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("seeding run failed: %v", err)
	}
	writeFile(t, ws.docPath, `{"questions": []}`)

	cmd := NewLoadCommand(&Globals{})
	cmd.SetArgs([]string{ws.configPath})
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if n := ws.countRows(t); n != 3 {
		t.Errorf("questions table has %d rows after loading an empty document, want 3", n)
	}
	if !strings.Contains(buf.String(), "table left unchanged") {
		t.Errorf("load output = %q", buf.String())
	}
}

func TestRunParse(t *testing.T) {
	ws := newWorkspace(t)

	cmd := NewParseCommand()
	cmd.SetArgs([]string{filepath.Join(ws.root, "strategy", "*.txt")})
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	doc, err := document.Decode(&buf)
	if err != nil {
		t.Fatalf("parse output is not a document: %v", err)
	}
	if len(doc.Questions) != 2 {
		t.Fatalf("parse returned %d questions, want 2", len(doc.Questions))
	}
	if doc.Questions[0].QuestionNumber != "2" || doc.Questions[1].QuestionNumber != "1" {
		t.Errorf("parse should keep source order, got %s, %s",
			doc.Questions[0].QuestionNumber, doc.Questions[1].QuestionNumber)
	}
}

func TestRunParse_UnknownConvention(t *testing.T) {
	cmd := NewParseCommand()
	cmd.SetArgs([]string{"--convention", "pdf", "x.txt"})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for unknown convention")
	}
}

func TestRunValidate_Success(t *testing.T) {
	ws := newWorkspace(t)

	cmd := NewValidateCommand()
	cmd.SetArgs([]string{ws.configPath})
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Transcripts matched: 2") {
		t.Errorf("validate output = %s", buf.String())
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "invalid.yaml")
	writeFile(t, configPath, "invalid: yaml: content")

	cmd := NewValidateCommand()
	cmd.SetArgs([]string{configPath})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for invalid config")
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	cmd := NewValidateCommand()
	cmd.SetArgs([]string{"/nonexistent/config.yaml"})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for missing file")
	}
}
