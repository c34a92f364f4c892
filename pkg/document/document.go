// Package document reads and writes the questions JSON document consumed by the load step.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/ccollicutt/kakomon/pkg/transcript"
)

// ErrNoQuestions is returned by Read when the document holds no questions.
var ErrNoQuestions = errors.New("document has no questions")

// Document is the top-level output document.
type Document struct {
	Questions []Entry `json:"questions"`
}

// Entry is one serialized question. Field order is part of the format.
type Entry struct {
	QuestionNumber string   `json:"question_number"`
	QuestionType   string   `json:"question_type"`
	QuestionText   string   `json:"question_text"`
	Options        []string `json:"options"`
	QuestionAnswer string   `json:"question_answer"`
}

// FromQuestions builds a document from parsed questions, keeping their order.
func FromQuestions(questions []transcript.Question) *Document {
	doc := &Document{Questions: make([]Entry, 0, len(questions))}
	for _, q := range questions {
		options := q.Choices
		if options == nil {
			options = []string{}
		}
		doc.Questions = append(doc.Questions, Entry{
			QuestionNumber: q.Number,
			QuestionType:   q.Type,
			QuestionText:   q.Text,
			Options:        options,
			QuestionAnswer: q.Answer,
		})
	}
	return doc
}

// ToQuestions converts the document back into question records.
func (d *Document) ToQuestions() []transcript.Question {
	out := make([]transcript.Question, 0, len(d.Questions))
	for _, e := range d.Questions {
		options := e.Options
		if options == nil {
			options = []string{}
		}
		out = append(out, transcript.Question{
			Number:  e.QuestionNumber,
			Text:    e.QuestionText,
			Choices: options,
			Type:    e.QuestionType,
			Answer:  e.QuestionAnswer,
		})
	}
	return out
}

// Encode writes the document as indented JSON with non-ASCII text kept literal.
func Encode(w io.Writer, doc *Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(doc)
}

// Decode reads a document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Write stores the document at path. The parent directory is created if
// needed, writers are serialized through a lock file next to the document,
// and the file is replaced atomically.
func Write(path string, doc *Document) error {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", path, err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Read loads a document from path. A document without questions returns
// ErrNoQuestions along with the (empty) document.
func Read(path string) (*Document, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided document path is expected
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parsing document %s: %w", path, err)
	}
	if len(doc.Questions) == 0 {
		return doc, ErrNoQuestions
	}
	return doc, nil
}
