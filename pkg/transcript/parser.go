package transcript

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxLineSize bounds a single transcript line.
const maxLineSize = 1024 * 1024

// ErrInvalidUTF8 is returned when a transcript is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("transcript is not valid UTF-8")

// choiceSplit separates choices rendered on one line by column gaps.
// A single space never splits, since it also separates words inside a choice.
var choiceSplit = regexp.MustCompile(whitespace + `{2,}`)

// Parser reconstructs questions from transcript text.
// A Parser holds no per-call state and is safe for concurrent use.
type Parser struct {
	conv   Convention
	marker *regexp.Regexp
	labels []compiledLabel
}

// NewParser compiles a parser for the given convention.
func NewParser(conv Convention) (*Parser, error) {
	marker, labels, err := conv.compile()
	if err != nil {
		return nil, fmt.Errorf("convention %q: %w", conv.Name, err)
	}
	return &Parser{conv: conv, marker: marker, labels: labels}, nil
}

// MustNewParser is like NewParser but panics on an invalid convention.
func MustNewParser(conv Convention) *Parser {
	p, err := NewParser(conv)
	if err != nil {
		panic(err)
	}
	return p
}

// Convention returns the convention the parser was built from.
func (p *Parser) Convention() Convention {
	return p.conv
}

// Parse returns the questions found in text, in source order.
// It never fails: lines that fit no pattern are dropped.
func (p *Parser) Parse(text string) []Question {
	st := &state{parser: p}
	for _, line := range strings.Split(text, "\n") {
		st.feed(line)
	}
	return st.finish()
}

// ParseReader streams lines from r and returns the questions found.
// The result is identical to Parse on the same text. Input that is not
// valid UTF-8 fails with ErrInvalidUTF8.
func (p *Parser) ParseReader(ctx context.Context, r io.Reader) ([]Question, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	st := &state{parser: p}
	lineNo := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		lineNo++
		line := scanner.Text()
		if !utf8.ValidString(line) {
			return nil, fmt.Errorf("line %d: %w", lineNo, ErrInvalidUTF8)
		}
		st.feed(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return st.finish(), nil
}

// ParseFile reads and parses a single transcript file.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]Question, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening transcript %s: %w", path, err)
	}
	defer f.Close()

	questions, err := p.ParseReader(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return questions, nil
}

// LineKind is the class a trimmed transcript line falls into.
type LineKind int

const (
	LineBlank LineKind = iota
	LineMarker
	LineChoice
	LineSubItem
	LineBody
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineMarker:
		return "marker"
	case LineChoice:
		return "choice"
	case LineSubItem:
		return "sub_item"
	default:
		return "body"
	}
}

// Classify reports how a raw line would be treated, independent of whether
// a question is open.
func (p *Parser) Classify(raw string) LineKind {
	kind, _ := p.classify(p.prepare(raw))
	return kind
}

// prepare normalizes and trims a raw line.
func (p *Parser) prepare(raw string) string {
	if p.conv.Normalize {
		raw = norm.NFKC.String(raw)
	}
	return strings.TrimSpace(raw)
}

// classify returns the kind of a prepared line and, for markers, the
// number and trailing text.
func (p *Parser) classify(line string) (LineKind, []string) {
	if line == "" {
		return LineBlank, nil
	}
	if m := p.marker.FindStringSubmatch(line); m != nil {
		return LineMarker, m[1:]
	}
	for _, label := range p.labels {
		if !label.pattern.MatchString(line) {
			continue
		}
		if label.role == RoleSubItem {
			return LineSubItem, nil
		}
		return LineChoice, nil
	}
	return LineBody, nil
}

// state is the per-call parse state: the open question and its choices.
type state struct {
	parser  *Parser
	open    *Question
	choices []string
	out     []Question
}

func (s *state) feed(raw string) {
	line := s.parser.prepare(raw)
	kind, marker := s.parser.classify(line)

	switch kind {
	case LineBlank:
		return
	case LineMarker:
		s.seal()
		s.open = &Question{
			Number: marker[0],
			Text:   strings.TrimSpace(marker[1]),
		}
		return
	}

	// Choices collected before the first marker carry into the first question.
	switch kind {
	case LineChoice:
		s.choices = append(s.choices, choiceSplit.Split(line, -1)...)
	case LineSubItem:
		s.choices = append(s.choices, line)
	default:
		if s.open != nil {
			s.open.Text += s.parser.conv.Joiner + line
		}
	}
}

// seal attaches the accumulated choices to the open question and emits it.
func (s *state) seal() {
	if s.open == nil {
		return
	}
	s.open.Choices = s.choices
	if s.open.Choices == nil {
		s.open.Choices = []string{}
	}
	s.out = append(s.out, *s.open)
	s.open = nil
	s.choices = nil
}

func (s *state) finish() []Question {
	s.seal()
	if s.out == nil {
		return []Question{}
	}
	return s.out
}
