package transcript

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Role describes what a labelled line contributes to the open question.
type Role string

const (
	// RoleChoice lines hold one or more answer choices separated by wide gaps.
	RoleChoice Role = "choice"
	// RoleSubItem lines are lettered sub-items kept whole in the choice list.
	RoleSubItem Role = "sub_item"
)

// Default tokens of the reference transcripts.
const (
	DefaultMarkerWord   = "問"
	DefaultChoiceLabels = "アイウエ"
	DefaultSubItemChars = "a-z"
)

// Convention names accepted by ConventionByName.
const (
	ConventionBatch  = "batch"
	ConventionInline = "inline"
)

// LabelRule maps a single-character label alphabet to a role.
type LabelRule struct {
	// Chars is the body of a regex character class, e.g. "アイウエ" or "a-z".
	Chars string `yaml:"chars" toml:"chars"`

	// Role is what a line starting with one of Chars followed by whitespace becomes.
	Role Role `yaml:"role" toml:"role"`
}

// Convention describes one transcript layout.
type Convention struct {
	// Name identifies the convention in logs and config.
	Name string

	// MarkerWord is the literal word that opens a question, directly followed by digits.
	MarkerWord string

	// Labels is checked in order; the first matching rule wins.
	Labels []LabelRule

	// Joiner separates body continuation lines.
	Joiner string

	// Normalize applies NFKC to each line before it is classified, so that
	// half-width kana labels and full-width letters match the label patterns.
	Normalize bool
}

// DefaultConvention returns the batch layout: kana choices, newline-joined bodies
// and lettered lines kept in the body.
func DefaultConvention() Convention {
	return Convention{
		Name:       ConventionBatch,
		MarkerWord: DefaultMarkerWord,
		Labels: []LabelRule{
			{Chars: DefaultChoiceLabels, Role: RoleChoice},
		},
		Joiner: "\n",
	}
}

// InlineConvention returns the single-file layout: kana choices, lettered
// sub-items folded into the choice list and space-joined bodies.
func InlineConvention() Convention {
	return Convention{
		Name:       ConventionInline,
		MarkerWord: DefaultMarkerWord,
		Labels: []LabelRule{
			{Chars: DefaultChoiceLabels, Role: RoleChoice},
			{Chars: DefaultSubItemChars, Role: RoleSubItem},
		},
		Joiner: " ",
	}
}

// ConventionByName returns a predefined convention.
func ConventionByName(name string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ConventionBatch:
		return DefaultConvention(), nil
	case ConventionInline:
		return InlineConvention(), nil
	default:
		return Convention{}, fmt.Errorf("unknown convention %q (must be batch or inline)", name)
	}
}

// whitespace matches ASCII whitespace and Unicode space separators such as U+3000.
const whitespace = `[\s\p{Zs}]`

// compiledLabel is a LabelRule with its line pattern.
type compiledLabel struct {
	pattern *regexp.Regexp
	role    Role
}

// Validate checks the convention for errors.
func (c Convention) Validate() error {
	_, _, err := c.compile()
	return err
}

func (c Convention) compile() (*regexp.Regexp, []compiledLabel, error) {
	if strings.TrimSpace(c.MarkerWord) == "" {
		return nil, nil, errors.New("marker_word is required")
	}
	if c.Joiner == "" {
		return nil, nil, errors.New("joiner is required")
	}

	marker, err := regexp.Compile(`^` + regexp.QuoteMeta(c.MarkerWord) + `(\p{Nd}+)` + whitespace + `(.*)$`)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid marker_word: %w", err)
	}

	labels := make([]compiledLabel, 0, len(c.Labels))
	for i, rule := range c.Labels {
		if rule.Chars == "" {
			return nil, nil, fmt.Errorf("labels[%d]: chars is required", i)
		}
		switch rule.Role {
		case RoleChoice, RoleSubItem:
		default:
			return nil, nil, fmt.Errorf("labels[%d]: invalid role %q (must be choice or sub_item)", i, rule.Role)
		}
		re, err := regexp.Compile(`^[` + rule.Chars + `]` + whitespace)
		if err != nil {
			return nil, nil, fmt.Errorf("labels[%d]: invalid chars %q: %w", i, rule.Chars, err)
		}
		labels = append(labels, compiledLabel{pattern: re, role: rule.Role})
	}

	return marker, labels, nil
}
