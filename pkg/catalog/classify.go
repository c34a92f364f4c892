// Package catalog assembles parsed transcripts into one ordered, answered question set.
package catalog

import "strings"

// UnknownType is assigned when no keyword matches a source path.
const UnknownType = "unknown"

// DefaultKeywords are the exam categories recognized in transcript paths.
var DefaultKeywords = []string{"management", "strategy", "technology"}

// Classifier derives a question type from the path of its source file.
type Classifier struct {
	keywords []string
	fallback string
}

// NewClassifier creates a classifier. Keywords are checked in order and the
// first one contained in the path wins. An empty fallback means UnknownType.
func NewClassifier(keywords []string, fallback string) *Classifier {
	if fallback == "" {
		fallback = UnknownType
	}
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			kw = append(kw, k)
		}
	}
	return &Classifier{keywords: kw, fallback: fallback}
}

// DefaultClassifier returns a classifier over DefaultKeywords.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultKeywords, UnknownType)
}

// Classify returns the type for a source path.
func (c *Classifier) Classify(path string) string {
	for _, k := range c.keywords {
		if strings.Contains(path, k) {
			return k
		}
	}
	return c.fallback
}
