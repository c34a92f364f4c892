// Package answerkey loads the external answer key that is merged into parsed questions.
package answerkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrNotFound is returned by Load when the answer key file does not exist.
var ErrNotFound = errors.New("answer key not found")

// Key maps a question number to its answer.
type Key map[string]string

// Entry is one element of the answer key document.
type Entry struct {
	QuestionNumber string `json:"question_number"`
	QuestionAnswer string `json:"question_answer"`
}

// Lookup returns the answer for a question number, or "" when there is none.
func (k Key) Lookup(number string) string {
	return k[number]
}

// Load reads an answer key from a JSON array of entries.
// Entries without a question number are ignored; later duplicates win.
func Load(_ context.Context, path string) (Key, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided answer key path is expected
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Key{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading answer key: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing answer key %s: %w", path, err)
	}

	key := make(Key, len(entries))
	for _, e := range entries {
		if e.QuestionNumber == "" {
			continue
		}
		key[e.QuestionNumber] = e.QuestionAnswer
	}
	return key, nil
}

// LoadOptional is like Load but treats a missing file as an empty key.
// The second return value reports whether the file was found.
func LoadOptional(ctx context.Context, path string) (Key, bool, error) {
	key, err := Load(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return Key{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}
