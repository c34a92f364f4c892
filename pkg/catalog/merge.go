package catalog

import (
	"sort"

	"github.com/ccollicutt/kakomon/pkg/answerkey"
	"github.com/ccollicutt/kakomon/pkg/transcript"
)

// SortKey is the numeric ordering key of a question number. Full-width and
// other non-ASCII digits count by value. Numbers that do not parse sort as 0.
func SortKey(number string) int64 {
	n, err := transcript.ParseNumber(number)
	if err != nil {
		return 0
	}
	return n
}

// Sort orders questions ascending by numeric question number.
// The sort is stable so equal numbers keep their discovery order.
func Sort(questions []transcript.Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		return SortKey(questions[i].Number) < SortKey(questions[j].Number)
	})
}

// Merge sets each question's answer from the key. Unmatched questions get "".
func Merge(questions []transcript.Question, key answerkey.Key) {
	for i := range questions {
		questions[i].Answer = key.Lookup(questions[i].Number)
	}
}
