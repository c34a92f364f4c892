package transcript

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// FoldDigits rewrites the decimal digits in s as ASCII digits. Full-width
// digits are narrowed; digits of other scripts map by their offset in the
// script's 0-9 run.
func FoldDigits(s string) string {
	s = width.Narrow.String(s)
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf || !unicode.Is(unicode.Nd, r) {
			return r
		}
		zero := r
		for unicode.Is(unicode.Nd, zero-1) {
			zero--
		}
		return '0' + (r-zero)%10
	}, s)
}

// ParseNumber returns the integer value of a question number written in
// any decimal digit script.
func ParseNumber(number string) (int64, error) {
	return strconv.ParseInt(FoldDigits(strings.TrimSpace(number)), 10, 64)
}
