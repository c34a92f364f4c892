// Package transcript turns plain-text exam transcripts into question records.
package transcript

// Question is a single exam question reconstructed from a transcript.
type Question struct {
	// Number is the question number as written after the marker word.
	Number string

	// Text is the question body. Continuation lines are joined with the
	// convention's joiner.
	Text string

	// Choices holds the answer options in source order.
	Choices []string

	// Type is the category assigned by the batch driver, never by the parser.
	Type string

	// Answer is filled in from the answer key after parsing.
	Answer string
}
