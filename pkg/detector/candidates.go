package detector

import "github.com/ccollicutt/kakomon/pkg/transcript"

// Candidate is a transcript convention the detector can suggest.
type Candidate struct {
	Name        string // Human-readable name
	Description string
	Convention  transcript.Convention
}

// DefaultCandidates returns the predefined conventions, plain and normalized.
// Simpler conventions come first so they win ties.
func DefaultCandidates() []Candidate {
	batch := transcript.DefaultConvention()
	inline := transcript.InlineConvention()

	batchNFKC := batch
	batchNFKC.Normalize = true
	inlineNFKC := inline
	inlineNFKC.Normalize = true

	return []Candidate{
		{
			Name:        "batch",
			Description: "Kana choices, newline-joined bodies, lettered lines kept in the body",
			Convention:  batch,
		},
		{
			Name:        "inline",
			Description: "Kana choices, lettered sub-items in the choice list, space-joined bodies",
			Convention:  inline,
		},
		{
			Name:        "batch (normalized)",
			Description: "batch with NFKC normalization for half-width kana and full-width letters",
			Convention:  batchNFKC,
		},
		{
			Name:        "inline (normalized)",
			Description: "inline with NFKC normalization for half-width kana and full-width letters",
			Convention:  inlineNFKC,
		},
	}
}
