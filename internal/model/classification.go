package model

// DetectionResult is the outcome of classifying one turn of conversation.
// A nil Category means no category reached the acceptance threshold.
type DetectionResult struct {
	Category        *Category
	MatchedKeywords []string
	Confidence      float64
}

// Detected reports whether an actionable category was selected.
func (d DetectionResult) Detected() bool {
	return d.Category != nil
}

// CategoryOrEmpty returns the detected category or the empty string.
func (d DetectionResult) CategoryOrEmpty() Category {
	if d.Category == nil {
		return ""
	}
	return *d.Category
}

// CategoryScore is the score a single rule produced for a piece of text.
type CategoryScore struct {
	Category        Category
	MatchedKeywords []string
	Matches         int
	Confidence      float64
	RequiredMet     bool
	Candidate       bool
}
