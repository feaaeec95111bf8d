package model

// Suggestion is the single widget proposal surfaced for a conversational turn.
// Nothing in it is persisted until the user confirms.
type Suggestion struct {
	Category Category
	Message  string
	Source   string
	Widgets  []Widget
}
