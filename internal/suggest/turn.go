// Package suggest decides which single widget suggestion, if any, a
// conversational turn surfaces.
package suggest

import "strings"

// TurnState tracks a turn through evaluation.
type TurnState int

// Turn states. Suggested and NoSuggestion are terminal.
const (
	TurnIdle TurnState = iota
	TurnEvaluating
	TurnSuggested
	TurnNoSuggestion
)

func (s TurnState) String() string {
	switch s {
	case TurnIdle:
		return "idle"
	case TurnEvaluating:
		return "evaluating"
	case TurnSuggested:
		return "suggested"
	case TurnNoSuggestion:
		return "no_suggestion"
	default:
		return "unknown"
	}
}

// Terminal reports whether the turn is finished.
func (s TurnState) Terminal() bool {
	return s == TurnSuggested || s == TurnNoSuggestion
}

// TurnContext is the per-turn value passed through the coordinator. It is
// owned by one caller at a time and carries the turn's suggestion latch.
type TurnContext struct {
	OwnerID        string
	UserMessage    string
	AssistantReply string
	state          TurnState
	latched        bool
}

// NewTurn starts a turn in the Idle state with the latch cleared.
func NewTurn(ownerID, userMessage, assistantReply string) *TurnContext {
	return &TurnContext{
		OwnerID:        ownerID,
		UserMessage:    userMessage,
		AssistantReply: assistantReply,
	}
}

// Reset returns the turn to Idle with the latch cleared, ready for new input.
func (t *TurnContext) Reset(userMessage, assistantReply string) {
	t.UserMessage = userMessage
	t.AssistantReply = assistantReply
	t.state = TurnIdle
	t.latched = false
}

// State returns the turn's current state.
func (t *TurnContext) State() TurnState {
	return t.state
}

// Latched reports whether a suggestion has already been shown this turn.
func (t *TurnContext) Latched() bool {
	return t.latched
}

// Latch records that a suggestion was shown this turn, whether by the
// coordinator or by some other surface.
func (t *TurnContext) Latch() {
	t.latched = true
}

// Text joins both sides of the turn for extraction.
func (t *TurnContext) Text() string {
	return strings.TrimSpace(t.UserMessage + "\n" + t.AssistantReply)
}
