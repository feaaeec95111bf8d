package engine

import (
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/Veraticus/widgetflow/internal/suggest"
)

// Suggester produces at most one suggestion per conversational turn.
type Suggester interface {
	Run(turn *suggest.TurnContext) *model.Suggestion
}
