package suggest

import (
	"log/slog"

	"github.com/Veraticus/widgetflow/internal/model"
)

// Coordinator consults strategies in a fixed order and surfaces at most one
// suggestion per turn. It holds no per-turn state and is safe for concurrent
// use across turns.
type Coordinator struct {
	strategies []Strategy
}

// NewCoordinator creates a coordinator that consults strategies in the given order.
func NewCoordinator(strategies ...Strategy) *Coordinator {
	return &Coordinator{strategies: strategies}
}

// NewDefaultCoordinator wires the classifier, legacy trigger and karma strategies.
func NewDefaultCoordinator(c Classifier, e Extractor, a Assembler) *Coordinator {
	return NewCoordinator(
		NewClassifierStrategy(c, e, a),
		NewLegacyTriggerStrategy(e, a, nil),
		NewKarmaStrategy(e, a),
	)
}

// Strategies returns the strategy names in evaluation order.
func (c *Coordinator) Strategies() []string {
	names := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Run evaluates the turn. A latched turn skips every strategy. A turn that
// already reached a terminal state returns nil without evaluating.
func (c *Coordinator) Run(turn *TurnContext) *model.Suggestion {
	if turn == nil || turn.state.Terminal() {
		return nil
	}
	turn.state = TurnEvaluating

	var suggestion *model.Suggestion
	for _, s := range c.strategies {
		if turn.latched {
			slog.Debug("Skipping strategy, turn already latched", "strategy", s.Name(), "owner_id", turn.OwnerID)
			continue
		}

		widgets, message := s.Evaluate(turn)
		if len(widgets) == 0 {
			continue
		}

		turn.Latch()
		suggestion = &model.Suggestion{
			Category: widgets[0].Payload.Category(),
			Message:  message,
			Source:   s.Name(),
			Widgets:  widgets,
		}
		slog.Debug("Suggestion surfaced",
			"strategy", s.Name(),
			"owner_id", turn.OwnerID,
			"category", suggestion.Category,
			"widgets", len(widgets))
	}

	if turn.latched {
		turn.state = TurnSuggested
	} else {
		turn.state = TurnNoSuggestion
	}
	return suggestion
}
