package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/Veraticus/widgetflow/internal/suggest"
	"github.com/google/uuid"
)

// replayNamespace seeds deterministic widget IDs for recorded turns.
var replayNamespace = uuid.MustParse("6f1c2a4e-9b7d-4c53-a0e8-2d5f7b3c91aa")

// Turn is one recorded exchange in a replay transcript.
type Turn struct {
	ID             string `json:"id"`
	OwnerID        string `json:"owner_id"`
	UserMessage    string `json:"user"`
	AssistantReply string `json:"assistant"`
}

// ReplayStats summarizes a replay run.
type ReplayStats struct {
	Turns     int
	Suggested int
	Saved     int
	Rejected  int
	Widgets   int
}

// ReplayObserver is called after each turn has been processed.
type ReplayObserver func(turn Turn, suggestion *model.Suggestion, result ConfirmResult)

// Replay runs recorded turns through the pipeline and accepts every
// suggestion. Turns with an ID get deterministic widget IDs, so replaying the
// same transcript again does not duplicate widgets. Replay stops at the first
// store failure or when ctx is canceled; stats cover the turns processed so far.
func (s *Service) Replay(ctx context.Context, turns []Turn, observe ReplayObserver) (ReplayStats, error) {
	var stats ReplayStats

	for _, t := range turns {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Turns++
		suggestion := s.Suggest(ctx, suggest.NewTurn(t.OwnerID, t.UserMessage, t.AssistantReply))

		var result ConfirmResult
		if suggestion != nil {
			stats.Suggested++

			widgets := suggestion.Widgets
			if t.ID != "" {
				widgets = Rekey(t.ID, widgets)
			}

			var err error
			result, err = s.Confirm(ctx, t.OwnerID, widgets)
			if err != nil {
				return stats, fmt.Errorf("turn %q: %w", t.ID, err)
			}

			if result.Saved() {
				stats.Saved++
				stats.Widgets += len(result.Widgets)
			} else {
				stats.Rejected++
			}
		}

		if observe != nil {
			observe(t, suggestion, result)
		}
	}

	slog.Info("Replay complete",
		"turns", stats.Turns,
		"suggested", stats.Suggested,
		"saved", stats.Saved,
		"rejected", stats.Rejected)

	return stats, nil
}

// Rekey returns copies of widgets with IDs derived from seed, remapping
// parent references inside the batch.
func Rekey(seed string, widgets []model.Widget) []model.Widget {
	ids := make(map[string]string, len(widgets))
	out := make([]model.Widget, len(widgets))

	for i, w := range widgets {
		id := uuid.NewSHA1(replayNamespace, []byte(seed+"/"+strconv.Itoa(i))).String()
		ids[w.ID] = id
		w.ID = id
		out[i] = w
	}

	for i := range out {
		if out[i].ParentID == nil {
			continue
		}
		if id, ok := ids[*out[i].ParentID]; ok {
			out[i].ParentID = &id
		}
	}
	return out
}
