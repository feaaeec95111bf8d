// Package storage provides the data persistence layer for widgetflow.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/widgetflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrEmptySlice     = errors.New("slice cannot be empty")
	ErrInvalidWidget  = errors.New("invalid widget")
	ErrInvalidTier    = errors.New("invalid tier")
	ErrMixedOwners    = errors.New("widget batch spans several owners")
	ErrInvalidLimit   = errors.New("invalid widget limit")
	ErrForeignReplay  = errors.New("widget id belongs to another owner")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateLimit(limit int) error {
	if limit < model.Unlimited {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return nil
}

// validateWidgets checks a batch before it is written. Every widget must
// belong to the same owner.
func validateWidgets(widgets []model.Widget) error {
	if widgets == nil {
		return fmt.Errorf("%w: widgets", ErrNilParameter)
	}
	if len(widgets) == 0 {
		return fmt.Errorf("%w: widgets", ErrEmptySlice)
	}

	owner := widgets[0].OwnerID
	seen := make(map[string]bool, len(widgets))
	for i := range widgets {
		w := &widgets[i]
		if err := validateWidget(w); err != nil {
			return fmt.Errorf("widget at index %d: %w", i, err)
		}
		if w.OwnerID != owner {
			return fmt.Errorf("%w: %q and %q", ErrMixedOwners, owner, w.OwnerID)
		}
		if seen[w.ID] {
			return fmt.Errorf("%w: duplicate id %s in batch", ErrInvalidWidget, w.ID)
		}
		seen[w.ID] = true
	}
	return nil
}

func validateWidget(w *model.Widget) error {
	if w == nil {
		return fmt.Errorf("%w: widget", ErrNilParameter)
	}
	if strings.TrimSpace(w.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidWidget)
	}
	if strings.TrimSpace(w.OwnerID) == "" {
		return fmt.Errorf("%w: missing owner", ErrInvalidWidget)
	}
	if _, err := model.ParseWidgetType(string(w.Type)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWidget, err)
	}
	if w.Payload == nil {
		return fmt.Errorf("%w: missing payload", ErrInvalidWidget)
	}
	if w.ParentID != nil && *w.ParentID == w.ID {
		return fmt.Errorf("%w: widget %s is its own parent", ErrInvalidWidget, w.ID)
	}
	return nil
}

func validateTier(tier model.Tier) error {
	if strings.TrimSpace(string(tier)) == "" {
		return fmt.Errorf("%w: empty tier", ErrInvalidTier)
	}
	return nil
}
