package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Veraticus/widgetflow/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{
			name:      "valid string",
			str:       "test",
			paramName: "param",
			wantErr:   false,
		},
		{
			name:      "empty string",
			str:       "",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			str:       "   ",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "string with spaces",
			str:       "  test  ",
			paramName: "param",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidateWidget(t *testing.T) {
	self := "w1"
	tests := []struct {
		widget  *model.Widget
		wantErr error
		name    string
	}{
		{
			name:   "valid widget",
			widget: &model.Widget{ID: "w1", OwnerID: "o", Type: model.WidgetTypeGoal, Payload: model.GoalFields{}},
		},
		{
			name:   "legacy type alias accepted",
			widget: &model.Widget{ID: "w1", OwnerID: "o", Type: "action_steps", Payload: model.HabitFields{}},
		},
		{
			name:    "nil widget",
			widget:  nil,
			wantErr: ErrNilParameter,
		},
		{
			name:    "missing id",
			widget:  &model.Widget{OwnerID: "o", Type: model.WidgetTypeGoal, Payload: model.GoalFields{}},
			wantErr: ErrInvalidWidget,
		},
		{
			name:    "missing owner",
			widget:  &model.Widget{ID: "w1", Type: model.WidgetTypeGoal, Payload: model.GoalFields{}},
			wantErr: ErrInvalidWidget,
		},
		{
			name:    "unknown type",
			widget:  &model.Widget{ID: "w1", OwnerID: "o", Type: "mood_board", Payload: model.GoalFields{}},
			wantErr: ErrInvalidWidget,
		},
		{
			name:    "missing payload",
			widget:  &model.Widget{ID: "w1", OwnerID: "o", Type: model.WidgetTypeGoal},
			wantErr: ErrInvalidWidget,
		},
		{
			name:    "own parent",
			widget:  &model.Widget{ID: "w1", OwnerID: "o", Type: model.WidgetTypeGoal, Payload: model.GoalFields{}, ParentID: &self},
			wantErr: ErrInvalidWidget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWidget(tt.widget)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validateWidget() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateWidget() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateWidgets_ReportsIndex(t *testing.T) {
	widgets := []model.Widget{
		{ID: "a", OwnerID: "o", Type: model.WidgetTypeHabit, Payload: model.HabitFields{}},
		{ID: "", OwnerID: "o", Type: model.WidgetTypeHabit, Payload: model.HabitFields{}},
	}
	err := validateWidgets(widgets)
	if err == nil || !strings.Contains(err.Error(), "index 1") {
		t.Errorf("validateWidgets() error = %v, want index 1", err)
	}
}

func TestValidateTier(t *testing.T) {
	if err := validateTier(model.TierPlus); err != nil {
		t.Errorf("validateTier(plus) error = %v", err)
	}
	if err := validateTier("  "); !errors.Is(err, ErrInvalidTier) {
		t.Errorf("validateTier(blank) error = %v, want %v", err, ErrInvalidTier)
	}
}

func TestValidateLimit(t *testing.T) {
	for _, limit := range []int{model.Unlimited, 0, 3} {
		if err := validateLimit(limit); err != nil {
			t.Errorf("validateLimit(%d) error = %v", limit, err)
		}
	}
	if err := validateLimit(-5); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("validateLimit(-5) error = %v, want %v", err, ErrInvalidLimit)
	}
}
