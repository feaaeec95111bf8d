// Package widget assembles in-memory widget records from extracted fields.
package widget

import (
	"strings"

	"github.com/Veraticus/widgetflow/internal/extract"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/google/uuid"
)

// Titles for non-goal widgets.
const (
	TitleGoalAffirmations = "Khẳng định cho mục tiêu"
	TitleGoalChecklist    = "Các bước hành động"
	TitleAffirmations     = "Lời khẳng định mỗi ngày"
	TitleHabits           = "Thói quen hằng ngày"
	TitleCrystals         = "Đá phong thủy"
)

// Assembler builds widgets, parents before children.
type Assembler struct {
	newID func() string
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithIDGenerator replaces the widget ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(a *Assembler) {
		a.newID = fn
	}
}

// NewAssembler creates an Assembler that issues random UUIDs.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{newID: uuid.NewString}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the widgets for one set of fields. Only goals produce
// children; each child references the goal through ParentID.
func (a *Assembler) Assemble(ownerID string, fields model.Fields) []model.Widget {
	switch f := fields.(type) {
	case model.GoalFields:
		return a.assembleGoal(ownerID, f.Normalize())
	case model.AffirmationFields:
		return []model.Widget{a.build(ownerID, model.WidgetTypeAffirmation, TitleAffirmations, f.Normalize(), nil)}
	case model.HabitFields:
		return []model.Widget{a.build(ownerID, model.WidgetTypeHabit, TitleHabits, f.Normalize(), nil)}
	case model.CrystalFields:
		f = f.Normalize()
		return []model.Widget{a.build(ownerID, model.WidgetTypeCrystal, CrystalTitle(f), f, nil)}
	default:
		return []model.Widget{}
	}
}

func (a *Assembler) assembleGoal(ownerID string, g model.GoalFields) []model.Widget {
	if g.Title == "" {
		g.Title = extract.GoalTitle(g)
	}

	goal := a.build(ownerID, model.WidgetTypeGoal, g.Title, g, nil)
	widgets := []model.Widget{goal}
	parentID := goal.ID

	if len(g.Affirmations) > 0 {
		payload := model.AffirmationFields{Affirmations: append([]string(nil), g.Affirmations...)}
		widgets = append(widgets, a.build(ownerID, model.WidgetTypeAffirmation, TitleGoalAffirmations, payload, &parentID))
	}
	if len(g.ActionSteps) > 0 {
		payload := model.HabitFields{Items: append([]string(nil), g.ActionSteps...)}
		widgets = append(widgets, a.build(ownerID, model.WidgetTypeChecklist, TitleGoalChecklist, payload, &parentID))
	}

	return widgets
}

func (a *Assembler) build(ownerID string, t model.WidgetType, title string, payload model.Fields, parentID *string) model.Widget {
	w := model.Widget{
		ID:      a.newID(),
		OwnerID: ownerID,
		Type:    t,
		Title:   title,
		Payload: payload,
		Active:  true,
	}
	if parentID != nil {
		id := *parentID
		w.ParentID = &id
	}
	return w
}

// CrystalTitle names a crystal widget after the crystals it recommends.
func CrystalTitle(f model.CrystalFields) string {
	if len(f.CrystalNames) == 0 {
		return TitleCrystals
	}
	return TitleCrystals + ": " + strings.Join(f.CrystalNames, ", ")
}
