package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/widgetflow/internal/extract"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/Veraticus/widgetflow/internal/quota"
)

// RenderDetection formats a classification result on one line.
func RenderDetection(d model.DetectionResult) string {
	if !d.Detected() {
		return FormatInfo(fmt.Sprintf("No actionable category (confidence %.2f)", d.Confidence))
	}
	line := fmt.Sprintf("Detected %s (confidence %.2f)", StyleBold(string(d.CategoryOrEmpty())), d.Confidence)
	if len(d.MatchedKeywords) > 0 {
		line += " " + StyleSubtle("["+strings.Join(d.MatchedKeywords, ", ")+"]")
	}
	return FormatSuccess(line)
}

// RenderScores formats per-category scores as a small table.
func RenderScores(scores []model.CategoryScore) string {
	if len(scores) == 0 {
		return StyleSubtle("no scores")
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-12s %7s %10s %8s", "category", "matches", "confidence", "required")))
	b.WriteString("\n")
	for _, s := range scores {
		required := "no"
		if s.RequiredMet {
			required = "yes"
		}
		row := fmt.Sprintf("%-12s %7d %10.2f %8s", s.Category, s.Matches, s.Confidence, required)
		if s.Candidate {
			row = StyleBold(row)
		}
		b.WriteString(TableCellStyle.Render(row))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderSuggestion renders a pending suggestion in a box.
func RenderSuggestion(s *model.Suggestion) string {
	if s == nil {
		return FormatInfo("Nothing to suggest for this turn")
	}
	content := s.Message + "\n\n" + RenderWidgets(s.Widgets)
	return RenderBox(fmt.Sprintf("%s Suggested by %s", SparkIcon, s.Source), content)
}

// RenderWidgets lists widgets, indenting children under their parent.
func RenderWidgets(widgets []model.Widget) string {
	if len(widgets) == 0 {
		return StyleSubtle("no widgets")
	}

	lines := make([]string, 0, len(widgets))
	for _, w := range widgets {
		line := fmt.Sprintf("%s %s", WidgetIcon(w.Type), StyleBold(w.Title))
		if detail := widgetDetail(w.Payload); detail != "" {
			line += " " + StyleSubtle(detail)
		}
		if w.ParentID != nil {
			line = ChildStyle.Render(ChildIcon + " " + line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func widgetDetail(f model.Fields) string {
	switch p := f.(type) {
	case model.GoalFields:
		return fmt.Sprintf("(%s by %s)", extract.FormatAmount(p.TargetAmount), p.TargetDate.Format("2006-01-02"))
	case model.AffirmationFields:
		return fmt.Sprintf("(%d affirmations)", len(p.Affirmations))
	case model.HabitFields:
		return fmt.Sprintf("(%d items)", len(p.Items))
	case model.CrystalFields:
		return fmt.Sprintf("(%s)", p.Purpose)
	default:
		return ""
	}
}

// RenderQuotaRejection explains why a confirmation was refused.
func RenderQuotaRejection(d quota.Decision) string {
	return FormatWarning(fmt.Sprintf(
		"Tier %s allows %d active widgets and you already have %d. Deactivate a widget or upgrade to add more.",
		d.Tier, d.Limit, d.CurrentCount,
	))
}

// RenderDecision summarizes an accepted quota decision.
func RenderDecision(d quota.Decision) string {
	if d.Unlimited() {
		return StyleSubtle(fmt.Sprintf("tier %s: unlimited widgets", d.Tier))
	}
	return StyleSubtle(fmt.Sprintf("tier %s: %d of %d widgets used", d.Tier, d.CurrentCount, d.Limit))
}
