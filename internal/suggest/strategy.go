package suggest

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/widgetflow/internal/classification"
	"github.com/Veraticus/widgetflow/internal/model"
	"golang.org/x/text/unicode/norm"
)

// Strategy sources.
const (
	SourceClassifier    = "classifier"
	SourceLegacyTrigger = "legacy_trigger"
	SourceKarma         = "karma"
)

// Strategy is one detector the coordinator may consult. Evaluate returns the
// candidate widgets and the message to show with them; an empty list means
// the strategy has nothing to suggest.
type Strategy interface {
	Name() string
	Evaluate(turn *TurnContext) ([]model.Widget, string)
}

// Classifier picks a category for a turn.
type Classifier interface {
	Classify(userMessage, assistantReply string) model.DetectionResult
}

// Extractor turns text into category fields.
type Extractor interface {
	Extract(category model.Category, text string) (model.Fields, bool)
	ExtractAffirmations(text string) model.AffirmationFields
}

// Assembler builds widgets from fields.
type Assembler interface {
	Assemble(ownerID string, fields model.Fields) []model.Widget
}

var suggestionMessages = map[model.Category]string{
	model.CategoryGoal:        "Bạn có muốn lưu mục tiêu này vào bảng của mình không?",
	model.CategoryAffirmation: "Bạn có muốn lưu những lời khẳng định này không?",
	model.CategoryHabit:       "Bạn có muốn theo dõi những thói quen này không?",
	model.CategoryCrystal:     "Bạn có muốn lưu gợi ý đá phong thủy này không?",
}

// MessageFor returns the confirmation prompt for a category.
func MessageFor(c model.Category) string {
	if msg, ok := suggestionMessages[c]; ok {
		return msg
	}
	return "Bạn có muốn lưu gợi ý này không?"
}

// ClassifierStrategy runs the pre-check, classifier, extractor and assembler.
type ClassifierStrategy struct {
	classifier Classifier
	extractor  Extractor
	assembler  Assembler
}

// NewClassifierStrategy creates the primary strategy.
func NewClassifierStrategy(c Classifier, e Extractor, a Assembler) *ClassifierStrategy {
	return &ClassifierStrategy{classifier: c, extractor: e, assembler: a}
}

// Name implements Strategy.
func (s *ClassifierStrategy) Name() string { return SourceClassifier }

// Evaluate implements Strategy.
func (s *ClassifierStrategy) Evaluate(turn *TurnContext) ([]model.Widget, string) {
	if !classification.PreCheck(turn.UserMessage, turn.AssistantReply) {
		return nil, ""
	}

	result := s.classifier.Classify(turn.UserMessage, turn.AssistantReply)
	if !result.Detected() {
		return nil, ""
	}
	category := *result.Category

	slog.Debug("Classified turn",
		"owner_id", turn.OwnerID,
		"category", category,
		"confidence", result.Confidence,
		"matched", result.MatchedKeywords)

	fields, ok := s.extractor.Extract(category, turn.Text())
	if !ok || !hasItems(fields) {
		return nil, ""
	}
	return s.assembler.Assemble(turn.OwnerID, fields), MessageFor(category)
}

// DefaultTriggerPhrases are the explicit creation commands the legacy
// trigger reacts to in the user's message.
var DefaultTriggerPhrases = map[model.Category][]string{
	model.CategoryGoal: {
		"tạo mục tiêu", "đặt mục tiêu", "thêm mục tiêu", "lưu mục tiêu",
		"create a goal", "set a goal", "add a goal", "new goal",
	},
	model.CategoryAffirmation: {
		"tạo khẳng định", "thêm khẳng định", "tạo lời khẳng định",
		"create an affirmation", "add an affirmation",
	},
	model.CategoryHabit: {
		"thêm thói quen", "tạo thói quen", "theo dõi thói quen",
		"add a habit", "create a habit", "track a habit",
	},
	model.CategoryCrystal: {
		"gợi ý đá", "chọn đá phong thủy", "recommend a crystal", "suggest a crystal",
	},
}

// LegacyTriggerStrategy fires on explicit creation commands in the user
// message, regardless of classifier confidence.
type LegacyTriggerStrategy struct {
	extractor Extractor
	assembler Assembler
	phrases   map[model.Category][]string
}

// NewLegacyTriggerStrategy creates the trigger strategy. A nil phrase table
// uses DefaultTriggerPhrases.
func NewLegacyTriggerStrategy(e Extractor, a Assembler, phrases map[model.Category][]string) *LegacyTriggerStrategy {
	if phrases == nil {
		phrases = DefaultTriggerPhrases
	}
	normalized := make(map[model.Category][]string, len(phrases))
	for c, list := range phrases {
		for _, p := range list {
			normalized[c] = append(normalized[c], normalize(p))
		}
	}
	return &LegacyTriggerStrategy{extractor: e, assembler: a, phrases: normalized}
}

// Name implements Strategy.
func (s *LegacyTriggerStrategy) Name() string { return SourceLegacyTrigger }

// Trigger returns the category whose phrase appears in the message.
// Categories are tested in priority order.
func (s *LegacyTriggerStrategy) Trigger(userMessage string) (model.Category, bool) {
	lower := normalize(userMessage)
	for _, c := range model.ActionableCategories() {
		for _, p := range s.phrases[c] {
			if strings.Contains(lower, p) {
				return c, true
			}
		}
	}
	return "", false
}

// Evaluate implements Strategy.
func (s *LegacyTriggerStrategy) Evaluate(turn *TurnContext) ([]model.Widget, string) {
	category, ok := s.Trigger(turn.UserMessage)
	if !ok {
		return nil, ""
	}
	fields, ok := s.extractor.Extract(category, turn.Text())
	if !ok || !hasItems(fields) {
		return nil, ""
	}
	return s.assembler.Assemble(turn.OwnerID, fields), MessageFor(category)
}

var karmaLabelRe = regexp.MustCompile(`(?im)^[\s\-*•>#]*(?:\*\*)?(?:lời khẳng định|khẳng định|affirmation)\s*\d*\s*(?:\*\*)?\s*[:：]`)

// KarmaStrategy looks for labelled affirmations in the assistant reply.
type KarmaStrategy struct {
	extractor Extractor
	assembler Assembler
}

// NewKarmaStrategy creates the structural-marker strategy.
func NewKarmaStrategy(e Extractor, a Assembler) *KarmaStrategy {
	return &KarmaStrategy{extractor: e, assembler: a}
}

// Name implements Strategy.
func (s *KarmaStrategy) Name() string { return SourceKarma }

// Evaluate implements Strategy.
func (s *KarmaStrategy) Evaluate(turn *TurnContext) ([]model.Widget, string) {
	if !karmaLabelRe.MatchString(turn.AssistantReply) {
		return nil, ""
	}
	fields := s.extractor.ExtractAffirmations(turn.AssistantReply)
	if len(fields.Affirmations) == 0 {
		return nil, ""
	}
	return s.assembler.Assemble(turn.OwnerID, fields), MessageFor(model.CategoryAffirmation)
}

// hasItems reports whether list-shaped fields carry at least one entry.
func hasItems(fields model.Fields) bool {
	switch f := fields.(type) {
	case model.AffirmationFields:
		return len(f.Affirmations) > 0
	case model.HabitFields:
		return len(f.Items) > 0
	default:
		return true
	}
}

func normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
