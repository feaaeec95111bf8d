package classification

import "github.com/Veraticus/widgetflow/internal/model"

// DefaultAcceptanceThreshold is the minimum confidence a category needs to be selected.
const DefaultAcceptanceThreshold = 0.80

// Shared regex keywords for money amounts and time spans.
const (
	amountKeyword   = `\d+(?:[.,]\d+)?\s*(?:tỷ|tỉ|triệu|tr|nghìn|ngàn|billion|million|thousand|bn|k)(?:[^\p{L}]|$)`
	durationKeyword = `\d+\s*(?:ngày|tuần|tháng|năm|days?|weeks?|months?|years?)`
)

func words(texts ...string) []model.Keyword {
	out := make([]model.Keyword, 0, len(texts))
	for _, t := range texts {
		out = append(out, model.Keyword{Text: t})
	}
	return out
}

func regex(pattern string) model.Keyword {
	return model.Keyword{Text: pattern, IsRegex: true}
}

// DefaultRules returns the built-in bilingual rule table, in priority order.
func DefaultRules() []model.ClassificationRule {
	return []model.ClassificationRule{
		{
			Category: model.CategoryGoal,
			Keywords: append(words(
				"mục tiêu", "goal", "target",
				"đạt", "achieve", "tiết kiệm", "save", "kiếm", "earn",
				"thu nhập", "income", "tài chính", "financial",
			), regex(amountKeyword), regex(durationKeyword)),
			RequiredKeywords: []string{"mục tiêu", "goal", "target"},
			MinMatches:       2,
			BaseConfidence:   0.80,
		},
		{
			Category: model.CategoryAffirmation,
			Keywords: words(
				"khẳng định", "affirmation", "mantra", "câu thần chú", "xứng đáng", "deserve",
				"tôi là", "i am", "tôi có thể", "i can", "lặp lại", "repeat",
				"tích cực", "positive", "tự tin", "confident", "biết ơn", "grateful",
			),
			RequiredKeywords: []string{"khẳng định", "affirmation", "mantra", "câu thần chú", "xứng đáng", "deserve"},
			MinMatches:       2,
			BaseConfidence:   0.85,
		},
		{
			Category: model.CategoryHabit,
			Keywords: words(
				"thói quen", "habit", "routine", "checklist",
				"mỗi ngày", "hàng ngày", "hằng ngày", "every day", "daily",
				"buổi sáng", "morning", "thiền", "meditation", "tập thể dục", "exercise",
				"uống nước", "drink water", "đọc sách", "reading",
			),
			RequiredKeywords: []string{"thói quen", "habit", "routine", "checklist"},
			MinMatches:       2,
			BaseConfidence:   0.80,
		},
		{
			Category: model.CategoryCrystal,
			Keywords: words(
				"crystal", "đá phong thủy", "viên đá", "đá quý", "gemstone",
				"thạch anh", "quartz", "amethyst", "citrine", "obsidian", "mắt hổ", "tiger's eye",
				"phong thủy", "feng shui", "năng lượng", "energy", "vòng tay", "bracelet",
				"chakra", "thanh tẩy", "cleanse",
			),
			RequiredKeywords: []string{
				"crystal", "đá phong thủy", "viên đá", "đá quý", "gemstone",
				"thạch anh", "quartz", "amethyst", "citrine", "obsidian", "mắt hổ", "tiger's eye",
			},
			MinMatches:     2,
			BaseConfidence: 0.80,
		},
		{
			// General questions score like any other category but are dropped before ranking.
			Category: model.CategoryGeneral,
			Keywords: words(
				"là gì", "what is", "tại sao", "why", "như thế nào", "how do",
				"có nên", "should i", "giải thích", "explain",
			),
			MinMatches:     1,
			BaseConfidence: 0.90,
		},
	}
}
