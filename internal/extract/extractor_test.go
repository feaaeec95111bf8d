package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

func newTestExtractor() *Extractor {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func TestExtractGoal_AmountAndDuration(t *testing.T) {
	e := newTestExtractor()

	got := e.ExtractGoal("tôi muốn đạt mục tiêu 50 triệu trong 6 tháng")

	assert.Equal(t, int64(50_000_000), got.TargetAmount)
	assert.True(t, got.AmountDetected)
	assert.True(t, got.DateDetected)
	assert.True(t, fixedNow.AddDate(0, 6, 0).Equal(got.TargetDate))
	assert.Equal(t, "Mục tiêu 50 triệu", got.Title)
	assert.Empty(t, got.Affirmations)
	assert.Empty(t, got.ActionSteps)
	assert.Empty(t, got.Crystals)
	assert.NotNil(t, got.Affirmations)
	assert.NotNil(t, got.ActionSteps)
	assert.NotNil(t, got.Crystals)
}

func TestExtractGoal_Defaults(t *testing.T) {
	e := newTestExtractor()

	got := e.ExtractGoal("Tôi muốn có một mục tiêu rõ ràng hơn")

	assert.Equal(t, model.DefaultTargetAmount, got.TargetAmount)
	assert.False(t, got.AmountDetected)
	assert.False(t, got.DateDetected)
	assert.True(t, fixedNow.AddDate(0, model.DefaultGoalHorizonMonths, 0).Equal(got.TargetDate))
	assert.Equal(t, "Mục tiêu mới", got.Title)
}

func TestExtractGoal_LinkedLists(t *testing.T) {
	e := newTestExtractor()
	text := `Mục tiêu: tiết kiệm 100 triệu trong 1 năm.
Kế hoạch:
1. Lập ngân sách hàng tháng
2. Tiết kiệm 20% thu nhập
- Cắt giảm chi tiêu không cần thiết
Lời khẳng định: "Tôi là nam châm thu hút tiền bạc"
Hãy đeo vòng thạch anh vàng.`

	got := e.ExtractGoal(text)

	assert.Equal(t, int64(100_000_000), got.TargetAmount)
	assert.True(t, fixedNow.AddDate(1, 0, 0).Equal(got.TargetDate))
	assert.Equal(t, []string{"Tôi là nam châm thu hút tiền bạc"}, got.Affirmations)
	assert.Equal(t, []string{
		"Lập ngân sách hàng tháng",
		"Tiết kiệm 20% thu nhập",
		"Cắt giảm chi tiêu không cần thiết",
	}, got.ActionSteps)
	assert.Equal(t, []string{"Citrine"}, got.Crystals)
	assert.Equal(t, "Mục tiêu 100 triệu", got.Title)
}

func TestExtractGoal_BulletedAffirmationIsNotAlsoAStep(t *testing.T) {
	e := newTestExtractor()
	text := `- "Tôi xứng đáng với sự thịnh vượng"
- Mở tài khoản tiết kiệm riêng`

	got := e.ExtractGoal(text)

	assert.Equal(t, []string{"Tôi xứng đáng với sự thịnh vượng"}, got.Affirmations)
	assert.Equal(t, []string{"Mở tài khoản tiết kiệm riêng"}, got.ActionSteps)
}

func TestExtractGoal_ActionStepCap(t *testing.T) {
	e := newTestExtractor()
	var lines []string
	for i := 1; i <= 14; i++ {
		lines = append(lines, strings.Repeat("x", i)+" bước hành động")
	}
	text := "- " + strings.Join(lines, "\n- ")

	got := e.ExtractGoal(text)
	require.Len(t, got.ActionSteps, MaxActionSteps)
	assert.Equal(t, "x bước hành động", got.ActionSteps[0])
}

func TestExtractAffirmations_QuotedLines(t *testing.T) {
	e := newTestExtractor()
	reply := `Đây là những câu khẳng định dành cho bạn:
"Tôi xứng đáng được hạnh phúc và bình an."
“Tôi xứng đáng nhận được sự giàu có.”
"Tôi xứng đáng được yêu thương trọn vẹn."
"Tôi xứng đáng được hạnh phúc và bình an."`

	got := e.ExtractAffirmations(reply)

	assert.Equal(t, []string{
		"Tôi xứng đáng được hạnh phúc và bình an.",
		"Tôi xứng đáng nhận được sự giàu có.",
		"Tôi xứng đáng được yêu thương trọn vẹn.",
	}, got.Affirmations)
}

func TestExtractAffirmations_Filters(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "requires first person marker",
			input: `"Hôm nay trời thật đẹp và trong xanh"`,
			want:  []string{},
		},
		{
			name:  "rejects too short",
			input: `"Tôi ổn"`,
			want:  []string{},
		},
		{
			name:  "rejects too long",
			input: `"Tôi ` + strings.Repeat("rất ", 60) + `vui"`,
			want:  []string{},
		},
		{
			name:  "labelled line",
			input: "Affirmation: I am worthy of love and respect",
			want:  []string{"I am worthy of love and respect"},
		},
		{
			name:  "bold label inside bullet",
			input: "- **Khẳng định:** Mình luôn tin vào bản thân",
			want:  []string{"Mình luôn tin vào bản thân"},
		},
		{
			name:  "numbered list",
			input: "1. I deserve abundance in my life\n2) Tôi biết ơn mọi điều",
			want:  []string{"I deserve abundance in my life", "Tôi biết ơn mọi điều"},
		},
		{
			name:  "case-insensitive dedup",
			input: "\"Tôi xứng đáng được yêu\"\n\"TÔI XỨNG ĐÁNG ĐƯỢC YÊU!\"",
			want:  []string{"Tôi xứng đáng được yêu"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractAffirmations(tt.input)
			assert.Equal(t, tt.want, got.Affirmations)
		})
	}
}

func TestExtractAffirmations_Cap(t *testing.T) {
	e := newTestExtractor()
	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteString("- Tôi là người tự tin số ")
		b.WriteString(string(rune('A' + i)))
		b.WriteString("\n")
	}

	got := e.ExtractAffirmations(b.String())
	require.Len(t, got.Affirmations, MaxAffirmations)
	assert.Equal(t, "Tôi là người tự tin số A", got.Affirmations[0])
	assert.Equal(t, "Tôi là người tự tin số E", got.Affirmations[4])
}

func TestExtractHabits(t *testing.T) {
	e := newTestExtractor()

	t.Run("bullets", func(t *testing.T) {
		got := e.ExtractHabits(`Checklist thói quen buổi sáng:
- Uống một cốc nước ấm
- Thiền 10 phút
* Đọc 10 trang sách
- Uống một cốc nước ấm`)
		assert.Equal(t, []string{"Uống một cốc nước ấm", "Thiền 10 phút", "Đọc 10 trang sách"}, got.Items)
	})

	t.Run("quoted fallback", func(t *testing.T) {
		got := e.ExtractHabits(`Hãy thử "đi bộ 30 phút" và "ngủ trước 11 giờ" mỗi ngày.`)
		assert.Equal(t, []string{"đi bộ 30 phút", "ngủ trước 11 giờ"}, got.Items)
	})

	t.Run("nothing structured", func(t *testing.T) {
		got := e.ExtractHabits("Bạn nên ngủ sớm hơn.")
		assert.NotNil(t, got.Items)
		assert.Empty(t, got.Items)
	})
}

func TestExtractCrystals(t *testing.T) {
	e := newTestExtractor()
	text := `Bạn nên dùng thạch anh hồng và Amethyst để thu hút tình yêu.
Cách dùng: đeo vòng tay mỗi ngày.
Hãy đặt một viên ở đầu giường trong phòng ngủ.`

	got := e.ExtractCrystals(text)

	assert.Equal(t, []string{"Rose Quartz", "Amethyst"}, got.CrystalNames)
	assert.Equal(t, model.PurposeLove, got.Purpose)
	assert.Equal(t, "Cách dùng: đeo vòng tay mỗi ngày.", got.UsageGuide)
	assert.Equal(t, "Hãy đặt một viên ở đầu giường trong phòng ngủ.", got.Placement)
}

func TestExtractCrystals_Gazetteer(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "alias dedup", text: "Amethyst, tức thạch anh tím, rất tốt", want: []string{"Amethyst"}},
		{name: "first appearance order", text: "Obsidian then Citrine then Jade", want: []string{"Obsidian", "Citrine", "Jade"}},
		{name: "vietnamese names", text: "mắt hổ và mã não", want: []string{"Tiger's Eye", "Agate"}},
		{name: "generic word only", text: "một viên đá đẹp", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CrystalNames(tt.text))
		})
	}
}

func TestCrystalPurpose_PriorityOrder(t *testing.T) {
	tests := []struct {
		text string
		want model.CrystalPurpose
	}{
		{text: "để thu hút tiền bạc và tình yêu", want: model.PurposeLove},
		{text: "for wealth and protection", want: model.PurposeWealth},
		{text: "giúp thiền và bảo vệ", want: model.PurposeMeditation},
		{text: "xua đuổi năng lượng xấu", want: model.PurposeProtection},
		{text: "đẹp", want: model.PurposeGeneral},
		{text: "", want: model.PurposeGeneral},
	}

	for _, tt := range tests {
		t.Run(string(tt.want)+"/"+tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, CrystalPurpose(tt.text))
		})
	}
}

func TestExtract_NeverFails(t *testing.T) {
	e := newTestExtractor()
	inputs := []string{
		"",
		"   \n\t  ",
		"\"",
		"“”",
		"- ",
		"1.",
		"Affirmation:",
		strings.Repeat("tỷ ", 1000),
		strings.Repeat("9", 400) + " triệu",
		"\xff\xfe invalid utf8",
		"🙂🙂🙂 \"🙂\"",
	}

	for _, in := range inputs {
		for _, c := range model.ActionableCategories() {
			fields, ok := e.Extract(c, in)
			require.True(t, ok)
			require.NotNil(t, fields)
			assert.Equal(t, c, fields.Category())

			switch f := fields.(type) {
			case model.GoalFields:
				assert.NotNil(t, f.Affirmations)
				assert.NotNil(t, f.ActionSteps)
				assert.NotNil(t, f.Crystals)
				assert.NotEmpty(t, f.Title)
				assert.Positive(t, f.TargetAmount)
				assert.False(t, f.TargetDate.IsZero())
			case model.AffirmationFields:
				assert.NotNil(t, f.Affirmations)
			case model.HabitFields:
				assert.NotNil(t, f.Items)
			case model.CrystalFields:
				assert.NotNil(t, f.CrystalNames)
				assert.NotEmpty(t, f.Purpose)
			default:
				t.Fatalf("unexpected fields type %T", fields)
			}
		}
	}

	fields, ok := e.Extract(model.CategoryGeneral, "anything")
	assert.False(t, ok)
	assert.Nil(t, fields)
}
