package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/widgetflow/internal/model"
)

type crystalEntry struct {
	name    string
	aliases []string
}

// gazetteer lists known crystals with their Vietnamese and English names.
var gazetteer = []crystalEntry{
	{name: "Amethyst", aliases: []string{"amethyst", "thạch anh tím"}},
	{name: "Rose Quartz", aliases: []string{"rose quartz", "thạch anh hồng"}},
	{name: "Citrine", aliases: []string{"citrine", "thạch anh vàng"}},
	{name: "Clear Quartz", aliases: []string{"clear quartz", "thạch anh trắng"}},
	{name: "Smoky Quartz", aliases: []string{"smoky quartz", "thạch anh khói"}},
	{name: "Green Aventurine", aliases: []string{"aventurine", "thạch anh xanh"}},
	{name: "Tiger's Eye", aliases: []string{"tiger's eye", "tiger eye", "mắt hổ"}},
	{name: "Obsidian", aliases: []string{"obsidian", "hắc diện thạch"}},
	{name: "Black Tourmaline", aliases: []string{"black tourmaline", "tourmaline đen"}},
	{name: "Jade", aliases: []string{"jade", "ngọc bích"}},
	{name: "Agate", aliases: []string{"agate", "mã não"}},
	{name: "Moonstone", aliases: []string{"moonstone", "đá mặt trăng"}},
	{name: "Labradorite", aliases: []string{"labradorite"}},
	{name: "Pyrite", aliases: []string{"pyrite", "vàng găm"}},
	{name: "Lapis Lazuli", aliases: []string{"lapis lazuli"}},
	{name: "Selenite", aliases: []string{"selenite"}},
	{name: "Carnelian", aliases: []string{"carnelian"}},
	{name: "Hematite", aliases: []string{"hematite"}},
}

type purposeGroup struct {
	purpose  model.CrystalPurpose
	keywords []string
}

// purposeGroups are tested in order; the first group with a hit wins.
var purposeGroups = []purposeGroup{
	{purpose: model.PurposeLove, keywords: []string{"tình yêu", "tình duyên", "hôn nhân", "mối quan hệ", "love", "romance", "relationship"}},
	{purpose: model.PurposeWealth, keywords: []string{"tài lộc", "tiền bạc", "giàu", "thịnh vượng", "tài chính", "wealth", "money", "abundance", "prosperity"}},
	{purpose: model.PurposeMeditation, keywords: []string{"thiền", "tĩnh tâm", "bình an", "meditation", "calm", "peace", "mindfulness"}},
	{purpose: model.PurposeProtection, keywords: []string{"bảo vệ", "năng lượng xấu", "xua đuổi", "trừ tà", "protection", "negative energy"}},
}

var (
	usageKeywords     = []string{"cách dùng", "cách sử dụng", "hãy đeo", "đeo", "cầm", "how to use", "wear", "hold"}
	placementKeywords = []string{"đặt ở", "đặt tại", "để ở", "đặt", "bàn làm việc", "phòng ngủ", "place", "placement", "desk", "bedroom"}
	sentenceRe        = regexp.MustCompile(`[^.!?\n]+[.!?]?`)
	listMarkerRe      = regexp.MustCompile(`^\s*(?:[-*•+–]|\d{1,2}[.)])\s+`)
)

const maxGuideLen = 300

// CrystalNames returns the canonical names of known crystals mentioned in
// text, in order of first appearance.
func CrystalNames(text string) []string {
	lower := normalize(text)

	type hit struct {
		name string
		pos  int
	}
	var hits []hit
	for _, entry := range gazetteer {
		best := -1
		for _, alias := range entry.aliases {
			if idx := strings.Index(lower, alias); idx >= 0 && (best < 0 || idx < best) {
				best = idx
			}
		}
		if best >= 0 {
			hits = append(hits, hit{name: entry.name, pos: best})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	names := make([]string, 0, len(hits))
	for _, h := range hits {
		names = append(names, h.name)
	}
	return names
}

// CrystalPurpose classifies what the recommendation is for.
func CrystalPurpose(text string) model.CrystalPurpose {
	lower := normalize(text)
	for _, group := range purposeGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.purpose
			}
		}
	}
	return model.PurposeGeneral
}

// firstSentenceWith returns the first sentence of text containing any keyword.
func firstSentenceWith(text string, keywords []string) string {
	for _, sentence := range sentenceRe.FindAllString(text, -1) {
		lower := normalize(sentence)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				s := clean(listMarkerRe.ReplaceAllString(sentence, ""))
				if withinBounds(s, 1, maxGuideLen) {
					return s
				}
			}
		}
	}
	return ""
}
