package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// List caps.
const (
	MaxAffirmations = 5
	MaxActionSteps  = 10
	MaxHabitItems   = 10
)

// Length bounds in runes.
const (
	minAffirmationLen = 10
	maxAffirmationLen = 200
	minStepLen        = 5
	maxStepLen        = 200
	minHabitLen       = 3
	maxHabitLen       = 120
)

type candidateKind int

const (
	kindQuoted candidateKind = iota
	kindLabelled
	kindBullet
	kindNumbered
)

type candidate struct {
	text string
	kind candidateKind
}

var (
	quotedRe   = regexp.MustCompile(`["“]([^"“”\n]+)["”]`)
	labelledRe = regexp.MustCompile(`(?i)^(?:lời khẳng định|khẳng định|affirmation)\s*\d*\s*[:：]\s*(.+)$`)
	bulletRe   = regexp.MustCompile(`^[-*•+–]\s+(.+)$`)
	numberedRe = regexp.MustCompile(`^\d{1,2}[.)]\s+(.+)$`)
)

// affirmationMarkers are first-person tokens an affirmation must contain.
var affirmationMarkers = map[string]bool{
	"tôi": true, "mình": true, "i": true, "i'm": true, "my": true, "me": true, "myself": true,
}

// scanCandidates walks text line by line and returns every quoted, labelled,
// bulleted or numbered span in order of appearance.
func scanCandidates(text string) []candidate {
	var out []candidate
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		for _, m := range quotedRe.FindAllStringSubmatch(line, -1) {
			out = append(out, candidate{text: clean(m[1]), kind: kindQuoted})
		}

		kind, body := kindQuoted, ""
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			kind, body = kindBullet, m[1]
		} else if m := numberedRe.FindStringSubmatch(line); m != nil {
			kind, body = kindNumbered, m[1]
		}

		target := strings.TrimSpace(strings.Trim(line, "*_"))
		if body != "" {
			target = strings.TrimSpace(strings.Trim(body, "*_"))
		}
		if m := labelledRe.FindStringSubmatch(target); m != nil {
			kind, body = kindLabelled, m[1]
		}

		if body != "" {
			out = append(out, candidate{text: clean(body), kind: kind})
		}
	}
	return out
}

// clean strips markdown emphasis, surrounding quotes and whitespace.
func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"“”'")
	return strings.TrimSpace(s)
}

func withinBounds(s string, minLen, maxLen int) bool {
	n := utf8.RuneCountInString(s)
	return n >= minLen && n <= maxLen
}

// hasAffirmationMarker reports whether s speaks in the first person.
func hasAffirmationMarker(s string) bool {
	lower := normalize(s)
	if strings.Contains(lower, "bản thân") {
		return true
	}
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for _, tok := range tokens {
		if affirmationMarkers[tok] {
			return true
		}
	}
	return false
}

// collector de-duplicates case-insensitively while preserving first-seen order.
type collector struct {
	seen  map[string]bool
	items []string
	limit int
}

func newCollector(limit int) *collector {
	return &collector{seen: make(map[string]bool), items: []string{}, limit: limit}
}

func (c *collector) add(s string) bool {
	if c.full() {
		return false
	}
	key := strings.TrimRight(normalize(s), ".!…")
	if key == "" || c.seen[key] {
		return false
	}
	c.seen[key] = true
	c.items = append(c.items, s)
	return true
}

func (c *collector) full() bool {
	return len(c.items) >= c.limit
}

func isAffirmation(c candidate) bool {
	return withinBounds(c.text, minAffirmationLen, maxAffirmationLen) && hasAffirmationMarker(c.text)
}

// affirmations extracts affirmation lines. When structuredOnly is set, only
// quoted and labelled spans count, leaving bulleted lines for action steps.
func affirmations(cands []candidate, structuredOnly bool) []string {
	col := newCollector(MaxAffirmations)
	for _, c := range cands {
		if structuredOnly && c.kind != kindQuoted && c.kind != kindLabelled {
			continue
		}
		if isAffirmation(c) {
			col.add(c.text)
		}
	}
	return col.items
}

// actionSteps extracts bulleted and numbered lines, skipping anything already
// taken as an affirmation.
func actionSteps(cands []candidate, exclude []string) []string {
	col := newCollector(MaxActionSteps)
	for _, e := range exclude {
		col.seen[strings.TrimRight(normalize(e), ".!…")] = true
	}
	for _, c := range cands {
		if c.kind != kindBullet && c.kind != kindNumbered {
			continue
		}
		if withinBounds(c.text, minStepLen, maxStepLen) {
			col.add(c.text)
		}
	}
	return col.items
}

// habitItems extracts checklist items from bulleted and numbered lines,
// falling back to quoted spans when the text has no list structure.
func habitItems(cands []candidate) []string {
	col := newCollector(MaxHabitItems)
	for _, c := range cands {
		if (c.kind == kindBullet || c.kind == kindNumbered) && withinBounds(c.text, minHabitLen, maxHabitLen) {
			col.add(c.text)
		}
	}
	if len(col.items) > 0 {
		return col.items
	}
	for _, c := range cands {
		if c.kind == kindQuoted && withinBounds(c.text, minHabitLen, maxHabitLen) {
			col.add(c.text)
		}
	}
	return col.items
}
