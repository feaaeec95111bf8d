package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// A number followed by a magnitude unit: "50 triệu", "1,5 tỷ", "200k", "3 million".
	magnitudeAmountRe = regexp.MustCompile(`(?i)(?:^|[^\d.,])(\d+(?:[.,]\d+)*)\s*(tỷ|tỉ|triệu|nghìn|ngàn|billion|million|thousand|bn|tr|k|m)(?:[^\p{L}]|$)`)
	// A plain grouped number followed by a currency token: "50.000.000 đồng", "2000000 vnd".
	currencyAmountRe = regexp.MustCompile(`(?i)(?:^|[^\d.,])(\d{1,3}(?:[.,]\d{3})+|\d{4,})\s*(?:vnđ|vnd|đồng|đ)(?:[^\p{L}]|$)`)
)

var magnitudes = map[string]float64{
	"nghìn":    1e3,
	"ngàn":     1e3,
	"thousand": 1e3,
	"k":        1e3,
	"triệu":    1e6,
	"tr":       1e6,
	"million":  1e6,
	"m":        1e6,
	"tỷ":       1e9,
	"tỉ":       1e9,
	"billion":  1e9,
	"bn":       1e9,
}

// ParseAmount finds the first money amount in text and normalizes it to đồng.
func ParseAmount(text string) (int64, bool) {
	lower := normalize(text)

	if m := magnitudeAmountRe.FindStringSubmatch(lower); m != nil {
		value, ok := parseNumber(m[1])
		mag := magnitudes[m[2]]
		if ok && value > 0 && mag > 0 {
			return toAmount(value * mag)
		}
	}

	if m := currencyAmountRe.FindStringSubmatch(lower); m != nil {
		digits := strings.NewReplacer(".", "", ",", "").Replace(m[1])
		if value, err := strconv.ParseFloat(digits, 64); err == nil && value > 0 {
			return toAmount(value)
		}
	}

	return 0, false
}

// parseNumber reads "50", "1,5", "1.5" and grouped forms like "1.000" or "2,500".
// A single separator followed by one or two digits is a decimal point;
// anything else is digit grouping.
func parseNumber(s string) (float64, bool) {
	seps := strings.Count(s, ".") + strings.Count(s, ",")
	if seps == 1 {
		idx := strings.IndexAny(s, ".,")
		if frac := len(s) - idx - 1; frac >= 1 && frac <= 2 {
			s = s[:idx] + "." + s[idx+1:]
			v, err := strconv.ParseFloat(s, 64)
			return v, err == nil
		}
	}
	s = strings.NewReplacer(".", "", ",", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func toAmount(v float64) (int64, bool) {
	if math.IsInf(v, 0) || math.IsNaN(v) || v >= math.MaxInt64 {
		return 0, false
	}
	return int64(math.Round(v)), true
}

// FormatAmount renders an amount with the largest fitting Vietnamese unit,
// e.g. "50 triệu", "1,5 tỷ", "500 nghìn".
func FormatAmount(amount int64) string {
	switch {
	case amount >= 1_000_000_000:
		return formatUnit(float64(amount)/1e9) + " tỷ"
	case amount >= 1_000_000:
		return formatUnit(float64(amount)/1e6) + " triệu"
	case amount >= 1_000:
		return formatUnit(float64(amount)/1e3) + " nghìn"
	default:
		return strconv.FormatInt(amount, 10) + " đồng"
	}
}

func formatUnit(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return strings.Replace(s, ".", ",", 1)
}
