package extract

import (
	"regexp"
	"strconv"
	"time"
)

var durationRe = regexp.MustCompile(`(?i)(?:^|[^\d])(\d{1,4})\s*(ngày|tuần|tháng|năm|days?|weeks?|months?|years?)(?:[^\p{L}]|$)`)

// maxDurationDays bounds parsed durations to something a goal can plausibly use.
const maxDurationDays = 100 * 365

// ParseDuration finds the first "number + time unit" span and returns now plus that span.
func ParseDuration(text string, now time.Time) (time.Time, bool) {
	m := durationRe.FindStringSubmatch(normalize(text))
	if m == nil {
		return time.Time{}, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return time.Time{}, false
	}

	var target time.Time
	switch m[2] {
	case "ngày", "day", "days":
		target = now.AddDate(0, 0, n)
	case "tuần", "week", "weeks":
		target = now.AddDate(0, 0, 7*n)
	case "tháng", "month", "months":
		target = now.AddDate(0, n, 0)
	case "năm", "year", "years":
		target = now.AddDate(n, 0, 0)
	default:
		return time.Time{}, false
	}

	if target.Sub(now) > maxDurationDays*24*time.Hour {
		return time.Time{}, false
	}
	return target, true
}
