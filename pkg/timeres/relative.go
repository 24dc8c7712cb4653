package timeres

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// larger amounts are not produced by the feed and would overflow durations
const maxAmount = 100000

var (
	nowRe      = regexp.MustCompile(`^(just\s+)?now\b`)
	relativeRe = regexp.MustCompile(`^(\d+)\s*([a-z]+)`)

	// auxiliary patterns for the visible item text, tried in order
	auxPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(\d+\s*(?:mos?|mins?|secs?|hrs?|wks?|yrs?|[smhdwy]))\s*ago\b`),
		regexp.MustCompile(`(?i)\b(\d+\s*(?:second|minute|hour|day|week|month|year)s?)\s+ago\b`),
		regexp.MustCompile(`(?i)\b(\d+mo)\b`),
		regexp.MustCompile(`(?i)\b(\d+[smhdwy])\b`),
	}
)

// ParseRelative converts relative text like "5m", "2d", "3mo", "1 year ago" or "just now"
// to an absolute time counted back from now. Months and years are calendar units.
func ParseRelative(text string, now time.Time) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return time.Time{}, false
	}
	if nowRe.MatchString(text) {
		return now, true
	}

	m := relativeRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil || amount > maxAmount {
		return time.Time{}, false
	}
	unit := m[2]

	switch {
	case strings.HasPrefix(unit, "s"):
		return now.Add(-time.Duration(amount) * time.Second), true
	case strings.HasPrefix(unit, "m") && !strings.Contains(unit, "mo"):
		return now.Add(-time.Duration(amount) * time.Minute), true
	case strings.HasPrefix(unit, "h"):
		return now.Add(-time.Duration(amount) * time.Hour), true
	case strings.HasPrefix(unit, "d"):
		return now.AddDate(0, 0, -amount), true
	case strings.HasPrefix(unit, "w"):
		return now.AddDate(0, 0, -7*amount), true
	case strings.Contains(unit, "mo"):
		return SubtractMonths(now, amount), true
	case strings.HasPrefix(unit, "y"):
		return SubtractYears(now, amount), true
	}
	return time.Time{}, false
}

// ScanText looks for the first relative time expression anywhere in the text
func ScanText(text string, now time.Time) (time.Time, bool) {
	if strings.TrimSpace(text) == "" {
		return time.Time{}, false
	}
	for _, re := range auxPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if t, ok := ParseRelative(m[1], now); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
