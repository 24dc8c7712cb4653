package originality

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const badge = `(?:1st|2nd|3rd\+?|verified)(?:\s+(?:degree connection|profile))?`

var (
	badgeRe         = regexp.MustCompile(`(?i)[•·]?\s*\b` + badge)
	badgeLineRe     = regexp.MustCompile(`(?i)^[•·\s]*(?:` + badge + `)?[•·\s]*$`)
	trailingBadgeRe = regexp.MustCompile(`(?i)(?:\s*[•·]\s*|\s+)` + badge + `[•·\s]*$`)
	bulletsRe       = regexp.MustCompile(`[•·]`)
	spacesRe        = regexp.MustCompile(`\s+`)
)

// NormalizeName prepares a display name for comparison: compatibility-normalized,
// lower-cased, without connection-degree and verification badges, single spaced.
func NormalizeName(name string) string {
	name = norm.NFKC.String(name)
	name = badgeRe.ReplaceAllString(name, " ")
	name = bulletsRe.ReplaceAllString(name, " ")
	name = spacesRe.ReplaceAllString(name, " ")
	return strings.ToLower(strings.TrimSpace(name))
}

// CleanName extracts the canonical display name from a raw author block: the first line
// that is not pure badge text, with trailing badge fragments removed.
func CleanName(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if badgeLineRe.MatchString(line) {
			continue
		}
		for {
			stripped := strings.TrimSpace(trailingBadgeRe.ReplaceAllString(line, ""))
			if stripped == line {
				break
			}
			line = stripped
		}
		return strings.TrimRight(line, "•· ")
	}
	return ""
}

// CleanTitle returns the first non-empty line of an author headline block, single spaced
func CleanTitle(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return spacesRe.ReplaceAllString(line, " ")
		}
	}
	return ""
}
