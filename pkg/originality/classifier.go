// Package originality decides whether a scraped feed item was authored by the feed owner
// or is a share of somebody else's content.
package originality

import (
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/postscope/pkg/domain"
)

// DefaultIndicators are phrases the feed renders above shared content
var DefaultIndicators = []string{"reposted this", "shared this", "originally posted by"}

// Classifier compares item authors with the feed owner
type Classifier struct {
	failOriginal bool
	indicators   []string
}

// Config holds classifier settings.
// FailClosed turns extraction failures into reposts instead of originals.
type Config struct {
	FailClosed bool
	Indicators []string // added to DefaultIndicators
}

// New makes a classifier, indicators are matched case-insensitively
func New(cfg Config) *Classifier {
	indicators := make([]string, 0, len(DefaultIndicators)+len(cfg.Indicators))
	for _, s := range append(append([]string{}, DefaultIndicators...), cfg.Indicators...) {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			indicators = append(indicators, s)
		}
	}
	return &Classifier{failOriginal: !cfg.FailClosed, indicators: indicators}
}

// Classify returns the verdict for a single item. It never fails: without an owner the item
// is original, a broken author block resolves to the configured failure verdict.
func (c *Classifier) Classify(item domain.Candidate, owner *domain.FeedOwner) (verdict domain.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[WARN] classification of item %d failed: %v", item.Position, r)
			verdict = c.failure()
		}
	}()

	if owner == nil {
		return domain.Verdict{Original: true, Reason: domain.ReasonNoName}
	}
	ownerName := NormalizeName(CleanName(owner.Name))
	if ownerName == "" {
		return domain.Verdict{Original: true, Reason: domain.ReasonNoName}
	}

	text := item.VisibleText
	if text == "" {
		text = item.Text
	}
	if c.hasIndicator(text) {
		return domain.Verdict{Original: false, Reason: domain.ReasonIndicator}
	}

	if item.Err != nil {
		lgr.Printf("[DEBUG] author of item %d not readable: %v", item.Position, item.Err)
		return c.failure()
	}

	author := NormalizeName(CleanName(item.AuthorName))
	switch {
	case author == "":
		return domain.Verdict{Original: true, Reason: domain.ReasonNoName}
	case author == ownerName:
		return domain.Verdict{Original: true, Reason: domain.ReasonExactName}
	case strings.Contains(author, ownerName) || strings.Contains(ownerName, author):
		return domain.Verdict{Original: true, Reason: domain.ReasonSubstringName}
	}
	return domain.Verdict{Original: false, Reason: domain.ReasonMismatch}
}

func (c *Classifier) hasIndicator(text string) bool {
	if text == "" {
		return false
	}
	text = strings.ToLower(text)
	for _, ind := range c.indicators {
		if strings.Contains(text, ind) {
			return true
		}
	}
	return false
}

func (c *Classifier) failure() domain.Verdict {
	return domain.Verdict{Original: c.failOriginal, Reason: domain.ReasonNoName}
}
