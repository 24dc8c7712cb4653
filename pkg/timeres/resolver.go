// Package timeres turns the raw time hints scraped from a feed item into one absolute,
// UTC point in time used to order posts.
//
// Signals are tried by confidence, not by the order they were found in: embedded asset
// timestamps first (server assigned), then datetime attributes, then relative text like
// "2d" or "3mo", then a scan of the whole visible item text. When nothing matches the
// current time is used and the result is tagged as a fallback.
package timeres

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/umputun/postscope/pkg/domain"
)

// asset timestamps outside of [windowStart, windowEnd) are ignored
var (
	windowStart = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2031, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Resolve picks the most trustworthy signal and converts it to a timestamp.
// It never fails, the worst case is now with the fallback source.
func Resolve(signals []domain.TimeSignal, visibleText string, now time.Time) domain.Timestamp {
	now = now.UTC()

	for _, s := range signals {
		if s.Kind != domain.SignalAsset {
			continue
		}
		if t, ok := assetTime(s); ok {
			return domain.Timestamp{Time: t, Source: domain.SourceAsset}
		}
	}

	for _, s := range signals {
		if s.Kind != domain.SignalAbsolute {
			continue
		}
		if t, ok := parseAbsolute(s.Text); ok {
			return domain.Timestamp{Time: t, Source: domain.SourceAbsolute}
		}
	}

	for _, s := range signals {
		if s.Kind != domain.SignalRelative {
			continue
		}
		if t, ok := ParseRelative(s.Text, now); ok {
			return domain.Timestamp{Time: t, Source: domain.SourceRelative}
		}
	}

	if t, ok := ScanText(visibleText, now); ok {
		return domain.Timestamp{Time: t, Source: domain.SourceRelative}
	}

	return domain.Timestamp{Time: now, Source: domain.SourceFallback}
}

// assetTime converts an embedded epoch to time if it falls into the sane window
func assetTime(s domain.TimeSignal) (time.Time, bool) {
	if s.Epoch <= 0 {
		return time.Time{}, false
	}
	var t time.Time
	switch s.Unit {
	case domain.EpochMillis:
		t = time.UnixMilli(s.Epoch).UTC()
	default:
		t = time.Unix(s.Epoch, 0).UTC()
	}
	if t.Before(windowStart) || !t.Before(windowEnd) {
		return time.Time{}, false
	}
	return t, true
}

// parseAbsolute parses a datetime attribute. Values without a zone are taken as UTC.
func parseAbsolute(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
