package scrape

import (
	"regexp"
	"strings"

	"github.com/umputun/postscope/pkg/domain"
	"github.com/umputun/postscope/pkg/originality"
)

var (
	seeMoreRe     = regexp.MustCompile(`(?i)\s*(?:…|\.\.\.)\s*(?:see more|more)$`)
	inlineSpaceRe = regexp.MustCompile(`[ \t\x{00a0}]+`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes post text: single spaces inside lines, at most one empty line
// between paragraphs, no "…see more" tail.
func CleanText(s string) string {
	ls := strings.Split(s, "\n")
	for i, l := range ls {
		ls[i] = strings.TrimSpace(inlineSpaceRe.ReplaceAllString(l, " "))
	}
	s = strings.TrimSpace(blankLinesRe.ReplaceAllString(strings.Join(ls, "\n"), "\n\n"))
	return strings.TrimSpace(seeMoreRe.ReplaceAllString(s, ""))
}

// Assemble builds the persisted post out of a kept candidate
func Assemble(c domain.Candidate, v domain.Verdict, ts domain.Timestamp, feedURL string) domain.Post {
	return domain.Post{
		Permalink: c.Permalink,
		Text:      CleanText(c.Text),
		Media:     dedupe(c.Media),
		Timestamp: ts,
		Author: domain.Author{
			Name:       originality.CleanName(c.AuthorName),
			ProfileURL: stripQuery(c.AuthorURL),
			Title:      originality.CleanTitle(c.AuthorTitle),
			AvatarURL:  c.AvatarURL,
		},
		Reason:   v.Reason,
		Feed:     feedURL,
		Position: c.Position,
	}
}

func dedupe(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}
	res := make([]string, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		res = append(res, u)
	}
	return res
}
