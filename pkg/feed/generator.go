// Package feed renders the post collection as an RSS 2.0 feed
package feed

import (
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/postscope/pkg/domain"
)

const titleLen = 80

// Generator creates RSS feeds from posts
type Generator struct {
	baseURL string
	title   string
	policy  *bluemonday.Policy
}

// NewGenerator creates a new feed generator
func NewGenerator(baseURL, title string) *Generator {
	if title == "" {
		title = "Postscope"
	}
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		title:   title,
		policy:  bluemonday.StrictPolicy(),
	}
}

// GenerateRSS creates an RSS 2.0 feed of the first limit posts, all of them if limit is not positive
func (g *Generator) GenerateRSS(posts []domain.Post, limit int) (string, error) {
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}

	rssItems := make([]*RSSItem, 0, len(posts))
	for _, p := range posts {
		rssItems = append(rssItems, g.convertToRSSItem(p))
	}

	feed := &RSS{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		DC:      "http://purl.org/dc/elements/1.1/",
		Channel: &RSSChannel{
			Title:         g.title,
			Link:          g.baseURL + "/",
			Description:   "Original posts collected from followed feeds",
			AtomLink:      &AtomLink{Href: g.baseURL + "/rss", Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: time.Now().Format(time.RFC1123Z),
			Items:         rssItems,
		},
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}

// convertToRSSItem converts a post to an RSS item, the text is stripped of any markup
func (g *Generator) convertToRSSItem(p domain.Post) *RSSItem {
	// strict policy escapes entities, xml encoding does it again
	text := strings.TrimSpace(html.UnescapeString(g.policy.Sanitize(p.Text)))

	desc := text
	for _, m := range p.Media {
		desc += "\n" + m
	}

	item := &RSSItem{
		Title:       g.itemTitle(p.Author.Name, text),
		Description: strings.TrimSpace(desc),
		Author:      p.Author.Name,
		GUID:        RSSGUID{Value: p.ID(), IsPermaLink: p.Permalink != ""},
		Link:        p.Permalink,
	}
	if item.Link == "" {
		item.Link = g.baseURL + "/api/v1/posts/" + url.PathEscape(p.ID())
	}
	if !p.Timestamp.Time.IsZero() {
		item.PubDate = p.Timestamp.Time.UTC().Format(time.RFC1123Z)
	}
	if p.Feed != "" {
		item.Categories = []string{p.Feed}
	}
	return item
}

// itemTitle is the author followed by the first line of the text, shortened
func (g *Generator) itemTitle(author, text string) string {
	line, _, _ := strings.Cut(text, "\n")
	if utf8.RuneCountInString(line) > titleLen {
		line = string([]rune(line)[:titleLen]) + "…"
	}
	switch {
	case author == "" && line == "":
		return "Post"
	case author == "":
		return line
	case line == "":
		return "Post by " + author
	}
	return author + ": " + line
}
