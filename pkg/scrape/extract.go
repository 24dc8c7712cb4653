package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pkgz/lgr"
	"golang.org/x/net/html"

	"github.com/umputun/postscope/pkg/domain"
	"github.com/umputun/postscope/pkg/timeres"
)

// selector lists are tried in order, the first one that yields something wins
var (
	emptyStateSelector = ".artdeco-empty-state"

	itemSelectors = []string{
		"div.feed-shared-update-v2",
		`div[data-urn*="activity"]`,
		".update-components-actor",
	}

	ownerSelectors = []string{
		"h1.text-heading-xlarge",
		".pv-text-details__left-panel h1",
		".org-top-card-summary__title",
		".org-page-navigation-module__title",
		".profile-card-name",
		"main h1",
	}

	permalinkSelectors = []string{
		`a[href*="/feed/update/"]`,
		`a[href*="activity:"]`,
		".update-components-actor__meta a",
	}

	authorNameSelectors = []string{
		".update-components-actor__name",
		".feed-shared-actor__name",
		".update-components-actor__title",
	}

	authorLinkSelector = ".update-components-actor__name a, .feed-shared-actor__name a, a.update-components-actor__meta-link"

	avatarSelectors = []string{
		".update-components-actor__avatar img",
		".feed-shared-actor__avatar img",
		`.update-components-actor img[alt*="photo"]`,
		`.feed-shared-actor img[alt*="photo"]`,
		"img.presence-entity__image",
		"img.EntityPhoto-circle-3",
	}

	authorTitleSelectors = []string{
		".update-components-actor__description",
		".feed-shared-actor__description",
	}

	contentSelectors = []string{
		"span.break-words",
		".feed-shared-text",
		".update-components-text",
		".attributed-text-segment-list__content",
		"[data-attributed-text]",
		".feed-shared-update-v2__description-wrapper span",
	}

	// containers of the post body, the text fallback never sees the rest of the item
	bodySelectors = []string{
		".feed-shared-update-v2__description-wrapper",
		".feed-shared-update-v2__commentary",
		".update-components-text",
		".feed-shared-inline-show-more-text",
	}

	// subtrees inside a body container that are not post text
	bodyNoiseSelector = ".update-components-actor, .feed-shared-actor, .update-components-header, " +
		".social-details-social-counts, .feed-shared-social-action-bar, button, img, video"

	timeSelectors = []string{
		"time",
		".update-components-actor__sub-description time",
		".feed-shared-actor__sub-description time",
		".update-components-actor__meta time",
		`span.visually-hidden:contains("ago")`,
		".feed-shared-actor__sub-description",
		".update-components-actor__sub-description",
	}

	// images carrying any of these in class or alt are not post media
	mediaSkipTerms = []string{"avatar", "profile", "entity-photo", "presence-entity", "actor", "reactions-icon"}
)

const mediaHost = "media.licdn.com/dms"

// TextExtractor gets readable text out of an item's HTML when no content selector matched
type TextExtractor interface {
	ExtractText(fragment string) (string, error)
}

// Page is the result of reading one rendered feed page
type Page struct {
	Owner *domain.FeedOwner
	Items []domain.Candidate
	Empty bool // the site rendered its "no posts" state
}

// Extractor reads candidate items out of rendered feed HTML
type Extractor struct {
	text TextExtractor
}

// NewExtractor makes an extractor, text may be nil to disable the fallback
func NewExtractor(text TextExtractor) *Extractor {
	return &Extractor{text: text}
}

// Parse reads the owner identity and items of a feed page in document order
func (e *Extractor) Parse(body, feedURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	page := &Page{Owner: e.owner(doc, feedURL)}
	if doc.Find(emptyStateSelector).Length() > 0 {
		page.Empty = true
		return page, nil
	}

	var items *goquery.Selection
	for _, sel := range itemSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			items = found
			lgr.Printf("[DEBUG] found %d post elements using selector %q", found.Length(), sel)
			break
		}
	}
	if items == nil {
		return page, nil
	}

	items.Each(func(i int, s *goquery.Selection) {
		page.Items = append(page.Items, e.candidate(i, s))
	})
	return page, nil
}

func (e *Extractor) owner(doc *goquery.Document, feedURL string) *domain.FeedOwner {
	for _, sel := range ownerSelectors {
		if name := firstLine(lines(doc.Find(sel).First())); name != "" {
			return &domain.FeedOwner{Name: name, Slug: FeedSlug(feedURL)}
		}
	}
	return nil
}

// candidate reads a single item. A panic inside the DOM walk is reported through
// Candidate.Err together with whatever was read before it.
func (e *Extractor) candidate(pos int, s *goquery.Selection) (c domain.Candidate) {
	c.Position = pos
	defer func() {
		if r := recover(); r != nil {
			c.Err = fmt.Errorf("read item %d: %v", pos, r)
		}
	}()

	c.URN, c.Permalink = permalink(s)
	c.VisibleText = strings.Join(lines(s), "\n")

	for _, sel := range authorNameSelectors {
		if name := strings.Join(lines(s.Find(sel).First()), "\n"); name != "" {
			c.AuthorName = name
			break
		}
	}
	if href, ok := s.Find(authorLinkSelector).First().Attr("href"); ok {
		c.AuthorURL = href
	}
	for _, sel := range avatarSelectors {
		src, _ := s.Find(sel).First().Attr("src")
		if src != "" && strings.Contains(strings.ToLower(src), "profile") {
			c.AvatarURL = src
			break
		}
	}
	for _, sel := range authorTitleSelectors {
		if title := strings.Join(lines(s.Find(sel).First()), "\n"); title != "" {
			c.AuthorTitle = title
			break
		}
	}

	for _, sel := range contentSelectors {
		if text := contentText(s.Find(sel).First()); text != "" {
			c.Text = text
			break
		}
	}
	if c.Text == "" {
		c.Text = e.fallbackText(s)
	}

	c.Media = media(s)
	for _, m := range c.Media {
		c.Signals = append(c.Signals, timeres.AssetSignals(m)...)
	}
	c.Signals = append(c.Signals, timeSignals(s)...)
	return c
}

// fallbackText runs the text extractor over the post body container only. An item without
// such a container, or with nothing but markup in it, has no text.
func (e *Extractor) fallbackText(s *goquery.Selection) string {
	if e.text == nil {
		return ""
	}
	for _, sel := range bodySelectors {
		body := s.Find(sel).First()
		if body.Length() == 0 {
			continue
		}
		body = body.Clone()
		body.Find(bodyNoiseSelector).Remove()
		if strings.TrimSpace(body.Text()) == "" {
			return ""
		}
		raw, err := goquery.OuterHtml(body)
		if err != nil {
			return ""
		}
		text, err := e.text.ExtractText(raw)
		if err != nil {
			lgr.Printf("[DEBUG] no fallback text in %s: %v", sel, err)
			return ""
		}
		return text
	}
	return ""
}

// permalink returns the activity URN and the post URL built from it, or a post link
func permalink(s *goquery.Selection) (urn, link string) {
	urn, _ = s.Attr("data-urn")
	if urn == "" {
		urn, _ = s.Find(`[data-urn*="activity:"]`).First().Attr("data-urn")
	}
	if _, id, ok := strings.Cut(urn, "activity:"); ok && id != "" {
		return urn, siteURL + "/feed/update/urn:li:activity:" + id
	}
	for _, sel := range permalinkSelectors {
		href, _ := s.Find(sel).First().Attr("href")
		if strings.Contains(href, "feed/update") || strings.Contains(href, "activity:") {
			if strings.HasPrefix(href, "/") {
				href = siteURL + href
			}
			return urn, href
		}
	}
	return urn, ""
}

// media collects post images and videos in document order without duplicates
func media(s *goquery.Selection) []string {
	var res []string
	seen := map[string]bool{}
	add := func(src string) {
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		res = append(res, src)
	}

	s.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if !strings.Contains(src, mediaHost) || strings.Contains(src, "profile-displayphoto") {
			return
		}
		class, _ := img.Attr("class")
		alt, _ := img.Attr("alt")
		marks := strings.ToLower(class + " " + alt)
		for _, term := range mediaSkipTerms {
			if strings.Contains(marks, term) {
				return
			}
		}
		add(src)
	})

	s.Find("video").Each(func(_ int, v *goquery.Selection) {
		src, _ := v.Attr("src")
		if src == "" {
			src, _ = v.Find("source").First().Attr("src")
		}
		add(src)
	})
	return res
}

// timeSignals collects every time hint of an item, the resolver orders them by confidence
func timeSignals(s *goquery.Selection) []domain.TimeSignal {
	var res []domain.TimeSignal
	for _, sel := range timeSelectors {
		s.Find(sel).Each(func(_ int, el *goquery.Selection) {
			if dt, _ := el.Attr("datetime"); strings.TrimSpace(dt) != "" {
				res = append(res, domain.AbsoluteSignal(dt))
			}
			if title, _ := el.Attr("title"); looksLikeTime(title) {
				res = append(res, domain.RelativeSignal(title))
			}
			if text := strings.TrimSpace(el.Text()); looksLikeTime(text) {
				res = append(res, domain.RelativeSignal(text))
			}
		})
	}
	return res
}

func looksLikeTime(s string) bool {
	if s == "" {
		return false
	}
	if strings.Contains(strings.ToLower(s), "ago") {
		return true
	}
	return strings.ContainsAny(s, "0123456789")
}

// lines returns the trimmed non-empty text nodes under the selection, one per line
func lines(s *goquery.Selection) []string {
	var res []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				if t := strings.TrimSpace(c.Text()); t != "" {
					res = append(res, t)
				}
			case "script", "style", "noscript", "#comment":
			default:
				walk(c)
			}
		})
	}
	walk(s)
	return res
}

// contentText returns the post text with line breaks kept
func contentText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	c := s.Clone()
	c.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: "\n"})
	})
	return strings.TrimSpace(c.Text())
}

func firstLine(ls []string) string {
	if len(ls) == 0 {
		return ""
	}
	return ls[0]
}
