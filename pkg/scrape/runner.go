// Package scrape visits feed pages and turns rendered items into post records.
// Feeds are processed one at a time and items in document order; the originality
// classifier and the timestamp resolver are applied to every item.
package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/umputun/postscope/pkg/domain"
	"github.com/umputun/postscope/pkg/timeres"
)

//go:generate moq -out mocks/page_source.go -pkg mocks -skip-ensure -fmt goimports . PageSource

// PageSource renders a feed page and returns its HTML after the given number of scrolls
type PageSource interface {
	Page(ctx context.Context, url string, scrolls int) (string, error)
}

// Classifier decides if an item is the owner's original content
type Classifier interface {
	Classify(item domain.Candidate, owner *domain.FeedOwner) domain.Verdict
}

// Config holds runner dependencies and limits
type Config struct {
	Source     PageSource
	Extractor  *Extractor
	Classifier Classifier
	MaxPosts   int           // per feed, 0 means no limit
	Scrolls    int           // scroll iterations to load more items
	Retries    int           // page load attempts
	RetryDelay time.Duration // initial backoff between attempts
	Now        func() time.Time
}

// Runner drives extraction over a list of feeds
type Runner struct {
	source     PageSource
	extractor  *Extractor
	classifier Classifier
	maxPosts   int
	scrolls    int
	retries    int
	retryDelay time.Duration
	now        func() time.Time
}

// NewRunner makes a runner with defaults for unset limits
func NewRunner(cfg Config) *Runner {
	if cfg.Extractor == nil {
		cfg.Extractor = NewExtractor(nil)
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		source:     cfg.Source,
		extractor:  cfg.Extractor,
		classifier: cfg.Classifier,
		maxPosts:   cfg.MaxPosts,
		scrolls:    cfg.Scrolls,
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
		now:        cfg.Now,
	}
}

// Run scrapes all feeds sequentially. A failing feed is logged and skipped. On cancellation
// the posts collected so far are returned along with the context error.
// Relative times of all feeds are resolved against the same reference time.
func (r *Runner) Run(ctx context.Context, feeds []string) ([]domain.Post, error) {
	var posts []domain.Post
	now := r.now()
	for i, feedURL := range feeds {
		if err := ctx.Err(); err != nil {
			return posts, err
		}
		lgr.Printf("[INFO] scraping feed %d/%d: %s", i+1, len(feeds), feedURL)

		feedPosts, err := r.feed(ctx, feedURL, now)
		posts = append(posts, feedPosts...)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return posts, ctxErr
			}
			lgr.Printf("[WARN] feed %s skipped: %v", feedURL, err)
			continue
		}
		lgr.Printf("[INFO] extracted %d posts from %s", len(feedPosts), feedURL)
	}
	return posts, nil
}

// Feed scrapes a single feed and returns its retained original posts in document order
func (r *Runner) Feed(ctx context.Context, feedURL string) ([]domain.Post, error) {
	return r.feed(ctx, feedURL, r.now())
}

func (r *Runner) feed(ctx context.Context, feedURL string, now time.Time) ([]domain.Post, error) {
	pageURL := NormalizeFeedURL(feedURL)

	var html string
	retrier := repeater.NewBackoff(r.retries, r.retryDelay, repeater.WithMaxDelay(30*time.Second))
	err := retrier.Do(ctx, func() error {
		var fetchErr error
		html, fetchErr = r.source.Page(ctx, pageURL, r.scrolls)
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", pageURL, err)
	}

	page, err := r.extractor.Parse(html, pageURL)
	if err != nil {
		return nil, err
	}
	if page.Empty {
		lgr.Printf("[INFO] %s has no visible posts or is private", pageURL)
		return nil, nil
	}
	if page.Owner == nil {
		lgr.Printf("[DEBUG] owner of %s not found, all items are treated as original", pageURL)
	}

	items := page.Items
	if r.maxPosts > 0 && len(items) > r.maxPosts {
		items = items[:r.maxPosts]
	}

	var posts []domain.Post
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return posts, err
		}
		verdict := r.classifier.Classify(item, page.Owner)
		if !verdict.Original {
			lgr.Printf("[DEBUG] item %d skipped as repost (%s)", item.Position+1, verdict.Reason)
			continue
		}
		post := Assemble(item, verdict, timeres.Resolve(item.Signals, item.VisibleText, now), feedURL)
		if !post.HasContent() {
			lgr.Printf("[DEBUG] item %d skipped, no text or media", item.Position+1)
			continue
		}
		lgr.Printf("[DEBUG] item %d: %d chars, %d media, %s (%s)", item.Position+1, len(post.Text),
			len(post.Media), post.Timestamp.Time.Format(time.RFC3339), post.Timestamp.Source)
		posts = append(posts, post)
	}
	return posts, nil
}
