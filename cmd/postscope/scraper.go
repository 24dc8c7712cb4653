package main

import (
	"context"
	"fmt"
	"log"

	"github.com/umputun/postscope/pkg/browser"
	"github.com/umputun/postscope/pkg/config"
	"github.com/umputun/postscope/pkg/content"
	"github.com/umputun/postscope/pkg/domain"
	"github.com/umputun/postscope/pkg/originality"
	"github.com/umputun/postscope/pkg/scrape"
)

// browserScraper starts a fresh browser session for every scheduled run
type browserScraper struct {
	cfg        *config.Config
	extractor  *scrape.Extractor
	classifier *originality.Classifier
}

func newBrowserScraper(cfg *config.Config) *browserScraper {
	return &browserScraper{
		cfg:       cfg,
		extractor: scrape.NewExtractor(content.NewTextExtractor()),
		classifier: originality.New(originality.Config{
			FailClosed: cfg.FailClosed(),
			Indicators: cfg.Classifier.Indicators,
		}),
	}
}

// Run logs in if credentials are configured and scrapes all feeds
func (b *browserScraper) Run(ctx context.Context, feeds []string) ([]domain.Post, error) {
	br, err := browser.New(browser.Config{
		Headless:    !b.cfg.Browser.Visible,
		UserAgent:   b.cfg.Browser.UserAgent,
		PageTimeout: b.cfg.Browser.PageTimeout,
		ScrollDelay: b.cfg.Browser.ScrollDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	defer br.Close()

	if b.cfg.Browser.Email != "" && b.cfg.Browser.Password != "" {
		if err := br.Login(ctx, b.cfg.Browser.Email, b.cfg.Browser.Password); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
	} else {
		log.Printf("[INFO] no credentials configured, scraping without login")
	}

	runner := scrape.NewRunner(scrape.Config{
		Source:     br,
		Extractor:  b.extractor,
		Classifier: b.classifier,
		MaxPosts:   b.cfg.Scrape.MaxPosts,
		Scrolls:    b.cfg.Scrape.Scrolls,
		Retries:    b.cfg.Scrape.Retries,
	})
	return runner.Run(ctx, feeds)
}
