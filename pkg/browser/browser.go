// Package browser renders feed pages in a Chromium instance driven by rod
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const loginURL = "https://www.linkedin.com/login"

// page is considered loaded when any of these shows up
const (
	feedReadySelector  = "div.feed-shared-update-v2, .artdeco-empty-state, .org-page-navigation-module__links"
	loginReadySelector = "div.feed-container-theme, main#main-content"
)

// ErrVerification is returned when login stopped on a captcha or two-factor page
// and no verification hook was configured
var ErrVerification = errors.New("login requires manual verification")

// Config defines browser parameters
type Config struct {
	Headless    bool
	UserAgent   string
	PageTimeout time.Duration // navigation and wait limit per page
	ScrollDelay time.Duration // pause after each scroll for lazy content
	// Verify is called when login landed on a verification page, it should return
	// once the user completed the check in the (non-headless) browser window
	Verify func(ctx context.Context) error
}

// Browser is a single stealth tab shared by sequential page loads
type Browser struct {
	cfg     Config
	browser *rod.Browser
	page    *rod.Page
	mu      sync.Mutex
}

// New launches the browser process and opens a tab
func New(cfg Config) (*Browser, error) {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 30 * time.Second
	}
	if cfg.ScrollDelay <= 0 {
		cfg.ScrollDelay = 2 * time.Second
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("start-maximized").
		Set("window-size", "1920,1080").
		Delete("enable-automation")
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	br := rod.New().ControlURL(u)
	if err = br.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	// stealth tab hides webdriver and other automation fingerprints
	p, err := stealth.Page(br)
	if err != nil {
		_ = br.Close()
		return nil, fmt.Errorf("create tab: %w", err)
	}
	if cfg.UserAgent != "" {
		if err = p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}); err != nil {
			_ = br.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	lgr.Printf("[INFO] browser started, headless=%v", cfg.Headless)
	return &Browser{cfg: cfg, browser: br, page: p}, nil
}

// Login signs in with the given credentials and waits for the home feed
func (b *Browser) Login(ctx context.Context, email, password string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tctx, cancel := context.WithTimeout(ctx, b.cfg.PageTimeout)
	defer cancel()
	p := b.page.Context(tctx)

	if err := p.Navigate(loginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := fill(p, "#username", email); err != nil {
		return err
	}
	if err := fill(p, "#password", password); err != nil {
		return err
	}
	submit, err := p.Element(`button[type="submit"]`)
	if err != nil {
		return fmt.Errorf("find submit button: %w", err)
	}
	if err = submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}

	if _, err = p.Element(loginReadySelector); err == nil {
		lgr.Printf("[INFO] logged in as %s", email)
		return nil
	}

	lgr.Printf("[WARN] login submitted, but may require captcha or two-factor verification")
	if b.cfg.Verify == nil {
		return ErrVerification
	}
	if err := b.cfg.Verify(ctx); err != nil {
		return fmt.Errorf("verify login: %w", err)
	}
	return nil
}

// Page loads the url, scrolls to the bottom the given number of times and returns the rendered html
func (b *Browser) Page(ctx context.Context, url string, scrolls int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tctx, cancel := context.WithTimeout(ctx, b.cfg.PageTimeout+time.Duration(scrolls)*b.cfg.ScrollDelay)
	defer cancel()
	p := b.page.Context(tctx)

	restore, err := p.SetExtraHeaders(extraHeaders())
	if err != nil {
		return "", fmt.Errorf("set headers: %w", err)
	}
	defer restore()

	if err = p.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate to %s: %w", url, err)
	}
	if _, err = p.Element(feedReadySelector); err != nil {
		return "", fmt.Errorf("posts didn't load on %s: %w", url, err)
	}

	for i := 0; i < scrolls; i++ {
		if _, err = p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return "", fmt.Errorf("scroll %d on %s: %w", i+1, url, err)
		}
		select {
		case <-tctx.Done():
			return "", fmt.Errorf("scroll %d on %s: %w", i+1, url, tctx.Err())
		case <-time.After(b.cfg.ScrollDelay):
		}
		if i%3 == 0 {
			lgr.Printf("[DEBUG] scroll %d/%d on %s", i+1, scrolls, url)
		}
	}

	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("read html of %s: %w", url, err)
	}
	return html, nil
}

// Cookies returns cookies of the current page, used to fetch media with the logged in session
func (b *Browser) Cookies() ([]*http.Cookie, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cookies, err := b.page.Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	res := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		res = append(res, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return res, nil
}

// Close shuts the browser down
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.browser.Close(); err != nil {
		lgr.Printf("[WARN] failed to close browser: %v", err)
	}
}

// fill replaces the value of an input field
func fill(p *rod.Page, selector, value string) error {
	el, err := p.Element(selector)
	if err != nil {
		return fmt.Errorf("find %s: %w", selector, err)
	}
	if err = el.SelectAllText(); err != nil {
		return fmt.Errorf("clear %s: %w", selector, err)
	}
	if err = el.Input(value); err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil
}
