// Package media downloads post images and videos into per-session directories
// so archived sessions keep their media after the signed CDN links expire.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-resty/resty/v2"

	"github.com/umputun/postscope/pkg/domain"
)

// content types with a known extension, anything else is saved as .bin
var extensions = map[string]string{
	"video/mp4":  "mp4",
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Config defines downloader parameters
type Config struct {
	Dir       string // media root, session directories are created under it
	UserAgent string
	Timeout   time.Duration // per file
	Retries   int
	Cookies   []*http.Cookie // browser session cookies, optional
}

// Downloader saves media files of posts
type Downloader struct {
	dir    string
	client *resty.Client
}

// NewDownloader makes a downloader with defaults for unset values
func NewDownloader(cfg Config) *Downloader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Referer", "https://www.linkedin.com/").
		SetHeader("Accept", "*/*")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	if len(cfg.Cookies) > 0 {
		client.SetCookies(cfg.Cookies)
	}
	return &Downloader{dir: cfg.Dir, client: client}
}

// SessionDir is the directory of a session's media relative to the media root
func SessionDir(sessionID int64) string {
	return fmt.Sprintf("media_%d", sessionID)
}

// Download fetches the media of every post and returns copies of posts with LocalMedia set to
// paths relative to the media root. Failed files are logged and skipped, blob urls can't be
// fetched outside the page and are skipped too.
func (d *Downloader) Download(ctx context.Context, sessionID int64, posts []domain.Post) []domain.Post {
	res := make([]domain.Post, len(posts))
	copy(res, posts)

	var saved, failed int
	for i := range res {
		var local []string
		for j, u := range res[i].Media {
			if ctx.Err() != nil {
				lgr.Printf("[WARN] media download of session %d stopped: %v", sessionID, ctx.Err())
				res[i].LocalMedia = local
				return res
			}
			if strings.HasPrefix(u, "blob:") {
				lgr.Printf("[DEBUG] blob media of post %d skipped", i+1)
				continue
			}
			path, err := d.fetch(ctx, sessionID, u, i+1, j+1)
			if err != nil {
				lgr.Printf("[WARN] failed to download media %s: %v", u, err)
				failed++
				continue
			}
			local = append(local, path)
			saved++
		}
		res[i].LocalMedia = local
	}
	lgr.Printf("[INFO] session %d media: %d saved, %d failed", sessionID, saved, failed)
	return res
}

// fetch saves one file as post_<post>_media_<index>_<hash>.<ext> and returns its relative path
func (d *Downloader) fetch(ctx context.Context, sessionID int64, url string, post, index int) (string, error) {
	resp, err := d.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	hash := sha256.Sum256([]byte(url))
	name := fmt.Sprintf("post_%d_media_%d_%s.%s", post, index, hex.EncodeToString(hash[:4]), extension(resp.Header().Get("Content-Type")))
	rel := filepath.Join(SessionDir(sessionID), name)

	dir := filepath.Join(d.dir, SessionDir(sessionID))
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}
	f, err := os.Create(filepath.Join(d.dir, rel)) //nolint:gosec // name is built here, not taken from input
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err = io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return filepath.ToSlash(rel), nil
}

func extension(contentType string) string {
	ct := strings.ToLower(contentType)
	for t, ext := range extensions {
		if strings.Contains(ct, t) {
			return ext
		}
	}
	return "bin"
}
