package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test-config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return configPath
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
server:
  listen: ":9090"
  timeout: 45s
  base_url: https://posts.example.com

database:
  dsn: "file:archive.db"

storage:
  posts_file: data/posts.json
  media_dir: data/media

scrape:
  feeds:
    - https://www.linkedin.com/in/jane-doe
    - https://www.linkedin.com/company/acme
  max_posts: 20
  interval: 6h

browser:
  visible: true
  scroll_delay: 1s

classifier:
  on_failure: repost
  indicators: ["boosted this"]
`))
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":9090", cfg.Server.Listen)
		assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "https://posts.example.com", cfg.Server.BaseURL)
		assert.Equal(t, "file:archive.db", cfg.Database.DSN)
		assert.Equal(t, "data/posts.json", cfg.Storage.PostsFile)
		assert.Equal(t, "data/media", cfg.Storage.MediaDir)
		assert.Len(t, cfg.Scrape.Feeds, 2)
		assert.Equal(t, 20, cfg.Scrape.MaxPosts)
		assert.Equal(t, 6*time.Hour, cfg.Scrape.Interval)
		assert.True(t, cfg.Browser.Visible)
		assert.Equal(t, time.Second, cfg.Browser.ScrollDelay)
		assert.Equal(t, []string{"boosted this"}, cfg.Classifier.Indicators)
		assert.True(t, cfg.FailClosed())
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "scrape:\n  feeds: [https://www.linkedin.com/in/jane-doe]\n"))
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Server.Listen)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, 50, cfg.Server.SearchLimit)
		assert.Equal(t, 50, cfg.Server.RSSLimit)
		assert.Empty(t, cfg.Database.DSN)
		assert.Equal(t, "posts.json", cfg.Storage.PostsFile)
		assert.Equal(t, "uploads", cfg.Storage.UploadsDir)
		assert.Empty(t, cfg.Storage.MediaDir)
		assert.Equal(t, 50, cfg.Scrape.MaxPosts)
		assert.Equal(t, 10, cfg.Scrape.Scrolls)
		assert.Equal(t, time.Duration(0), cfg.Scrape.Interval)
		assert.Equal(t, 30*time.Minute, cfg.Scrape.RunTimeout)
		assert.Equal(t, 3, cfg.Scrape.Retries)
		assert.False(t, cfg.Browser.Visible)
		assert.Equal(t, 30*time.Second, cfg.Browser.PageTimeout)
		assert.Equal(t, 2*time.Second, cfg.Browser.ScrollDelay)
		assert.Equal(t, OnFailureOriginal, cfg.Classifier.OnFailure)
		assert.False(t, cfg.FailClosed())
	})

	t.Run("environment expansion", func(t *testing.T) {
		t.Setenv("POSTSCOPE_TEST_PASSWORD", "s3cret")
		cfg, err := Load(writeConfig(t, "browser:\n  email: jane@example.com\n  password: ${POSTSCOPE_TEST_PASSWORD}\n"))
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", cfg.Browser.Email)
		assert.Equal(t, "s3cret", cfg.Browser.Password)
	})

	t.Run("file not found", func(t *testing.T) {
		cfg, err := Load("/non/existent/file.yml")
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "server: [unclosed"))
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "parse config")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *Config)
		errMsg string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "short server timeout", modify: func(c *Config) { c.Server.Timeout = time.Millisecond }, errMsg: "server timeout"},
		{name: "negative scrolls", modify: func(c *Config) { c.Scrape.Scrolls = -1 }, errMsg: "scrape.scrolls"},
		{name: "negative max posts", modify: func(c *Config) { c.Scrape.MaxPosts = -5 }, errMsg: "scrape.max_posts"},
		{name: "tiny interval", modify: func(c *Config) { c.Scrape.Interval = time.Second }, errMsg: "scrape.interval"},
		{name: "bad feed url", modify: func(c *Config) { c.Scrape.Feeds = []string{"linkedin.com/in/x"} }, errMsg: "invalid feed url"},
		{name: "unknown failure policy", modify: func(c *Config) { c.Classifier.OnFailure = "maybe" }, errMsg: "classifier.on_failure"},
		{name: "short page timeout", modify: func(c *Config) { c.Browser.PageTimeout = time.Millisecond }, errMsg: "browser.page_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := validate(cfg)
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
