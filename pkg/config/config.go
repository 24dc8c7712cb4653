// Package config loads the YAML configuration, fills defaults and validates it
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// classifier failure policies
const (
	OnFailureOriginal = "original"
	OnFailureRepost   = "repost"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server" jsonschema:"description=Server configuration"`
	Database   DatabaseConfig   `yaml:"database" json:"database" jsonschema:"description=Archive database configuration"`
	Storage    StorageConfig    `yaml:"storage" json:"storage" jsonschema:"description=Posts file locations"`
	Scrape     ScrapeConfig     `yaml:"scrape" json:"scrape" jsonschema:"description=Scrape runs configuration"`
	Browser    BrowserConfig    `yaml:"browser" json:"browser" jsonschema:"description=Headless browser configuration"`
	Classifier ClassifierConfig `yaml:"classifier" json:"classifier" jsonschema:"description=Originality classifier configuration"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Listen      string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	BaseURL     string        `yaml:"base_url" json:"base_url" jsonschema:"default=http://localhost:8080,description=Base URL for RSS feed links"`
	SearchLimit int           `yaml:"search_limit" json:"search_limit" jsonschema:"default=50,minimum=1,description=Default number of search results"`
	RSSLimit    int           `yaml:"rss_limit" json:"rss_limit" jsonschema:"default=50,minimum=1,description=Number of posts in the RSS feed"`
}

// DatabaseConfig holds archive database settings, empty DSN disables the archive
type DatabaseConfig struct {
	DSN             string `yaml:"dsn" json:"dsn" jsonschema:"description=Database connection string, archive is disabled if empty"`
	MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
	MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
}

// StorageConfig holds posts file and media settings
type StorageConfig struct {
	PostsFile  string `yaml:"posts_file" json:"posts_file" jsonschema:"default=posts.json,description=Default posts file loaded on start and saved after updates"`
	UploadsDir string `yaml:"uploads_dir" json:"uploads_dir" jsonschema:"default=uploads,description=Directory for upload backups"`
	MediaDir   string `yaml:"media_dir" json:"media_dir,omitempty" jsonschema:"description=Directory for downloaded media of archived sessions, download is off if empty"`
}

// ScrapeConfig holds scrape run settings
type ScrapeConfig struct {
	Feeds      []string      `yaml:"feeds" json:"feeds" jsonschema:"description=Profile or company page URLs to scrape"`
	MaxPosts   int           `yaml:"max_posts" json:"max_posts" jsonschema:"default=50,minimum=1,description=Maximum posts per feed"`
	Scrolls    int           `yaml:"scrolls" json:"scrolls" jsonschema:"default=10,minimum=0,description=Scroll iterations to load more posts"`
	Interval   time.Duration `yaml:"interval" json:"interval" jsonschema:"default=0,description=Periodic scrape interval, 0 means on demand only"`
	RunTimeout time.Duration `yaml:"run_timeout" json:"run_timeout" jsonschema:"default=30m,description=Maximum duration of a single scrape run"`
	Retries    int           `yaml:"retries" json:"retries" jsonschema:"default=3,minimum=1,description=Page load attempts"`
}

// BrowserConfig holds browser and login settings
type BrowserConfig struct {
	Visible     bool          `yaml:"visible" json:"visible" jsonschema:"default=false,description=Show the browser window instead of running headless"`
	UserAgent   string        `yaml:"user_agent" json:"user_agent" jsonschema:"description=User agent override"`
	PageTimeout time.Duration `yaml:"page_timeout" json:"page_timeout" jsonschema:"default=30s,description=Page load timeout"`
	ScrollDelay time.Duration `yaml:"scroll_delay" json:"scroll_delay" jsonschema:"default=2s,description=Pause after each scroll"`
	Email       string        `yaml:"email" json:"email" jsonschema:"description=Login email (can use environment variable)"`
	Password    string        `yaml:"password" json:"password" jsonschema:"description=Login password (can use environment variable)"`
}

// ClassifierConfig holds originality classifier settings
type ClassifierConfig struct {
	OnFailure  string   `yaml:"on_failure" json:"on_failure" jsonschema:"default=original,enum=original,enum=repost,description=Verdict for items whose author can't be read"`
	Indicators []string `yaml:"indicators" json:"indicators" jsonschema:"description=Extra share indicator phrases"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.SetDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		lgr.Printf("[WARN] schema validation failed: %v", err)
	}

	return &cfg, nil
}

// SetDefaults fills unset values, used for configs built without a file too
func (c *Config) SetDefaults() {
	// server
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	if c.Server.SearchLimit == 0 {
		c.Server.SearchLimit = 50
	}
	if c.Server.RSSLimit == 0 {
		c.Server.RSSLimit = 50
	}

	// database
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	// storage
	if c.Storage.PostsFile == "" {
		c.Storage.PostsFile = "posts.json"
	}
	if c.Storage.UploadsDir == "" {
		c.Storage.UploadsDir = "uploads"
	}

	// scrape
	if c.Scrape.MaxPosts == 0 {
		c.Scrape.MaxPosts = 50
	}
	if c.Scrape.Scrolls == 0 {
		c.Scrape.Scrolls = 10
	}
	if c.Scrape.RunTimeout == 0 {
		c.Scrape.RunTimeout = 30 * time.Minute
	}
	if c.Scrape.Retries == 0 {
		c.Scrape.Retries = 3
	}

	// browser
	if c.Browser.PageTimeout == 0 {
		c.Browser.PageTimeout = 30 * time.Second
	}
	if c.Browser.ScrollDelay == 0 {
		c.Browser.ScrollDelay = 2 * time.Second
	}

	// classifier
	if c.Classifier.OnFailure == "" {
		c.Classifier.OnFailure = OnFailureOriginal
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Server.SearchLimit < 1 || cfg.Server.RSSLimit < 1 {
		return fmt.Errorf("server search_limit and rss_limit must be positive")
	}

	if cfg.Scrape.MaxPosts < 1 {
		return fmt.Errorf("scrape.max_posts must be at least 1")
	}
	if cfg.Scrape.Scrolls < 0 {
		return fmt.Errorf("scrape.scrolls must be non-negative")
	}
	if cfg.Scrape.Interval < 0 {
		return fmt.Errorf("scrape.interval must be non-negative")
	}
	if cfg.Scrape.Interval > 0 && cfg.Scrape.Interval < time.Minute {
		return fmt.Errorf("scrape.interval must be at least 1 minute")
	}
	if cfg.Scrape.Retries < 1 {
		return fmt.Errorf("scrape.retries must be at least 1")
	}
	for _, feed := range cfg.Scrape.Feeds {
		u, err := url.Parse(feed)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid feed url %q", feed)
		}
	}

	if cfg.Browser.PageTimeout < time.Second {
		return fmt.Errorf("browser.page_timeout must be at least 1 second")
	}

	switch cfg.Classifier.OnFailure {
	case OnFailureOriginal, OnFailureRepost:
	default:
		return fmt.Errorf("classifier.on_failure must be %q or %q", OnFailureOriginal, OnFailureRepost)
	}
	return nil
}

// FailClosed tells the classifier to treat unreadable items as reposts
func (c *Config) FailClosed() bool {
	return c.Classifier.OnFailure == OnFailureRepost
}
