package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/subosito/gotenv"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/postscope/pkg/config"
	"github.com/umputun/postscope/pkg/media"
	"github.com/umputun/postscope/pkg/repository"
	"github.com/umputun/postscope/pkg/scheduler"
	"github.com/umputun/postscope/pkg/store"
	"github.com/umputun/postscope/server"
)

// Opts with all CLI options
type Opts struct {
	Config    string `short:"c" long:"config" env:"CONFIG" default:"postscope.yml" description:"configuration file"`
	Listen    string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`
	EnvFile   string `long:"env-file" env:"ENV_FILE" default:".env" description:"file with environment variables"`
	ScrapeNow bool   `long:"scrape-now" description:"start a scrape run right after startup"`

	// common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	setupLog(opts.Debug)
	log.Printf("[INFO] starting postscope version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	log.Print("[INFO] shutdown complete")
}

// run wires the collection, archive, scheduler and HTTP server and blocks until ctx is done
func run(ctx context.Context, opts Opts) error {
	if opts.EnvFile != "" {
		if err := gotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("[WARN] failed to load %s: %v", opts.EnvFile, err)
		}
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	if cfg.Browser.Password != "" {
		setupLog(opts.Debug, cfg.Browser.Password)
	}

	posts := store.NewCollection()
	loaded, err := store.LoadFile(cfg.Storage.PostsFile)
	if err != nil {
		log.Printf("[WARN] starting with empty collection: %v", err)
		loaded = nil
	}
	posts.Replace(loaded)
	log.Printf("[INFO] loaded %d posts from %s", posts.Len(), cfg.Storage.PostsFile)

	var archive server.Archive
	var repos *repository.Repositories
	if cfg.Database.DSN != "" {
		repos, err = repository.NewRepositories(ctx, repository.Config{
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer func() {
			if err := repos.Close(); err != nil {
				log.Printf("[WARN] failed to close archive: %v", err)
			}
		}()
		archive = server.NewRepositoryAdapter(repos)
	}

	var jobs server.Jobs
	var sched *scheduler.Scheduler
	if len(cfg.Scrape.Feeds) > 0 {
		params := scheduler.Params{
			Scraper:    newBrowserScraper(cfg),
			Collection: posts,
			Feeds:      cfg.Scrape.Feeds,
			PostsFile:  cfg.Storage.PostsFile,
			Interval:   cfg.Scrape.Interval,
			RunTimeout: cfg.Scrape.RunTimeout,
		}
		if repos != nil {
			params.Sessions = repos.Session
			params.Posts = repos.Post
			if cfg.Storage.MediaDir != "" {
				params.Media = media.NewDownloader(media.Config{
					Dir:       cfg.Storage.MediaDir,
					UserAgent: cfg.Browser.UserAgent,
					Retries:   cfg.Scrape.Retries,
				})
			}
		}
		sched = scheduler.NewScheduler(params)
		jobs = sched
	} else {
		log.Printf("[INFO] no feeds configured, scraping disabled")
	}

	srv := server.New(server.Config{
		Listen:      cfg.Server.Listen,
		Timeout:     cfg.Server.Timeout,
		BaseURL:     cfg.Server.BaseURL,
		PostsFile:   cfg.Storage.PostsFile,
		UploadsDir:  cfg.Storage.UploadsDir,
		MediaDir:    cfg.Storage.MediaDir,
		SearchLimit: cfg.Server.SearchLimit,
		RSSLimit:    cfg.Server.RSSLimit,
		Version:     revision,
		Debug:       opts.Debug,
	}, posts, archive, jobs)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if sched != nil {
		sched.Start(gctx)
		if opts.ScrapeNow && cfg.Scrape.Interval == 0 {
			sched.TriggerNow()
		}
		g.Go(func() error {
			<-gctx.Done()
			sched.Stop()
			return nil
		})
	}
	return g.Wait()
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
