// Package server exposes the post collection, the archive and scrape jobs over HTTP
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/postscope/pkg/domain"
	"github.com/umputun/postscope/pkg/feed"
	"github.com/umputun/postscope/pkg/scheduler"
	"github.com/umputun/postscope/pkg/store"
)

//go:generate moq -out mocks/archive.go -pkg mocks -skip-ensure -fmt goimports . Archive
//go:generate moq -out mocks/jobs.go -pkg mocks -skip-ensure -fmt goimports . Jobs

// Server represents HTTP server instance
type Server struct {
	cfg     Config
	posts   *store.Collection
	archive Archive
	jobs    Jobs
	rss     *feed.Generator
	now     func() time.Time

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Config defines server parameters
type Config struct {
	Listen        string
	Timeout       time.Duration
	BaseURL       string
	PostsFile     string // default collection file, saved on upload and read on reload
	UploadsDir    string // upload backups go here, skipped if empty
	MediaDir      string // downloaded media root, served under /media when set
	SearchLimit   int
	RSSLimit      int
	MaxUploadSize int64
	Version       string
	Debug         bool
}

// Archive gives read access to recorded scrape sessions
type Archive interface {
	ListSessions(ctx context.Context, limit int) ([]domain.Session, error)
	GetSession(ctx context.Context, id int64) (*domain.Session, error)
	GetSessionPosts(ctx context.Context, sessionID int64) ([]domain.Post, error)
	CountPosts(ctx context.Context) (int, error)
}

// Jobs starts scrape runs on demand
type Jobs interface {
	TriggerNow() bool
	Running() bool
	LastRun() (scheduler.Result, bool)
}

// New initializes a new server instance. Archive and jobs are optional,
// their routes are not registered when nil.
func New(cfg Config, posts *store.Collection, archive Archive, jobs Jobs) *Server {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 50
	}
	if cfg.RSSLimit <= 0 {
		cfg.RSSLimit = 50
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 32 * 1024 * 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if posts == nil {
		posts = store.NewCollection()
	}

	s := &Server{
		cfg:     cfg,
		posts:   posts,
		archive: archive,
		jobs:    jobs,
		rss:     feed.NewGenerator(cfg.BaseURL, "Postscope"),
		now:     time.Now,
		router:  routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[INFO] starting server on %s", s.cfg.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.Timeout,
		ReadTimeout:       s.cfg.Timeout,
		WriteTimeout:      s.cfg.Timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.lock.Lock()
		defer s.lock.Unlock()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("postscope", "umputun", s.cfg.Version))
	s.router.Use(rest.Ping)

	if s.cfg.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(s.cfg.MaxUploadSize))
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /posts", s.postsHandler)
		r.HandleFunc("GET /posts/{key}", s.postHandler)
		r.HandleFunc("POST /posts/upload", s.uploadHandler)
		r.HandleFunc("POST /posts/reload", s.reloadHandler)
		r.HandleFunc("GET /search", s.searchHandler)
		r.HandleFunc("GET /stats", s.statsHandler)
		r.HandleFunc("GET /export", s.exportHandler)

		if s.archive != nil {
			r.HandleFunc("GET /sessions", s.sessionsHandler)
			r.HandleFunc("GET /sessions/{id}", s.sessionHandler)
		}
		if s.jobs != nil {
			r.HandleFunc("POST /scrape", s.scrapeHandler)
			r.HandleFunc("GET /scrape", s.scrapeStatusHandler)
		}
	})

	s.router.HandleFunc("GET /posts.json", s.postsFileHandler)
	s.router.HandleFunc("GET /rss", s.rssHandler)
	s.router.HandleFunc("GET /health", s.healthHandler)
	if s.cfg.MediaDir != "" {
		s.router.HandleFunc("GET /media/{session}/{file}", s.mediaHandler)
	}
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
