// Package scheduler runs scrape jobs one at a time, on demand and periodically, and publishes
// their results to the served collection, the posts file and the archive.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/postscope/pkg/domain"
	"github.com/umputun/postscope/pkg/store"
)

//go:generate moq -out mocks/scraper.go -pkg mocks -skip-ensure -fmt goimports . Scraper
//go:generate moq -out mocks/session_store.go -pkg mocks -skip-ensure -fmt goimports . SessionStore
//go:generate moq -out mocks/post_archive.go -pkg mocks -skip-ensure -fmt goimports . PostArchive
//go:generate moq -out mocks/media_downloader.go -pkg mocks -skip-ensure -fmt goimports . MediaDownloader

// ErrBusy is returned when a run is requested while another one is in progress
var ErrBusy = errors.New("scrape already running")

// Scraper extracts posts from the given feeds
type Scraper interface {
	Run(ctx context.Context, feeds []string) ([]domain.Post, error)
}

// SessionStore records scrape runs
type SessionStore interface {
	CreateSession(ctx context.Context, feeds []string, startedAt time.Time) (*domain.Session, error)
	FinishSession(ctx context.Context, id int64, postCount int, runErr error) error
}

// PostArchive keeps every post a run produced
type PostArchive interface {
	SavePosts(ctx context.Context, sessionID int64, posts []domain.Post) error
}

// MediaDownloader saves media of a session locally and returns posts with local copies set
type MediaDownloader interface {
	Download(ctx context.Context, sessionID int64, posts []domain.Post) []domain.Post
}

// Params for creating a scheduler, Sessions, Posts and Media are optional
type Params struct {
	Scraper    Scraper
	Collection *store.Collection
	Sessions   SessionStore
	Posts      PostArchive
	Media      MediaDownloader // used only for runs with a session
	Feeds      []string
	PostsFile  string        // collection is saved here after each successful run, if set
	Interval   time.Duration // periodic runs, 0 means on demand only
	RunTimeout time.Duration // limit for a single run, 0 means no limit
}

// Result describes a finished run
type Result struct {
	SessionID int64
	Posts     int
	Started   time.Time
	Duration  time.Duration
	Err       error
}

// Scheduler serializes scrape runs
type Scheduler struct {
	Params
	running atomic.Bool
	last    atomic.Pointer[Result]

	mu      sync.Mutex
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a new scheduler instance
func NewScheduler(params Params) *Scheduler {
	if params.Collection == nil {
		params.Collection = store.NewCollection()
	}
	return &Scheduler{Params: params, baseCtx: context.Background()}
}

// Start begins periodic runs if an interval is set. Triggered runs use the context passed here.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	ctx = s.baseCtx
	s.mu.Unlock()

	if s.Interval <= 0 {
		lgr.Printf("[INFO] scheduler started, runs on demand only")
		return
	}

	s.wg.Add(1)
	go s.worker(ctx)
	lgr.Printf("[INFO] scheduler started with interval %v for %d feeds", s.Interval, len(s.Feeds))
}

// Stop cancels the current run and waits for it to finish
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// TriggerNow starts a run in background, returns false if one is already running
func (s *Scheduler) TriggerNow() bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.run(ctx)
	}()
	return true
}

// RunOnce runs synchronously, ErrBusy if another run is in progress
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer s.running.Store(false)
	res := s.run(ctx)
	return res, res.Err
}

// Running reports whether a run is in progress
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// LastRun returns the result of the latest finished run
func (s *Scheduler) LastRun() (Result, bool) {
	if r := s.last.Load(); r != nil {
		return *r, true
	}
	return Result{}, false
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// run immediately on start
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); errors.Is(err, ErrBusy) {
		lgr.Printf("[INFO] skipping scheduled run, previous one still in progress")
	}
}

// run does the actual work, the caller holds the running flag.
// The collection is replaced only by a complete run that produced posts and was saved, partial
// results of a failed or canceled run go to the archive only.
func (s *Scheduler) run(ctx context.Context) Result {
	res := Result{Started: time.Now()}
	defer func() {
		res.Duration = time.Since(res.Started)
		s.last.Store(&res)
	}()

	if s.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RunTimeout)
		defer cancel()
	}
	// bookkeeping must survive cancellation of the run itself
	bgCtx := context.WithoutCancel(ctx)

	if s.Sessions != nil {
		sess, err := s.Sessions.CreateSession(bgCtx, s.Feeds, res.Started)
		if err != nil {
			lgr.Printf("[WARN] failed to create session: %v", err)
		} else {
			res.SessionID = sess.ID
		}
	}

	lgr.Printf("[INFO] scrape run started for %d feeds", len(s.Feeds))
	posts, err := s.Scraper.Run(ctx, s.Feeds)
	res.Posts = len(posts)
	res.Err = err

	if s.Media != nil && res.SessionID != 0 && len(posts) > 0 {
		posts = s.Media.Download(ctx, res.SessionID, posts)
	}

	switch {
	case err != nil:
		lgr.Printf("[WARN] scrape run interrupted with %d posts: %v", len(posts), err)
	case len(posts) == 0:
		lgr.Printf("[WARN] scrape run produced no posts, collection kept")
	default:
		var persist func([]domain.Post) error
		if s.PostsFile != "" {
			persist = func(sorted []domain.Post) error { return store.SaveFile(s.PostsFile, sorted) }
		}
		if err := s.Collection.Publish(posts, persist); err != nil {
			lgr.Printf("[ERROR] failed to save posts, collection kept: %v", err)
			res.Err = fmt.Errorf("save posts: %w", err)
			break
		}
		lgr.Printf("[INFO] scrape run completed, %d posts", len(posts))
	}

	if res.SessionID == 0 {
		return res
	}
	if s.Posts != nil {
		if err := s.Posts.SavePosts(bgCtx, res.SessionID, posts); err != nil {
			lgr.Printf("[ERROR] failed to archive posts of session %d: %v", res.SessionID, err)
		}
	}
	if err := s.Sessions.FinishSession(bgCtx, res.SessionID, len(posts), res.Err); err != nil {
		lgr.Printf("[ERROR] failed to finish session %d: %v", res.SessionID, err)
	}
	return res
}
