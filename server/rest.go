package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/umputun/postscope/pkg/domain"
	"github.com/umputun/postscope/pkg/repository"
	"github.com/umputun/postscope/pkg/scheduler"
	"github.com/umputun/postscope/pkg/store"
)

const defaultSessionsLimit = 20

// sessionView is the JSON form of an archived scrape session
type sessionView struct {
	ID         int64      `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Feeds      []string   `json:"feeds"`
	PostCount  int        `json:"post_count"`
	Error      string     `json:"error,omitempty"`
}

// runView is the JSON form of the last scrape run
type runView struct {
	SessionID int64     `json:"session_id,omitempty"`
	Posts     int       `json:"posts"`
	Started   time.Time `json:"started"`
	Duration  string    `json:"duration"`
	Error     string    `json:"error,omitempty"`
}

// postsHandler returns the whole collection with dense keys
func (s *Server) postsHandler(w http.ResponseWriter, r *http.Request) {
	all := s.posts.All()
	data, err := store.Encode(all)
	if err != nil {
		renderError(w, r, fmt.Errorf("encode posts: %w", err), http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{
		"posts":        json.RawMessage(data),
		"total":        len(all),
		"last_updated": s.posts.Updated(),
	})
}

// postHandler returns a single post by dense key or stable id
func (s *Server) postHandler(w http.ResponseWriter, r *http.Request) {
	entry, err := s.posts.Get(r.PathValue("key"))
	if err != nil {
		renderError(w, r, err, http.StatusNotFound)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{
		"id":   entry.Key,
		"post": store.NewRecord(entry.Post),
	})
}

// uploadHandler replaces the collection with an uploaded posts file.
// Accepts a multipart form with a "file" field or a raw JSON body.
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	posts, err := store.Decode(data)
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	resp := map[string]interface{}{"message": "posts uploaded", "total_posts": len(posts)}
	err = s.posts.Publish(posts, func(sorted []domain.Post) error {
		if s.cfg.UploadsDir != "" {
			backup, err := store.Backup(s.cfg.UploadsDir, sorted, s.now())
			if err != nil {
				return fmt.Errorf("back up upload: %w", err)
			}
			resp["backup_file"] = backup
		}
		if s.cfg.PostsFile != "" {
			if err := store.SaveFile(s.cfg.PostsFile, sorted); err != nil {
				return fmt.Errorf("save posts file: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] failed to publish upload: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	log.Printf("[INFO] uploaded %d posts", len(posts))
	renderJSON(w, r, http.StatusOK, resp)
}

// readUpload returns the uploaded payload, either the "file" part of a multipart form or the raw body
func readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if len(data) == 0 {
			return nil, errors.New("empty upload")
		}
		return data, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		return nil, errors.New("file must be a JSON file")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}
	return data, nil
}

// reloadHandler reloads the collection from the posts file
func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	if s.cfg.PostsFile == "" {
		renderError(w, r, errors.New("posts file is not configured"), http.StatusBadRequest)
		return
	}

	total, err := s.posts.Load(func() ([]domain.Post, error) { return store.LoadFile(s.cfg.PostsFile) })
	if err != nil {
		log.Printf("[ERROR] failed to reload posts: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{"message": "posts reloaded", "total_posts": total})
}

// searchHandler finds posts by text, author name or author title
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		renderError(w, r, errors.New("query parameter 'q' is required"), http.StatusBadRequest)
		return
	}

	limit := s.cfg.SearchLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 {
			renderError(w, r, fmt.Errorf("invalid limit %q", limitStr), http.StatusBadRequest)
			return
		}
		limit = l
	}

	entries := s.posts.Search(q, limit)
	data, err := store.EncodeEntries(entries)
	if err != nil {
		renderError(w, r, fmt.Errorf("encode posts: %w", err), http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{
		"query":       q,
		"posts":       json.RawMessage(data),
		"total_found": len(entries),
		"limited_to":  limit,
	})
}

// statsHandler returns collection statistics
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, s.posts.Stats())
}

// exportHandler sends the collection as a downloadable file
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	all := s.posts.All()
	if len(all) == 0 {
		renderError(w, r, errors.New("no posts to export"), http.StatusNotFound)
		return
	}
	data, err := store.Encode(all)
	if err != nil {
		renderError(w, r, fmt.Errorf("encode posts: %w", err), http.StatusInternalServerError)
		return
	}
	filename := "posts_export_" + s.now().Format("20060102_150405") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if _, err := w.Write(data); err != nil {
		log.Printf("[WARN] failed to write export: %v", err)
	}
}

// sessionsHandler lists archived scrape sessions, newest first
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionsLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 {
			renderError(w, r, fmt.Errorf("invalid limit %q", limitStr), http.StatusBadRequest)
			return
		}
		limit = l
	}

	sessions, err := s.archive.ListSessions(r.Context(), limit)
	if err != nil {
		log.Printf("[ERROR] failed to list sessions: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, toSessionView(sess))
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{"sessions": views, "total": len(views)})
}

// sessionHandler returns an archived session with the posts it produced
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		renderError(w, r, errors.New("invalid session ID"), http.StatusBadRequest)
		return
	}

	sess, err := s.archive.GetSession(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		renderError(w, r, errors.New("session not found"), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to get session %d: %v", id, err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	posts, err := s.archive.GetSessionPosts(r.Context(), id)
	if err != nil {
		log.Printf("[ERROR] failed to get posts of session %d: %v", id, err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	data, err := store.Encode(posts)
	if err != nil {
		renderError(w, r, fmt.Errorf("encode posts: %w", err), http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]interface{}{
		"session": toSessionView(*sess),
		"posts":   json.RawMessage(data),
	})
}

// scrapeHandler starts a scrape run in background
func (s *Server) scrapeHandler(w http.ResponseWriter, r *http.Request) {
	if !s.jobs.TriggerNow() {
		renderError(w, r, scheduler.ErrBusy, http.StatusConflict)
		return
	}
	renderJSON(w, r, http.StatusAccepted, map[string]string{"message": "scrape started"})
}

// scrapeStatusHandler reports whether a run is in progress and how the last one ended
func (s *Server) scrapeStatusHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"running": s.jobs.Running()}
	if last, ok := s.jobs.LastRun(); ok {
		v := runView{SessionID: last.SessionID, Posts: last.Posts, Started: last.Started,
			Duration: last.Duration.Round(time.Millisecond).String()}
		if last.Err != nil {
			v.Error = last.Err.Error()
		}
		resp["last_run"] = v
	}
	renderJSON(w, r, http.StatusOK, resp)
}

func toSessionView(sess domain.Session) sessionView {
	feeds := sess.Feeds
	if feeds == nil {
		feeds = []string{}
	}
	return sessionView{ID: sess.ID, StartedAt: sess.StartedAt, FinishedAt: sess.FinishedAt, Feeds: feeds,
		PostCount: sess.PostCount, Error: sess.Error}
}
