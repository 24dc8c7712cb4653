package server

import (
	"log"
	"net/http"
	"time"

	"github.com/umputun/postscope/pkg/store"
)

// rssHandler serves the newest posts as RSS 2.0
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	rss, err := s.rss.GenerateRSS(s.posts.All(), s.cfg.RSSLimit)
	if err != nil {
		log.Printf("[ERROR] failed to generate RSS: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(rss)); err != nil {
		log.Printf("[WARN] failed to write RSS response: %v", err)
	}
}

// postsFileHandler serves the collection in its persisted form
func (s *Server) postsFileHandler(w http.ResponseWriter, r *http.Request) {
	data, err := store.Encode(s.posts.All())
	if err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		log.Printf("[WARN] failed to write posts: %v", err)
	}
}

// healthHandler reports service status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":      "healthy",
		"version":     s.cfg.Version,
		"timestamp":   s.now().UTC().Format(time.RFC3339),
		"total_posts": s.posts.Len(),
	}
	if s.archive != nil {
		count, err := s.archive.CountPosts(r.Context())
		if err != nil {
			log.Printf("[WARN] failed to count archived posts: %v", err)
			resp["status"] = "degraded"
		} else {
			resp["archived_posts"] = count
		}
	}
	if s.jobs != nil {
		resp["scraping"] = s.jobs.Running()
	}
	renderJSON(w, r, http.StatusOK, resp)
}
