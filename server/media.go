package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/umputun/postscope/pkg/media"
)

// mediaHandler serves a downloaded media file of a session, GET /media/{session}/{file}
func (s *Server) mediaHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("session"), 10, 64)
	if err != nil || id <= 0 {
		renderError(w, r, errors.New("invalid session id"), http.StatusBadRequest)
		return
	}
	name := r.PathValue("file")
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		renderError(w, r, errors.New("invalid file name"), http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.cfg.MediaDir, media.SessionDir(id), name)
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		renderError(w, r, fmt.Errorf("media file %s of session %d not found", name, id), http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}
