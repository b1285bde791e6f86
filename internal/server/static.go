package server

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/conneroisu/keystone/internal/errors"
	"github.com/conneroisu/keystone/internal/outcome"
)

// serveStatic sends a file with caching headers derived from its
// modification time. Conditional and range requests are answered by
// http.ServeContent.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.handleError(w, r, outcome.MethodNotAllowed(http.MethodGet, http.MethodHead))
		return
	}

	f, err := s.fs.Open(name)
	if err != nil {
		s.handleError(w, r, errors.NewTemplateNotFound(name, err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.handleError(w, r, errors.NewIOError(errors.CodeStatFailed, "failed to stat "+name, err))
		return
	}

	modTime := info.ModTime()
	w.Header().Set("ETag", etag(modTime))
	w.Header().Set("Expires", modTime.Add(s.config.App.StaticExpires).UTC().Format(http.TimeFormat))

	http.ServeContent(w, r, info.Name(), modTime, f)
}

// etag is the quoted md5 of the modification time in seconds.
func etag(modTime time.Time) string {
	secs := strconv.FormatFloat(float64(modTime.UnixNano())/float64(time.Second), 'f', -1, 64)
	sum := md5.Sum([]byte(secs))

	return `"` + hex.EncodeToString(sum[:]) + `"`
}
