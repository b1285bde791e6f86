package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/conneroisu/keystone/internal/errors"
	"github.com/conneroisu/keystone/internal/livereload"
	"github.com/conneroisu/keystone/internal/outcome"
	"github.com/conneroisu/keystone/internal/router"
	"github.com/conneroisu/keystone/internal/view"
)

// ServeHTTP resolves the request path and serves the static file or
// renders the template it maps to.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	found, err := s.resolver.Resolve(r.Context(), r.URL.Path)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	switch res := found.(type) {
	case router.StaticFile:
		s.serveStatic(w, r, res.Path)
	case router.TemplateResource:
		s.renderTemplate(w, r, res)
	default:
		s.handleError(w, r, outcome.NotFound())
	}
}

func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, res router.TemplateResource) {
	req := view.NewRequest(r)
	resp := view.NewResponse()

	out, err := s.renderer.Render(r.Context(), res.Template, view.Seed(req, resp, s.config.App.Dir))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	resp.Apply(w)

	body := out.Body
	if s.hub != nil && !out.Immediate && strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		body = livereload.Inject(body)
	}

	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		s.logger.Debug(r.Context(), "failed to write response", "path", r.URL.Path, "error", err)
	}
}

// handleError turns err into a response. Outcomes are sent as they are,
// a template that vanished after resolution is a 404, and anything else
// is logged and becomes a 500.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	o, ok := outcome.As(err)
	switch {
	case ok:
	case errors.IsTemplateNotFound(err):
		o = outcome.NotFound()
	default:
		kind := errors.TypeOf(err)
		var msg string
		switch {
		case errors.IsInternal(err):
			msg = "request failed"
		case kind == errors.ErrorTypeInternal:
			msg = "request failed with unclassified error"
		default:
			msg = "template failed to load"
		}
		s.logger.Error(ctx, err, msg, "method", r.Method, "path", r.URL.Path, "type", kind)
		o = outcome.InternalServerError()
		if s.config.Development.Debug {
			o.Description = err.Error()
		}
	}

	if err := o.Write(ctx, w); err != nil {
		s.logger.Debug(ctx, "failed to write error page", "path", r.URL.Path, "error", err)
	}
}
