// Package router maps request paths onto files in an application
// directory. A path resolves to a static file, to a template, or to a
// template reached through parameter directories and files whose names
// begin with "%", in which case the matching request segments become URL
// parameters.
package router

import (
	"context"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/keystone/internal/logging"
	"github.com/conneroisu/keystone/internal/tmpl"
)

const (
	// ParamPrefix marks a file or directory name as a URL parameter.
	ParamPrefix = "%"
	// PrivatePrefix hides a file from direct requests.
	PrivatePrefix = "_"
)

// HiddenExtensions are never served, whatever the file.
var HiddenExtensions = []string{tmpl.Extension, ".go", ".so", ".a"}

// Resource is the result of a resolution: StaticFile or TemplateResource.
type Resource interface {
	resource()
}

// StaticFile is a file served verbatim.
type StaticFile struct {
	// Path is the file's location on the application filesystem.
	Path string
}

// TemplateResource is a template to render for the request.
type TemplateResource struct {
	// Path is the template's slash-separated path relative to the root.
	Path string
	// Params are the URL parameters, shared with Template.Params.
	Params   map[string]string
	Template *tmpl.Template
}

func (StaticFile) resource()       {}
func (TemplateResource) resource() {}

// AmbiguityHandler is told when several candidates tie for the best score.
// tied is sorted and chosen is its first element.
type AmbiguityHandler func(ctx context.Context, requestPath string, tied []string, chosen string)

// Resolver resolves request paths against an application directory.
type Resolver struct {
	fs          afero.Fs
	root        string
	templates   *tmpl.Cache
	logger      logging.Logger
	onAmbiguous AmbiguityHandler
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger logging.Logger) Option {
	return func(r *Resolver) { r.logger = logger.WithComponent("router") }
}

// WithAmbiguityHandler replaces the default handler, which logs a warning.
func WithAmbiguityHandler(h AmbiguityHandler) Option {
	return func(r *Resolver) { r.onAmbiguous = h }
}

// New returns a resolver for the directory templates reads from.
func New(fs afero.Fs, templates *tmpl.Cache, opts ...Option) *Resolver {
	r := &Resolver{
		fs:        fs,
		root:      templates.Root(),
		templates: templates,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.onAmbiguous == nil {
		r.onAmbiguous = r.warnAmbiguous
	}

	return r
}

// Resolve returns the resource serving requestPath, or nil when nothing
// does. Errors come from loading a matched template.
func (r *Resolver) Resolve(ctx context.Context, requestPath string) (Resource, error) {
	p := strings.TrimPrefix(requestPath, "/")
	if p == "" {
		p = "index"
	}

	if hasHiddenExtension(p) || !isSafe(p) {
		return nil, nil
	}

	// A trailing slash names a directory, never a file.
	if info, err := r.fs.Stat(r.abs(p)); err == nil && info.Mode().IsRegular() && !strings.HasSuffix(p, "/") {
		if isPrivate(path.Base(p)) {
			return nil, nil
		}
		return StaticFile{Path: r.abs(p)}, nil
	}

	if r.templates.Exists(p + tmpl.Extension) {
		return r.template(p+tmpl.Extension, nil)
	}

	candidates := r.candidates(ctx, p)
	if len(candidates) == 0 {
		return nil, nil
	}

	winner := r.best(ctx, p, candidates)
	params := Params(p, winner)

	if !strings.HasSuffix(winner, tmpl.Extension) {
		return StaticFile{Path: r.abs(winner)}, nil
	}

	return r.template(winner, params)
}

// best picks the highest scoring candidate, breaking ties by name.
func (r *Resolver) best(ctx context.Context, requestPath string, candidates []string) string {
	top := -1
	var tied []string
	for _, c := range candidates {
		s := Score(requestPath, c)
		switch {
		case s > top:
			top = s
			tied = []string{c}
		case s == top:
			tied = append(tied, c)
		}
	}

	sort.Strings(tied)
	if len(tied) > 1 {
		r.onAmbiguous(ctx, "/"+requestPath, tied, tied[0])
	}

	return tied[0]
}

func (r *Resolver) template(name string, params map[string]string) (Resource, error) {
	t, err := r.templates.Get(name)
	if err != nil {
		return nil, err
	}

	c := t.Copy()
	for k, v := range params {
		c.Params[k] = v
	}

	return TemplateResource{Path: name, Params: c.Params, Template: c}, nil
}

func (r *Resolver) warnAmbiguous(ctx context.Context, requestPath string, tied []string, chosen string) {
	r.logger.Warn(ctx, nil, "multiple parameterized paths matched",
		"path", requestPath,
		"candidates", tied,
		"chosen", chosen)
}

func (r *Resolver) abs(p string) string {
	return filepath.Join(r.root, filepath.FromSlash(p))
}

func hasHiddenExtension(p string) bool {
	for _, ext := range HiddenExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}

	return false
}

func isPrivate(name string) bool {
	return strings.HasPrefix(name, PrivatePrefix) || strings.HasPrefix(name, ".")
}

// isSafe rejects paths that climb out of the root or pass through dot
// entries.
func isSafe(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") || strings.Contains(seg, "\\") {
			return false
		}
	}

	return true
}
