package renderer

import (
	"io"
	"path"
	"strings"
	"time"

	"github.com/nikolalohinski/gonja/v2/loaders"

	"github.com/conneroisu/keystone/internal/tmpl"
)

// cacheLoader serves markup to gonja. The template being compiled is read
// from memory; anything it extends or includes is read from the template
// cache, so only the markup section of a referenced template is used.
type cacheLoader struct {
	templates *tmpl.Cache
	root      *tmpl.Template
	deps      map[string]time.Time
}

func newCacheLoader(templates *tmpl.Cache, root *tmpl.Template) *cacheLoader {
	return &cacheLoader{
		templates: templates,
		root:      root,
		deps:      make(map[string]time.Time),
	}
}

// Resolve maps a reference to a path relative to the application root.
func (l *cacheLoader) Resolve(name string) (string, error) {
	return strings.TrimPrefix(path.Clean("/"+name), "/"), nil
}

func (l *cacheLoader) Read(name string) (io.Reader, error) {
	if name == l.root.Name {
		l.deps[name] = l.root.ModTime
		return strings.NewReader(l.root.Body), nil
	}

	t, err := l.templates.Get(name)
	if err != nil {
		return nil, err
	}
	l.deps[name] = t.ModTime

	return strings.NewReader(t.Body), nil
}

func (l *cacheLoader) Inherit(string) (loaders.Loader, error) {
	return l, nil
}
