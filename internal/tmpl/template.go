// Package tmpl loads hybrid templates from an application directory. A
// template holds an optional view section and a markup section split by a
// separator line, and is cached until its file changes on disk.
package tmpl

import (
	"time"

	"github.com/conneroisu/keystone/internal/view"
)

// Extension marks template source files.
const Extension = ".ks"

// Template is a parsed template. Cached instances are shared and must not
// be mutated; request handling works on a Copy.
type Template struct {
	// Name is the slash-separated path relative to the application root.
	Name string
	// ModTime is the file modification time observed when loading.
	ModTime time.Time
	View    view.Procedure
	Body    string
	// Params holds URL parameters. Empty on cached instances.
	Params map[string]string
}

// Copy returns a per-request instance sharing View and Body with t and
// carrying its own empty Params.
func (t *Template) Copy() *Template {
	return &Template{
		Name:    t.Name,
		ModTime: t.ModTime,
		View:    t.View,
		Body:    t.Body,
		Params:  make(map[string]string),
	}
}
