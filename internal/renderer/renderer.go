// Package renderer produces the response body for a template: it runs the
// template's view with the request bindings and renders the markup with
// the bindings the view leaves behind.
//
// Markup is Jinja-style and compiled with gonja. Markup may extend or
// include other templates by their path relative to the application root;
// their bodies are read through the template cache, and compiled markup is
// recompiled as soon as any of the files it was built from changes.
package renderer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nikolalohinski/gonja/v2/builtins"
	gonjaconfig "github.com/nikolalohinski/gonja/v2/config"
	"github.com/nikolalohinski/gonja/v2/exec"

	"github.com/conneroisu/keystone/internal/errors"
	"github.com/conneroisu/keystone/internal/logging"
	"github.com/conneroisu/keystone/internal/tmpl"
	"github.com/conneroisu/keystone/internal/view"
)

// Output is a rendered response body.
type Output struct {
	Body string
	// Immediate is set when the view responded directly.
	Immediate bool
}

// Renderer renders templates. It is safe for concurrent use.
type Renderer struct {
	templates *tmpl.Cache
	logger    logging.Logger
	config    *gonjaconfig.Config
	env       *exec.Environment

	mutex  sync.Mutex
	markup map[string]*compiled
}

type compiled struct {
	tpl *exec.Template
	// deps maps every template read while compiling to its ModTime.
	deps map[string]time.Time
}

// New returns a renderer resolving markup dependencies through templates.
func New(templates *tmpl.Cache, logger logging.Logger) *Renderer {
	if logger == nil {
		logger = logging.Nop()
	}

	return &Renderer{
		templates: templates,
		logger:    logger.WithComponent("renderer"),
		config: &gonjaconfig.Config{
			BlockStartString:    "{%",
			BlockEndString:      "%}",
			VariableStartString: "{{",
			VariableEndString:   "}}",
			CommentStartString:  "{#",
			CommentEndString:    "#}",
			AutoEscape:          false,
			StrictUndefined:     false,
		},
		env: &exec.Environment{
			Filters:           builtins.Filters,
			Tests:             builtins.Tests,
			ControlStructures: builtins.ControlStructures,
			Methods:           builtins.Methods,
			Context:           builtins.GlobalFunctions,
		},
		markup: make(map[string]*compiled),
	}
}

// Render executes t's view with seeds and t's URL parameters, then renders
// the markup. A view that responded directly bypasses the markup. Outcomes
// raised by the view are returned unchanged.
func (r *Renderer) Render(ctx context.Context, t *tmpl.Template, seeds view.Bindings) (*Output, error) {
	in := seeds.Clone()
	for k, v := range t.Params {
		in[k] = v
	}

	res, err := t.View.Execute(ctx, in)
	if err != nil {
		return nil, err
	}

	switch res := res.(type) {
	case view.Immediate:
		return &Output{Body: res.Body, Immediate: true}, nil
	case view.Rendered:
		markup, err := r.compile(t)
		if err != nil {
			return nil, err
		}

		out, err := markup.ExecuteToString(exec.NewContext(map[string]interface{}(res.Bindings)))
		if err != nil {
			return nil, errors.NewInternalError(errors.CodeRenderFailed, "failed to render "+t.Name, err)
		}

		return &Output{Body: strings.TrimSuffix(out, "\n")}, nil
	}

	return nil, errors.NewInternalError(errors.CodeRenderFailed,
		fmt.Sprintf("view of %s returned %T", t.Name, res), nil)
}

// Reset drops all compiled markup.
func (r *Renderer) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.markup = make(map[string]*compiled)
}

// compile returns the compiled markup of t, reusing a previous compilation
// while none of its source templates changed.
func (r *Renderer) compile(t *tmpl.Template) (*exec.Template, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if c, ok := r.markup[t.Name]; ok && r.fresh(t, c) {
		return c.tpl, nil
	}

	loader := newCacheLoader(r.templates, t)
	tpl, err := exec.NewTemplate(t.Name, r.config, loader, r.env)
	if err != nil {
		return nil, errors.NewCompileError(errors.CodeMarkupCompile, t.Name, err)
	}

	// A request holding an older copy must not replace newer markup.
	if c, ok := r.markup[t.Name]; !ok || !c.deps[t.Name].After(t.ModTime) {
		r.markup[t.Name] = &compiled{tpl: tpl, deps: loader.deps}
	}

	r.logger.Debug(context.Background(), "markup compiled", "template", t.Name, "dependencies", len(loader.deps))

	return tpl, nil
}

func (r *Renderer) fresh(t *tmpl.Template, c *compiled) bool {
	for name, modTime := range c.deps {
		if name == t.Name {
			if !modTime.Equal(t.ModTime) {
				return false
			}
			continue
		}

		dep, err := r.templates.Get(name)
		if err != nil || !dep.ModTime.Equal(modTime) {
			return false
		}
	}

	return true
}
