package renderer

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/keystone/internal/errors"
	"github.com/conneroisu/keystone/internal/outcome"
	"github.com/conneroisu/keystone/internal/tmpl"
	"github.com/conneroisu/keystone/internal/view"
)

const root = "/app"

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	fs       afero.Fs
	cache    *tmpl.Cache
	renderer *Renderer
	views    map[string]view.Procedure
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{fs: afero.NewMemMapFs(), views: make(map[string]view.Procedure)}
	f.cache = tmpl.NewCache(f.fs, root, func(name, _ string) (view.Procedure, error) {
		if p, ok := f.views[name]; ok {
			return p, nil
		}
		return view.Identity, nil
	})
	f.renderer = New(f.cache, nil)

	return f
}

func (f *fixture) write(t *testing.T, name, content string, mtime time.Time) {
	t.Helper()

	p := root + "/" + name
	require.NoError(t, afero.WriteFile(f.fs, p, []byte(content), 0o644))
	require.NoError(t, f.fs.Chtimes(p, mtime, mtime))
}

func (f *fixture) render(t *testing.T, name string, params map[string]string, seeds view.Bindings) (*Output, error) {
	t.Helper()

	cached, err := f.cache.Get(name)
	require.NoError(t, err)

	tpl := cached.Copy()
	for k, v := range params {
		tpl.Params[k] = v
	}

	return f.renderer.Render(context.Background(), tpl, seeds)
}

func TestRenderRunsViewThenMarkup(t *testing.T) {
	f := newFixture(t)
	f.views["page.ks"] = view.Func(func(v *view.Scope) error {
		v.Set("name", "HTML")
		return nil
	})
	f.write(t, "page.ks", "v.Set(\"name\", \"HTML\")\n----\n<strong>this is {{ name }}</strong>\n", epoch)

	out, err := f.render(t, "page.ks", nil, view.Bindings{})
	require.NoError(t, err)
	assert.Equal(t, &Output{Body: "<strong>this is HTML</strong>"}, out)
}

func TestRenderIdentityTemplateSeesSeedsAndParams(t *testing.T) {
	f := newFixture(t)
	f.write(t, "%id.ks", "{{ greeting }} #{{ id }}", epoch)

	seeds := view.Bindings{"greeting": "item"}
	out, err := f.render(t, "%id.ks", map[string]string{"id": "42"}, seeds)
	require.NoError(t, err)

	assert.Equal(t, "item #42", out.Body)
	assert.Equal(t, view.Bindings{"greeting": "item"}, seeds, "seeds are not modified")
}

func TestRenderParamsOverrideSeeds(t *testing.T) {
	f := newFixture(t)
	f.write(t, "%name.ks", "{{ name }}", epoch)

	out, err := f.render(t, "%name.ks", map[string]string{"name": "param"}, view.Bindings{"name": "seed"})
	require.NoError(t, err)
	assert.Equal(t, "param", out.Body)
}

func TestRenderImmediateSkipsMarkup(t *testing.T) {
	f := newFixture(t)
	f.views["hello.ks"] = view.Func(func(v *view.Scope) error {
		return v.Respond("hello, world")
	})
	f.write(t, "hello.ks", "respond\n----\n{{ broken\n", epoch)

	out, err := f.render(t, "hello.ks", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, &Output{Body: "hello, world", Immediate: true}, out)
}

func TestRenderImmediateKeepsTrailingNewline(t *testing.T) {
	f := newFixture(t)
	f.views["raw.ks"] = view.Func(func(v *view.Scope) error {
		return v.Respond("line\n")
	})
	f.write(t, "raw.ks", "respond\n----\n", epoch)

	out, err := f.render(t, "raw.ks", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "line\n", out.Body)
}

func TestRenderPassesOutcomesThrough(t *testing.T) {
	f := newFixture(t)
	f.views["secret.ks"] = view.Func(func(v *view.Scope) error {
		return outcome.Forbidden()
	})
	f.write(t, "secret.ks", "forbid\n----\nsecret\n", epoch)

	out, err := f.render(t, "secret.ks", nil, nil)
	assert.Nil(t, out)

	o, ok := outcome.As(err)
	require.True(t, ok)
	assert.Equal(t, 403, o.Code)
}

func TestRenderReportsMarkupErrors(t *testing.T) {
	f := newFixture(t)
	f.write(t, "bad.ks", "{% if %}", epoch)

	_, err := f.render(t, "bad.ks", nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeCompile, errors.TypeOf(err))
}

func TestRenderExtendsOtherTemplates(t *testing.T) {
	f := newFixture(t)
	f.write(t, "_base.html", "<main>{% block content %}{% endblock %}</main>", epoch)
	f.write(t, "page.ks", `{% extends "_base.html" %}{% block content %}hi {{ who }}{% endblock %}`, epoch)

	out, err := f.render(t, "page.ks", nil, view.Bindings{"who": "you"})
	require.NoError(t, err)
	assert.Equal(t, "<main>hi you</main>", out.Body)

	f.write(t, "_base.html", "<article>{% block content %}{% endblock %}</article>", epoch.Add(time.Second))

	out, err = f.render(t, "page.ks", nil, view.Bindings{"who": "you"})
	require.NoError(t, err)
	assert.Equal(t, "<article>hi you</article>", out.Body)
}

func TestRenderRecompilesChangedMarkup(t *testing.T) {
	f := newFixture(t)
	f.write(t, "page.ks", "one {{ n }}", epoch)

	out, err := f.render(t, "page.ks", nil, view.Bindings{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, "one 1", out.Body)

	f.write(t, "page.ks", "two {{ n }}", epoch.Add(time.Second))

	out, err = f.render(t, "page.ks", nil, view.Bindings{"n": 2})
	require.NoError(t, err)
	assert.Equal(t, "two 2", out.Body)

	f.renderer.Reset()
	out, err = f.render(t, "page.ks", nil, view.Bindings{"n": 3})
	require.NoError(t, err)
	assert.Equal(t, "two 3", out.Body)
}

func TestRenderInterpretedView(t *testing.T) {
	fs := afero.NewMemMapFs()
	compiler := view.NewCompiler(t.TempDir())
	cache := tmpl.NewCache(fs, root, compiler.Compile)
	r := New(cache, nil)

	require.NoError(t, afero.WriteFile(fs, root+"/greet.ks", []byte(`import "strings"
v.Set("name", strings.ToUpper(v.Get("who").(string)))
----
<p>Hello {{ name }}</p>
`), 0o644))

	cached, err := cache.Get("greet.ks")
	require.NoError(t, err)

	out, err := r.Render(context.Background(), cached.Copy(), view.Bindings{"who": "world"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello WORLD</p>", out.Body)
}
