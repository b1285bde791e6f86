package view

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/keystone/internal/errors"
	"github.com/conneroisu/keystone/internal/outcome"
)

func compile(t *testing.T, code string) Procedure {
	t.Helper()

	proc, err := NewCompiler(t.TempDir()).Compile("test.ks", code)
	require.NoError(t, err)

	return proc
}

func TestCompiledViewSetsBindings(t *testing.T) {
	proc := compile(t, "v.Set(\"x\", 1)\nv.Set(\"y\", \"abc\")\n")

	res, err := proc.Execute(context.Background(), Bindings{})
	require.NoError(t, err)

	rendered, ok := res.(Rendered)
	require.True(t, ok)
	assert.Equal(t, Bindings{"x": 1, "y": "abc"}, rendered.Bindings)
}

func TestCompiledViewSeesInput(t *testing.T) {
	proc := compile(t, `import "strings"

name, _ := v.Get("name").(string)
v.Set("shout", strings.ToUpper(name))
`)

	res, err := proc.Execute(context.Background(), Bindings{"name": "keystone"})
	require.NoError(t, err)
	assert.Equal(t, "KEYSTONE", res.(Rendered).Bindings["shout"])
	assert.Equal(t, "keystone", res.(Rendered).Bindings["name"])
}

func TestCompiledViewIsReusable(t *testing.T) {
	proc := compile(t, `n, _ := v.Get("n").(int)
v.Set("double", n*2)
`)

	for n := 1; n <= 3; n++ {
		res, err := proc.Execute(context.Background(), Bindings{"n": n})
		require.NoError(t, err)
		assert.Equal(t, n*2, res.(Rendered).Bindings["double"])
	}
}

func TestCompiledViewResponds(t *testing.T) {
	proc := compile(t, `return v.Respond("hello, world")`)

	res, err := proc.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Immediate{Body: "hello, world"}, res)
}

func TestCompiledViewRaisesOutcome(t *testing.T) {
	proc := compile(t, `return ks.SeeOther("/login")`)

	_, err := proc.Execute(context.Background(), nil)
	require.Error(t, err)

	o, ok := outcome.As(err)
	require.True(t, ok)
	assert.Equal(t, 303, o.Code)
	assert.Equal(t, "/login", o.Location)
}

func TestCompiledViewOutcomeVocabulary(t *testing.T) {
	tests := []struct {
		code     string
		status   int
		location string
	}{
		{`return ks.NotModified()`, 304, ""},
		{`return ks.UseProxy("http://proxy:3128")`, 305, "http://proxy:3128"},
		{`return ks.RequestURITooLarge()`, 414, ""},
		{`return ks.RequestedRangeNotSatisfiable()`, 416, ""},
		{`return ks.ExpectationFailed()`, 417, ""},
		{`return ks.ImATeapot()`, 418, ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := compile(t, tt.code).Execute(context.Background(), nil)

			o, ok := outcome.As(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.status, o.Code)
			assert.Equal(t, tt.location, o.Location)
		})
	}
}

func TestCompileErrorIsReported(t *testing.T) {
	_, err := NewCompiler(t.TempDir()).Compile("broken.ks", "v.Set(\n")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeCompile, errors.TypeOf(err))
	assert.Contains(t, err.Error(), "broken.ks")
}

func TestHoistImports(t *testing.T) {
	code := `// greeting view
import "strings"
import (
	"fmt"
	"time"
)

v.Set("a", strings.ToLower(fmt.Sprint(time.Second)))
import "never"
`

	imports, body := hoistImports(code)

	assert.Equal(t, []string{
		`import "strings"`,
		`import (`,
		"\t\"fmt\"",
		"\t\"time\"",
		`)`,
	}, imports)
	assert.Contains(t, body, "// greeting view")
	assert.Contains(t, body, `v.Set("a"`)
	assert.Contains(t, body, `import "never"`, "imports after the first statement are left in place")
}

func TestWrapProducesViewFunc(t *testing.T) {
	src := wrap(`v.Set("a", 1)`)

	assert.Contains(t, src, "package main")
	assert.Contains(t, src, `import "keystone/ks"`)
	assert.Contains(t, src, "func View(v *ks.Scope) error {\nv.Set(\"a\", 1)\nreturn nil\n}")
}
