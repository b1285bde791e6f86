package view

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/conneroisu/keystone/internal/errors"
)

// ImportPath is the package path view code imports the Scope API from.
const ImportPath = "keystone/ks"

const entrypoint = "main.View"

// Compiler turns the code section of a template into a Procedure run by
// the yaegi interpreter. The code is the body of
//
//	func View(v *ks.Scope) error
//
// Leading import declarations are hoisted to file level.
type Compiler struct {
	goPath string
	stdout io.Writer
}

// NewCompiler returns a compiler whose views may import source packages
// found under goPath/src.
func NewCompiler(goPath string) *Compiler {
	return &Compiler{goPath: goPath}
}

// WithStdout directs output printed by views to w.
func (c *Compiler) WithStdout(w io.Writer) *Compiler {
	c.stdout = w

	return c
}

// Compile compiles code once. The returned Procedure may be executed many
// times and concurrently.
func (c *Compiler) Compile(name, code string) (Procedure, error) {
	i := interp.New(interp.Options{
		GoPath: c.goPath,
		Stdout: c.stdout,
		Stderr: io.Discard,
	})

	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, errors.NewInternalError(errors.CodeViewCompile, "failed to load stdlib", err)
	}
	if err := i.Use(Symbols); err != nil {
		return nil, errors.NewInternalError(errors.CodeViewCompile, "failed to load view symbols", err)
	}

	if _, err := i.Eval(wrap(code)); err != nil {
		return nil, errors.NewCompileError(errors.CodeViewCompile, name, err)
	}

	v, err := i.Eval(entrypoint)
	if err != nil {
		return nil, errors.NewCompileError(errors.CodeViewCompile, name, err)
	}

	fn, ok := v.Interface().(func(*Scope) error)
	if !ok {
		return nil, errors.NewCompileError(errors.CodeViewCompile, name,
			fmt.Errorf("View has signature %s", v.Type()))
	}

	return &interpreted{name: name, fn: fn}, nil
}

type interpreted struct {
	name string
	fn   func(*Scope) error
}

func (p *interpreted) Execute(ctx context.Context, in Bindings) (Result, error) {
	return run(ctx, p.name, p.fn, in)
}

// wrap builds the source file for code.
func wrap(code string) string {
	imports, body := hoistImports(code)

	var src strings.Builder
	src.WriteString("package main\n\nimport \"" + ImportPath + "\"\n")
	for _, imp := range imports {
		src.WriteString(imp)
		src.WriteString("\n")
	}
	src.WriteString("\nvar _ = ks.ErrResponded\n\nfunc View(v *ks.Scope) error {\n")
	src.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		src.WriteString("\n")
	}
	src.WriteString("return nil\n}\n")

	return src.String()
}

// hoistImports splits off import declarations that precede the first
// statement. Blank and comment lines before them stay in the body.
func hoistImports(code string) (imports []string, body string) {
	lines := strings.Split(code, "\n")

	var rest []string
	inBlock := false
	done := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch {
		case done:
			rest = append(rest, line)
		case inBlock:
			imports = append(imports, line)
			if strings.HasPrefix(trimmed, ")") {
				inBlock = false
			}
		case strings.HasPrefix(trimmed, "import ("):
			imports = append(imports, line)
			inBlock = !strings.HasSuffix(trimmed, ")")
		case strings.HasPrefix(trimmed, "import "):
			imports = append(imports, line)
		case trimmed == "" || strings.HasPrefix(trimmed, "//"):
			rest = append(rest, line)
		default:
			done = true
			rest = append(rest, line)
		}
	}

	return imports, strings.Join(rest, "\n")
}
