package tmpl

import (
	"fmt"
	"strings"

	"github.com/conneroisu/keystone/internal/errors"
	"github.com/conneroisu/keystone/internal/view"
)

// Separator splits the view section from the markup. Surrounding
// whitespace on the line is ignored.
const Separator = "----"

// CompileFunc compiles the view section of the named template.
type CompileFunc func(name, code string) (view.Procedure, error)

// Parse splits content into its view and markup sections. Without a
// separator the whole content is markup and the view is view.Identity.
// The returned template has a zero ModTime.
func Parse(name string, content []byte, compile CompileFunc) (*Template, error) {
	var code, body strings.Builder
	section := &code
	separatorLine := 0

	lines := strings.SplitAfter(string(content), "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}

		if strings.TrimSpace(line) == Separator {
			if separatorLine > 0 {
				return nil, errors.NewInvalidTemplate(name, i+1, separatorLine)
			}
			separatorLine = i + 1
			section = &body
			continue
		}

		section.WriteString(line)
	}

	if separatorLine == 0 {
		return &Template{Name: name, View: view.Identity, Body: code.String()}, nil
	}

	if compile == nil {
		return nil, errors.NewCompileError(errors.CodeViewCompile, name, fmt.Errorf("no view compiler configured"))
	}

	proc, err := compile(name, code.String())
	if err != nil {
		return nil, err
	}

	return &Template{Name: name, View: proc, Body: body.String()}, nil
}
