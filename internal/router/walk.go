package router

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/keystone/internal/tmpl"
)

// candidates walks the application tree for entries that could serve
// requestPath. Only directories equal to the matching request segment or
// named as a parameter are entered, and never deeper than the request.
// Results are slash-separated paths relative to the root.
func (r *Resolver) candidates(ctx context.Context, requestPath string) []string {
	parts := strings.Split(requestPath, "/")
	depth := len(parts) - 1
	last := parts[depth]

	type dir struct {
		rel   string
		depth int
	}

	var found []string
	stack := []dir{{rel: "", depth: 0}}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		infos, err := afero.ReadDir(r.fs, filepath.Join(r.root, filepath.FromSlash(d.rel)))
		if err != nil {
			r.logger.Debug(ctx, "skipping unreadable directory", "dir", d.rel, "error", err)
			continue
		}

		for _, info := range infos {
			name := info.Name()
			rel := path.Join(d.rel, name)

			if info.IsDir() {
				if d.depth < depth && (name == parts[d.depth] || strings.HasPrefix(name, ParamPrefix)) {
					stack = append(stack, dir{rel: rel, depth: d.depth + 1})
				}
				continue
			}

			if d.depth == depth && isCandidate(name, last) {
				found = append(found, rel)
			}
		}
	}

	return found
}

// isCandidate reports whether a file named name in a directory at request
// depth can serve a request whose final segment is last.
func isCandidate(name, last string) bool {
	switch {
	case strings.HasPrefix(name, ParamPrefix):
		return strings.HasSuffix(name, tmpl.Extension)
	case strings.HasSuffix(name, tmpl.Extension):
		return name == last+tmpl.Extension || (last == "" && name == "index"+tmpl.Extension)
	default:
		return name == last && !isPrivate(name)
	}
}
