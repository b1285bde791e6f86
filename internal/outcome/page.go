package outcome

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

// Page renders the HTML body sent along with the outcome.
func (e *Error) Page() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		name := templ.EscapeString(e.Name())

		var desc string
		if e.IsRedirect() {
			loc := templ.EscapeString(e.Location)
			desc = fmt.Sprintf("You should be redirected automatically to the target URL: <a href=\"%s\">%s</a>. If not, click the link.", loc, loc)
		} else {
			desc = templ.EscapeString(e.Description)
		}

		_, err := fmt.Fprintf(w, "<!doctype html>\n<html lang=en>\n<title>%d %s</title>\n<h1>%s</h1>\n<p>%s</p>\n",
			e.Code, name, name, desc)

		return err
	})
}

// Write sends the outcome as a complete HTTP response.
func (e *Error) Write(ctx context.Context, w http.ResponseWriter) error {
	for k, vs := range e.Header() {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if !bodyAllowed(e.Code) {
		w.WriteHeader(e.Code)
		return nil
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(e.Code)

	return e.Page().Render(ctx, w)
}

// bodyAllowed reports whether a response with status code may carry a body.
func bodyAllowed(code int) bool {
	return code >= 200 && code != http.StatusNoContent && code != http.StatusNotModified
}
