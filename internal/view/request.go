package view

import (
	"net/http"
	"net/url"
	"time"
)

// Request is the read-only view of the incoming HTTP request.
type Request struct {
	Method string
	Path   string
	Host   string
	Header http.Header
	Query  url.Values

	raw *http.Request
}

// NewRequest wraps r.
func NewRequest(r *http.Request) *Request {
	return &Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Host:   r.Host,
		Header: r.Header,
		Query:  r.URL.Query(),
		raw:    r,
	}
}

// Cookie returns the value of the named cookie, or "".
func (r *Request) Cookie(name string) string {
	if r.raw == nil {
		return ""
	}
	c, err := r.raw.Cookie(name)
	if err != nil {
		return ""
	}

	return c.Value
}

// Cookies returns every request cookie by name.
func (r *Request) Cookies() map[string]string {
	out := make(map[string]string)
	if r.raw == nil {
		return out
	}
	for _, c := range r.raw.Cookies() {
		out[c.Name] = c.Value
	}

	return out
}

// FormValue returns the first value for key from the query or a posted
// form body.
func (r *Request) FormValue(key string) string {
	if r.raw == nil {
		return r.Query.Get(key)
	}

	return r.raw.FormValue(key)
}

// Raw returns the underlying request.
func (r *Request) Raw() *http.Request { return r.raw }

// Response collects the headers and cookies a view adds to its response.
type Response struct {
	header  http.Header
	cookies []*http.Cookie
}

func NewResponse() *Response {
	return &Response{header: make(http.Header)}
}

func (r *Response) Header() http.Header { return r.header }

// SetCookie sets a session cookie scoped to the whole site.
func (r *Response) SetCookie(name, value string) {
	r.cookies = append(r.cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
}

// DeleteCookie expires the named cookie.
func (r *Response) DeleteCookie(name string) {
	r.cookies = append(r.cookies, &http.Cookie{
		Name:    name,
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
}

func (r *Response) Cookies() []*http.Cookie { return r.cookies }

// Apply copies the collected headers and cookies onto w. Content-Type
// falls back to HTML.
func (r *Response) Apply(w http.ResponseWriter) {
	for k, vs := range r.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	for _, c := range r.cookies {
		http.SetCookie(w, c)
	}
}

// Seed returns the bindings every request starts with.
func Seed(req *Request, resp *Response, appDir string) Bindings {
	return Bindings{
		BindingRequest:      req,
		BindingHeaders:      resp.Header(),
		BindingSetCookie:    resp.SetCookie,
		BindingDeleteCookie: resp.DeleteCookie,
		BindingAppDir:       appDir,
	}
}
