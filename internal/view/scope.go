// Package view executes the code section of a template. A view receives a
// Scope seeded with the request bindings and URL parameters, mutates it,
// and either lets the markup render with the resulting bindings or
// responds immediately with a body of its own.
package view

import (
	"context"
	"errors"
	"net/http"
)

// Bindings maps names to values visible to a view and to the markup.
type Bindings map[string]any

// Clone returns a shallow copy of b.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}

	return out
}

// Names of the bindings seeded into every request.
const (
	BindingRequest      = "request"
	BindingHeaders      = "headers"
	BindingSetCookie    = "set_cookie"
	BindingDeleteCookie = "delete_cookie"
	BindingAppDir       = "app_dir"
)

// ErrResponded is returned by Scope.Respond. Views return it to stop
// executing; the body passed to Respond becomes the response.
var ErrResponded = errors.New("view responded")

// Scope is the mutable environment of one view execution.
type Scope struct {
	ctx       context.Context
	vars      Bindings
	responded bool
	body      string
}

// NewScope copies in into a fresh scope.
func NewScope(ctx context.Context, in Bindings) *Scope {
	if ctx == nil {
		ctx = context.Background()
	}

	return &Scope{ctx: ctx, vars: in.Clone()}
}

// Context returns the request context.
func (s *Scope) Context() context.Context { return s.ctx }

func (s *Scope) Get(name string) any { return s.vars[name] }

func (s *Scope) Lookup(name string) (any, bool) {
	v, ok := s.vars[name]

	return v, ok
}

func (s *Scope) Set(name string, value any) { s.vars[name] = value }

func (s *Scope) Del(name string) { delete(s.vars, name) }

func (s *Scope) Has(name string) bool {
	_, ok := s.vars[name]

	return ok
}

// Bindings returns the scope's current bindings.
func (s *Scope) Bindings() Bindings { return s.vars }

// Request returns the seeded request, or nil outside of HTTP serving.
func (s *Scope) Request() *Request {
	r, _ := s.vars[BindingRequest].(*Request)

	return r
}

// Header returns the response headers. Without a seeded response the
// returned header is detached.
func (s *Scope) Header() http.Header {
	if h, ok := s.vars[BindingHeaders].(http.Header); ok {
		return h
	}

	return make(http.Header)
}

func (s *Scope) SetCookie(name, value string) {
	if set, ok := s.vars[BindingSetCookie].(func(string, string)); ok {
		set(name, value)
	}
}

func (s *Scope) DeleteCookie(name string) {
	if del, ok := s.vars[BindingDeleteCookie].(func(string)); ok {
		del(name)
	}
}

func (s *Scope) AppDir() string {
	dir, _ := s.vars[BindingAppDir].(string)

	return dir
}

// Respond records body as the complete response and returns ErrResponded.
//
//	return v.Respond("hello, world")
func (s *Scope) Respond(body string) error {
	s.responded = true
	s.body = body

	return ErrResponded
}

// Immediate returns the body recorded by Respond.
func (s *Scope) Immediate() (string, bool) {
	return s.body, s.responded
}
