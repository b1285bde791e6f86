// Package internal contains the implementation packages of keystone.
//
// # Package Organization
//
//   - router: maps request paths onto static files and templates, binding
//     %param directory and file names to URL parameters
//   - tmpl: splits .ks files into view code and markup and caches them by
//     modification time
//   - view: compiles view code with the yaegi interpreter and runs it
//     against a scope of bindings
//   - renderer: runs a template's view, then renders its markup with gonja
//   - outcome: HTTP outcomes raised by views or the dispatcher, and their
//     error pages
//   - server: HTTP dispatch, static files, health and live reload routes
//   - watcher, livereload: file watching and browser reload during
//     development
//   - config, logging, errors, version: ambient support
//
// # Request Flow
//
//   - The server hands the request path to the router
//   - The router returns a static file, a template copy carrying URL
//     parameters, or nothing
//   - The renderer executes the view with the request's seed bindings and
//     either returns its immediate response or renders the markup with the
//     resulting bindings
//   - Outcomes raised along the way become their HTTP responses
//
// The template cache is the only state shared between requests.
package internal
