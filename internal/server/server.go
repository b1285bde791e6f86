// Package server serves a keystone application directory over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/conneroisu/keystone/internal/config"
	"github.com/conneroisu/keystone/internal/livereload"
	"github.com/conneroisu/keystone/internal/logging"
	"github.com/conneroisu/keystone/internal/renderer"
	"github.com/conneroisu/keystone/internal/router"
	"github.com/conneroisu/keystone/internal/tmpl"
	"github.com/conneroisu/keystone/internal/view"
	"github.com/conneroisu/keystone/internal/watcher"
)

const (
	HealthPath = "/_keystone/health"

	shutdownTimeout = 5 * time.Second
)

// Server dispatches requests to the templates and static files of an
// application directory.
type Server struct {
	config *config.Config
	logger logging.Logger
	fs     afero.Fs

	templates *tmpl.Cache
	resolver  *router.Resolver
	renderer  *renderer.Renderer

	hub     *livereload.Hub
	watcher *watcher.FileWatcher

	httpServer   *http.Server
	serverMutex  sync.RWMutex
	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithFs serves the application from fs instead of the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(s *Server) { s.fs = fs }
}

// New creates a server for cfg.App.Dir.
func New(cfg *config.Config, logger logging.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		config: cfg,
		logger: logger.WithComponent("server"),
		fs:     afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(s)
	}

	compiler := view.NewCompiler(cfg.App.Dir)
	if cfg.Development.Debug {
		compiler = compiler.WithStdout(os.Stderr)
	}

	s.templates = tmpl.NewCache(s.fs, cfg.App.Dir, compiler.Compile,
		tmpl.WithMaxEntries(cfg.Cache.MaxEntries),
		tmpl.WithLogger(logger))
	s.resolver = router.New(s.fs, s.templates, router.WithLogger(logger))
	s.renderer = renderer.New(s.templates, logger)

	if cfg.Development.HotReload {
		s.hub = livereload.NewHub(logger)
	}

	return s
}

// Handler returns the server's routes wrapped in its middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, s.handleHealth)
	if s.hub != nil {
		mux.Handle(livereload.SocketPath, s.hub)
		mux.HandleFunc(livereload.ScriptPath, handleScript)
	}
	mux.Handle("/", s)

	return s.addMiddleware(mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.hub != nil {
		if err := s.startHotReload(ctx); err != nil {
			return err
		}
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	s.logger.Info(ctx, "serving application",
		"addr", server.Addr,
		"app_dir", s.config.App.Dir,
		"hot_reload", s.hub != nil)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down server")

		if s.watcher != nil {
			if err := s.watcher.Stop(); err != nil {
				s.logger.Warn(ctx, err, "failed to stop file watcher")
			}
		}

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

func (s *Server) startHotReload(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(s.config.Development.Debounce, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.NoEditorTempFilter)
	fw.AddHandler(s.handleFileChange)

	if err := fw.AddRecursive(s.config.App.Dir); err != nil {
		_ = fw.Stop()
		return fmt.Errorf("failed to watch %s: %w", s.config.App.Dir, err)
	}

	go s.hub.Run(ctx)
	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	s.watcher = fw

	return nil
}

// handleFileChange drops compiled markup and tells browsers to reload.
// Templates themselves are refreshed by the cache on their next use.
func (s *Server) handleFileChange(ctx context.Context, events []watcher.ChangeEvent) error {
	s.renderer.Reset()

	paths := make([]string, 0, len(events))
	for _, event := range events {
		rel, err := filepath.Rel(s.config.App.Dir, event.Path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)

		if event.Type == watcher.EventTypeDeleted && strings.HasSuffix(rel, tmpl.Extension) {
			s.templates.Invalidate(rel)
		}
		paths = append(paths, rel)
	}
	if len(paths) == 0 {
		return nil
	}

	s.logger.Debug(ctx, "application changed", "paths", paths)

	if s.hub == nil {
		return nil
	}

	return s.hub.Broadcast(livereload.Message{Type: "reload", Paths: paths})
}

func handleScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(livereload.Script))
}
