package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/conneroisu/keystone/internal/config"
	"github.com/conneroisu/keystone/internal/livereload"
	"github.com/conneroisu/keystone/internal/watcher"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newConfig(dir string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		App:    config.AppConfig{Dir: dir, StaticExpires: 24 * time.Hour},
		Development: config.DevelopmentConfig{
			Debounce: 20 * time.Millisecond,
		},
	}
}

// writeApp lays out files below dir, all modified at epoch.
func writeApp(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		require.NoError(t, os.Chtimes(p, epoch, epoch))
	}
}

var app = map[string]string{
	"index.ks":         "v.Set(\"method\", v.Request().Method)\n----\n<p>{{ method }}</p>\n",
	"users/%id.ks":     "<p>user {{ id }}</p>\n",
	"login.ks":         "v.SetCookie(\"session\", \"abc\")\nv.Header().Set(\"X-Keystone\", \"yes\")\n----\nok\n",
	"old.ks":           "return ks.SeeOther(\"/new\")\n----\n",
	"raw.ks":           "return v.Respond(\"plain\\n\")\n----\nunused\n",
	"broken.ks":        "import \"fmt\"\nreturn fmt.Errorf(\"boom\")\n----\n",
	"static/style.css": "body { color: red; }",
	"_partial.html":    "secret",
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, http.Handler) {
	t.Helper()

	dir := t.TempDir()
	writeApp(t, dir, app)

	cfg := newConfig(dir)
	if mutate != nil {
		mutate(cfg)
	}

	s := New(cfg, nil)
	return s, s.Handler()
}

func do(h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, vs := range header {
		req.Header[k] = vs
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func title(t *testing.T, body string) string {
	t.Helper()

	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)

	var walk func(*html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			return n.FirstChild.Data
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if s := walk(c); s != "" {
				return s
			}
		}
		return ""
	}

	return walk(doc)
}

func TestRenderTemplate(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<p>GET</p>", rec.Body.String())

	rec = do(h, http.MethodPost, "/index", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>POST</p>", rec.Body.String())
}

func TestRenderTemplateWithParams(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/users/42", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>user 42</p>", rec.Body.String())
}

func TestViewSetsHeadersAndCookies(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "yes", rec.Header().Get("X-Keystone"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "session=abc")
	assert.Equal(t, "ok", rec.Body.String())
}

func TestViewRedirects(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/old", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/new", rec.Header().Get("Location"))
	assert.Equal(t, "303 See Other", title(t, rec.Body.String()))
}

func TestViewRespondsDirectly(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/raw", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "plain\n", rec.Body.String())
}

func TestViewFailureIsInternalError(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/broken", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "500 Internal Server Error", title(t, rec.Body.String()))
	assert.NotContains(t, rec.Body.String(), "boom")

	_, h = newTestServer(t, func(cfg *config.Config) { cfg.Development.Debug = true })
	rec = do(h, http.MethodGet, "/broken", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestNotFound(t *testing.T) {
	_, h := newTestServer(t, nil)

	for _, target := range []string{"/missing", "/_partial.html", "/index.ks", "/users/1/extra", "/.hidden"} {
		t.Run(target, func(t *testing.T) {
			rec := do(h, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "404 Not Found", title(t, rec.Body.String()))
		})
	}
}

func TestServeStatic(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/static/style.css", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body { color: red; }", rec.Body.String())
	assert.Equal(t, "text/css; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, etag(epoch), rec.Header().Get("ETag"))
	assert.Equal(t, epoch.Format(http.TimeFormat), rec.Header().Get("Last-Modified"))
	assert.Equal(t, epoch.Add(24*time.Hour).Format(http.TimeFormat), rec.Header().Get("Expires"))

	rec = do(h, http.MethodGet, "/static/style.css", http.Header{"If-None-Match": {etag(epoch)}})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(h, http.MethodGet, "/static/style.css", http.Header{"If-Modified-Since": {epoch.Format(http.TimeFormat)}})
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = do(h, http.MethodHead, "/static/style.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeStaticRejectsOtherMethods(t *testing.T) {
	_, h := newTestServer(t, nil)

	rec := do(h, http.MethodPost, "/static/style.css", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
}

func TestETagFollowsModTime(t *testing.T) {
	assert.Equal(t, etag(epoch), etag(epoch))
	assert.NotEqual(t, etag(epoch), etag(epoch.Add(time.Millisecond)))
	assert.Regexp(t, `^"[0-9a-f]{32}"$`, etag(epoch))
}

func TestHealth(t *testing.T) {
	s, h := newTestServer(t, nil)

	do(h, http.MethodGet, "/", nil)

	rec := do(h, http.MethodGet, HealthPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Status    string `json:"status"`
		AppDir    string `json:"app_dir"`
		Templates struct {
			Entries int   `json:"entries"`
			Loads   int64 `json:"loads"`
		} `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, s.config.App.Dir, body.AppDir)
	assert.Equal(t, 1, body.Templates.Entries)
	assert.Equal(t, int64(1), body.Templates.Loads)

	rec = do(h, http.MethodDelete, HealthPath, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecoverPanics(t *testing.T) {
	s, _ := newTestServer(t, nil)

	h := s.addMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := do(h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "500 Internal Server Error", title(t, rec.Body.String()))
}

func TestHotReloadRoutes(t *testing.T) {
	_, h := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, livereload.ScriptPath, nil).Code)

	_, h = newTestServer(t, func(cfg *config.Config) { cfg.Development.HotReload = true })

	rec := do(h, http.MethodGet, livereload.ScriptPath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rec.Body.String(), livereload.SocketPath)

	rec = do(h, http.MethodGet, "/", nil)
	assert.Contains(t, rec.Body.String(), livereload.ScriptPath)

	rec = do(h, http.MethodGet, "/raw", nil)
	assert.Equal(t, "plain\n", rec.Body.String())
}

func TestFileChangesAreBroadcast(t *testing.T) {
	s, h := newTestServer(t, func(cfg *config.Config) { cfg.Development.HotReload = true })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go s.hub.Run(ctx)

	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+livereload.SocketPath, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return s.hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	dir := s.config.App.Dir
	require.NoError(t, s.handleFileChange(ctx, []watcher.ChangeEvent{
		{Type: watcher.EventTypeModified, Path: filepath.Join(dir, "users", "%id.ks")},
		{Type: watcher.EventTypeDeleted, Path: filepath.Join(dir, "old.ks")},
		{Type: watcher.EventTypeModified, Path: filepath.Join(filepath.Dir(dir), "elsewhere.ks")},
	}))

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg livereload.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "reload", msg.Type)
	assert.Equal(t, []string{"users/%id.ks", "old.ks"}, msg.Paths)
}

func TestStartAndShutdown(t *testing.T) {
	s, _ := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		s.serverMutex.RLock()
		defer s.serverMutex.RUnlock()
		return s.httpServer != nil
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.NoError(t, s.Shutdown(context.Background()))
}
