package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealist/surrealist/internal/auth"
	"github.com/surrealist/surrealist/internal/logger"
	"github.com/surrealist/surrealist/internal/testutil"
	"github.com/surrealist/surrealist/internal/websocket"
)

type echoCommand struct{}

func (echoCommand) RegisterRoutes(g *echo.Group) {
	g.POST("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, "pong")
	})
}

type fakeLogs struct {
	path string
}

func (f fakeLogs) GetRecentLogs() []logger.ConsoleEntry { return nil }
func (f fakeLogs) GetLogFilePath() string          { return f.path }

var testDist = fstest.MapFS{
	"index.html":     {Data: []byte(`<!doctype html><html><head><title>Surrealist</title></head><body><div id="root"></div></body></html>`)},
	"assets/app.js":  {Data: []byte(`console.log("app")`)},
	"assets/app.css": {Data: []byte(`body{}`)},
}

func setupTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	svc, err := auth.NewService(0)
	require.NoError(t, err)
	token, err := svc.GenerateToken()
	require.NoError(t, err)

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	s := NewServer(Options{
		Hub:      hub,
		Auth:     svc,
		Token:    token,
		Logs:     fakeLogs{},
		Commands: []CommandGroup{echoCommand{}},
		Frontend: testDist,
	}, testutil.NewTestLogger(t))
	return s, token
}

func do(s *Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestServer_CommandsRequireToken(t *testing.T) {
	s, token := setupTestServer(t)

	rec := do(s, http.MethodPost, "/api/commands/ping", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(s, http.MethodPost, "/api/commands/ping", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(s, http.MethodPost, "/api/commands/ping", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store, no-cache, must-revalidate, private", rec.Header().Get("Cache-Control"))

	var body string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "pong", body)
}

func TestServer_TokenFromQuery(t *testing.T) {
	s, token := setupTestServer(t)

	rec := do(s, http.MethodPost, "/api/commands/ping?token="+token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Logs(t *testing.T) {
	s, token := setupTestServer(t)

	rec := do(s, http.MethodGet, "/api/logs", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(s, http.MethodGet, "/api/logs/download", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_IndexCarriesToken(t *testing.T) {
	s, token := setupTestServer(t)

	for _, path := range []string{"/", "/index.html", "/connections/edit"} {
		rec := do(s, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)

		doc, err := goquery.NewDocumentFromReader(rec.Body)
		require.NoError(t, err)

		content, ok := doc.Find(`head meta[name="surrealist-token"]`).Attr("content")
		assert.True(t, ok, path)
		assert.Equal(t, token, content, path)
		assert.Equal(t, 1, doc.Find("#root").Length(), path)
	}
}

func TestServer_StaticAssets(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(s, http.MethodGet, "/assets/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `console.log("app")`)

	rec = do(s, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s, _ := setupTestServer(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + l.Addr().String() + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, s.Shutdown(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestRenderIndex_ReplacesExistingToken(t *testing.T) {
	dist := fstest.MapFS{
		"index.html": {Data: []byte(`<html><head><meta name="surrealist-token" content="stale"></head><body></body></html>`)},
	}

	page, err := renderIndex(dist, "fresh")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(page)))
	require.NoError(t, err)
	tags := doc.Find(`meta[name="surrealist-token"]`)
	require.Equal(t, 1, tags.Length())
	content, _ := tags.Attr("content")
	assert.Equal(t, "fresh", content)
}
