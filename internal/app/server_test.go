package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*StaticServer, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>app</h1>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	s, err := NewStaticServer(dir, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.listener.Close() })
	return s, dir
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestStaticServer_ServesFiles(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	code, body := get(t, router, "/assets/app.js")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "console.log(1)", body)

	code, body = get(t, router, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<h1>app</h1>")
}

func TestStaticServer_FallsBackToIndex(t *testing.T) {
	s, _ := newTestServer(t)

	code, body := get(t, s.Router(), "/settings/profile")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<h1>app</h1>")
}

func TestStaticServer_Health(t *testing.T) {
	s, _ := newTestServer(t)

	code, body := get(t, s.Router(), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)
	assert.Contains(t, s.URL(), "http://127.0.0.1:")
}

func TestNewStaticServer_MissingDir(t *testing.T) {
	_, err := NewStaticServer(filepath.Join(t.TempDir(), "missing"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run build first")
}
