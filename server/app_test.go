package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Versifine/threadboard/server/activity"
	"github.com/Versifine/threadboard/server/config"
	"github.com/Versifine/threadboard/server/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Storage.Path = filepath.Join(dir, "db.json")
	cfg.Upload.Dir = filepath.Join(dir, "uploads")
	return cfg
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	st, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	r := newRouter(cfg, st, activity.NewHub())

	t.Run("healthz", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("cors preflight allows the viewer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/thread", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "userId")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "userid")
	})

	t.Run("gzip on request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	})

	t.Run("api routes are mounted", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/thread/1", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":2004`)
	})
}

func TestStoreOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.PasswordScheme = "rot13"
	_, err := storeOptions(cfg)
	assert.Error(t, err)

	cfg.Storage.Driver = "etcd"
	_, err = openPersister(context.Background(), cfg.Storage)
	assert.ErrorContains(t, err, "etcd")
}

func TestPrintProblems(t *testing.T) {
	assert.Zero(t, printProblems(nil, true))

	problems := []store.IndexProblem{
		{Kind: store.ProblemOrphan, Detail: "reply 3 points at missing thread 1"},
		{Kind: store.ProblemFavorite, Detail: "thread 9 favorited by missing user 4"},
	}
	assert.Equal(t, 1, printProblems(problems, false))
	assert.Equal(t, 2, printProblems(problems, true))
}
