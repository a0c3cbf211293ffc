package thread

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Versifine/threadboard/server/store"
)

type fixture struct {
	store  *store.Store
	router *gin.Engine
	alice  int
	bob    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	st, err := store.Open(ctx, &store.MemoryPersister{})
	require.NoError(t, err)
	alice, err := st.AddUser(ctx, store.NewUser{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	bob, err := st.AddUser(ctx, store.NewUser{Username: "bob", Password: "secret"})
	require.NoError(t, err)

	r := gin.New()
	(&Handler{Store: st}).Register(r.Group("/api"))
	return &fixture{store: st, router: r, alice: alice.ID, bob: bob.ID}
}

func (f *fixture) do(t *testing.T, method, path string, userID int, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("userId", strconv.Itoa(userID))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestThreadLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/thread", f.alice, map[string]any{"text": "hello board"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[createdResponse](t, w)
	path := "/api/thread/" + strconv.Itoa(created.ID)

	w = f.do(t, http.MethodGet, path, f.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[store.ContentView](t, w)
	assert.Equal(t, "hello board", view.Content.Text)
	assert.Equal(t, "alice", view.User.Username)
	require.NotNil(t, view.ReplyCount)
	assert.Zero(t, *view.ReplyCount)

	w = f.do(t, http.MethodPost, path+"/replies", f.bob, map[string]any{"text": "hi alice"})
	require.Equal(t, http.StatusCreated, w.Code)
	reply := decode[createdResponse](t, w)

	w = f.do(t, http.MethodPost, "/api/reply/"+strconv.Itoa(reply.ID)+"/replies", f.alice, map[string]any{"text": "hi bob"})
	require.Equal(t, http.StatusCreated, w.Code)
	nested := decode[createdResponse](t, w)

	w = f.do(t, http.MethodGet, path+"/replies", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]store.ContentView](t, w), 1)

	w = f.do(t, http.MethodGet, "/api/reply/"+strconv.Itoa(reply.ID)+"/replies", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]store.ContentView](t, w), 1)

	w = f.do(t, http.MethodGet, "/api/replying-reply/"+strconv.Itoa(nested.ID), 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, store.KindReplyingReply, decode[store.ContentView](t, w).Kind)

	w = f.do(t, http.MethodDelete, path, 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodGet, path, f.bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(t, http.MethodDelete, path, 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		method string
		path   string
		user   int
		body   any
		status int
	}{
		{"no viewer header", http.MethodPost, "/api/thread", 0, map[string]any{"text": "x"}, http.StatusUnauthorized},
		{"unknown viewer", http.MethodPost, "/api/thread", 99, map[string]any{"text": "x"}, http.StatusUnauthorized},
		{"empty post", http.MethodPost, "/api/thread", f.alice, map[string]any{"text": "  "}, http.StatusBadRequest},
		{"reply to missing thread", http.MethodPost, "/api/thread/77/replies", f.alice, map[string]any{"text": "x"}, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/thread/abc", f.alice, nil, http.StatusBadRequest},
		{"missing reply", http.MethodGet, "/api/reply/5", f.alice, nil, http.StatusNotFound},
		{"bad count", http.MethodGet, "/api/thread/random/lots", f.alice, nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(t, tc.method, tc.path, tc.user, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestRandomThreads(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.store.CreateThread(context.Background(), f.alice, "t", nil)
		require.NoError(t, err)
	}

	w := f.do(t, http.MethodGet, "/api/thread/random/2", f.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]store.ContentView](t, w), 2)

	w = f.do(t, http.MethodGet, "/api/thread/random/-1", f.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestSetFavorite(t *testing.T) {
	f := newFixture(t)
	threadID, err := f.store.CreateThread(context.Background(), f.alice, "fav", nil)
	require.NoError(t, err)
	path := "/api/favorite/thread/" + strconv.Itoa(threadID)

	w := f.do(t, http.MethodPut, path, f.bob, map[string]any{"isFavorite": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, store.FavoriteStatus{Count: 1, IsFavorite: true}, decode[store.FavoriteStatus](t, w))

	w = f.do(t, http.MethodPut, path, f.bob, map[string]any{"isFavorite": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, store.FavoriteStatus{}, decode[store.FavoriteStatus](t, w))

	w = f.do(t, http.MethodPut, path, f.bob, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/api/favorite/comment/1", f.bob, map[string]any{"isFavorite": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/api/favorite/reply/9", f.bob, map[string]any{"isFavorite": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
