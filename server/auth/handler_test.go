package auth

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

	"github.com/Versifine/threadboard/server/internal/transport"
	"github.com/Versifine/threadboard/server/store"
)

func setup(t *testing.T) (*store.Store, *gin.Engine, int, int) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	st, err := store.Open(ctx, &store.MemoryPersister{})
	require.NoError(t, err)
	alice, err := st.AddUser(ctx, store.NewUser{Username: "alice", FirstName: "Alice", Password: "secret"})
	require.NoError(t, err)
	bob, err := st.AddUser(ctx, store.NewUser{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	r := gin.New()
	(&Service{Store: st}).Register(r.Group("/api"))
	return st, r, alice.ID, bob.ID
}

func request(t *testing.T, r *gin.Engine, method, path string, userID int, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(transport.ViewerHeader, strconv.Itoa(userID))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginHandler(t *testing.T) {
	_, r, alice, _ := setup(t)

	t.Run("success", func(t *testing.T) {
		w := request(t, r, http.MethodPost, "/api/login", 0, loginRequest{Username: "alice", Password: "secret"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp store.LoginResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.User)
		assert.Equal(t, alice, resp.User.ID)
		assert.Equal(t, "Alice", resp.User.FirstName)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := request(t, r, http.MethodPost, "/api/login", 0, loginRequest{Username: "alice", Password: "nope"})
		require.Equal(t, http.StatusUnauthorized, w.Code)

		var resp transport.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, transport.CodeUnauthorized, resp.Code)
		assert.NotEmpty(t, resp.Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := request(t, r, http.MethodPost, "/api/login", 0, loginRequest{Username: "alice"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserRoutes(t *testing.T) {
	ctx := context.Background()
	st, r, alice, bob := setup(t)

	threadID, err := st.CreateThread(ctx, alice, "mine", nil)
	require.NoError(t, err)
	replyID, err := st.CreateThreadReply(ctx, threadID, bob, "yours", nil)
	require.NoError(t, err)
	require.NoError(t, st.SetFavorite(ctx, store.KindReply, replyID, alice, true))

	t.Run("me", func(t *testing.T) {
		w := request(t, r, http.MethodGet, "/api/user", bob, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"bob"`)

		w = request(t, r, http.MethodGet, "/api/user", 0, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("profile and follow", func(t *testing.T) {
		path := "/api/users/" + strconv.Itoa(alice)
		w := request(t, r, http.MethodPost, path+"/follow", bob, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = request(t, r, http.MethodGet, path, bob, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp userResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.IsFollowing)
		assert.Equal(t, 1, resp.FollowerCount)

		w = request(t, r, http.MethodPost, path+"/follow", alice, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = request(t, r, http.MethodDelete, path+"/follow", bob, nil)
		require.Equal(t, http.StatusOK, w.Code)
		w = request(t, r, http.MethodDelete, path+"/follow", bob, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = request(t, r, http.MethodGet, "/api/users/404", bob, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("threads and replies", func(t *testing.T) {
		w := request(t, r, http.MethodGet, "/api/users/"+strconv.Itoa(alice)+"/threads", 0, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var threads []store.ContentView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &threads))
		require.Len(t, threads, 1)
		assert.Equal(t, threadID, threads[0].Content.ID)

		w = request(t, r, http.MethodGet, "/api/users/"+strconv.Itoa(bob)+"/replies", 0, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var groups []store.UserReplies
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
		require.Len(t, groups, 1)
		assert.Equal(t, threadID, groups[0].MainThread.Content.ID)

		w = request(t, r, http.MethodGet, "/api/users/"+strconv.Itoa(bob)+"/replies?threadId="+strconv.Itoa(threadID), alice, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var group store.UserReplies
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &group))
		require.Len(t, group.ThreadReplies, 1)
		assert.True(t, group.ThreadReplies[0].Favorite.IsFavorite)

		w = request(t, r, http.MethodGet, "/api/users/"+strconv.Itoa(alice)+"/replies?threadId="+strconv.Itoa(threadID), 0, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = request(t, r, http.MethodGet, "/api/users/"+strconv.Itoa(bob)+"/replies?threadId=x", 0, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("activity and favorites", func(t *testing.T) {
		w := request(t, r, http.MethodGet, "/api/users/"+strconv.Itoa(alice)+"/activity", 0, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var act activityResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &act))
		assert.Equal(t, []store.ActivityEntry{{Kind: store.ActivityReply, ReplyID: replyID}}, act.Replies.OtherUsers)

		w = request(t, r, http.MethodGet, "/api/users/"+strconv.Itoa(alice)+"/favorites/reply", 0, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ids":[`+strconv.Itoa(replyID)+`]}`, w.Body.String())

		w = request(t, r, http.MethodGet, "/api/users/"+strconv.Itoa(alice)+"/favorites/post", 0, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
