package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Versifine/threadboard/server/store"
)

func testContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestWriteStoreError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"not found", errors.Wrap(store.ErrNotFound, "thread 4"), http.StatusNotFound, CodeNotFound},
		{"invalid", store.ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput},
		{"taken", store.ErrUsernameTaken, http.StatusConflict, CodeUsernameTaken},
		{"anything else", errors.New("disk full"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := testContext(http.MethodPost, "/api/thread")
			WriteStoreError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestParamID(t *testing.T) {
	c, _ := testContext(http.MethodGet, "/api/thread/12")
	c.Params = gin.Params{{Key: "id", Value: "12"}}
	id, ok := ParamID(c, "id")
	require.True(t, ok)
	assert.Equal(t, 12, id)

	for _, raw := range []string{"", "0", "-3", "abc"} {
		c, w := testContext(http.MethodGet, "/api/thread/x")
		c.Params = gin.Params{{Key: "id", Value: raw}}
		_, ok := ParamID(c, "id")
		assert.False(t, ok, raw)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestViewer(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, &store.MemoryPersister{})
	require.NoError(t, err)
	alice, err := st.AddUser(ctx, store.NewUser{Username: "alice"})
	require.NoError(t, err)

	t.Run("optional viewer tolerates junk", func(t *testing.T) {
		c, _ := testContext(http.MethodGet, "/")
		assert.Zero(t, OptionalViewer(c))
		c.Request.Header.Set(ViewerHeader, "nope")
		assert.Zero(t, OptionalViewer(c))
		c.Request.Header.Set(ViewerHeader, " 5 ")
		assert.Equal(t, 5, OptionalViewer(c))
	})

	t.Run("require user", func(t *testing.T) {
		c, _ := testContext(http.MethodPost, "/")
		c.Request.Header.Set(ViewerHeader, "1")
		user, ok := RequireUser(c, st)
		require.True(t, ok)
		assert.Equal(t, alice.ID, user.ID)
		assert.Equal(t, "alice", user.Username)
	})

	for name, header := range map[string]string{"missing": "", "malformed": "x1", "unknown": "77"} {
		t.Run("require user "+name, func(t *testing.T) {
			c, w := testContext(http.MethodPost, "/")
			if header != "" {
				c.Request.Header.Set(ViewerHeader, header)
			}
			_, ok := RequireUser(c, st)
			assert.False(t, ok)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, CodeUnauthorized, decodeError(t, w).Code)
		})
	}
}
