package transport

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/internal/logger"
	"github.com/Versifine/threadboard/server/store"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeUnauthorized  = 1001
	CodeUsernameTaken = 1004
	CodeInvalidInput  = 2001
	CodeNotFound      = 2004
	CodeInternal      = 5000
)

// ViewerHeader names the request header that identifies the calling user.
const ViewerHeader = "userId"

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MessageResponse is the body of mutations that return nothing else.
type MessageResponse struct {
	Message string `json:"message"`
}

func WriteError(c *gin.Context, status int, code int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})
}

func WriteMessage(c *gin.Context, status int, message string) {
	c.JSON(status, MessageResponse{Message: message})
}

// WriteStoreError maps a store error onto a response. Unknown errors are
// logged and hidden behind a generic 500.
func WriteStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(c, http.StatusNotFound, CodeNotFound, "not found")
	case errors.Is(err, store.ErrInvalidInput):
		WriteError(c, http.StatusBadRequest, CodeInvalidInput, "invalid input")
	case errors.Is(err, store.ErrUsernameTaken):
		WriteError(c, http.StatusConflict, CodeUsernameTaken, "username already taken")
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		WriteError(c, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

func parsePositive(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ParamID parses a positive integer path parameter, answering 400 when it is
// malformed.
func ParamID(c *gin.Context, name string) (int, bool) {
	id, ok := parsePositive(c.Param(name))
	if !ok {
		WriteError(c, http.StatusBadRequest, CodeInvalidInput, "invalid "+name)
		return 0, false
	}
	return id, true
}

// OptionalViewer returns the user id from the viewer header, or 0 when the
// header is absent or malformed. Reads work for anonymous viewers.
func OptionalViewer(c *gin.Context) int {
	id, _ := parsePositive(c.GetHeader(ViewerHeader))
	return id
}

// RequireUser resolves the viewer header to a known user. It answers 401
// when the header is missing or names nobody.
func RequireUser(c *gin.Context, api store.API) (store.UserProfile, bool) {
	raw := strings.TrimSpace(c.GetHeader(ViewerHeader))
	if raw == "" {
		WriteError(c, http.StatusUnauthorized, CodeUnauthorized, "userId in header is missing")
		return store.UserProfile{}, false
	}
	id, ok := parsePositive(raw)
	if !ok {
		WriteError(c, http.StatusUnauthorized, CodeUnauthorized, "invalid userId")
		return store.UserProfile{}, false
	}
	user, ok := api.GetUser(id)
	if !ok {
		WriteError(c, http.StatusUnauthorized, CodeUnauthorized, "unknown user")
		return store.UserProfile{}, false
	}
	return user, true
}

// RequestLogger logs one line per request once the handler chain returns.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if viewer := OptionalViewer(c); viewer != 0 {
			fields = append(fields, zap.Int("viewer", viewer))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
