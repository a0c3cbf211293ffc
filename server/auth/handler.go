package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Versifine/threadboard/server/internal/transport"
	"github.com/Versifine/threadboard/server/store"
)

type Service struct {
	Store store.API
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	store.UserProfile
	IsFollowing bool `json:"isFollowing"`
}

type activityResponse struct {
	Replies store.ReplyActivity    `json:"replies"`
	Follows []store.FollowActivity `json:"follows"`
}

// Register mounts the login and user routes on r.
func (s *Service) Register(r gin.IRouter) {
	r.POST("/login", s.LoginHandler)
	r.GET("/user", s.GetMe)
	r.GET("/users/:id", s.GetUser)
	r.GET("/users/:id/threads", s.GetUserThreads)
	r.GET("/users/:id/replies", s.GetUserReplies)
	r.GET("/users/:id/activity", s.GetActivity)
	r.GET("/users/:id/favorites/:kind", s.GetFavorites)
	r.POST("/users/:id/follow", s.FollowUser)
	r.DELETE("/users/:id/follow", s.UnfollowUser)
}

// LoginHandler handles POST /api/login.
func (s *Service) LoginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		transport.WriteError(c, http.StatusBadRequest, transport.CodeInvalidInput, "invalid json")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		transport.WriteError(c, http.StatusBadRequest, transport.CodeInvalidInput, "missing fields")
		return
	}

	result := s.Store.Authenticate(strings.TrimSpace(req.Username), req.Password)
	if result.User == nil {
		transport.WriteError(c, http.StatusUnauthorized, transport.CodeUnauthorized, result.Message)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetMe handles GET /api/user, resolving the caller from the userId header.
func (s *Service) GetMe(c *gin.Context) {
	user, ok := transport.RequireUser(c, s.Store)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUser handles GET /api/users/:id.
func (s *Service) GetUser(c *gin.Context) {
	targetID, ok := transport.ParamID(c, "id")
	if !ok {
		return
	}
	user, ok := s.Store.GetUser(targetID)
	if !ok {
		transport.WriteError(c, http.StatusNotFound, transport.CodeNotFound, "user not found")
		return
	}

	resp := userResponse{UserProfile: user}
	if viewer := transport.OptionalViewer(c); viewer != 0 {
		resp.IsFollowing = s.Store.IsFollowing(viewer, targetID)
	}
	c.JSON(http.StatusOK, resp)
}

// GetUserThreads handles GET /api/users/:id/threads.
func (s *Service) GetUserThreads(c *gin.Context) {
	targetID, ok := s.existingUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Store.ThreadsByUser(targetID, transport.OptionalViewer(c)))
}

// GetUserReplies handles GET /api/users/:id/replies. With ?threadId= it
// returns the single group for that thread.
func (s *Service) GetUserReplies(c *gin.Context) {
	targetID, ok := s.existingUser(c)
	if !ok {
		return
	}
	viewer := transport.OptionalViewer(c)

	if raw := strings.TrimSpace(c.Query("threadId")); raw != "" {
		threadID := parsePositiveInt(raw, 0)
		if threadID == 0 {
			transport.WriteError(c, http.StatusBadRequest, transport.CodeInvalidInput, "invalid threadId")
			return
		}
		group, ok := s.Store.RepliesByUserInThread(targetID, viewer, threadID)
		if !ok {
			transport.WriteError(c, http.StatusNotFound, transport.CodeNotFound, "no replies in thread")
			return
		}
		c.JSON(http.StatusOK, group)
		return
	}

	c.JSON(http.StatusOK, s.Store.AllRepliesByUser(targetID, viewer))
}

// GetActivity handles GET /api/users/:id/activity.
func (s *Service) GetActivity(c *gin.Context) {
	targetID, ok := s.existingUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, activityResponse{
		Replies: s.Store.Activity(targetID),
		Follows: s.Store.FollowActivities(targetID),
	})
}

// GetFavorites handles GET /api/users/:id/favorites/:kind.
func (s *Service) GetFavorites(c *gin.Context) {
	targetID, ok := s.existingUser(c)
	if !ok {
		return
	}
	kind, err := store.ParseContentKind(c.Param("kind"))
	if err != nil {
		transport.WriteError(c, http.StatusBadRequest, transport.CodeInvalidInput, "invalid kind")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ids": s.Store.FavoritesOfUser(kind, targetID)})
}

// FollowUser handles POST /api/users/:id/follow.
func (s *Service) FollowUser(c *gin.Context) {
	targetID, ok := transport.ParamID(c, "id")
	if !ok {
		return
	}
	me, ok := transport.RequireUser(c, s.Store)
	if !ok {
		return
	}

	if err := s.Store.Follow(c.Request.Context(), me.ID, targetID); err != nil {
		transport.WriteStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// UnfollowUser handles DELETE /api/users/:id/follow.
func (s *Service) UnfollowUser(c *gin.Context) {
	targetID, ok := transport.ParamID(c, "id")
	if !ok {
		return
	}
	me, ok := transport.RequireUser(c, s.Store)
	if !ok {
		return
	}

	if err := s.Store.Unfollow(c.Request.Context(), me.ID, targetID); err != nil {
		transport.WriteStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (s *Service) existingUser(c *gin.Context) (int, bool) {
	targetID, ok := transport.ParamID(c, "id")
	if !ok {
		return 0, false
	}
	if _, ok := s.Store.GetUser(targetID); !ok {
		transport.WriteError(c, http.StatusNotFound, transport.CodeNotFound, "user not found")
		return 0, false
	}
	return targetID, true
}

func parsePositiveInt(value string, fallback int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
