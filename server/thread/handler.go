package thread

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Versifine/threadboard/server/internal/transport"
	"github.com/Versifine/threadboard/server/store"
)

type Handler struct {
	Store store.API
}

type postRequest struct {
	Text     string `json:"text"`
	ImageIDs []int  `json:"imageIds"`
}

type createdResponse struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
}

type favoriteRequest struct {
	IsFavorite *bool `json:"isFavorite"`
}

// Register mounts the thread, reply and favorite routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/thread", h.CreateThread)
	r.GET("/thread/random/:count", h.RandomThreads)
	r.GET("/thread/:id", h.GetThread)
	r.DELETE("/thread/:id", h.DeleteThread)
	r.GET("/thread/:id/replies", h.ListThreadReplies)
	r.POST("/thread/:id/replies", h.CreateThreadReply)

	r.GET("/reply/:id", h.GetReply)
	r.GET("/reply/:id/replies", h.ListReplyingReplies)
	r.POST("/reply/:id/replies", h.CreateReplyingReply)
	r.GET("/replying-reply/:id", h.GetReplyingReply)

	r.PUT("/favorite/:kind/:id", h.SetFavorite)
}

func bindPost(c *gin.Context) (postRequest, bool) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		transport.WriteError(c, http.StatusBadRequest, transport.CodeInvalidInput, "invalid json")
		return req, false
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" && len(req.ImageIDs) == 0 {
		transport.WriteError(c, http.StatusBadRequest, transport.CodeInvalidInput, "missing fields")
		return req, false
	}
	return req, true
}

// CreateThread handles POST /api/thread.
func (h *Handler) CreateThread(c *gin.Context) {
	user, ok := transport.RequireUser(c, h.Store)
	if !ok {
		return
	}
	req, ok := bindPost(c)
	if !ok {
		return
	}

	id, err := h.Store.CreateThread(c.Request.Context(), user.ID, req.Text, req.ImageIDs)
	if err != nil {
		transport.WriteStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createdResponse{ID: id, Message: "Thread has been posted"})
}

// GetThread handles GET /api/thread/:id.
func (h *Handler) GetThread(c *gin.Context) {
	h.getContent(c, store.KindThread)
}

// GetReply handles GET /api/reply/:id.
func (h *Handler) GetReply(c *gin.Context) {
	h.getContent(c, store.KindReply)
}

// GetReplyingReply handles GET /api/replying-reply/:id.
func (h *Handler) GetReplyingReply(c *gin.Context) {
	h.getContent(c, store.KindReplyingReply)
}

func (h *Handler) getContent(c *gin.Context, kind store.ContentKind) {
	id, ok := transport.ParamID(c, "id")
	if !ok {
		return
	}
	view, ok := h.Store.View(kind, id, transport.OptionalViewer(c))
	if !ok {
		transport.WriteError(c, http.StatusNotFound, transport.CodeNotFound, kind.String()+" not found")
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteThread handles DELETE /api/thread/:id.
func (h *Handler) DeleteThread(c *gin.Context) {
	id, ok := transport.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.Store.DeleteThread(c.Request.Context(), id); err != nil {
		transport.WriteStoreError(c, err)
		return
	}
	transport.WriteMessage(c, http.StatusOK, "Thread has been deleted")
}

// RandomThreads handles GET /api/thread/random/:count. A non-positive count
// yields an empty list.
func (h *Handler) RandomThreads(c *gin.Context) {
	user, ok := transport.RequireUser(c, h.Store)
	if !ok {
		return
	}
	count, ok := parseCount(c.Param("count"))
	if !ok {
		transport.WriteError(c, http.StatusBadRequest, transport.CodeInvalidInput, "invalid count")
		return
	}

	views, err := h.Store.PickRandomUnwatched(c.Request.Context(), user.ID, count)
	if err != nil {
		transport.WriteStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// ListThreadReplies handles GET /api/thread/:id/replies.
func (h *Handler) ListThreadReplies(c *gin.Context) {
	id, ok := transport.ParamID(c, "id")
	if !ok {
		return
	}
	views, ok := h.Store.ThreadReplies(id, transport.OptionalViewer(c))
	if !ok {
		transport.WriteError(c, http.StatusNotFound, transport.CodeNotFound, "thread not found")
		return
	}
	c.JSON(http.StatusOK, views)
}

// CreateThreadReply handles POST /api/thread/:id/replies.
func (h *Handler) CreateThreadReply(c *gin.Context) {
	threadID, ok := transport.ParamID(c, "id")
	if !ok {
		return
	}
	user, ok := transport.RequireUser(c, h.Store)
	if !ok {
		return
	}
	req, ok := bindPost(c)
	if !ok {
		return
	}

	id, err := h.Store.CreateThreadReply(c.Request.Context(), threadID, user.ID, req.Text, req.ImageIDs)
	if err != nil {
		transport.WriteStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createdResponse{ID: id, Message: "Reply has been posted"})
}

// ListReplyingReplies handles GET /api/reply/:id/replies.
func (h *Handler) ListReplyingReplies(c *gin.Context) {
	id, ok := transport.ParamID(c, "id")
	if !ok {
		return
	}
	views, ok := h.Store.ReplyingReplies(id, transport.OptionalViewer(c))
	if !ok {
		transport.WriteError(c, http.StatusNotFound, transport.CodeNotFound, "reply not found")
		return
	}
	c.JSON(http.StatusOK, views)
}

// CreateReplyingReply handles POST /api/reply/:id/replies.
func (h *Handler) CreateReplyingReply(c *gin.Context) {
	replyID, ok := transport.ParamID(c, "id")
	if !ok {
		return
	}
	user, ok := transport.RequireUser(c, h.Store)
	if !ok {
		return
	}
	req, ok := bindPost(c)
	if !ok {
		return
	}

	id, err := h.Store.CreateReplyingReply(c.Request.Context(), replyID, user.ID, req.Text, req.ImageIDs)
	if err != nil {
		transport.WriteStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createdResponse{ID: id, Message: "Reply has been posted"})
}

// SetFavorite handles PUT /api/favorite/:kind/:id.
func (h *Handler) SetFavorite(c *gin.Context) {
	kind, err := store.ParseContentKind(c.Param("kind"))
	if err != nil {
		transport.WriteError(c, http.StatusBadRequest, transport.CodeInvalidInput, "invalid kind")
		return
	}
	id, ok := transport.ParamID(c, "id")
	if !ok {
		return
	}
	user, ok := transport.RequireUser(c, h.Store)
	if !ok {
		return
	}

	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsFavorite == nil {
		transport.WriteError(c, http.StatusBadRequest, transport.CodeInvalidInput, "isFavorite is required")
		return
	}

	if err := h.Store.SetFavorite(c.Request.Context(), kind, id, user.ID, *req.IsFavorite); err != nil {
		transport.WriteStoreError(c, err)
		return
	}
	view, _ := h.Store.View(kind, id, user.ID)
	c.JSON(http.StatusOK, view.Favorite)
}

func parseCount(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}
