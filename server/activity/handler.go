package activity

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/internal/logger"
	"github.com/Versifine/threadboard/server/internal/transport"
	"github.com/Versifine/threadboard/server/store"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type Handler struct {
	Store    store.API
	Hub      *Hub
	Upgrader websocket.Upgrader
}

// ServeWS handles GET /ws/activity. The caller is identified by the userId
// header or, for browsers that cannot set headers on upgrades, the userId
// query parameter.
func (h *Handler) ServeWS(c *gin.Context) {
	if c.GetHeader(transport.ViewerHeader) == "" && c.Query("userId") != "" {
		c.Request.Header.Set(transport.ViewerHeader, c.Query("userId"))
	}
	user, ok := transport.RequireUser(c, h.Store)
	if !ok {
		return
	}

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Int("user_id", user.ID), zap.Error(err))
		return
	}

	client := NewClient(user.ID)
	h.Hub.Join(client)
	logger.Debug("activity subscriber joined", zap.Int("user_id", user.ID))

	go writeLoop(conn, client)
	readLoop(conn)

	h.Hub.Leave(client)
	logger.Debug("activity subscriber left", zap.Int("user_id", user.ID))
}

// readLoop discards client frames and returns once the peer goes away.
func readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeLoop(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// AllowOrigins returns an origin check accepting the listed origins. "*"
// accepts any.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}
