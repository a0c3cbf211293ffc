package activity

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/internal/logger"
	"github.com/Versifine/threadboard/server/store"
)

const sendBuffer = 16

// Client is one subscriber connection. Send is drained by the connection's
// writer; a full buffer drops messages for that client.
type Client struct {
	UserID int
	Send   chan []byte
}

func NewClient(userID int) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, sendBuffer)}
}

// Hub fans activity events out to the sockets of the user they concern.
type Hub struct {
	mu    sync.Mutex
	users map[int]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		users: map[int]map[*Client]bool{},
	}
}

func (h *Hub) Join(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[client.UserID] == nil {
		h.users[client.UserID] = map[*Client]bool{}
	}
	h.users[client.UserID][client] = true
}

func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.users[client.UserID]
	if clients == nil || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.users, client.UserID)
	}
}

// Subscribers reports how many connections userID has open.
func (h *Hub) Subscribers(userID int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.users[userID])
}

func (h *Hub) Broadcast(userID int, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.users[userID] {
		select {
		case client.Send <- message:
		default:
			logger.Warn("activity subscriber lagging, message dropped", zap.Int("user_id", userID))
		}
	}
}

// Publish implements store.Notifier.
func (h *Hub) Publish(event store.ActivityEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("encode activity event", zap.Error(err))
		return
	}
	h.Broadcast(event.UserID, data)
}

var _ store.Notifier = (*Hub)(nil)
