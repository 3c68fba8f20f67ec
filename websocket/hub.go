package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// Define event types pushed to connected clients
const (
	EventTypeNotification = "notification"
	EventTypeFeedUpdate   = "feed_update"
	EventTypePostDeleted  = "post_deleted"
)

// Event represents a message sent over WebSocket
type Event struct {
	Type         string      `json:"type"`
	Message      string      `json:"message"`
	Data         interface{} `json:"data,omitempty"`
	UserID       string      `json:"userId,omitempty"`
	RequiresAuth bool        `json:"requiresAuth,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID        string
	Conn          *websocket.Conn
	Authenticated bool
}

// Hub maintains the set of active clients and pushes events to them
type Hub struct {
	clients                map[string]*Client
	unauthenticatedClients map[*Client]bool
	register               chan *Client
	unregister             chan *Client
	mu                     sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:                make(map[string]*Client),
		unauthenticatedClients: make(map[*Client]bool),
		register:               make(chan *Client),
		unregister:             make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.Authenticated && client.UserID != "" {
				h.clients[client.UserID] = client
			} else {
				h.unauthenticatedClients[client] = true
			}
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if client.Authenticated && client.UserID != "" {
				if _, ok := h.clients[client.UserID]; ok {
					delete(h.clients, client.UserID)
				}
			} else {
				delete(h.unauthenticatedClients, client)
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends an event to a specific user
func (h *Hub) SendToUser(userID string, event Event) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Conn.WriteJSON(event)
}

// AuthenticateClient moves a client from unauthenticated to authenticated state
func (h *Hub) AuthenticateClient(client *Client, userID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.unauthenticatedClients[client]; ok {
		delete(h.unauthenticatedClients, client)
	}

	client.Authenticated = true
	client.UserID = userID

	h.clients[userID] = client

	return nil
}

// NotifyUser pushes an in-app notification to a connected user. Returns an
// error only when delivery fails; an offline user is not an error.
func (h *Hub) NotifyUser(userID string, data interface{}) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return nil
	}

	return client.Conn.WriteJSON(Event{
		Type:    EventTypeNotification,
		Message: "New notification",
		Data:    data,
	})
}

// NotifyFeedUpdate tells a connected user that a post in their feed changed
func (h *Hub) NotifyFeedUpdate(userID string, postData interface{}) error {
	event := Event{
		Type:    EventTypeFeedUpdate,
		Message: "Feed updated",
		Data:    postData,
	}

	return h.SendToUser(userID, event)
}

// NotifyPostDeleted tells a connected user that a post was removed
func (h *Hub) NotifyPostDeleted(userID, postID string) error {
	event := Event{
		Type:    EventTypePostDeleted,
		Message: "Post deleted",
		Data:    map[string]string{"postId": postID},
	}

	return h.SendToUser(userID, event)
}
