package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/texty-app/texty_backend/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection and registers the client with the hub.
// An empty userID means the client connected without a token and must send an
// AUTH message before it receives any events.
func HandleWebSocket(c echo.Context, hub *Hub, userID string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		UserID:        userID,
		Conn:          conn,
		Authenticated: userID != "",
	}

	hub.register <- client

	if client.Authenticated {
		conn.WriteJSON(Event{
			Type:    "connected",
			Message: "WebSocket connection established",
			UserID:  userID,
		})
	} else {
		conn.WriteJSON(Event{
			Type:         "connected",
			Message:      "WebSocket connection established. Please authenticate to receive events.",
			RequiresAuth: true,
		})
	}

	go func() {
		defer func() {
			hub.unregister <- client
		}()

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				break
			}

			// Handle authentication message (format: "AUTH:token_here")
			if messageType == websocket.TextMessage {
				messageStr := string(message)
				if strings.HasPrefix(messageStr, "AUTH:") {
					token := strings.TrimPrefix(messageStr, "AUTH:")
					result, err := utils.ValidateToken(token)
					if err != nil || !result.Valid {
						conn.WriteJSON(Event{
							Type:         "auth_response",
							Message:      "Authentication failed",
							RequiresAuth: true,
						})
						continue
					}

					hub.AuthenticateClient(client, result.UserID)
					conn.WriteJSON(Event{
						Type:    "auth_response",
						Message: "Authenticated",
						UserID:  result.UserID,
					})
					continue
				}
			}
		}
	}()

	return nil
}
