package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/services"
	"github.com/texty-app/texty_backend/utils"
	"github.com/texty-app/texty_backend/websocket"
)

// NotificationController serves the follow-notification inbox
type NotificationController struct {
	Notifications *services.NotificationService
	Hub           *websocket.Hub
	logger        *log.Logger
}

// NewNotificationController creates a new notification controller
func NewNotificationController(notifications *services.NotificationService, hub *websocket.Hub) *NotificationController {
	return &NotificationController{
		Notifications: notifications,
		Hub:           hub,
		logger:        log.New(os.Stdout, "[NOTIF] ", log.LstdFlags),
	}
}

// List returns the caller's notifications, newest first
func (nc *NotificationController) List(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	notifications, err := nc.Notifications.List(ctx, userID)
	if err != nil {
		nc.logger.Printf("List: failed to load inbox for %s: %v", userID, err)
		status := statusForError(err)
		return c.JSON(status, models.Response{
			Status:  status,
			Message: "Failed to load notifications",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notifications retrieved successfully",
		Data:    notifications,
	})
}

// MarkRead flags a single notification as read
func (nc *NotificationController) MarkRead(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	notificationID := c.Param("id")
	if notificationID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Notification ID is required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := nc.Notifications.MarkRead(ctx, userID, notificationID); err != nil {
		nc.logger.Printf("MarkRead: failed for %s/%s: %v", userID, notificationID, err)
		status := statusForError(err)
		return c.JSON(status, models.Response{
			Status:  status,
			Message: "Failed to mark notification as read",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notification marked as read",
	})
}

// WebSocket upgrades the connection and streams notification events to the
// client as they arrive. Authenticated connections get an inbox watch that
// pushes changes through the hub, so follows that happened before the
// client connected still reach it.
func (nc *NotificationController) WebSocket(c echo.Context) error {
	// Token comes from the query string on websocket connections
	userID := ""
	if token := c.QueryParam("token"); token != "" {
		result, err := utils.ValidateToken(token)
		if err == nil && result.Valid {
			userID = result.UserID
		}
	}

	if userID != "" {
		ctx, cancelCtx := context.WithCancel(c.Request().Context())
		defer cancelCtx()
		inbox, cancel := nc.Notifications.Watch(ctx, userID, 3*time.Second)
		defer cancel()
		go func() {
			for notifications := range inbox {
				if err := nc.Hub.NotifyUser(userID, notifications); err != nil {
					nc.logger.Printf("WebSocket: push to %s failed: %v", userID, err)
				}
			}
		}()
	}

	return websocket.HandleWebSocket(c, nc.Hub, userID)
}
