package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	NotificationTypeFollow = "follow"
)

// Notification is a fan-out record written to the target user's inbox at
// notifications/{targetUserId}/{id} in the realtime tree store.
type Notification struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	FromUserID   string `json:"fromUserId"`
	TargetUserID string `json:"targetUserId"`
	Timestamp    int64  `json:"timestamp"`
	Read         bool   `json:"read"`
}

// NewFollowNotification builds a follow notification for the target's inbox.
func NewFollowNotification(fromUserID, targetUserID string) Notification {
	return Notification{
		ID:           uuid.New().String(),
		Type:         NotificationTypeFollow,
		FromUserID:   fromUserID,
		TargetUserID: targetUserID,
		Timestamp:    time.Now().UnixMilli(),
	}
}
