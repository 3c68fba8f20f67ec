// utils/push.go
package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"firebase.google.com/go/v4/messaging"

	"github.com/texty-app/texty_backend/config"
	"github.com/texty-app/texty_backend/models"
)

// SendFollowPush sends a Firebase Cloud Messaging notification to the
// followed user's device when someone starts following them.
func SendFollowPush(target models.User, from models.User) error {
	if target.FCMToken == "" {
		log.Printf("User %s has no FCM token", target.UserID)
		return fmt.Errorf("user has no FCM token")
	}

	if config.FirebaseApp == nil {
		log.Printf("Firebase app is not initialized")
		return fmt.Errorf("firebase app not initialized")
	}

	ctx := context.Background()
	client, err := config.FirebaseApp.Messaging(ctx)
	if err != nil {
		log.Printf("Error getting messaging client: %v", err)
		return fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	title := "New follower"
	body := fmt.Sprintf("%s started following you", from.DisplayName)

	fcmMessage := &messaging.Message{
		Token: target.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"type":       models.NotificationTypeFollow,
			"fromUserId": from.UserID,
			"timestamp":  time.Now().Format(time.RFC3339),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "texty_fcm_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound:    "default",
					Badge:    func() *int { v := 1; return &v }(),
					Category: "FOLLOW",
				},
			},
		},
	}

	response, err := client.Send(ctx, fcmMessage)
	if err != nil {
		log.Printf("Error sending FCM notification: %v", err)
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}

	log.Printf("FCM notification sent to user %s: %s", target.UserID, response)
	return nil
}
