package services

import (
	"context"
	"log"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/stores"
)

// NotificationService reads and mutates a user's notification inbox. The
// Admin SDK has no streaming listeners on the tree store, so continuous
// observation is a polling watch exposed as a channel plus a cancel func.
type NotificationService struct {
	store  stores.NotificationStore
	logger *log.Logger
}

func NewNotificationService(store stores.NotificationStore) *NotificationService {
	return &NotificationService{
		store:  store,
		logger: log.New(os.Stdout, "[NOTIF] ", log.LstdFlags),
	}
}

// List returns the user's follow notifications newest-first. An empty or
// missing inbox is an empty list.
func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	all, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	notifications := make([]models.Notification, 0, len(all))
	for _, n := range all {
		if n.Type == models.NotificationTypeFollow {
			notifications = append(notifications, n)
		}
	}
	return notifications, nil
}

// MarkRead flips a notification's read flag.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}

// Watch polls the inbox and delivers every change on the returned channel
// until the cancel func is called or ctx ends. Poll errors are logged and
// skipped; the last good state stands.
func (s *NotificationService) Watch(ctx context.Context, userID string, interval time.Duration) (<-chan []models.Notification, func()) {
	out := make(chan []models.Notification, 1)
	done := make(chan struct{})

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last []models.Notification
		for {
			notifications, err := s.List(ctx, userID)
			if err != nil {
				s.logger.Printf("watch %s: poll failed: %v", userID, err)
			} else if !reflect.DeepEqual(notifications, last) {
				last = notifications
				select {
				case out <- notifications:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ticker.C:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() { once.Do(func() { close(done) }) }
	return out, cancel
}
