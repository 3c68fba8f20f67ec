package services

import (
	"context"
	"testing"
	"time"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/stores"
)

func TestListReturnsFollowNotificationsNewestFirst(t *testing.T) {
	store := stores.NewMemoryUserStore()
	svc := NewNotificationService(store)
	ctx := context.Background()

	older := models.NewFollowNotification("alice", "bob")
	older.Timestamp = 100
	newer := models.NewFollowNotification("carol", "bob")
	newer.Timestamp = 200
	for _, n := range []models.Notification{older, newer} {
		if err := store.Put(ctx, n); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	// a foreign record type is filtered out
	if err := store.Put(ctx, models.Notification{ID: "x", Type: "unknown", TargetUserID: "bob", Timestamp: 300}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := svc.List(ctx, "bob")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 follow notifications, got %d", len(got))
	}
	if got[0].FromUserID != "carol" || got[1].FromUserID != "alice" {
		t.Fatalf("expected newest-first order, got %+v", got)
	}
}

func TestListEmptyInbox(t *testing.T) {
	svc := NewNotificationService(stores.NewMemoryUserStore())

	got, err := svc.List(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty inbox, got %v", got)
	}
}

func TestMarkRead(t *testing.T) {
	store := stores.NewMemoryUserStore()
	svc := NewNotificationService(store)
	ctx := context.Background()

	n := models.NewFollowNotification("alice", "bob")
	if err := store.Put(ctx, n); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := svc.MarkRead(ctx, "bob", n.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	got, err := svc.List(ctx, "bob")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || !got[0].Read {
		t.Fatalf("expected read notification, got %+v", got)
	}
}

func TestWatchDeliversChanges(t *testing.T) {
	store := stores.NewMemoryUserStore()
	svc := NewNotificationService(store)
	ctx := context.Background()

	ch, cancel := svc.Watch(ctx, "bob", 10*time.Millisecond)
	defer cancel()

	if err := store.Put(ctx, models.NewFollowNotification("alice", "bob")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// the first delivery may be the initial empty inbox; wait for the
	// change that carries the new notification
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-ch:
			if len(got) == 0 {
				continue
			}
			if len(got) != 1 || got[0].FromUserID != "alice" {
				t.Fatalf("unexpected delivery %+v", got)
			}
			return
		case <-deadline:
			t.Fatal("watch never delivered the change")
		}
	}
}

func TestWatchCatchesUpLateWatcher(t *testing.T) {
	store := stores.NewMemoryUserStore()
	svc := NewNotificationService(store)
	ctx := context.Background()

	// the follow happened before anyone was watching
	if err := store.Put(ctx, models.NewFollowNotification("alice", "bob")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ch, cancel := svc.Watch(ctx, "bob", 10*time.Millisecond)
	defer cancel()

	select {
	case got := <-ch:
		if len(got) != 1 || got[0].FromUserID != "alice" {
			t.Fatalf("expected the existing inbox on first delivery, got %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch never delivered the existing inbox")
	}
}

func TestWatchCancelClosesChannel(t *testing.T) {
	svc := NewNotificationService(stores.NewMemoryUserStore())

	ch, cancel := svc.Watch(context.Background(), "bob", 10*time.Millisecond)
	cancel()
	cancel() // idempotent

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel never closed after cancel")
	}
}
