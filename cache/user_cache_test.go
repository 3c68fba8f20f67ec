package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/stores"
)

func seedUser(t *testing.T, store *stores.MemoryUserStore, id, name string) models.User {
	t.Helper()
	user := models.NewUser(id, id+"@example.com", name, name, "")
	if err := store.SaveUser(context.Background(), user); err != nil {
		t.Fatalf("SaveUser(%s): %v", id, err)
	}
	return user
}

func TestResolveReadsThroughToStore(t *testing.T) {
	store := stores.NewMemoryUserStore()
	seedUser(t, store, "u1", "alice")

	c := NewUserCache(store)
	user, err := c.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.Name != "alice" {
		t.Fatalf("expected alice, got %q", user.Name)
	}

	// Second resolve is served from cache even if the store now fails
	store.UserFault = func(string) error { return errors.New("store down") }
	user, err = c.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("cached Resolve: %v", err)
	}
	if user.UserID != "u1" {
		t.Fatalf("expected cached u1, got %q", user.UserID)
	}
}

func TestResolveMissingUser(t *testing.T) {
	c := NewUserCache(stores.NewMemoryUserStore())

	_, err := c.Resolve(context.Background(), "ghost")
	if !models.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestResolveErrorDoesNotPoisonCache(t *testing.T) {
	store := stores.NewMemoryUserStore()
	seedUser(t, store, "u1", "alice")

	broken := true
	store.UserFault = func(userID string) error {
		if broken {
			return errors.New("transient")
		}
		return nil
	}

	c := NewUserCache(store)
	if _, err := c.Resolve(context.Background(), "u1"); err == nil {
		t.Fatal("expected error from faulted store")
	}
	if got := c.Errors().Get(); got == "" {
		t.Fatal("expected error signal to be published")
	}

	// The failure must not be cached: once the store recovers the user
	// resolves normally.
	broken = false
	user, err := c.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve after recovery: %v", err)
	}
	if user.Name != "alice" {
		t.Fatalf("expected alice, got %q", user.Name)
	}
}

func TestConcurrentResolvesCoalesce(t *testing.T) {
	store := stores.NewMemoryUserStore()
	seedUser(t, store, "u1", "alice")

	var mu sync.Mutex
	reads := 0
	gate := make(chan struct{})
	store.UserFault = func(userID string) error {
		mu.Lock()
		reads++
		mu.Unlock()
		<-gate
		return nil
	}

	c := NewUserCache(store)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Resolve(context.Background(), "u1"); err != nil {
				t.Errorf("Resolve: %v", err)
			}
		}()
	}

	// let the goroutines pile up behind the single in-flight read
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if reads != 1 {
		t.Fatalf("expected 1 store read, got %d", reads)
	}
}

func TestGetMissTriggersBackgroundFetch(t *testing.T) {
	store := stores.NewMemoryUserStore()
	seedUser(t, store, "u1", "alice")

	c := NewUserCache(store)

	if _, ok := c.Get("u1"); ok {
		t.Fatal("expected miss on first Get")
	}

	// the background fetch should land shortly
	deadline := time.After(2 * time.Second)
	for {
		if user, ok := c.Get("u1"); ok {
			if user.Name != "alice" {
				t.Fatalf("expected alice, got %q", user.Name)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("background fetch never landed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSnapshotPublishesOnPut(t *testing.T) {
	c := NewUserCache(stores.NewMemoryUserStore())
	ch, cancel := c.Snapshot().Subscribe()
	defer cancel()
	<-ch // empty initial snapshot

	c.Put(models.User{UserID: "u9", Name: "bob"})

	select {
	case snap := <-ch:
		if _, ok := snap["u9"]; !ok {
			t.Fatalf("snapshot missing u9: %v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("snapshot never republished")
	}
}

func TestClearEmptiesCache(t *testing.T) {
	store := stores.NewMemoryUserStore()
	seedUser(t, store, "u1", "alice")

	c := NewUserCache(store)
	if _, err := c.Resolve(context.Background(), "u1"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	c.Clear()

	if len(c.Snapshot().Get()) != 0 {
		t.Fatal("expected empty snapshot after Clear")
	}
	if _, ok := c.Get("u1"); ok {
		t.Fatal("expected miss after Clear")
	}
}

func TestGetManySkipsCachedIDs(t *testing.T) {
	store := stores.NewMemoryUserStore()
	seedUser(t, store, "u1", "alice")
	seedUser(t, store, "u2", "bob")

	c := NewUserCache(store)
	if _, err := c.Resolve(context.Background(), "u1"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	var mu sync.Mutex
	var fetched []string
	store.UserFault = func(userID string) error {
		mu.Lock()
		fetched = append(fetched, userID)
		mu.Unlock()
		return nil
	}

	c.GetMany(context.Background(), []string{"u1", "u2"})

	mu.Lock()
	defer mu.Unlock()
	if len(fetched) != 1 || fetched[0] != "u2" {
		t.Fatalf("expected only u2 to hit the store, got %v", fetched)
	}
}
