// Package cache holds the session-scoped user identity cache. It exists to
// keep repeated profile lookups off the wire: once a user record has been
// fetched it is served from memory until the session is torn down.
package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/stores"
	"github.com/texty-app/texty_backend/stream"
)

const fetchTimeout = 10 * time.Second

// UserCache maps user ids to the last-fetched User record. Snapshots are
// copy-on-write: every update publishes a whole new map, so subscribers
// never observe a partially-updated one. Concurrent fetches for the same id
// are coalesced into one store read.
type UserCache struct {
	store stores.UserStore

	mu       sync.Mutex
	users    map[string]models.User
	inflight map[string]chan struct{}

	snapshot *stream.Value[map[string]models.User]
	errs     *stream.Value[string]
}

// NewUserCache creates an empty cache over the given tree store.
func NewUserCache(store stores.UserStore) *UserCache {
	return &UserCache{
		store:    store,
		users:    make(map[string]models.User),
		inflight: make(map[string]chan struct{}),
		snapshot: stream.NewValue(map[string]models.User{}),
		errs:     stream.NewValue(""),
	}
}

// Snapshot exposes the reactive full-map view of all users seen so far.
func (c *UserCache) Snapshot() *stream.Value[map[string]models.User] {
	return c.snapshot
}

// Errors exposes the non-fatal fetch-error signal.
func (c *UserCache) Errors() *stream.Value[string] {
	return c.errs
}

// Get returns the cached record if present. On a miss it triggers a
// background fetch and returns immediately with ok=false; the snapshot
// stream republishes once the fetch lands.
func (c *UserCache) Get(userID string) (models.User, bool) {
	c.mu.Lock()
	user, ok := c.users[userID]
	c.mu.Unlock()
	if ok {
		return user, true
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		if _, err := c.Resolve(ctx, userID); err != nil {
			log.Printf("user cache: background fetch for %s failed: %v", userID, err)
		}
	}()
	return models.User{}, false
}

// Resolve returns the record for userID, reading through to the store on a
// miss. If another resolve for the same id is already in flight, it waits
// for that one instead of issuing a duplicate read.
func (c *UserCache) Resolve(ctx context.Context, userID string) (models.User, error) {
	for {
		c.mu.Lock()
		if user, ok := c.users[userID]; ok {
			c.mu.Unlock()
			return user, nil
		}
		if wait, ok := c.inflight[userID]; ok {
			c.mu.Unlock()
			select {
			case <-wait:
				// leader finished; re-check the cache
				continue
			case <-ctx.Done():
				return models.User{}, ctx.Err()
			}
		}
		done := make(chan struct{})
		c.inflight[userID] = done
		c.mu.Unlock()

		user, found, err := c.store.GetUser(ctx, userID)

		c.mu.Lock()
		delete(c.inflight, userID)
		close(done)
		if err != nil || !found {
			c.mu.Unlock()
			if err != nil {
				// one failed id must not poison the cache or block others
				c.errs.Set(err.Error())
				return models.User{}, err
			}
			return models.User{}, &models.NotFoundError{Kind: "user", ID: userID}
		}
		c.users = copyWith(c.users, user)
		snap := c.users
		c.mu.Unlock()

		c.snapshot.Set(snap)
		return user, nil
	}
}

// GetMany issues a fetch for every id not already cached. Ids already
// cached are not re-fetched; per-id failures are logged and skipped.
func (c *UserCache) GetMany(ctx context.Context, userIDs []string) {
	for _, userID := range userIDs {
		c.mu.Lock()
		_, cached := c.users[userID]
		c.mu.Unlock()
		if cached {
			continue
		}
		if _, err := c.Resolve(ctx, userID); err != nil {
			log.Printf("user cache: fetch for %s failed: %v", userID, err)
		}
	}
}

// Put inserts or replaces a record, republishing the snapshot. Used for
// the optimistic cache updates after follow/unfollow and profile edits.
func (c *UserCache) Put(user models.User) {
	c.mu.Lock()
	c.users = copyWith(c.users, user)
	snap := c.users
	c.mu.Unlock()
	c.snapshot.Set(snap)
}

// Clear empties the cache and republishes an empty snapshot. Called on
// logout.
func (c *UserCache) Clear() {
	c.mu.Lock()
	c.users = make(map[string]models.User)
	snap := c.users
	c.mu.Unlock()
	c.snapshot.Set(snap)
	c.errs.Set("")
}

func copyWith(users map[string]models.User, user models.User) map[string]models.User {
	next := make(map[string]models.User, len(users)+1)
	for id, u := range users {
		next[id] = u
	}
	next[user.UserID] = user
	return next
}
