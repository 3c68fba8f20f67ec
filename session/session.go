// Package session holds the per-user session context: the user cache, the
// reactive UI state and the in-memory post collections the feed and post
// operations publish into. A session is created at sign-in and torn down at
// sign-out; teardown clears every cache it owns.
package session

import (
	"sync"

	"github.com/texty-app/texty_backend/cache"
	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/stores"
	"github.com/texty-app/texty_backend/stream"
)

// UIState carries the loading flag and the nullable error surface consumed
// by the presentation layer. Mutations report failure here instead of
// throwing past the call boundary.
type UIState struct {
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
}

// Session is the explicit session context passed to the components that
// need shared mutable state. Every collection it holds is copy-on-write.
type Session struct {
	UserID string

	Cache *cache.UserCache

	UI             *stream.Value[UIState]
	CurrentUser    *stream.Value[*models.User]
	Posts          *stream.Value[[]models.Post]
	FollowingPosts *stream.Value[[]models.Post]
	UserPosts      *stream.Value[[]models.Post]
	CurrentPost    *stream.Value[*models.Post]
}

// New builds a fresh session for userID over the shared tree store.
func New(userID string, userStore stores.UserStore) *Session {
	return &Session{
		UserID:         userID,
		Cache:          cache.NewUserCache(userStore),
		UI:             stream.NewValue(UIState{}),
		CurrentUser:    stream.NewValue[*models.User](nil),
		Posts:          stream.NewValue([]models.Post{}),
		FollowingPosts: stream.NewValue([]models.Post{}),
		UserPosts:      stream.NewValue([]models.Post{}),
		CurrentPost:    stream.NewValue[*models.Post](nil),
	}
}

// SetLoading marks an operation in flight and clears any stale error.
func (s *Session) SetLoading() {
	s.UI.Set(UIState{IsLoading: true})
}

// SetError clears the loading flag and records the failure message.
func (s *Session) SetError(msg string) {
	s.UI.Set(UIState{Error: msg})
}

// ClearBusy clears the loading flag after a successful operation.
func (s *Session) ClearBusy() {
	s.UI.Set(UIState{})
}

// UpdatePostEverywhere replaces the copy of post held by every local
// collection: the global feed, the following feed, the user posts and the
// current-post slot. This is the optimistic echo applied after a remote
// write succeeds.
func (s *Session) UpdatePostEverywhere(post models.Post) {
	replace := func(posts []models.Post) []models.Post {
		out := make([]models.Post, len(posts))
		for i, p := range posts {
			if p.PostID == post.PostID {
				out[i] = post
			} else {
				out[i] = p
			}
		}
		return out
	}

	s.Posts.Update(replace)
	s.FollowingPosts.Update(replace)
	s.UserPosts.Update(replace)
	s.CurrentPost.Update(func(cur *models.Post) *models.Post {
		if cur != nil && cur.PostID == post.PostID {
			copied := post
			return &copied
		}
		return cur
	})
}

// AddOwnPost prepends a just-created post to the global feed, and to the
// user-posts collection when that collection holds the author's posts. The
// next feed load sees the same post from the store and dedups it by id.
func (s *Session) AddOwnPost(post models.Post) {
	prepend := func(posts []models.Post) []models.Post {
		for _, p := range posts {
			if p.PostID == post.PostID {
				return posts
			}
		}
		out := make([]models.Post, 0, len(posts)+1)
		out = append(out, post)
		return append(out, posts...)
	}

	s.Posts.Update(prepend)
	s.UserPosts.Update(func(posts []models.Post) []models.Post {
		if len(posts) > 0 && posts[0].UserID != post.UserID {
			return posts
		}
		return prepend(posts)
	})
}

// RemovePostEverywhere drops a deleted post from every local collection.
func (s *Session) RemovePostEverywhere(postID string) {
	remove := func(posts []models.Post) []models.Post {
		out := make([]models.Post, 0, len(posts))
		for _, p := range posts {
			if p.PostID != postID {
				out = append(out, p)
			}
		}
		return out
	}

	s.Posts.Update(remove)
	s.FollowingPosts.Update(remove)
	s.UserPosts.Update(remove)
	s.CurrentPost.Update(func(cur *models.Post) *models.Post {
		if cur != nil && cur.PostID == postID {
			return nil
		}
		return cur
	})
}

// Teardown clears every cache and collection the session owns.
func (s *Session) Teardown() {
	s.Cache.Clear()
	s.CurrentUser.Set(nil)
	s.Posts.Set([]models.Post{})
	s.FollowingPosts.Set([]models.Post{})
	s.UserPosts.Set([]models.Post{})
	s.CurrentPost.Set(nil)
	s.UI.Set(UIState{})
}

// Manager tracks the live session per signed-in user.
type Manager struct {
	userStore stores.UserStore

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session registry.
func NewManager(userStore stores.UserStore) *Manager {
	return &Manager{
		userStore: userStore,
		sessions:  make(map[string]*Session),
	}
}

// Init creates (or returns) the session for userID. Called on successful
// sign-in.
func (m *Manager) Init(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess
	}
	sess := New(userID, m.userStore)
	m.sessions[userID] = sess
	return sess
}

// Get returns the live session for userID, creating one if the server was
// restarted since sign-in.
func (m *Manager) Get(userID string) *Session {
	m.mu.RLock()
	sess, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return sess
	}
	return m.Init(userID)
}

// Teardown clears and removes the session for userID. Called on sign-out.
func (m *Manager) Teardown(userID string) {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if ok {
		sess.Teardown()
	}
}
