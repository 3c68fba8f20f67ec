package session

import (
	"context"
	"testing"
	"time"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/stores"
)

func newTestSession(t *testing.T) (*Session, *stores.MemoryUserStore) {
	t.Helper()
	users := stores.NewMemoryUserStore()
	return New("alice", users), users
}

func seedPosts(sess *Session, ids ...string) {
	posts := make([]models.Post, 0, len(ids))
	for i, id := range ids {
		posts = append(posts, models.Post{
			PostID:    id,
			UserID:    "alice",
			Content:   "post " + id,
			Timestamp: time.Now().Add(-time.Duration(i) * time.Minute).UnixMilli(),
		})
	}
	sess.Posts.Set(posts)
	sess.FollowingPosts.Set(posts)
	sess.UserPosts.Set(posts)
}

func TestUIStateTransitions(t *testing.T) {
	sess, _ := newTestSession(t)

	sess.SetLoading()
	if ui := sess.UI.Get(); !ui.IsLoading || ui.Error != "" {
		t.Fatalf("after SetLoading got %+v", ui)
	}

	sess.SetError("network unavailable")
	if ui := sess.UI.Get(); ui.IsLoading || ui.Error != "network unavailable" {
		t.Fatalf("after SetError got %+v", ui)
	}

	sess.SetLoading()
	if ui := sess.UI.Get(); ui.Error != "" {
		t.Fatalf("SetLoading should clear stale error, got %+v", ui)
	}

	sess.ClearBusy()
	if ui := sess.UI.Get(); ui.IsLoading || ui.Error != "" {
		t.Fatalf("after ClearBusy got %+v", ui)
	}
}

func TestUpdatePostEverywhere(t *testing.T) {
	sess, _ := newTestSession(t)
	seedPosts(sess, "p1", "p2", "p3")

	detail := sess.Posts.Get()[1]
	sess.CurrentPost.Set(&detail)

	updated := detail
	updated.Content = "edited content"
	updated.IsEdited = true
	sess.UpdatePostEverywhere(updated)

	for name, posts := range map[string][]models.Post{
		"global":    sess.Posts.Get(),
		"following": sess.FollowingPosts.Get(),
		"user":      sess.UserPosts.Get(),
	} {
		found := false
		for _, p := range posts {
			if p.PostID == "p2" {
				found = true
				if p.Content != "edited content" || !p.IsEdited {
					t.Fatalf("%s collection not updated: %+v", name, p)
				}
			}
		}
		if !found {
			t.Fatalf("%s collection lost post p2", name)
		}
	}

	if cur := sess.CurrentPost.Get(); cur == nil || cur.Content != "edited content" {
		t.Fatalf("current post not updated: %+v", cur)
	}
}

func TestUpdatePostEverywhereLeavesCurrentPostForOtherID(t *testing.T) {
	sess, _ := newTestSession(t)
	seedPosts(sess, "p1", "p2")

	detail := sess.Posts.Get()[0]
	sess.CurrentPost.Set(&detail)

	other := sess.Posts.Get()[1]
	other.Content = "changed"
	sess.UpdatePostEverywhere(other)

	if cur := sess.CurrentPost.Get(); cur == nil || cur.PostID != "p1" || cur.Content == "changed" {
		t.Fatalf("current post should be untouched, got %+v", cur)
	}
}

func TestRemovePostEverywhere(t *testing.T) {
	sess, _ := newTestSession(t)
	seedPosts(sess, "p1", "p2", "p3")

	detail := sess.Posts.Get()[1]
	sess.CurrentPost.Set(&detail)

	sess.RemovePostEverywhere("p2")

	for name, posts := range map[string][]models.Post{
		"global":    sess.Posts.Get(),
		"following": sess.FollowingPosts.Get(),
		"user":      sess.UserPosts.Get(),
	} {
		if len(posts) != 2 {
			t.Fatalf("%s collection should have 2 posts, got %d", name, len(posts))
		}
		for _, p := range posts {
			if p.PostID == "p2" {
				t.Fatalf("%s collection still holds removed post", name)
			}
		}
	}

	if cur := sess.CurrentPost.Get(); cur != nil {
		t.Fatalf("current post should be cleared, got %+v", cur)
	}
}

func TestTeardownClearsEverything(t *testing.T) {
	sess, users := newTestSession(t)
	users.SaveUser(context.Background(), models.User{UserID: "bob", Name: "Bob"})
	seedPosts(sess, "p1")

	if _, err := sess.Cache.Resolve(context.Background(), "bob"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	detail := sess.Posts.Get()[0]
	sess.CurrentPost.Set(&detail)
	sess.SetError("boom")

	sess.Teardown()

	if _, ok := sess.Cache.Get("bob"); ok {
		t.Fatal("cache should be cleared")
	}
	if posts := sess.Posts.Get(); len(posts) != 0 {
		t.Fatalf("global feed should be empty, got %d", len(posts))
	}
	if cur := sess.CurrentPost.Get(); cur != nil {
		t.Fatal("current post should be nil")
	}
	if ui := sess.UI.Get(); ui.Error != "" || ui.IsLoading {
		t.Fatalf("UI state should be reset, got %+v", ui)
	}
}

func TestManagerReturnsSameSession(t *testing.T) {
	users := stores.NewMemoryUserStore()
	m := NewManager(users)

	a := m.Init("alice")
	if b := m.Init("alice"); b != a {
		t.Fatal("Init should return the existing session")
	}
	if b := m.Get("alice"); b != a {
		t.Fatal("Get should return the existing session")
	}
}

func TestManagerGetCreatesAfterRestart(t *testing.T) {
	users := stores.NewMemoryUserStore()
	m := NewManager(users)

	sess := m.Get("alice")
	if sess == nil || sess.UserID != "alice" {
		t.Fatalf("Get should lazily create a session, got %+v", sess)
	}
}

func TestManagerTeardownRemovesSession(t *testing.T) {
	users := stores.NewMemoryUserStore()
	m := NewManager(users)

	a := m.Init("alice")
	seedPosts(a, "p1")
	m.Teardown("alice")

	if len(a.Posts.Get()) != 0 {
		t.Fatal("teardown should clear the old session")
	}
	if b := m.Get("alice"); b == a {
		t.Fatal("a new session should be created after teardown")
	}
}
