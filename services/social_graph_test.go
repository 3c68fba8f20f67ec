package services

import (
	"context"
	"errors"
	"testing"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/session"
	"github.com/texty-app/texty_backend/stores"
)

func newGraphFixture(t *testing.T) (*SocialGraphService, *stores.MemoryUserStore, *session.Session) {
	t.Helper()
	store := stores.NewMemoryUserStore()
	ctx := context.Background()
	for _, u := range []struct{ id, name string }{
		{"alice", "Alice"},
		{"bob", "Bob"},
		{"carol", "Carol"},
	} {
		if err := store.SaveUser(ctx, models.NewUser(u.id, u.id+"@example.com", u.name, u.id, "")); err != nil {
			t.Fatalf("SaveUser(%s): %v", u.id, err)
		}
	}
	sess := session.New("alice", store)
	return NewSocialGraphService(store, store), store, sess
}

func TestFollowWritesBothEdges(t *testing.T) {
	graph, store, sess := newGraphFixture(t)
	ctx := context.Background()

	if err := graph.Follow(ctx, sess, "bob"); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	alice, _, _ := store.GetUser(ctx, "alice")
	if len(alice.Following) != 1 || alice.Following[0] != "bob" {
		t.Fatalf("expected alice following [bob], got %v", alice.Following)
	}
	bob, _, _ := store.GetUser(ctx, "bob")
	if len(bob.Followers) != 1 || bob.Followers[0] != "alice" {
		t.Fatalf("expected bob followers [alice], got %v", bob.Followers)
	}
}

func TestFollowWritesSingleNotification(t *testing.T) {
	graph, store, sess := newGraphFixture(t)
	ctx := context.Background()

	if err := graph.Follow(ctx, sess, "bob"); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	// repeating the follow must not duplicate the edge or the notification
	if err := graph.Follow(ctx, sess, "bob"); err != nil {
		t.Fatalf("repeat Follow: %v", err)
	}

	alice, _, _ := store.GetUser(ctx, "alice")
	if len(alice.Following) != 1 {
		t.Fatalf("expected one following edge, got %v", alice.Following)
	}

	inbox, err := store.List(ctx, "bob")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(inbox))
	}
	if inbox[0].Type != models.NotificationTypeFollow || inbox[0].FromUserID != "alice" {
		t.Fatalf("unexpected notification %+v", inbox[0])
	}
}

func TestFollowSelfRejected(t *testing.T) {
	graph, _, sess := newGraphFixture(t)

	err := graph.Follow(context.Background(), sess, "alice")
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFollowInvokesCallback(t *testing.T) {
	graph, _, sess := newGraphFixture(t)

	var gotFrom, gotTarget string
	calls := 0
	graph.OnFollow = func(from, target models.User, n models.Notification) {
		calls++
		gotFrom = from.UserID
		gotTarget = target.UserID
	}

	ctx := context.Background()
	if err := graph.Follow(ctx, sess, "bob"); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if err := graph.Follow(ctx, sess, "bob"); err != nil {
		t.Fatalf("repeat Follow: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected one callback, got %d", calls)
	}
	if gotFrom != "alice" || gotTarget != "bob" {
		t.Fatalf("unexpected callback args from=%s target=%s", gotFrom, gotTarget)
	}
}

func TestUnfollowRemovesBothEdges(t *testing.T) {
	graph, store, sess := newGraphFixture(t)
	ctx := context.Background()

	if err := graph.Follow(ctx, sess, "bob"); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if err := graph.Unfollow(ctx, sess, "bob"); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}

	alice, _, _ := store.GetUser(ctx, "alice")
	if len(alice.Following) != 0 {
		t.Fatalf("expected no following edges, got %v", alice.Following)
	}
	bob, _, _ := store.GetUser(ctx, "bob")
	if len(bob.Followers) != 0 {
		t.Fatalf("expected no follower edges, got %v", bob.Followers)
	}
}

func TestUnfollowNeverFollowedIsNoop(t *testing.T) {
	graph, _, sess := newGraphFixture(t)

	if err := graph.Unfollow(context.Background(), sess, "carol"); err != nil {
		t.Fatalf("Unfollow of never-followed user: %v", err)
	}
}

func TestFollowUpdatesCurrentUserStream(t *testing.T) {
	graph, _, sess := newGraphFixture(t)

	if err := graph.Follow(context.Background(), sess, "bob"); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	current := sess.CurrentUser.Get()
	if current == nil {
		t.Fatal("expected current user to be published")
	}
	if len(current.Following) != 1 || current.Following[0] != "bob" {
		t.Fatalf("expected session user following [bob], got %v", current.Following)
	}
}

func TestFollowTargetReadFailureKeepsEdge(t *testing.T) {
	graph, store, sess := newGraphFixture(t)
	ctx := context.Background()

	store.UserFault = func(userID string) error {
		if userID == "bob" {
			return errors.New("subtree unavailable")
		}
		return nil
	}

	// The follower-side write already persisted; the target-side failure is
	// tolerated, not surfaced.
	if err := graph.Follow(ctx, sess, "bob"); err != nil {
		t.Fatalf("Follow with failing target read: %v", err)
	}

	store.UserFault = nil
	alice, _, _ := store.GetUser(ctx, "alice")
	if len(alice.Following) != 1 || alice.Following[0] != "bob" {
		t.Fatalf("expected persisted following edge, got %v", alice.Following)
	}
}

func TestFollowMissingTargetSkipsNotification(t *testing.T) {
	graph, store, sess := newGraphFixture(t)
	ctx := context.Background()

	called := false
	graph.OnFollow = func(from, target models.User, n models.Notification) { called = true }

	if err := graph.Follow(ctx, sess, "ghost"); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	alice, _, _ := store.GetUser(ctx, "alice")
	if len(alice.Following) != 1 || alice.Following[0] != "ghost" {
		t.Fatalf("expected persisted following edge, got %v", alice.Following)
	}
	inbox, err := store.List(ctx, "ghost")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(inbox) != 0 {
		t.Fatalf("expected no notification for a missing target, got %v", inbox)
	}
	if called {
		t.Fatal("callback must not fire for a missing target")
	}
}

func TestListFollowersResolvesProfiles(t *testing.T) {
	graph, _, sess := newGraphFixture(t)
	ctx := context.Background()

	if err := graph.Follow(ctx, sess, "bob"); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	followers, err := graph.ListFollowers(ctx, sess, "bob")
	if err != nil {
		t.Fatalf("ListFollowers: %v", err)
	}
	if len(followers) != 1 || followers[0].UserID != "alice" {
		t.Fatalf("expected [alice], got %v", followers)
	}

	following, err := graph.ListFollowing(ctx, sess, "alice")
	if err != nil {
		t.Fatalf("ListFollowing: %v", err)
	}
	if len(following) != 1 || following[0].UserID != "bob" {
		t.Fatalf("expected [bob], got %v", following)
	}
}

func TestListFollowersUnknownUser(t *testing.T) {
	graph, _, sess := newGraphFixture(t)

	_, err := graph.ListFollowers(context.Background(), sess, "ghost")
	if !models.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
