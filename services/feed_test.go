package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/session"
	"github.com/texty-app/texty_backend/stores"
)

func newFeedFixture(t *testing.T) (*FeedAssembler, *stores.MemoryPostStore, *session.Session) {
	t.Helper()
	posts := stores.NewMemoryPostStore()
	users := stores.NewMemoryUserStore()
	sess := session.New("viewer", users)
	return NewFeedAssembler(posts), posts, sess
}

func seedPost(t *testing.T, store *stores.MemoryPostStore, id, author string, ts int64) models.Post {
	t.Helper()
	post := models.NewPost(id, author, "post "+id)
	post.Timestamp = ts
	if err := store.Set(context.Background(), post); err != nil {
		t.Fatalf("Set(%s): %v", id, err)
	}
	return post
}

func feedIDs(posts []models.Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.PostID
	}
	return ids
}

func TestGlobalFeedNewestFirst(t *testing.T) {
	feed, posts, sess := newFeedFixture(t)
	seedPost(t, posts, "p1", "a", 100)
	seedPost(t, posts, "p2", "b", 300)
	seedPost(t, posts, "p3", "c", 200)

	got, err := feed.LoadGlobalFeed(context.Background(), sess, 10, true)
	if err != nil {
		t.Fatalf("LoadGlobalFeed: %v", err)
	}

	want := []string{"p2", "p3", "p1"}
	ids := feedIDs(got)
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	}
}

func TestGlobalFeedIncrementalPicksUpNewPosts(t *testing.T) {
	feed, posts, sess := newFeedFixture(t)
	seedPost(t, posts, "p1", "a", 100)
	seedPost(t, posts, "p2", "b", 200)
	ctx := context.Background()

	if _, err := feed.LoadGlobalFeed(ctx, sess, 10, true); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	// a post written after the first load must surface on the next one
	seedPost(t, posts, "p3", "c", 300)
	got, err := feed.LoadGlobalFeed(ctx, sess, 10, false)
	if err != nil {
		t.Fatalf("incremental load: %v", err)
	}

	want := []string{"p3", "p2", "p1"}
	ids := feedIDs(got)
	if len(ids) != 3 {
		t.Fatalf("expected 3 posts, got %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	}
}

func TestGlobalFeedOlderPageAppends(t *testing.T) {
	feed, posts, sess := newFeedFixture(t)
	for i := 1; i <= 6; i++ {
		seedPost(t, posts, fmt.Sprintf("p%d", i), "a", int64(i*100))
	}
	ctx := context.Background()

	first, err := feed.LoadGlobalFeed(ctx, sess, 3, true)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 3 || first[0].PostID != "p6" {
		t.Fatalf("unexpected first page %v", feedIDs(first))
	}

	second, err := feed.LoadOlderGlobalPosts(ctx, sess, 3)
	if err != nil {
		t.Fatalf("older page: %v", err)
	}
	if len(second) != 6 {
		t.Fatalf("expected 6 posts after pagination, got %v", feedIDs(second))
	}
	// no id appears twice
	seen := map[string]bool{}
	for _, id := range feedIDs(second) {
		if seen[id] {
			t.Fatalf("duplicate id %s in feed %v", id, feedIDs(second))
		}
		seen[id] = true
	}
	// reverse-chronological across both pages
	for i := 1; i < len(second); i++ {
		if second[i-1].Timestamp < second[i].Timestamp {
			t.Fatalf("feed not newest-first: %v", feedIDs(second))
		}
	}
}

func TestGlobalFeedResetReplaces(t *testing.T) {
	feed, posts, sess := newFeedFixture(t)
	seedPost(t, posts, "p1", "a", 100)
	ctx := context.Background()

	if _, err := feed.LoadGlobalFeed(ctx, sess, 10, true); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	seedPost(t, posts, "p2", "a", 200)
	got, err := feed.LoadGlobalFeed(ctx, sess, 10, true)
	if err != nil {
		t.Fatalf("reset load: %v", err)
	}
	if len(got) != 2 || got[0].PostID != "p2" {
		t.Fatalf("expected rebuilt feed [p2 p1], got %v", feedIDs(got))
	}
}

func TestFollowingFeedEmptyListIsEmptyFeed(t *testing.T) {
	feed, _, sess := newFeedFixture(t)

	got, err := feed.LoadFollowingFeed(context.Background(), sess, 10, true, nil)
	if err != nil {
		t.Fatalf("expected no error for empty following list, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty feed, got %v", feedIDs(got))
	}
	if sess.UI.Get().Error != "" {
		t.Fatalf("unexpected UI error %q", sess.UI.Get().Error)
	}
}

func TestFollowingFeedFiltersByAuthor(t *testing.T) {
	feed, posts, sess := newFeedFixture(t)
	seedPost(t, posts, "p1", "followed", 100)
	seedPost(t, posts, "p2", "stranger", 200)
	seedPost(t, posts, "p3", "followed", 300)

	got, err := feed.LoadFollowingFeed(context.Background(), sess, 10, true, []string{"followed"})
	if err != nil {
		t.Fatalf("LoadFollowingFeed: %v", err)
	}

	ids := feedIDs(got)
	if len(ids) != 2 || ids[0] != "p3" || ids[1] != "p1" {
		t.Fatalf("expected [p3 p1], got %v", ids)
	}
}

func TestFollowingFeedChunksLargeAuthorLists(t *testing.T) {
	feed, posts, sess := newFeedFixture(t)

	// 25 authors forces three chunks at the in-query ceiling of 10
	var authors []string
	for i := 0; i < 25; i++ {
		author := fmt.Sprintf("author%02d", i)
		authors = append(authors, author)
		seedPost(t, posts, fmt.Sprintf("p%02d", i), author, int64(100+i))
	}

	var chunkSizes []int
	posts.QueryFault = func(q stores.PostQuery) error {
		chunkSizes = append(chunkSizes, len(q.AuthorIDs))
		return nil
	}

	got, err := feed.LoadFollowingFeed(context.Background(), sess, 100, true, authors)
	if err != nil {
		t.Fatalf("LoadFollowingFeed: %v", err)
	}
	if len(got) != 25 {
		t.Fatalf("expected 25 posts, got %d", len(got))
	}

	if len(chunkSizes) != 3 || chunkSizes[0] != 10 || chunkSizes[1] != 10 || chunkSizes[2] != 5 {
		t.Fatalf("expected chunk sizes [10 10 5], got %v", chunkSizes)
	}

	// globally ordered across chunks
	for i := 1; i < len(got); i++ {
		if got[i-1].Timestamp < got[i].Timestamp {
			t.Fatalf("feed not newest-first at index %d", i)
		}
	}
}

func TestFollowingFeedPartialBatch(t *testing.T) {
	feed, posts, sess := newFeedFixture(t)

	var authors []string
	for i := 0; i < 15; i++ {
		author := fmt.Sprintf("author%02d", i)
		authors = append(authors, author)
		seedPost(t, posts, fmt.Sprintf("p%02d", i), author, int64(100+i))
	}

	// fail the second chunk only
	call := 0
	posts.QueryFault = func(q stores.PostQuery) error {
		call++
		if call == 2 {
			return errors.New("backend unavailable")
		}
		return nil
	}

	got, err := feed.LoadFollowingFeed(context.Background(), sess, 100, true, authors)
	if !models.IsPartialBatch(err) {
		t.Fatalf("expected PartialBatchError, got %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected the 10 posts from the surviving chunk, got %d", len(got))
	}
	if sess.UI.Get().Error == "" {
		t.Fatal("expected UI error to be published")
	}
	// the partial feed is still held by the session
	if len(sess.FollowingPosts.Get()) != 10 {
		t.Fatalf("expected session feed to keep partial results")
	}
}

func TestLoadUserPostsReplacesCollection(t *testing.T) {
	feed, posts, sess := newFeedFixture(t)
	seedPost(t, posts, "p1", "alice", 100)
	seedPost(t, posts, "p2", "bob", 200)
	seedPost(t, posts, "p3", "alice", 300)
	ctx := context.Background()

	got, err := feed.LoadUserPosts(ctx, sess, "alice", 10)
	if err != nil {
		t.Fatalf("LoadUserPosts: %v", err)
	}
	if len(got) != 2 || got[0].PostID != "p3" {
		t.Fatalf("expected [p3 p1], got %v", feedIDs(got))
	}

	// a later load fully replaces it
	got, err = feed.LoadUserPosts(ctx, sess, "bob", 10)
	if err != nil {
		t.Fatalf("LoadUserPosts(bob): %v", err)
	}
	if len(got) != 1 || got[0].PostID != "p2" {
		t.Fatalf("expected [p2], got %v", feedIDs(got))
	}
	if len(sess.UserPosts.Get()) != 1 {
		t.Fatal("expected session user-posts to be replaced")
	}
}

func TestLoadUserPostsNoPosts(t *testing.T) {
	feed, _, sess := newFeedFixture(t)

	got, err := feed.LoadUserPosts(context.Background(), sess, "nobody", 10)
	if err != nil {
		t.Fatalf("LoadUserPosts: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}
