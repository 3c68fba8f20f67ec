package services

import (
	"context"
	"log"
	"os"
	"sort"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/session"
	"github.com/texty-app/texty_backend/stores"
)

// FeedAssembler produces paginated, deduplicated, reverse-chronological
// post sequences and publishes them into the session's feed collections.
// Pagination state is the feed list itself plus a timestamp cursor; a load
// with reset=true discards and rebuilds it.
type FeedAssembler struct {
	posts  stores.PostStore
	logger *log.Logger
}

// NewFeedAssembler creates the assembler over the post store.
func NewFeedAssembler(posts stores.PostStore) *FeedAssembler {
	return &FeedAssembler{
		posts:  posts,
		logger: log.New(os.Stdout, "[FEED] ", log.LstdFlags),
	}
}

// LoadGlobalFeed queries the newest pageSize posts. With reset it replaces
// the held feed; otherwise it merges in only posts whose id is not already
// present, so posts written since the last load surface without discarding
// what is held. Older pages are fetched with LoadOlderGlobalPosts.
func (f *FeedAssembler) LoadGlobalFeed(ctx context.Context, sess *session.Session, pageSize int, reset bool) ([]models.Post, error) {
	sess.SetLoading()

	page, err := f.posts.Query(ctx, stores.PostQuery{Limit: pageSize})
	if err != nil {
		sess.SetError(err.Error())
		return nil, err
	}

	feed := page
	if !reset {
		feed = mergeByID(sess.Posts.Get(), page)
		sort.SliceStable(feed, func(i, j int) bool { return feed[i].Timestamp > feed[j].Timestamp })
	}
	sess.Posts.Set(feed)
	sess.ClearBusy()
	return feed, nil
}

// LoadOlderGlobalPosts pages the global feed backwards: it queries posts
// strictly older than the oldest one held and appends them.
func (f *FeedAssembler) LoadOlderGlobalPosts(ctx context.Context, sess *session.Session, pageSize int) ([]models.Post, error) {
	sess.SetLoading()

	page, err := f.posts.Query(ctx, stores.PostQuery{
		Limit:      pageSize,
		StartAfter: oldestTimestamp(sess.Posts.Get()),
	})
	if err != nil {
		sess.SetError(err.Error())
		return nil, err
	}

	feed := mergeByID(sess.Posts.Get(), page)
	sess.Posts.Set(feed)
	sess.ClearBusy()
	return feed, nil
}

// LoadFollowingFeed assembles the feed of the given authors. The author
// list is partitioned into chunks of the store's `in` ceiling and one
// time-ordered query runs per chunk. A failed chunk never discards results
// already obtained from the others; it surfaces as a PartialBatchError
// alongside the merged partial feed.
func (f *FeedAssembler) LoadFollowingFeed(ctx context.Context, sess *session.Session, pageSize int, reset bool, followedIDs []string) ([]models.Post, error) {
	sess.SetLoading()

	if len(followedIDs) == 0 {
		// following nobody is an empty feed, not an error
		sess.FollowingPosts.Set([]models.Post{})
		sess.ClearBusy()
		return []models.Post{}, nil
	}

	// warm the identity cache for the authors about to appear
	sess.Cache.GetMany(ctx, followedIDs)

	var fetched []models.Post
	var lastErr error
	failed := 0
	chunks := chunkIDs(followedIDs, stores.InQueryCeiling)
	for _, chunk := range chunks {
		page, err := f.posts.Query(ctx, stores.PostQuery{
			AuthorIDs: chunk,
			Limit:     pageSize,
		})
		if err != nil {
			f.logger.Printf("following feed chunk failed: %v", err)
			failed++
			lastErr = err
			continue
		}
		fetched = append(fetched, page...)
	}
	sort.Slice(fetched, func(i, j int) bool { return fetched[i].Timestamp > fetched[j].Timestamp })

	var feed []models.Post
	if reset {
		feed = mergeByID(nil, fetched)
	} else {
		feed = mergeByID(sess.FollowingPosts.Get(), fetched)
		sort.SliceStable(feed, func(i, j int) bool { return feed[i].Timestamp > feed[j].Timestamp })
	}
	sess.FollowingPosts.Set(feed)

	if failed > 0 {
		batchErr := &models.PartialBatchError{Failed: failed, Total: len(chunks), Err: lastErr}
		sess.SetError(batchErr.Error())
		return feed, batchErr
	}
	sess.ClearBusy()
	return feed, nil
}

// LoadUserPosts loads a single author's posts newest-first. Always a full
// replace of the session's user-posts collection.
func (f *FeedAssembler) LoadUserPosts(ctx context.Context, sess *session.Session, userID string, limit int) ([]models.Post, error) {
	sess.SetLoading()

	posts, err := f.posts.Query(ctx, stores.PostQuery{AuthorIDs: []string{userID}, Limit: limit})
	if err != nil {
		sess.SetError(err.Error())
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	sess.UserPosts.Set(posts)
	sess.ClearBusy()
	return posts, nil
}

// mergeByID keeps existing order and appends incoming posts whose id is
// not already present. Callers merging a fresh page re-sort afterwards;
// older-page callers rely on incoming being older than everything held.
func mergeByID(existing, incoming []models.Post) []models.Post {
	seen := make(map[string]bool, len(existing))
	merged := make([]models.Post, 0, len(existing)+len(incoming))
	for _, post := range existing {
		if seen[post.PostID] {
			continue
		}
		seen[post.PostID] = true
		merged = append(merged, post)
	}
	for _, post := range incoming {
		if seen[post.PostID] {
			continue
		}
		seen[post.PostID] = true
		merged = append(merged, post)
	}
	return merged
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

func oldestTimestamp(posts []models.Post) int64 {
	oldest := int64(0)
	for _, post := range posts {
		if oldest == 0 || post.Timestamp < oldest {
			oldest = post.Timestamp
		}
	}
	return oldest
}
