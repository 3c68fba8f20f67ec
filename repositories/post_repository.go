package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/texty-app/texty_backend/models"
	"github.com/texty-app/texty_backend/session"
	"github.com/texty-app/texty_backend/stores"
)

// PostRepository runs CRUD and mutation operations on individual posts.
// Every mutation writes the remote store first and only then echoes the new
// state into the session's local collections, so a failed write never
// diverges the caches from the source of truth.
type PostRepository struct {
	posts   stores.PostStore
	reposts stores.RepostStore
}

// NewPostRepository creates a repository over the given stores.
func NewPostRepository(posts stores.PostStore, reposts stores.RepostStore) *PostRepository {
	return &PostRepository{posts: posts, reposts: reposts}
}

// Create validates and writes a new post, then pushes it into the
// session's feed collections. A post must carry a non-blank body or at
// least one media payload, and the body is bounded at models.MaxPostLength.
func (r *PostRepository) Create(ctx context.Context, sess *session.Session, req models.PostRequest) (models.Post, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.MediaBase64) == 0 {
		return models.Post{}, &models.ValidationError{Message: "post must contain a message or at least one image"}
	}
	if len(content) > models.MaxPostLength {
		return models.Post{}, &models.ValidationError{Message: fmt.Sprintf("post exceeds %d characters", models.MaxPostLength)}
	}

	post := models.NewPost(req.PostID, sess.UserID, content)
	post.MediaBase64 = append(post.MediaBase64, req.MediaBase64...)
	post.MediaTypes = append(post.MediaTypes, req.MediaTypes...)
	post.Hashtags = extractTags(content, "#")
	post.Mentions = extractTags(content, "@")
	post.Location = req.Location
	if req.PostType != "" {
		post.PostType = req.PostType
	}
	post.ParentPostID = req.ParentPostID

	if err := r.posts.Set(ctx, post); err != nil {
		return models.Post{}, err
	}

	current := post
	sess.CurrentPost.Set(&current)
	sess.AddOwnPost(post)
	return post, nil
}

// Get loads a single post and publishes it to the session's current-post
// slot.
func (r *PostRepository) Get(ctx context.Context, sess *session.Session, postID string) (models.Post, error) {
	post, err := r.posts.Get(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}
	current := post
	sess.CurrentPost.Set(&current)
	return post, nil
}

// Edit snapshots the live content into the edit history and writes the new
// content. The history is append-only; an edited post never returns to
// pristine.
func (r *PostRepository) Edit(ctx context.Context, sess *session.Session, postID, newContent string, newMedia []string) (models.Post, error) {
	post, err := r.posts.Get(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}

	record := models.EditRecord{
		EditTimestamp:       time.Now().UnixMilli(),
		PreviousContent:     post.Content,
		PreviousMediaBase64: post.MediaBase64,
	}
	post.Content = newContent
	post.MediaBase64 = append([]string{}, newMedia...)
	post.IsEdited = true
	post.EditHistory = append(post.EditHistory, record)

	err = r.posts.Update(ctx, postID, map[string]interface{}{
		"content":     post.Content,
		"mediaBase64": post.MediaBase64,
		"isEdited":    true,
		"editHistory": post.EditHistory,
	})
	if err != nil {
		return models.Post{}, err
	}

	sess.UpdatePostEverywhere(post)
	return post, nil
}

// Delete removes the post. Deleting an already-absent post is a no-op.
func (r *PostRepository) Delete(ctx context.Context, sess *session.Session, postID string) error {
	if err := r.posts.Delete(ctx, postID); err != nil {
		return err
	}
	sess.RemovePostEverywhere(postID)
	return nil
}

// ToggleLike flips userID's membership in the post's like set and echoes
// the result into every local collection holding a copy of the post.
func (r *PostRepository) ToggleLike(ctx context.Context, sess *session.Session, postID, userID string) (models.Post, error) {
	post, err := r.posts.Get(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}

	post.Likes = toggleMember(post.Likes, userID)
	if err := r.posts.Update(ctx, postID, map[string]interface{}{"likes": post.Likes}); err != nil {
		return models.Post{}, err
	}

	sess.UpdatePostEverywhere(post)
	return post, nil
}

// IncrementView counts one view per (post, user) pair. A user already in
// the viewer set never inflates the count again; the viewer append and the
// count increment land in the same write.
func (r *PostRepository) IncrementView(ctx context.Context, sess *session.Session, postID, userID string) (models.Post, error) {
	post, err := r.posts.Get(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}
	if contains(post.Viewers, userID) {
		return post, nil
	}

	post.ViewCount++
	post.Viewers = append(post.Viewers, userID)
	err = r.posts.Update(ctx, postID, map[string]interface{}{
		"viewCount": post.ViewCount,
		"viewers":   post.Viewers,
	})
	if err != nil {
		return models.Post{}, err
	}

	sess.UpdatePostEverywhere(post)
	return post, nil
}

// AddComment appends a top-level comment to the post's embedded list.
func (r *PostRepository) AddComment(ctx context.Context, sess *session.Session, postID, userID, content string) (models.Post, error) {
	post, err := r.posts.Get(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}

	comment := newComment(postID, userID, content, "")
	post.Comments = append(post.Comments, comment)
	if err := r.updateComments(ctx, sess, &post); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// AddReply appends a reply under an existing top-level comment. Replies of
// replies are flattened into the same list; the parent comment must exist
// in the post at the time of the write.
func (r *PostRepository) AddReply(ctx context.Context, sess *session.Session, postID, userID, parentCommentID, content string) (models.Post, error) {
	post, err := r.posts.Get(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}

	parentIdx := -1
	for i, c := range post.Comments {
		if c.CommentID == parentCommentID {
			parentIdx = i
			break
		}
	}
	if parentIdx < 0 {
		return models.Post{}, &models.NotFoundError{Kind: "comment", ID: parentCommentID}
	}

	reply := newComment(postID, userID, content, parentCommentID)
	post.Comments[parentIdx].Replies = append(post.Comments[parentIdx].Replies, reply)
	if err := r.updateComments(ctx, sess, &post); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// DeleteComment removes the comment only when the requester authored it.
// A mismatched requester degenerates to a silent no-op rather than a
// permission error.
func (r *PostRepository) DeleteComment(ctx context.Context, sess *session.Session, postID, commentID, userID string) (models.Post, error) {
	post, err := r.posts.Get(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}

	kept := make([]models.Comment, 0, len(post.Comments))
	for _, c := range post.Comments {
		if c.CommentID == commentID && c.CommenterID == userID {
			continue
		}
		kept = append(kept, c)
	}
	post.Comments = kept
	if err := r.updateComments(ctx, sess, &post); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// ToggleCommentLike flips userID's membership in one embedded comment's
// like set, with the same semantics as a post-level like.
func (r *PostRepository) ToggleCommentLike(ctx context.Context, sess *session.Session, postID, commentID, userID string) (models.Post, error) {
	post, err := r.posts.Get(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}

	found := false
	for i, c := range post.Comments {
		if c.CommentID == commentID {
			post.Comments[i].Likes = toggleMember(c.Likes, userID)
			found = true
			break
		}
	}
	if !found {
		return models.Post{}, &models.NotFoundError{Kind: "comment", ID: commentID}
	}

	if err := r.updateComments(ctx, sess, &post); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// Repost reshapes a post. A plain reshare records a Repost under the
// original and appends the repost id to the original's repost list; a quote
// additionally creates a brand-new QUOTE post referencing the original and
// appends that post's id instead.
func (r *PostRepository) Repost(ctx context.Context, sess *session.Session, postID, userID string, repostType models.RepostType, comment string) (models.Post, error) {
	original, err := r.posts.Get(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}

	if repostType == models.RepostTypeRetweet {
		repost := models.Repost{
			RepostID:       uuid.New().String(),
			OriginalPostID: postID,
			ReposterID:     userID,
			Timestamp:      time.Now().UnixMilli(),
			RepostType:     models.RepostTypeRetweet,
		}
		if err := r.reposts.Put(ctx, repost); err != nil {
			return models.Post{}, err
		}
		original.Reposts = append(original.Reposts, repost.RepostID)
	} else {
		quote := models.NewPost("", userID, comment)
		quote.PostType = models.PostTypeQuote
		quote.ParentPostID = postID
		if err := r.posts.Set(ctx, quote); err != nil {
			return models.Post{}, err
		}
		original.Reposts = append(original.Reposts, quote.PostID)
	}

	if err := r.posts.Update(ctx, postID, map[string]interface{}{"reposts": original.Reposts}); err != nil {
		return models.Post{}, err
	}

	sess.UpdatePostEverywhere(original)
	return original, nil
}

// IsRepostedBy reports whether userID has plain-reshared the post. The
// repost indicator is best-effort UI decoration: any read error yields
// false.
func (r *PostRepository) IsRepostedBy(ctx context.Context, postID, userID string) bool {
	reposts, err := r.reposts.List(ctx, postID)
	if err != nil {
		return false
	}
	for _, repost := range reposts {
		if repost.ReposterID == userID && repost.RepostType == models.RepostTypeRetweet {
			return true
		}
	}
	return false
}

func (r *PostRepository) updateComments(ctx context.Context, sess *session.Session, post *models.Post) error {
	err := r.posts.Update(ctx, post.PostID, map[string]interface{}{"comments": post.Comments})
	if err != nil {
		return err
	}
	sess.UpdatePostEverywhere(*post)
	return nil
}

func newComment(postID, userID, content, parentCommentID string) models.Comment {
	return models.Comment{
		CommentID:       fmt.Sprintf("%d_%s", time.Now().UnixMilli(), userID),
		PostID:          postID,
		CommenterID:     userID,
		Content:         content,
		Timestamp:       time.Now().UnixMilli(),
		Likes:           []string{},
		Replies:         []models.Comment{},
		ParentCommentID: parentCommentID,
	}
}

func toggleMember(set []string, member string) []string {
	for i, m := range set {
		if m == member {
			return append(append([]string{}, set[:i]...), set[i+1:]...)
		}
	}
	return append(append([]string{}, set...), member)
}

func contains(set []string, member string) bool {
	for _, m := range set {
		if m == member {
			return true
		}
	}
	return false
}

func extractTags(content, prefix string) []string {
	tags := []string{}
	for _, word := range strings.Fields(content) {
		if strings.HasPrefix(word, prefix) && len(word) > 1 {
			tags = append(tags, strings.TrimRight(word[1:], ".,!?:;"))
		}
	}
	return tags
}
