// Package stores defines the narrow contracts the engine consumes from the
// document store (posts) and the realtime tree store (users, notifications,
// reposts), plus the concrete adapters backing them.
package stores

import (
	"context"

	"github.com/texty-app/texty_backend/models"
)

// InQueryCeiling is the document store's upper bound on how many author ids
// a single `in` filter can match. Feed queries over larger follow lists are
// chunked at this size. External constraint, not a tunable.
const InQueryCeiling = 10

// PostQuery selects posts ordered by timestamp descending.
type PostQuery struct {
	// AuthorIDs restricts the query to these authors via an `in` filter.
	// Empty means all authors. Callers must keep it at or under
	// InQueryCeiling per query.
	AuthorIDs []string
	Limit     int
	// StartAfter is an exclusive timestamp cursor for pagination; zero
	// means start from the newest post.
	StartAfter int64
}

// PostStore is the document-store contract for posts.
type PostStore interface {
	// Get returns the post or a *models.NotFoundError.
	Get(ctx context.Context, postID string) (models.Post, error)
	// Set writes the full record, creating or replacing it.
	Set(ctx context.Context, post models.Post) error
	// Update writes only the named fields of an existing record.
	Update(ctx context.Context, postID string, fields map[string]interface{}) error
	// Delete removes the record; deleting an absent record is not an error.
	Delete(ctx context.Context, postID string) error
	// Query returns posts matching q, newest first.
	Query(ctx context.Context, q PostQuery) ([]models.Post, error)
}

// UserStore is the tree-store contract for users/{id} records.
type UserStore interface {
	// GetUser reads a profile. A missing path yields the zero User with
	// ok=false and no error.
	GetUser(ctx context.Context, userID string) (models.User, bool, error)
	// SaveUser writes the full profile subtree.
	SaveUser(ctx context.Context, user models.User) error
	// SetFollowing replaces users/{id}/following.
	SetFollowing(ctx context.Context, userID string, following []string) error
	// SetFollowers replaces users/{id}/followers.
	SetFollowers(ctx context.Context, userID string, followers []string) error
	// ListUsers reads every profile under users/.
	ListUsers(ctx context.Context) ([]models.User, error)
}

// NotificationStore is the tree-store contract for
// notifications/{userId}/{notificationId} records.
type NotificationStore interface {
	Put(ctx context.Context, n models.Notification) error
	// List returns the user's inbox; a missing path is an empty inbox.
	List(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// RepostStore is the tree-store contract for reposts/{postId}/{repostId}
// records.
type RepostStore interface {
	Put(ctx context.Context, r models.Repost) error
	// List returns all reposts of a post; a missing path is an empty list.
	List(ctx context.Context, postID string) ([]models.Repost, error)
}
